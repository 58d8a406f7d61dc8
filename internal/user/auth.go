package user

import (
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is compared against when the email is unknown so a failed login
// costs the same whether or not the account exists.
var dummyHash = sync.OnceValue(func() string {
	h, _ := HashPassword("zapas-placeholder-password")
	return h
})

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
