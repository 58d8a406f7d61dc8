package user

import "errors"

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// ErrPasswordTooLong covers multi-byte passwords that pass the rune
	// based length rule but exceed MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password too long")
)
