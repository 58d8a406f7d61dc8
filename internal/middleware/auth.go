package middleware

import (
	"net/http"

	"zapas-be/internal/auth"
	"zapas-be/internal/utils"
)

// TokenParser is implemented by auth.Manager.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Auth attaches the caller's identity to the request context when a valid
// access token is present. It never rejects a request; routes that need a
// user enforce that themselves.
func Auth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.ExtractAccessToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.Subject, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
