package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/whoyou/whoyou/internal/api/render"
	"github.com/whoyou/whoyou/internal/directory"
)

const loginKey contextKey = "login"

// AnonymousAccountName is the account used for requests without
// credentials when passwordless login is enabled.
const AnonymousAccountName = "anonymous"

// Auth is middleware that authenticates the caller with HTTP Basic
// credentials against the directory. Requests without credentials fall back
// to the anonymous account when passwordless login is enabled, and are
// challenged otherwise.
func Auth(allowPasswordless bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())
			format, _ := render.Negotiate(r, 0, false)
			d := GetDirectory(r.Context())

			name, password, ok := r.BasicAuth()
			if !ok {
				if !allowPasswordless {
					render.Challenge(w, format, "credentials required", requestID)
					return
				}
				name, password = AnonymousAccountName, ""
			}

			login, err := d.Authenticate(r.Context(), name, password)
			if err != nil {
				if errors.Is(err, directory.ErrAccountNotFound) || errors.Is(err, directory.ErrInvalidCredential) {
					render.Challenge(w, format, "invalid credentials", requestID)
					return
				}
				render.Error(w, format, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), loginKey, login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLogin retrieves the authenticated login account from the context.
func GetLogin(ctx context.Context) *directory.Account {
	if a, ok := ctx.Value(loginKey).(*directory.Account); ok {
		return a
	}
	return nil
}
