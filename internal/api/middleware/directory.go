package middleware

import (
	"context"
	"net/http"

	"github.com/whoyou/whoyou/internal/credential"
	"github.com/whoyou/whoyou/internal/directory"
)

const directoryKey contextKey = "directory"

// WithDirectory is middleware that creates one Directory instance per
// request. The instance owns the request-scoped name cache; it is discarded
// with the request, so no invalidation is ever needed.
func WithDirectory(store directory.Store, hasher *credential.Hasher, allowPasswordless bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := directory.New(store, hasher, allowPasswordless)
			ctx := context.WithValue(r.Context(), directoryKey, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDirectory retrieves the request's Directory from the context.
func GetDirectory(ctx context.Context) *directory.Directory {
	if d, ok := ctx.Value(directoryKey).(*directory.Directory); ok {
		return d
	}
	return nil
}
