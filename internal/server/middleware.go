package server

import (
	"context"
	"net/http"
	"strings"

	errx "github.com/lawgraph-core/server/internal/core/error"
)

type contextKey int

const userKey contextKey = iota

func userFrom(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}

// withAuth resolves the bearer token to a user before any chat handler runs.
// Failed lookups are reported as ownership failures, not as missing accounts.
func (h *Handler) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeError(w, errx.Unauthorized("missing bearer token"))
			return
		}

		user, err := h.store.UserByAPIKey(r.Context(), token)
		if err != nil {
			writeError(w, errx.Unauthorized("invalid credentials"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}
