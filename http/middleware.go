package http

import (
	"net/http"

	"github.com/dirserve/dirserve/credentials"
)

// BasicAuthMiddleware creates middleware that enforces HTTP basic
// authentication against the given account store. Pass nil to disable
// authentication (public access).
func BasicAuthMiddleware(store credentials.Store) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if ok {
				if cred, found := store.Lookup(username); found && cred.Verify(password) {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("WWW-Authenticate", `Basic realm="dirserve"`)
			WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
		})
	}
}
