package auth

import (
	"encoding/json"
	"net/http"
)

// HeaderAdminToken carries the shared admin secret.
const HeaderAdminToken = "X-Admin-Token"

// AdminOnly gates a route group on the shared-secret header.
func AdminOnly(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Authorize(r.Header.Get(HeaderAdminToken)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
