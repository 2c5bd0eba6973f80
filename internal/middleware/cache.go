package middleware

import (
	"net/http"
)

// NoStore sets strict no-cache headers on every response. Results pages poll
// for analysis status and must never see a cached payload; the same policy is
// applied everywhere since the API carries health data throughout.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
