package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/cmlabs-hris/attendance-sync-go/internal/handler/http/response"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminKeyRequired guards operator endpoints with a shared key. An empty key
// disables the endpoints entirely.
func AdminKeyRequired(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				response.Forbidden(w, "Admin endpoints are disabled")
				return
			}

			given := r.Header.Get(AdminKeyHeader)
			if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				response.Unauthorized(w, "Invalid admin key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
