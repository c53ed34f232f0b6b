package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/Vazimax/BuyMin/logger"
)

// APIKeyHeader carries the ingestion key.
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware protects ingestion endpoints.
// Requests must carry the configured key in the X-API-Key header. An empty
// key disables the check.
func APIKeyMiddleware(expectedKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expectedKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expectedKey)) != 1 {
				logger.Warn("Rejected request with invalid API key", "path", r.URL.Path, "remote", r.RemoteAddr)
				http.Error(w, "Forbidden: Invalid API Key", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
