// internal/api/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/siftquant/sift/internal/api/response"
	"github.com/siftquant/sift/internal/core"
)

// APIKeyAuth returns middleware that validates the X-API-Key header against
// the configured key. An empty configured key disables authentication.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrUnauthorized, fmt.Errorf("no X-API-Key header")))
				return
			}

			// Constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrUnauthorized, fmt.Errorf("key mismatch")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
