// FilePath: api/middleware/api.middleware.auth.go
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/floodwatch/hub/internal/errors"
)

// DeviceTokenConfig carries the shared secret field devices present
// when pushing readings. An empty token disables the check, which is
// the expected mode for LAN-only deployments.
type DeviceTokenConfig struct {
	Token string
}

type DeviceTokenMiddleware struct {
	config DeviceTokenConfig
}

func NewDeviceTokenMiddleware(config DeviceTokenConfig) *DeviceTokenMiddleware {
	return &DeviceTokenMiddleware{config: config}
}

// Authenticate verifies the device token from the Authorization
// bearer header or the X-Device-Token header.
func (m *DeviceTokenMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.config.Token == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewValidationError("no device token provided", nil))
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.config.Token)) != 1 {
			handleError(w, errors.NewValidationError("invalid device token", nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("X-Device-Token"); header != "" {
		return header
	}
	bearerToken := r.Header.Get("Authorization")
	if parts := strings.Split(bearerToken, " "); len(parts) == 2 {
		return parts[1]
	}
	return ""
}

func handleError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*errors.APIError); ok {
		http.Error(w, apiErr.Message, http.StatusUnauthorized)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
