package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/attendance-sync-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type deviceIDKey struct{}

// DeviceAuthRequired accepts only device bearer tokens and stores the device ID
// in the request context.
func DeviceAuthRequired(tokens jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			tokenString := jwtauth.TokenFromHeader(r)
			if tokenString == "" {
				response.Unauthorized(w, "Device token required")
				return
			}

			deviceID, err := tokens.ValidateDeviceToken(tokenString)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired device token")
				return
			}

			ctx := context.WithValue(r.Context(), deviceIDKey{}, deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

// DeviceIDFromContext returns the device authenticated by DeviceAuthRequired.
func DeviceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceIDKey{}).(string)
	return id, ok && id != ""
}
