package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/plasa/shopper-settlement/api/validators"
	"github.com/plasa/shopper-settlement/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	maxRequestIDLen = 128
)

// RequestID adopts the caller's X-Request-Id (trimmed and capped) or mints a
// uuid, echoes it on the response and stores it on the context.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := validators.SanitizeString(r.Header.Get(requestIDHeader), maxRequestIDLen)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			if logg != nil {
				r = r.WithContext(logg.WithRequestID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
