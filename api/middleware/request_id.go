package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/localloop/localloop-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// maxRequestIDLength caps inbound ids so a hostile client cannot stuff the
// logs with arbitrarily long correlation values.
const maxRequestIDLength = 64

func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if reqID == "" || len(reqID) > maxRequestIDLength {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
