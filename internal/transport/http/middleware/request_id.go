package middleware

import (
	"net/http"

	"github.com/google/uuid"

	appCtx "github.com/baechuer/contacts-api/internal/pkg/context"
)

const HeaderXRequestID = "X-Request-Id"

// RequestID reuses the caller's X-Request-Id or mints one, and echoes it back.
// The client IP is stored alongside it for audit lines.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderXRequestID)
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}

		w.Header().Set(HeaderXRequestID, reqID)

		ctx := appCtx.WithRequestID(r.Context(), reqID)
		ctx = appCtx.WithClientIP(ctx, clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
