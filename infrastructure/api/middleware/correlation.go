package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/helixml/dokit/internal/log"
)

// CorrelationIDHeader is the HTTP header carrying the correlation ID.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID propagates a correlation ID through the request context.
// Incoming IDs are reused so callers can trace requests across services;
// without one the chi request ID is promoted instead.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = chimiddleware.GetReqID(r.Context())
		}

		ctx := log.WithCorrelationID(r.Context(), id)
		w.Header().Set(CorrelationIDHeader, id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
