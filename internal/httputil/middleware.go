package httputil

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/go-sod/sidx/internal/logging"
)

const RequestIDHeader = "X-Request-Id"

// WithRequestID tags every request with an id, taken from the incoming
// header when present, and attaches it to the request logger.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := r.Context()
		logger := logging.FromContext(ctx).With("request_id", id)
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(ctx, logger)))
	})
}
