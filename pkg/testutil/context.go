package testutil

import (
	"net/http"
	"time"

	"cetrack/pkg/requestcontext"
)

// WithRequestTime pins the request-scoped clock on a request.
// This simulates what the middleware chain plus a frozen clock would do, so
// handler tests get deterministic "now" behavior.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}
