package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Context keys
type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID tags each request with a unique id for log correlation
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request id from the context, if any
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ConcurrencyLimiter bounds how many requests are handled at once. A request
// arriving while every slot is busy waits up to the configured timeout, then
// is rejected; waiting never blocks other in-flight requests.
type ConcurrencyLimiter struct {
	slots       chan struct{}
	waitTimeout time.Duration
}

// NewConcurrencyLimiter creates a limiter with the given slot count
func NewConcurrencyLimiter(maxConcurrent int, waitTimeout time.Duration) *ConcurrencyLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if waitTimeout <= 0 {
		waitTimeout = 5 * time.Second
	}
	return &ConcurrencyLimiter{
		slots:       make(chan struct{}, maxConcurrent),
		waitTimeout: waitTimeout,
	}
}

// Limit wraps a handler with slot acquisition
func (l *ConcurrencyLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := time.NewTimer(l.waitTimeout)
		defer timer.Stop()

		select {
		case l.slots <- struct{}{}:
			defer func() { <-l.slots }()
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// Caller gave up while waiting
			writeError(w, http.StatusServiceUnavailable, "request cancelled")
		case <-timer.C:
			writeError(w, http.StatusServiceUnavailable, "server is at capacity, retry later")
		}
	})
}
