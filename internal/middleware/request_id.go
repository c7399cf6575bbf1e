package middleware

import (
	"context"
	"crypto/rand"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestIDKey is the header carrying the request id in both directions.
const RequestIDKey = "X-Request-ID"

type requestIDContextKey struct{}

// RequestID returns the id assigned to the request, or "unknown".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey{}).(string); ok && id != "" {
		return id
	}
	return "unknown"
}

// NewULIDFromTimestamp creates a monotonic ULID for t.
func NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// RequestIDMiddleware reuses an incoming X-Request-ID or assigns a ULID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDKey)
		if requestID == "" {
			requestID, _ = NewULIDFromTimestamp(time.Now())
		}

		w.Header().Set(RequestIDKey, requestID)
		ctx := context.WithValue(r.Context(), requestIDContextKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
