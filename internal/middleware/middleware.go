package middleware

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"horsecounter/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Chain applies middlewares so the first one listed runs outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":      message,
		"request_id": RequestID(r.Context()),
	})
}

// RecoverMiddleware turns handler panics into a 500 response.
func RecoverMiddleware(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
					writeJSONError(w, r, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
