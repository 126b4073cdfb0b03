package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// LoggingMiddleware logs every request with its duration.
func LoggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	logger = logger.WithPrefix("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("Request", "method", r.Method, "uri", r.RequestURI, "duration", time.Since(start))
		})
	}
}
