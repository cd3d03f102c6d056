package http

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// logRequest logs every request with its duration. Requests taking
// longer than two seconds are flagged as slow.
func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)

		fields := logrus.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"duration":  duration,
			"remote_ip": r.RemoteAddr,
		}
		if duration > 2*time.Second {
			logrus.WithFields(fields).Warn("Slow request detected")
		} else {
			logrus.WithFields(fields).Info("Request completed")
		}
	})
}
