package api

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		entry := s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"route":       routeLabel(r.URL.Path),
			"status":      recorder.status,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		})

		switch {
		case recorder.status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case recorder.status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request processed")
		}
	})
}
