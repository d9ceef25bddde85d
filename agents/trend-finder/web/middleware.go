package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"trend-finder/shared/logger"
)

// requestLogger logs one line per HTTP request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry := logger.Log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      status,
			"size":        ww.BytesWritten(),
			"duration":    time.Since(start),
			"request_id":  middleware.GetReqID(r.Context()),
			"remote_addr": r.RemoteAddr,
		})
		// The page polls itself while a run is in flight.
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" || r.URL.Path == "/" {
			entry.Debug("http request")
			return
		}
		entry.Info("http request")
	})
}
