package middleware

import (
	"net/http"
	"time"

	"go-clinic-agenda/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs each request and feeds the HTTP metrics. Paths are
// reported by route template so ids do not explode label cardinality.
func RequestLogger(log *logrus.Logger, metrics *service.MetricsService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}
			elapsed := time.Since(start)
			metrics.ObserveHTTPRequest(r.Method, path, rec.status, elapsed)

			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     path,
				"status":   rec.status,
				"duration": elapsed.String(),
			}).Info("http request")
		})
	}
}
