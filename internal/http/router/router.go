// Package router assembles the service's HTTP handler: student routes,
// health and metrics endpoints, wrapped in the middleware chain.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records/internal/http/handlers/health"
	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/service"
)

// New returns the root handler.
//
// Route table:
//
//	POST   /students        create a student
//	GET    /students        list students (country, minAge filters)
//	GET    /students/{id}   get one student
//	PATCH  /students/{id}   partially update a student
//	DELETE /students/{id}   delete a student
//	GET    /healthz         store ping
//	GET    /metrics         Prometheus metrics
func New(svc *service.Service, store health.Pinger, m *metrics.Metrics, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	student.Register(mux, svc, log)
	mux.HandleFunc("GET /healthz", health.Handler(store, log))
	mux.Handle("GET /metrics", m.Handler())

	return middleware.RequestID(middleware.Logging(log, m)(mux))
}
