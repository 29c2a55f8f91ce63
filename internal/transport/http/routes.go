package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	// базовые middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// наш логгер (после RequestID)
	r.Use(RequestLogger)

	r.Get("/health", h.Health)

	r.Route("/batches", func(r chi.Router) {
		r.Post("/", h.StartBatch)
		r.Route("/current", func(r chi.Router) {
			r.Get("/", h.GetCurrent)
			r.Delete("/", h.Reset)
			r.Post("/pause", h.Pause)
			r.Post("/resume", h.Resume)
			r.Post("/cancel", h.Cancel)
			r.Post("/retry-failed", h.RetryFailed)
			r.Get("/events", h.Events)
			r.Get("/jobs/{id}/result", h.GetJobResult)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
