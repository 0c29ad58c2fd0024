package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"status-monitor-api/internal/api/handlers"
	"status-monitor-api/internal/logging"
)

// NewRouter wires HTTP routes to handlers.
func NewRouter(
	sh *handlers.ServiceHandler,
	rh *handlers.ReportHandler,
	wh *handlers.WebhookHandler,
	eh *handlers.ExportHandler,
	ch *handlers.RecheckHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.HTTPLogger)

	r.Get("/api/health", handlers.Health)

	r.Route("/api/services", func(r chi.Router) {
		r.Get("/overview", sh.Overview)
		r.Get("/up/all", sh.AllStatuses)
		r.Get("/up/{service}", sh.Status)
		r.Get("/all", sh.AllDetails)
		r.Get("/{service}", sh.Details)
		r.Get("/{service}/history", sh.History)
	})

	r.Post("/api/webhooks", wh.Create)
	r.Patch("/api/webhooks/{id}", wh.Update)
	r.Delete("/api/webhooks/{id}", wh.Delete)

	r.Post("/api/recheck", ch.Recheck)

	r.Get("/process", rh.Process)
	r.Get("/extract", eh.Extract)

	r.NotFound(handlers.NotFound)

	return r
}
