package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"status-monitor-api/internal/history"
	"status-monitor-api/internal/registry"
)

// ServiceHandler serves the read-only service query surface.
type ServiceHandler struct {
	Registry     *registry.Registry
	HistoryStore *history.Store
}

// Overview lists the names of all tracked services.
func (h *ServiceHandler) Overview(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Registry.Names())
}

// AllStatuses maps every service name to its current up/down state.
func (h *ServiceHandler) AllStatuses(w http.ResponseWriter, _ *http.Request) {
	services := h.Registry.All()
	out := make(map[string]bool, len(services))
	for _, svc := range services {
		out[svc.Name] = svc.Up
	}
	writeJSON(w, http.StatusOK, out)
}

// Status returns the up/down state of one service.
func (h *ServiceHandler) Status(w http.ResponseWriter, r *http.Request) {
	svc, err := h.Registry.Get(chi.URLParam(r, "service"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, detailUnknownService)
		return
	}
	writeJSON(w, http.StatusOK, svc.Up)
}

// AllDetails maps every service name to its full record.
func (h *ServiceHandler) AllDetails(w http.ResponseWriter, _ *http.Request) {
	services := h.Registry.All()
	out := make(map[string]registry.ServiceDTO, len(services))
	for _, svc := range services {
		out[svc.Name] = svc.ToDTO()
	}
	writeJSON(w, http.StatusOK, out)
}

// Details returns the full record of one service.
func (h *ServiceHandler) Details(w http.ResponseWriter, r *http.Request) {
	svc, err := h.Registry.Get(chi.URLParam(r, "service"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, detailUnknownService)
		return
	}
	writeJSON(w, http.StatusOK, svc.ToDTO())
}

type uptimeDTO struct {
	Up   float64 `json:"up"`
	Down float64 `json:"down"`
}

type serviceHistoryDTO struct {
	Checks      []history.Observation `json:"checks"`
	UserReports []history.Observation `json:"user_reports"`
	Uptime      *uptimeDTO            `json:"uptime"`
}

// History returns recent automated checks, recent user reports and
// the uptime ratio for one service. Uptime is null until the service
// has at least one automated observation.
func (h *ServiceHandler) History(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "service")
	if !h.Registry.Contains(name) {
		writeDetail(w, http.StatusNotFound, detailUnknownService)
		return
	}
	ctx := r.Context()

	checks, err := h.HistoryStore.Latest(ctx, name, history.DefaultLatestLimit)
	if err != nil {
		log.Error().Err(err).Str("service", name).Msg("Failed to load check history")
		writeDetail(w, http.StatusInternalServerError, "history unavailable")
		return
	}

	reports, err := h.HistoryStore.LatestUserReports(ctx, name, history.UserReportWindow, history.DefaultUserReportLimit)
	if err != nil {
		log.Error().Err(err).Str("service", name).Msg("Failed to load user reports")
		writeDetail(w, http.StatusInternalServerError, "history unavailable")
		return
	}

	out := serviceHistoryDTO{
		Checks:      orEmpty(checks),
		UserReports: orEmpty(reports),
	}

	ratio, err := h.HistoryStore.UptimeRatio(ctx, name)
	switch {
	case err == nil:
		out.Uptime = &uptimeDTO{Up: ratio, Down: 1 - ratio}
	case errors.Is(err, history.ErrNoObservations):
		// undefined, reported as null
	default:
		log.Error().Err(err).Str("service", name).Msg("Failed to compute uptime ratio")
		writeDetail(w, http.StatusInternalServerError, "history unavailable")
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func orEmpty(obs []history.Observation) []history.Observation {
	if obs == nil {
		return []history.Observation{}
	}
	return obs
}
