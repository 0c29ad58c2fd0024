package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"status-monitor-api/internal/history"
	"status-monitor-api/internal/registry"
)

// ReportHandler records end-user status reports. Reports are trusted
// input: a "down" report is stored without re-probing the target.
type ReportHandler struct {
	Registry *registry.Registry
	History  *history.Store
}

// Process handles /process?choice=yes|no&service=X. "yes" means the
// service works for the reporter, "no" means it is down for them too.
func (h *ReportHandler) Process(w http.ResponseWriter, r *http.Request) {
	choice := r.URL.Query().Get("choice")
	service := r.URL.Query().Get("service")

	var up bool
	var message string
	switch choice {
	case "yes":
		up = true
		message = "Great! The website is working for you."
	case "no":
		up = false
		message = "The website is down for me too."
	default:
		writeDetail(w, http.StatusBadRequest, "Invalid choice or no choice provided")
		return
	}

	if !h.Registry.Contains(service) {
		writeDetail(w, http.StatusNotFound, detailUnknownService)
		return
	}

	now := time.Now()
	if err := h.History.Append(r.Context(), service, now.Unix(), up, history.OriginUserReport); err != nil {
		log.Error().Err(err).Str("service", service).Msg("Failed to store user report")
		writeDetail(w, http.StatusInternalServerError, "could not store report")
		return
	}

	log.Info().
		Str("service", service).
		Bool("reported_up", up).
		Msg("User report recorded")
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}
