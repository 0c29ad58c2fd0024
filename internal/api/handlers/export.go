package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"status-monitor-api/internal/history"
	"status-monitor-api/internal/registry"
)

// ExportHandler dumps raw ledger rows for offline analysis.
type ExportHandler struct {
	Registry *registry.Registry
	History  *history.Store
}

// Extract serves /extract?get=all|<service>. "all" (or the legacy
// "outage" selector) exports the whole ledger; a service name exports
// that service's partition. Anything else is 404.
func (h *ExportHandler) Extract(w http.ResponseWriter, r *http.Request) {
	selector := r.URL.Query().Get("get")

	var rows []history.Row
	var err error
	switch {
	case strings.EqualFold(selector, "all") || strings.EqualFold(selector, "outage"):
		rows, err = h.History.ExportAll(r.Context())
	case h.Registry.Contains(selector):
		rows, err = h.History.Export(r.Context(), selector)
	default:
		writeDetail(w, http.StatusNotFound, detailUnknownService)
		return
	}

	if err != nil {
		log.Error().Err(err).Str("selector", selector).Msg("Failed to export ledger")
		writeDetail(w, http.StatusInternalServerError, "export unavailable")
		return
	}
	if rows == nil {
		rows = []history.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}
