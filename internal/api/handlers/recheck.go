package handlers

import "net/http"

// RecheckHandler lets operators request an immediate check cycle.
// Services probed more recently than their due interval are still
// skipped, so a trigger can never double-probe.
type RecheckHandler struct {
	// Trigger is the scheduler's manual-trigger channel; nil when
	// the process runs degraded (single-instance lock not held).
	Trigger chan struct{}
}

// Recheck queues one extra cycle without blocking.
func (h *RecheckHandler) Recheck(w http.ResponseWriter, _ *http.Request) {
	if h.Trigger == nil {
		writeDetail(w, http.StatusServiceUnavailable, "scheduler is not running on this instance")
		return
	}
	select {
	case h.Trigger <- struct{}{}:
	default:
		// A recheck is already queued; coalesce.
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recheck queued"})
}
