package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"status-monitor-api/internal/webhook"
)

// WebhookHandler manages webhook CRUD.
type WebhookHandler struct {
	Registry *webhook.Registry
}

type createWebhookRequest struct {
	CallbackURL     string   `json:"callback_url"`
	TrackedServices []string `json:"tracked_services"`
	Password        string   `json:"password"`
}

type mutateWebhookRequest struct {
	webhook.Patch
	Password string `json:"password"`
}

// Create registers a new webhook. An empty tracked_services list
// subscribes it to every currently known service.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.CallbackURL == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "callback_url and password are required")
		return
	}

	hook, err := h.Registry.Create(r.Context(), req.CallbackURL, req.TrackedServices, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hook.ToDTO())
}

// Update applies a partial update after checking existence, then the
// credential.
func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.hookID(w, r)
	if !ok {
		return
	}

	var req mutateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json")
		return
	}

	hook, err := h.Registry.Update(r.Context(), id, req.Patch, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hook.ToDTO())
}

// Delete removes a webhook permanently.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.hookID(w, r)
	if !ok {
		return
	}

	var req mutateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json")
		return
	}

	if err := h.Registry.Delete(r.Context(), id, req.Password); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// hookID parses the id path parameter. A non-numeric id means the
// webhook can't exist, so it answers 404 rather than a validation
// error.
func (h *WebhookHandler) hookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, detailWebhookNotFound)
		return 0, false
	}
	return id, true
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, webhook.ErrNotFound):
		writeDetail(w, http.StatusNotFound, detailWebhookNotFound)
	case errors.Is(err, webhook.ErrForbidden):
		writeDetail(w, http.StatusForbidden, detailWebhookWrongPassword)
	case errors.Is(err, webhook.ErrUnknownService):
		writeDetail(w, http.StatusBadRequest, detailWebhookUnknownService)
	default:
		log.Error().Err(err).Msg("Webhook registry failure")
		writeDetail(w, http.StatusInternalServerError, "db error")
	}
}
