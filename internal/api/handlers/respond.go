package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeDetail emits the {"detail": ...} error body used across the API.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

const (
	detailUnknownService = "The requested service is not tracked by this application. " +
		"Please verify the listed services at '/api/services/overview'."
	detailUnknownURL = "Sorry, could not find that URL. Please check the API documentation."

	detailWebhookUnknownService = "One or more of the services listed as those to track aren't tracked " +
		"by the application. Please verify the listed services at '/api/services/overview'."
	detailWebhookWrongPassword = "The given password does not correspond to the one given when creating " +
		"the webhook. If entered manually, please verify you made no typo."
	detailWebhookNotFound = "The webhook for which modifications were asked can't be found."
)
