package webhook

import "time"

// Webhook is stored in DB. TrackedServices is always the expanded
// set: an empty list supplied at create/update time is replaced by
// the full catalog before the record is written.
type Webhook struct {
	ID              int64
	CallbackURL     string
	TrackedServices []string
	PasswordHash    string
	CreatedAt       time.Time
}

// WebhookDTO is sent over the API. The credential hash never leaves
// the registry.
type WebhookDTO struct {
	ID              int64    `json:"id"`
	CallbackURL     string   `json:"callback_url"`
	TrackedServices []string `json:"tracked_services"`
}

func (w Webhook) ToDTO() WebhookDTO {
	tracked := make([]string, len(w.TrackedServices))
	copy(tracked, w.TrackedServices)
	return WebhookDTO{
		ID:              w.ID,
		CallbackURL:     w.CallbackURL,
		TrackedServices: tracked,
	}
}

// Patch carries a partial update. A nil field is left untouched; a
// pointer to an empty slice means "track all services" and is
// expanded at write time, same as on create.
type Patch struct {
	CallbackURL     *string   `json:"callback_url"`
	TrackedServices *[]string `json:"tracked_services"`
}

// StatusChange is the payload posted to every subscribed callback
// when a service flips between up and down.
type StatusChange struct {
	Service        string `json:"service"`
	PreviousStatus bool   `json:"previous_status"`
	NewStatus      bool   `json:"new_status"`
	Timestamp      int64  `json:"timestamp"`
}
