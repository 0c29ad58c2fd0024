package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Subscriptions is the subscription-index view the notifier consults.
type Subscriptions interface {
	Subscribers(service string) []Endpoint
}

// Notifier delivers status-change callbacks. Delivery is best-effort
// and fire-and-forget: one goroutine per webhook, a single attempt,
// failures logged and dropped. A slow callback endpoint can never
// delay other webhooks or the next scheduler cycle.
type Notifier struct {
	subs   Subscriptions
	client *http.Client
}

// NewNotifier creates a notifier whose deliveries are bounded by
// timeout, independently of the probe timeout.
func NewNotifier(subs Subscriptions, timeout time.Duration) *Notifier {
	return &Notifier{
		subs: subs,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Notify posts the status change to every webhook subscribed to the
// service. Unsubscribed webhooks receive nothing.
func (n *Notifier) Notify(service string, previous, current bool, timestamp int64) {
	endpoints := n.subs.Subscribers(service)
	if len(endpoints) == 0 {
		log.Debug().
			Str("service", service).
			Msg("No webhooks subscribed to status change")
		return
	}

	body, err := json.Marshal(StatusChange{
		Service:        service,
		PreviousStatus: previous,
		NewStatus:      current,
		Timestamp:      timestamp,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("service", service).
			Msg("Failed to marshal status-change payload")
		return
	}

	log.Info().
		Str("service", service).
		Bool("previous_status", previous).
		Bool("new_status", current).
		Int("webhook_count", len(endpoints)).
		Msg("Dispatching status-change notifications")

	for _, ep := range endpoints {
		go n.deliver(ep, body, service)
	}
}

func (n *Notifier) deliver(ep Endpoint, body []byte, service string) {
	req, err := http.NewRequest(http.MethodPost, ep.CallbackURL, bytes.NewReader(body))
	if err != nil {
		log.Warn().
			Err(err).
			Int64("webhook_id", ep.ID).
			Str("url", ep.CallbackURL).
			Msg("Failed to build callback request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Warn().
			Err(err).
			Int64("webhook_id", ep.ID).
			Str("url", ep.CallbackURL).
			Str("service", service).
			Msg("Webhook delivery failed")
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Info().
			Int64("webhook_id", ep.ID).
			Str("url", ep.CallbackURL).
			Str("service", service).
			Int("status", resp.StatusCode).
			Msg("Webhook delivered")
		return
	}

	log.Warn().
		Int64("webhook_id", ep.ID).
		Str("url", ep.CallbackURL).
		Str("service", service).
		Int("status", resp.StatusCode).
		Msg("Webhook delivery rejected by callback endpoint")
}
