// Package probe performs single HTTP reachability checks.
package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Prober classifies a URL as up or down with one GET request.
type Prober struct {
	client *http.Client
}

// New creates a prober whose requests are bounded by timeout.
// Redirects are followed; only the final status code matters.
func New(timeout time.Duration) *Prober {
	return &Prober{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Probe reports whether url is reachable: up iff the request
// completes and the status code is below 400. Every failure mode
// (timeout, DNS, refused connection, TLS, cancellation) collapses to
// down — a single unreachable target must never fail a whole cycle,
// so no error is surfaced.
func (p *Prober) Probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Debug().
			Err(err).
			Str("url", url).
			Msg("Probe request build failure, classifying as down")
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Debug().
			Err(err).
			Str("url", url).
			Msg("Probe transport failure, classifying as down")
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	up := resp.StatusCode < http.StatusBadRequest
	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Bool("up", up).
		Msg("Probe completed")
	return up
}
