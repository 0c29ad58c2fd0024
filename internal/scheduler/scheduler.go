// Package scheduler drives the recurring reachability check cycle.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"status-monitor-api/internal/history"
	"status-monitor-api/internal/registry"
)

// Prober performs one reachability check.
type Prober interface {
	Probe(ctx context.Context, url string) bool
}

// History is the scheduler's write view of the status ledger.
type History interface {
	Append(ctx context.Context, service string, ts int64, up bool, origin history.Origin) error
}

// Notifier is invoked on status transitions.
type Notifier interface {
	Notify(service string, previous, current bool, timestamp int64)
}

// Scheduler wakes on a coarse tick and re-probes every service whose
// own due predicate has elapsed. Probes run in parallel; all writes
// for one service are serialized through a per-service mutex, so a
// manual trigger overlapping a tick can never interleave writes for
// the same service.
type Scheduler struct {
	registry *registry.Registry
	prober   Prober
	history  History
	notifier Notifier

	interval time.Duration
	dueAfter time.Duration
	grace    time.Duration

	stopCh  chan struct{}
	trigger chan struct{}
	wg      sync.WaitGroup
	perSvc  map[string]*sync.Mutex

	now func() time.Time
}

// New builds a scheduler. trigger is an optional buffered channel for
// manual recheck requests; pass nil to disable.
func New(
	reg *registry.Registry,
	prober Prober,
	hist History,
	notifier Notifier,
	interval, dueAfter, grace time.Duration,
	trigger chan struct{},
) *Scheduler {
	perSvc := make(map[string]*sync.Mutex)
	for _, name := range reg.Names() {
		perSvc[name] = &sync.Mutex{}
	}
	return &Scheduler{
		registry: reg,
		prober:   prober,
		history:  hist,
		notifier: notifier,
		interval: interval,
		dueAfter: dueAfter,
		grace:    grace,
		stopCh:   make(chan struct{}),
		trigger:  trigger,
		perSvc:   perSvc,
		now:      time.Now,
	}
}

// Start runs an immediate cycle, then ticks until Stop or ctx cancel.
func (s *Scheduler) Start(ctx context.Context) {
	s.RunCycle(ctx)

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunCycle(ctx)
			case <-s.trigger:
				log.Info().Msg("Manual recheck triggered")
				s.RunCycle(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop prevents further cycles and waits up to the grace period for
// in-flight probes and writes to finish.
func (s *Scheduler) Stop() {
	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Scheduler stopped, all in-flight checks finished")
	case <-time.After(s.grace):
		log.Warn().
			Dur("grace", s.grace).
			Msg("Scheduler stopped with in-flight checks abandoned")
	}
}

// RunCycle evaluates every service once. Services refreshed more
// recently than the due interval are skipped.
func (s *Scheduler) RunCycle(ctx context.Context) {
	services := s.registry.All()
	log.Debug().Int("service_count", len(services)).Msg("Starting check cycle")

	for _, svc := range services {
		if !s.due(svc) {
			continue
		}
		s.wg.Add(1)
		go func(name string) {
			defer s.wg.Done()
			s.checkService(ctx, name)
		}(svc.Name)
	}
}

// Wait blocks until in-flight checks finish. Used by tests.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) due(svc registry.Service) bool {
	if svc.LastChecked.IsZero() {
		return true
	}
	return s.now().Sub(svc.LastChecked) >= s.dueAfter
}

// checkService holds the per-service lock across the whole
// probe/append/update/notify sequence.
func (s *Scheduler) checkService(ctx context.Context, name string) {
	mu := s.perSvc[name]
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock: a concurrent trigger may have
	// refreshed this service while we waited.
	svc, err := s.registry.Get(name)
	if err != nil {
		log.Error().Err(err).Str("service", name).Msg("Service vanished from registry")
		return
	}
	if !s.due(svc) {
		return
	}

	up := s.prober.Probe(ctx, svc.URL)
	checkedAt := s.now()

	// A cancelled context collapses the probe to down without the
	// target being at fault. Abandon the check instead of recording a
	// false observation or firing a false transition.
	if ctx.Err() != nil {
		log.Debug().
			Str("service", name).
			Msg("Check cancelled mid-probe, result discarded")
		return
	}

	log.Info().
		Str("service", name).
		Bool("up", up).
		Time("checked_at", checkedAt).
		Msg("Service probed")

	// The ledger is a dense continuous record: append on every
	// cycle, changed or not. The uptime ratio denominator depends
	// on it.
	if err := s.history.Append(ctx, name, checkedAt.Unix(), up, history.OriginAutomated); err != nil {
		log.Error().
			Err(err).
			Str("service", name).
			Msg("Failed to persist observation, skipping this service for the cycle")
		return
	}

	if err := s.registry.SetStatus(name, up, checkedAt); err != nil {
		log.Error().Err(err).Str("service", name).Msg("Failed to update registry status")
		return
	}

	// A transition needs a previous automated observation; the very
	// first probe of a service has nothing to compare against.
	if !svc.LastChecked.IsZero() && up != svc.Up {
		log.Info().
			Str("service", name).
			Bool("previous_status", svc.Up).
			Bool("new_status", up).
			Msg("Status transition detected")
		s.notifier.Notify(name, svc.Up, up, checkedAt.Unix())
	}
}
