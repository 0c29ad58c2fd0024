package registry

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a service name is not in the catalog.
var ErrNotFound = errors.New("service not tracked")

// Registry is the immutable-after-load catalog of tracked services.
// The set of services never changes at runtime; only the current
// status and last-checked time of each entry do.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	services map[string]*Service
}

// New builds a registry from catalog entries, preserving their order.
func New(services []Service) *Registry {
	r := &Registry{
		order:    make([]string, 0, len(services)),
		services: make(map[string]*Service, len(services)),
	}
	for i := range services {
		svc := services[i]
		if _, dup := r.services[svc.Name]; dup {
			continue
		}
		r.order = append(r.order, svc.Name)
		r.services[svc.Name] = &svc
	}
	return r
}

// Get returns a snapshot of one service. The copy is taken under the
// lock so callers never observe a half-updated status/timestamp pair.
func (r *Registry) Get(name string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[name]
	if !ok {
		return Service{}, ErrNotFound
	}
	return *svc, nil
}

// All returns snapshots of every service in catalog order.
func (r *Registry) All() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Service, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.services[name])
	}
	return out
}

// Names returns the service names in catalog order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Contains reports whether name is a tracked service.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.services[name]
	return ok
}

// SetStatus records the result of an automated probe. Status and
// timestamp are written under one lock acquisition. Invoked only by
// the scheduler.
func (r *Registry) SetStatus(name string, up bool, checkedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.services[name]
	if !ok {
		return ErrNotFound
	}
	svc.Up = up
	svc.LastChecked = checkedAt
	return nil
}
