package webhook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"status-monitor-api/internal/auth"
)

var (
	// ErrNotFound is returned for webhook ids that do not exist.
	ErrNotFound = errors.New("webhook not found")
	// ErrForbidden is returned when the supplied password does not
	// match the stored credential.
	ErrForbidden = errors.New("wrong webhook password")
	// ErrUnknownService is returned when a tracked-services list
	// names a service outside the catalog.
	ErrUnknownService = errors.New("service not tracked")
)

// Services is the view of the service catalog the registry needs for
// validation and empty-set expansion.
type Services interface {
	Names() []string
	Contains(name string) bool
}

// Endpoint is one delivery target from the subscription index.
type Endpoint struct {
	ID          int64
	CallbackURL string
}

// Registry is the durable store of webhook subscriptions, keyed by a
// monotonically increasing integer id. It maintains an in-memory
// index from service name to subscribed endpoints, rebuilt from the
// database at startup and kept current on every mutation.
type Registry struct {
	db       *sql.DB
	services Services

	mu    sync.RWMutex
	index map[string]map[int64]string // service -> webhook id -> callback URL
}

// NewRegistry opens the registry and rebuilds the subscription index
// from persisted records.
func NewRegistry(db *sql.DB, services Services) (*Registry, error) {
	r := &Registry{
		db:       db,
		services: services,
		index:    make(map[string]map[int64]string),
	}
	if err := r.rebuildIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("rebuild subscription index: %w", err)
	}
	return r, nil
}

// Create validates and stores a new webhook. Every tracked service
// must exist; an empty tracked list is expanded to the full current
// catalog before the record is written.
func (r *Registry) Create(ctx context.Context, callbackURL string, tracked []string, password string) (Webhook, error) {
	expanded, err := r.expandTracked(tracked)
	if err != nil {
		return Webhook{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Webhook{}, err
	}

	now := time.Now().UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Webhook{}, fmt.Errorf("begin create webhook: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
INSERT INTO webhooks(callback_url, password_hash, created_at)
VALUES(?,?,?)
`, callbackURL, hash, now.Unix())
	if err != nil {
		return Webhook{}, fmt.Errorf("insert webhook: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Webhook{}, fmt.Errorf("webhook id: %w", err)
	}

	if err := insertTracked(ctx, tx, id, expanded); err != nil {
		return Webhook{}, err
	}
	if err := tx.Commit(); err != nil {
		return Webhook{}, fmt.Errorf("commit create webhook: %w", err)
	}

	hook := Webhook{
		ID:              id,
		CallbackURL:     callbackURL,
		TrackedServices: expanded,
		PasswordHash:    hash,
		CreatedAt:       now,
	}
	r.indexAdd(hook)

	log.Info().
		Int64("webhook_id", id).
		Str("callback_url", callbackURL).
		Int("tracked_count", len(expanded)).
		Msg("Webhook created")
	return hook, nil
}

// Get loads one webhook by id.
func (r *Registry) Get(ctx context.Context, id int64) (Webhook, error) {
	var hook Webhook
	var created int64
	err := r.db.QueryRowContext(ctx, `
SELECT id, callback_url, password_hash, created_at FROM webhooks WHERE id = ?
`, id).Scan(&hook.ID, &hook.CallbackURL, &hook.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Webhook{}, ErrNotFound
		}
		return Webhook{}, fmt.Errorf("query webhook %d: %w", id, err)
	}
	hook.CreatedAt = time.Unix(created, 0).UTC()

	hook.TrackedServices, err = r.trackedFor(ctx, id)
	if err != nil {
		return Webhook{}, err
	}
	return hook, nil
}

// GetPasswordHash returns the stored credential hash for id.
func (r *Registry) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT password_hash FROM webhooks WHERE id = ?`, id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query webhook hash %d: %w", id, err)
	}
	return hash, nil
}

// Exists reports whether a webhook id is present.
func (r *Registry) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM webhooks WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query webhook %d: %w", id, err)
	}
	return true, nil
}

// Update applies a partial update. The existence check runs before
// the credential check: a wrong password on a missing id is NotFound,
// not Forbidden. Only supplied patch fields change; the credential
// itself is immutable here.
func (r *Registry) Update(ctx context.Context, id int64, patch Patch, password string) (Webhook, error) {
	hook, err := r.Get(ctx, id)
	if err != nil {
		return Webhook{}, err
	}
	if !auth.VerifyPassword(hook.PasswordHash, password) {
		return Webhook{}, ErrForbidden
	}

	if patch.CallbackURL != nil {
		hook.CallbackURL = *patch.CallbackURL
	}
	if patch.TrackedServices != nil {
		expanded, err := r.expandTracked(*patch.TrackedServices)
		if err != nil {
			return Webhook{}, err
		}
		hook.TrackedServices = expanded
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Webhook{}, fmt.Errorf("begin update webhook: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE webhooks SET callback_url = ? WHERE id = ?`, hook.CallbackURL, id); err != nil {
		return Webhook{}, fmt.Errorf("update webhook %d: %w", id, err)
	}
	if patch.TrackedServices != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM webhook_services WHERE webhook_id = ?`, id); err != nil {
			return Webhook{}, fmt.Errorf("clear webhook %d subscriptions: %w", id, err)
		}
		if err := insertTracked(ctx, tx, id, hook.TrackedServices); err != nil {
			return Webhook{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Webhook{}, fmt.Errorf("commit update webhook: %w", err)
	}

	r.indexRemove(id)
	r.indexAdd(hook)

	log.Info().
		Int64("webhook_id", id).
		Int("tracked_count", len(hook.TrackedServices)).
		Msg("Webhook updated")
	return hook, nil
}

// Delete removes a webhook permanently. Deleting a missing id is an
// error, and existence is checked before the credential.
func (r *Registry) Delete(ctx context.Context, id int64, password string) error {
	hash, err := r.GetPasswordHash(ctx, id)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(hash, password) {
		return ErrForbidden
	}

	// webhook_services rows go with the parent via ON DELETE CASCADE.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete webhook %d: %w", id, err)
	}

	r.indexRemove(id)
	log.Info().Int64("webhook_id", id).Msg("Webhook deleted")
	return nil
}

// Subscribers returns the endpoints subscribed to a service, ordered
// by webhook id.
func (r *Registry) Subscribers(service string) []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hooks := r.index[service]
	out := make([]Endpoint, 0, len(hooks))
	for id, url := range hooks {
		out = append(out, Endpoint{ID: id, CallbackURL: url})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// expandTracked validates every name and applies the empty-means-all
// expansion at write time.
func (r *Registry) expandTracked(tracked []string) ([]string, error) {
	if len(tracked) == 0 {
		return r.services.Names(), nil
	}
	out := make([]string, 0, len(tracked))
	seen := make(map[string]struct{}, len(tracked))
	for _, name := range tracked {
		if !r.services.Contains(name) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownService, name)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func (r *Registry) trackedFor(ctx context.Context, id int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT service FROM webhook_services WHERE webhook_id = ? ORDER BY service
`, id)
	if err != nil {
		return nil, fmt.Errorf("query webhook %d subscriptions: %w", id, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *Registry) rebuildIndex(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT ws.service, ws.webhook_id, w.callback_url
FROM webhook_services ws JOIN webhooks w ON w.id = ws.webhook_id
`)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()

	index := make(map[string]map[int64]string)
	for rows.Next() {
		var service, url string
		var id int64
		if err := rows.Scan(&service, &id, &url); err != nil {
			return err
		}
		if index[service] == nil {
			index[service] = make(map[int64]string)
		}
		index[service][id] = url
	}
	if err := rows.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.index = index
	r.mu.Unlock()
	return nil
}

func (r *Registry) indexAdd(hook Webhook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, service := range hook.TrackedServices {
		if r.index[service] == nil {
			r.index[service] = make(map[int64]string)
		}
		r.index[service][hook.ID] = hook.CallbackURL
	}
}

func (r *Registry) indexRemove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for service, hooks := range r.index {
		delete(hooks, id)
		if len(hooks) == 0 {
			delete(r.index, service)
		}
	}
}

func insertTracked(ctx context.Context, tx *sql.Tx, id int64, tracked []string) error {
	for _, service := range tracked {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO webhook_services(webhook_id, service) VALUES(?,?)
`, id, service); err != nil {
			return fmt.Errorf("insert subscription %d/%s: %w", id, service, err)
		}
	}
	return nil
}
