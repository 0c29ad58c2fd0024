package webhook

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

type fakeCatalog struct {
	names []string
}

func (f fakeCatalog) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

func (f fakeCatalog) Contains(name string) bool {
	for _, n := range f.names {
		if n == name {
			return true
		}
	}
	return false
}

func openTestRegistry(t *testing.T, names ...string) *Registry {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, err = database.Exec(`
PRAGMA foreign_keys = ON;
CREATE TABLE webhooks (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    callback_url  TEXT    NOT NULL,
    password_hash TEXT    NOT NULL,
    created_at    INTEGER NOT NULL
);
CREATE TABLE webhook_services (
    webhook_id INTEGER NOT NULL REFERENCES webhooks(id) ON DELETE CASCADE,
    service    TEXT    NOT NULL,
    PRIMARY KEY (webhook_id, service)
)`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	reg, err := NewRegistry(database, fakeCatalog{names: names})
	if err != nil {
		t.Fatalf("NewRegistry() unexpected error: %v", err)
	}
	return reg
}

func TestCreateExpandsEmptyTrackedSet(t *testing.T) {
	reg := openTestRegistry(t, "A", "B")

	hook, err := reg.Create(context.Background(), "https://cb.example.com/", nil, "secret")
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if len(hook.TrackedServices) != 2 {
		t.Fatalf("TrackedServices = %v, want the full catalog {A, B}", hook.TrackedServices)
	}
	if hook.ID <= 0 {
		t.Errorf("ID = %d, want a positive assigned id", hook.ID)
	}
	if hook.PasswordHash == "secret" || hook.PasswordHash == "" {
		t.Error("PasswordHash must be a hash, never empty or the plaintext")
	}
}

func TestCreateValidatesTrackedServices(t *testing.T) {
	reg := openTestRegistry(t, "A", "B")

	_, err := reg.Create(context.Background(), "https://cb.example.com/", []string{"A", "bogus"}, "secret")
	if !errors.Is(err, ErrUnknownService) {
		t.Errorf("Create() error = %v, want ErrUnknownService", err)
	}
}

func TestCreateKeepsExplicitSubset(t *testing.T) {
	reg := openTestRegistry(t, "A", "B")

	hook, err := reg.Create(context.Background(), "https://cb.example.com/", []string{"B"}, "secret")
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if len(hook.TrackedServices) != 1 || hook.TrackedServices[0] != "B" {
		t.Errorf("TrackedServices = %v, want [B]", hook.TrackedServices)
	}
}

func TestIDsAreMonotonic(t *testing.T) {
	reg := openTestRegistry(t, "A")
	ctx := context.Background()

	first, err := reg.Create(ctx, "https://one.example.com/", nil, "pw")
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if err := reg.Delete(ctx, first.ID, "pw"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	second, err := reg.Create(ctx, "https://two.example.com/", nil, "pw")
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("second id %d not greater than deleted first id %d; ids must never be reused", second.ID, first.ID)
	}
}

func TestUpdatePatchSemantics(t *testing.T) {
	ctx := context.Background()

	newURL := "https://new.example.com/"
	emptyList := []string{}
	subset := []string{"A"}

	tests := []struct {
		name        string
		patch       Patch
		wantURL     string
		wantTracked []string
	}{
		{
			name:        "absent fields leave record untouched",
			patch:       Patch{},
			wantURL:     "https://cb.example.com/",
			wantTracked: []string{"A"},
		},
		{
			name:        "replace callback url only",
			patch:       Patch{CallbackURL: &newURL},
			wantURL:     newURL,
			wantTracked: []string{"A"},
		},
		{
			name:        "empty tracked list expands to all",
			patch:       Patch{TrackedServices: &emptyList},
			wantURL:     "https://cb.example.com/",
			wantTracked: []string{"A", "B"},
		},
		{
			name:        "explicit subset kept",
			patch:       Patch{TrackedServices: &subset},
			wantURL:     "https://cb.example.com/",
			wantTracked: []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := openTestRegistry(t, "A", "B")
			hook, err := reg.Create(ctx, "https://cb.example.com/", []string{"A"}, "secret")
			if err != nil {
				t.Fatalf("Create() unexpected error: %v", err)
			}

			updated, err := reg.Update(ctx, hook.ID, tt.patch, "secret")
			if err != nil {
				t.Fatalf("Update() unexpected error: %v", err)
			}
			if updated.CallbackURL != tt.wantURL {
				t.Errorf("CallbackURL = %q, want %q", updated.CallbackURL, tt.wantURL)
			}
			if len(updated.TrackedServices) != len(tt.wantTracked) {
				t.Fatalf("TrackedServices = %v, want %v", updated.TrackedServices, tt.wantTracked)
			}
			for i := range tt.wantTracked {
				if updated.TrackedServices[i] != tt.wantTracked[i] {
					t.Errorf("TrackedServices = %v, want %v", updated.TrackedServices, tt.wantTracked)
				}
			}
		})
	}
}

func TestUpdateAuthorization(t *testing.T) {
	ctx := context.Background()
	reg := openTestRegistry(t, "A")
	hook, err := reg.Create(ctx, "https://cb.example.com/", nil, "secret")
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if _, err := reg.Update(ctx, hook.ID, Patch{}, "wrong"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Update(wrong password) error = %v, want ErrForbidden", err)
	}

	// Existence is checked before the credential: unknown ids are
	// NotFound even with a wrong password.
	if _, err := reg.Update(ctx, hook.ID+100, Patch{}, "wrong"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(unknown id) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateRejectsUnknownService(t *testing.T) {
	ctx := context.Background()
	reg := openTestRegistry(t, "A")
	hook, err := reg.Create(ctx, "https://cb.example.com/", nil, "secret")
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	bogus := []string{"bogus"}
	if _, err := reg.Update(ctx, hook.ID, Patch{TrackedServices: &bogus}, "secret"); !errors.Is(err, ErrUnknownService) {
		t.Errorf("Update() error = %v, want ErrUnknownService", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	reg := openTestRegistry(t, "A")
	hook, err := reg.Create(ctx, "https://cb.example.com/", nil, "secret")
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if err := reg.Delete(ctx, hook.ID, "wrong"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete(wrong password) error = %v, want ErrForbidden", err)
	}
	if err := reg.Delete(ctx, hook.ID, "secret"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	// Repeated delete is an error, not a no-op.
	if err := reg.Delete(ctx, hook.ID, "secret"); !errors.Is(err, ErrNotFound) {
		t.Errorf("repeated Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUnknownIDBeatsPasswordCheck(t *testing.T) {
	reg := openTestRegistry(t, "A")
	if err := reg.Delete(context.Background(), 5, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(id=5) error = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionIndex(t *testing.T) {
	ctx := context.Background()
	reg := openTestRegistry(t, "A", "B")

	w1, err := reg.Create(ctx, "https://one.example.com/", []string{"A"}, "pw1")
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if _, err := reg.Create(ctx, "https://two.example.com/", []string{"B"}, "pw2"); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	subs := reg.Subscribers("A")
	if len(subs) != 1 || subs[0].ID != w1.ID {
		t.Fatalf("Subscribers(A) = %v, want only webhook %d", subs, w1.ID)
	}
	if subs[0].CallbackURL != "https://one.example.com/" {
		t.Errorf("Subscribers(A)[0].CallbackURL = %q", subs[0].CallbackURL)
	}

	// Re-point W1 at B: the index must follow.
	target := []string{"B"}
	if _, err := reg.Update(ctx, w1.ID, Patch{TrackedServices: &target}, "pw1"); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if subs := reg.Subscribers("A"); len(subs) != 0 {
		t.Errorf("Subscribers(A) after update = %v, want none", subs)
	}
	if subs := reg.Subscribers("B"); len(subs) != 2 {
		t.Errorf("Subscribers(B) after update = %v, want two", subs)
	}

	if err := reg.Delete(ctx, w1.ID, "pw1"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if subs := reg.Subscribers("B"); len(subs) != 1 {
		t.Errorf("Subscribers(B) after delete = %v, want one", subs)
	}
}

func TestIndexRebuiltFromDatabase(t *testing.T) {
	ctx := context.Background()
	reg := openTestRegistry(t, "A", "B")

	if _, err := reg.Create(ctx, "https://one.example.com/", []string{"A"}, "pw"); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	// A fresh registry over the same database must rebuild the index.
	reloaded, err := NewRegistry(reg.db, fakeCatalog{names: []string{"A", "B"}})
	if err != nil {
		t.Fatalf("NewRegistry() unexpected error: %v", err)
	}
	if subs := reloaded.Subscribers("A"); len(subs) != 1 {
		t.Errorf("Subscribers(A) after reload = %v, want one", subs)
	}
}
