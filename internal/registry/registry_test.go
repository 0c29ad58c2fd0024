package registry

import (
	"errors"
	"testing"
	"time"
)

func testServices() []Service {
	return []Service{
		{Name: "ADE-scheduler", URL: "https://ade.example.com/"},
		{Name: "Inginious", URL: "https://inginious.example.com/"},
	}
}

func TestNewPreservesOrder(t *testing.T) {
	reg := New(testServices())

	names := reg.Names()
	want := []string{"ADE-scheduler", "Inginious"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestGet(t *testing.T) {
	reg := New(testServices())

	tests := []struct {
		name    string
		service string
		wantErr bool
	}{
		{name: "known service", service: "Inginious", wantErr: false},
		{name: "unknown service", service: "nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := reg.Get(tt.service)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("Get(%q) error = %v, want ErrNotFound", tt.service, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get(%q) unexpected error: %v", tt.service, err)
			}
			if svc.Name != tt.service {
				t.Errorf("Get(%q).Name = %q", tt.service, svc.Name)
			}
		})
	}
}

func TestContains(t *testing.T) {
	reg := New(testServices())

	if !reg.Contains("ADE-scheduler") {
		t.Error("Contains(ADE-scheduler) = false, want true")
	}
	if reg.Contains("missing") {
		t.Error("Contains(missing) = true, want false")
	}
}

func TestSetStatus(t *testing.T) {
	reg := New(testServices())
	checkedAt := time.Unix(1700000000, 0)

	if err := reg.SetStatus("Inginious", true, checkedAt); err != nil {
		t.Fatalf("SetStatus() unexpected error: %v", err)
	}

	svc, err := reg.Get("Inginious")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if !svc.Up {
		t.Error("Up = false after SetStatus(true)")
	}
	if !svc.LastChecked.Equal(checkedAt) {
		t.Errorf("LastChecked = %v, want %v", svc.LastChecked, checkedAt)
	}
}

func TestSetStatusUnknownService(t *testing.T) {
	reg := New(testServices())
	if err := reg.SetStatus("missing", true, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetStatus(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	reg := New(testServices())

	before, _ := reg.Get("Inginious")
	if err := reg.SetStatus("Inginious", true, time.Now()); err != nil {
		t.Fatalf("SetStatus() unexpected error: %v", err)
	}

	// The earlier snapshot must not reflect the later write.
	if before.Up {
		t.Error("snapshot mutated by a later SetStatus")
	}
}

func TestAllReturnsEveryService(t *testing.T) {
	reg := New(testServices())
	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d services, want 2", len(all))
	}
	if all[0].Name != "ADE-scheduler" || all[1].Name != "Inginious" {
		t.Errorf("All() order = [%s %s]", all[0].Name, all[1].Name)
	}
}
