package lock

import (
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard.lock")

	guard, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}
	if guard == nil {
		t.Fatal("Acquire() returned nil guard on a free lock")
	}
	if guard.Path() != path {
		t.Errorf("Path() = %q, want %q", guard.Path(), path)
	}

	// A second attempt on a held lock yields no guard and no error.
	second, err := Acquire(path)
	if err != nil {
		t.Fatalf("second Acquire() unexpected error: %v", err)
	}
	if second != nil {
		t.Fatal("second Acquire() got the lock while it was held")
	}

	if err := guard.Release(); err != nil {
		t.Fatalf("Release() unexpected error: %v", err)
	}

	// Once released, the lock is free again.
	third, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() after release unexpected error: %v", err)
	}
	if third == nil {
		t.Fatal("Acquire() after release returned nil guard")
	}
	if err := third.Release(); err != nil {
		t.Errorf("Release() unexpected error: %v", err)
	}
}

func TestAcquireCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "guard.lock")

	guard, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}
	if guard == nil {
		t.Fatal("Acquire() returned nil guard")
	}
	if err := guard.Release(); err != nil {
		t.Errorf("Release() unexpected error: %v", err)
	}
}
