package idalloc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNextStartsAtOneWhenFileAbsent(t *testing.T) {
	dir := t.TempDir()
	a := New(filepath.Join(dir, "id.dat"))

	id, err := a.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if id != 1 {
		t.Fatalf("got id %d, want 1", id)
	}
}

func TestNextMonotonicAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id.dat")

	a := New(path)
	for i := uint64(1); i <= 3; i++ {
		id, err := a.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if id != i {
			t.Fatalf("got id %d, want %d", id, i)
		}
	}

	// Simulate a restart: a fresh Allocator reading the same file.
	b := New(path)
	id, err := b.Next()
	if err != nil {
		t.Fatalf("Next after restart: %v", err)
	}
	if id != 4 {
		t.Fatalf("got id %d after restart, want 4", id)
	}
}

func TestNextFailsOnCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id.dat")
	if err := os.WriteFile(path, []byte("not-a-number"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a := New(path)
	if _, err := a.Next(); err == nil {
		t.Fatal("expected error for corrupt id file")
	}
}
