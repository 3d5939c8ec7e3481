package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/N-Schaef/shreddr/internal/shreddrerr"
)

func TestAddGetRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	src := filepath.Join(t.TempDir(), "source.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := store.Add(1, src); err != nil {
		t.Fatalf("Add: %v", err)
	}

	path, err := store.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if filepath.Base(path) != "1.pdf" {
		t.Fatalf("got %s, want 1.pdf", path)
	}

	if err := store.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Get(1); !shreddrerr.Is(err, shreddrerr.KindNotFound) {
		t.Fatalf("expected NotFound after remove, got %v", err)
	}

	// Removing again is a no-op, not an error.
	if err := store.Remove(1); err != nil {
		t.Fatalf("Remove on missing doc should be no-op: %v", err)
	}
}

func TestNewRegistersExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "42.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	// Non-numeric stems must be ignored.
	if err := os.WriteFile(filepath.Join(dir, "documents.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	store, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := store.Get(42); err != nil {
		t.Fatalf("Get(42): %v", err)
	}
}
