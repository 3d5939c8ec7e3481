// Package filestore owns the durable document blobs on disk, mapping a
// DocId to a file under a single directory.
package filestore

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/N-Schaef/shreddr/internal/shreddrerr"
)

var Logger *slog.Logger = slog.Default()

const component = "filestore"

// Store maps DocId -> absolute path under dir. Callers must not mutate the
// returned paths' contents directly.
type Store struct {
	mu  sync.RWMutex
	dir string
	// paths holds the known documents, keyed by id. Re-derived from disk on
	// construction and kept in sync by Add/Remove thereafter.
	paths map[uint64]string
}

// New scans dir (creating it if absent) and registers every entry whose
// file stem parses as a DocId.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("mkdir %s: %w", dir, err))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("readdir %s: %w", dir, err))
	}

	paths := make(map[uint64]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		id, err := strconv.ParseUint(stem, 10, 64)
		if err != nil {
			continue
		}
		paths[id] = filepath.Join(dir, entry.Name())
	}

	Logger.Info("file store loaded", "dir", dir, "documents", len(paths))
	return &Store{dir: dir, paths: paths}, nil
}

// Add copies src into the store under <dir>/<id>.pdf.
func (s *Store) Add(id uint64, src string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := filepath.Join(s.dir, fmt.Sprintf("%d.pdf", id))
	if err := copyFile(src, dst); err != nil {
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("copy %s -> %s: %w", src, dst, err))
	}

	s.paths[id] = dst
	return nil
}

// Remove deletes the stored file for id, if present. Missing is a no-op.
func (s *Store) Remove(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.paths[id]
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("remove %s: %w", path, err))
	}
	delete(s.paths, id)
	return nil
}

// Get returns the stored path for id.
func (s *Store) Get(id uint64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, ok := s.paths[id]
	if !ok {
		return "", shreddrerr.New(shreddrerr.KindNotFound, component, fmt.Errorf("document %d", id))
	}
	return path, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
