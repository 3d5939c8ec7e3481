// Package idalloc hands out monotonically increasing document ids backed by
// a single decimal integer file.
package idalloc

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/N-Schaef/shreddr/internal/shreddrerr"
)

// Logger is global since callers across the façade want it without plumbing.
var Logger *slog.Logger = slog.Default()

const component = "idalloc"

// Allocator persists the last allocated id at path as UTF-8 decimal text.
// Calls within one process are serialized by an internal mutex; nothing
// coordinates separate processes sharing the same file.
type Allocator struct {
	mu   sync.Mutex
	path string
}

// New returns an Allocator backed by path. The file need not exist yet;
// absence is treated as a current value of zero.
func New(path string) *Allocator {
	return &Allocator{path: path}
}

// Next reads the current value (treating an absent file as zero),
// increments it, persists the new value, and returns it.
func (a *Allocator) Next() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current, err := a.read()
	if err != nil {
		return 0, err
	}

	next := current + 1
	if err := a.write(next); err != nil {
		return 0, err
	}
	return next, nil
}

// Current returns the last allocated id without incrementing.
func (a *Allocator) Current() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.read()
}

func (a *Allocator) read() (uint64, error) {
	raw, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("read %s: %w", a.path, err))
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return 0, nil
	}

	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, shreddrerr.New(shreddrerr.KindParse, component, fmt.Errorf("corrupt id file %s: %w", a.path, err))
	}
	return value, nil
}

func (a *Allocator) write(value uint64) error {
	if err := os.WriteFile(a.path, []byte(strconv.FormatUint(value, 10)), 0o644); err != nil {
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("write %s: %w", a.path, err))
	}
	Logger.Debug("allocated id", "id", value, "path", a.path)
	return nil
}
