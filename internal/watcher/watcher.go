// Package watcher monitors a consume directory for new files, enqueueing an
// ImportFile job for each one found at startup or created afterward. A
// periodic reconciliation sweep backstops any fsnotify event the OS drops.
package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/N-Schaef/shreddr/internal/jobqueue"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

var Logger *slog.Logger = slog.Default()

// Enqueuer is the subset of the Index façade the watcher needs.
type Enqueuer interface {
	Enqueue(t jobqueue.JobType) jobqueue.Job
}

// Watcher watches Dir for new importable files.
type Watcher struct {
	Dir             string
	Index           Enqueuer
	ReconcileEveryS int

	mu     sync.Mutex
	seen   map[string]bool
	fsw    *fsnotify.Watcher
	cron   *cron.Cron
	stopCh chan struct{}
}

// New builds a Watcher over dir, dispatching discovered files to index.
// reconcileIntervalSeconds controls how often the directory is re-scanned
// in case an fsnotify event was missed; values <= 0 disable the sweep.
func New(dir string, index Enqueuer, reconcileIntervalSeconds int) *Watcher {
	return &Watcher{
		Dir:             dir,
		Index:           index,
		ReconcileEveryS: reconcileIntervalSeconds,
		seen:            make(map[string]bool),
		stopCh:          make(chan struct{}),
	}
}

// matchFile reports whether a path is an importable document. Only PDFs are
// ingested, matching the watcher's original contract.
func matchFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Start enumerates Dir once (enqueueing every importable file already
// present), then begins watching for create events. It also starts the
// periodic reconciliation sweep if configured. Start returns once the
// initial enumeration and the fsnotify watch are established; events are
// handled on a background goroutine.
func (w *Watcher) Start() error {
	w.scanOnce()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.Dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}
	w.fsw = fsw

	Logger.Info("watching directory", "dir", w.Dir)
	go w.eventLoop()

	if w.ReconcileEveryS > 0 {
		w.cron = cron.New()
		job := cron.FuncJob(w.scanOnce)
		chained := cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(job)
		spec := fmt.Sprintf("@every %ds", w.ReconcileEveryS)
		if _, err := w.cron.AddJob(spec, chained); err != nil {
			Logger.Warn("failed to schedule reconciliation sweep", "error", err)
		} else {
			w.cron.Start()
		}
	}

	return nil
}

// Stop closes the fsnotify watcher and stops the reconciliation cron, if
// running.
func (w *Watcher) Stop() {
	close(w.stopCh)
	if w.fsw != nil {
		w.fsw.Close()
	}
	if w.cron != nil {
		w.cron.Stop()
	}
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			w.offer(event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			Logger.Error("fsnotify error", "error", err)
		}
	}
}

// scanOnce enumerates Dir and offers every importable file it finds. Used
// both for the startup enumeration and the periodic reconciliation sweep.
func (w *Watcher) scanOnce() {
	entries, err := readDir(w.Dir)
	if err != nil {
		Logger.Error("failed to scan consume directory", "dir", w.Dir, "error", err)
		return
	}
	for _, path := range entries {
		w.offer(path)
	}
}

// offer enqueues path for import if it matches and has not already been
// enqueued. Not safe to call with overlapping Dir contents across distinct
// Watcher instances; a single Watcher deduplicates its own offers.
func (w *Watcher) offer(path string) {
	if !matchFile(path) {
		Logger.Debug("ignoring non-pdf file", "path", path)
		return
	}

	w.mu.Lock()
	if w.seen[path] {
		w.mu.Unlock()
		return
	}
	w.seen[path] = true
	w.mu.Unlock()

	Logger.Info("pdf discovered in watched directory", "path", path)
	w.Index.Enqueue(jobqueue.ImportFile(path, false))
}

// readDir returns the absolute paths of every regular file directly under
// dir.
func readDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
