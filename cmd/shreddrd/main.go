// Command shreddrd wires up the ingestion/indexing pipeline: it loads
// configuration, opens the Index façade, starts the consume-directory
// watcher and the single job-queue worker, and runs until signaled to
// shut down.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/N-Schaef/shreddr/internal/config"
	"github.com/N-Schaef/shreddr/internal/filestore"
	"github.com/N-Schaef/shreddr/internal/idalloc"
	"github.com/N-Schaef/shreddr/internal/index"
	"github.com/N-Schaef/shreddr/internal/jobqueue"
	"github.com/N-Schaef/shreddr/internal/metadatastore"
	"github.com/N-Schaef/shreddr/internal/migrations"
	"github.com/N-Schaef/shreddr/internal/pdfrenderer"
	"github.com/N-Schaef/shreddr/internal/searchindex"
	"github.com/N-Schaef/shreddr/internal/tagger"
	"github.com/N-Schaef/shreddr/internal/textextract"
	"github.com/N-Schaef/shreddr/internal/watcher"
)

// Logger is global since we will need it everywhere.
var Logger *slog.Logger

// injectGlobals injects the process-wide logger into every package that
// logs, mirroring the teacher's injectGlobals.
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = logger
	filestore.Logger = logger
	idalloc.Logger = logger
	index.Logger = logger
	jobqueue.Logger = logger
	metadatastore.Logger = logger
	migrations.Logger = logger
	pdfrenderer.Logger = logger
	searchindex.Logger = logger
	tagger.Logger = logger
	textextract.Logger = logger
	watcher.Logger = logger
}

func main() {
	cfg, logger, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	injectGlobals(logger)

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("shreddr - document ingestion and indexing daemon")
	fmt.Println(strings.Repeat("=", 50))

	ix, err := index.Open(cfg.DataDir, cfg.TesseractLanguages, cfg.PDFRendererBackend)
	if err != nil {
		Logger.Error("failed to open index", "error", err)
		os.Exit(1)
	}
	defer ix.Close()

	w := watcher.New(cfg.ConsumeDir, ix, cfg.WatchReconcileInterval)
	if err := w.Start(); err != nil {
		Logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		ix.RunWorker()
	}()

	Logger.Info("shreddr daemon started", "data_dir", cfg.DataDir, "consume_dir", cfg.ConsumeDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	Logger.Info("shutting down")
	w.Stop()
	ix.CloseQueue()
	<-workerDone
	Logger.Info("shreddr daemon stopped")
}
