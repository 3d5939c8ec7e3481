// Package config loads runtime configuration from the environment (and an
// optional .env file), following the teacher's getEnv/getEnvBool/getEnvInt
// and setupLogging conventions.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/N-Schaef/shreddr/internal/pdfrenderer"
	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere.
var Logger *slog.Logger

// Defaults per the cli's option set.
const (
	defaultMaxUploadSize          = 20 * 1024 * 1024 // 20 MiB
	defaultExtractExtendedMeta    = true
	defaultTesseractLanguages     = "eng"
	defaultDataDir                = "data"
	defaultConsumeDir             = "consume"
	defaultWatchReconcileInterval = 60 // seconds
	defaultPDFRendererBackend     = pdfrenderer.BackendFitz
)

// Config holds every runtime setting the daemon needs.
type Config struct {
	// DataDir is the root under which documents/, index/, thumbnails/,
	// tags.toml and id.dat live.
	DataDir string
	// ConsumeDir is watched for new files to import.
	ConsumeDir string
	// Server enables the embedded HTTP API alongside the ingestion daemon.
	// The daemon built here has no HTTP surface and runs the watcher and
	// worker unconditionally; this value is only logged at startup and
	// nothing branches on it.
	Server bool
	// TesseractLanguages is the OCR language set passed to ocrmypdf, e.g.
	// ["eng", "deu"]. Must be non-empty.
	TesseractLanguages []string
	// MaxUploadSize bounds an accepted upload, in bytes.
	MaxUploadSize int64
	// ExtractExtendedMetadata enables phone/email/link/IBAN extraction
	// during tagging.
	ExtractExtendedMetadata bool
	// WatchReconcileInterval is how often the watcher re-scans ConsumeDir
	// for files a missed fsnotify event might have left behind.
	WatchReconcileInterval int
	// PDFRendererBackend picks the in-process thumbnail rasterizer used when
	// `convert` is not on PATH: "fitz" (CGo/MuPDF, default) or "pdfium"
	// (pure-Go WebAssembly, for builds without a C toolchain).
	PDFRendererBackend pdfrenderer.Backend
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// Load reads configuration from the environment (after trying to load
// ".env" and "config.env", both silently ignored if absent), sets up
// logging, and validates that the data and consume directories exist
// (creating them if needed).
func Load() (Config, *slog.Logger, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	logger := setupLogging()
	Logger = logger

	cfg := Config{}

	dataDir := filepath.ToSlash(getEnv("DATA_DIR", defaultDataDir))
	dataDirAbs, err := filepath.Abs(dataDir)
	if err != nil {
		return Config{}, logger, fmt.Errorf("absolute data dir: %w", err)
	}
	cfg.DataDir = dataDirAbs

	consumeDir := filepath.ToSlash(getEnv("CONSUME_DIR", defaultConsumeDir))
	consumeDirAbs, err := filepath.Abs(consumeDir)
	if err != nil {
		return Config{}, logger, fmt.Errorf("absolute consume dir: %w", err)
	}
	cfg.ConsumeDir = consumeDirAbs

	cfg.Server = getEnvBool("SERVER", false)

	langs := getEnv("TESSERACT_LANGUAGES", defaultTesseractLanguages)
	for _, l := range strings.Split(langs, ",") {
		l = strings.TrimSpace(l)
		if l != "" {
			cfg.TesseractLanguages = append(cfg.TesseractLanguages, l)
		}
	}

	cfg.MaxUploadSize = int64(getEnvInt("MAX_UPLOAD_SIZE", defaultMaxUploadSize))
	cfg.ExtractExtendedMetadata = getEnvBool("EXTRACT_EXTENDED_METADATA", defaultExtractExtendedMeta)
	cfg.WatchReconcileInterval = getEnvInt("WATCH_RECONCILE_INTERVAL", defaultWatchReconcileInterval)
	cfg.PDFRendererBackend = pdfrenderer.Backend(getEnv("PDF_RENDERER_BACKEND", string(defaultPDFRendererBackend)))

	if err := cfg.validate(); err != nil {
		return Config{}, logger, err
	}

	logger.Info("configuration loaded",
		"data_dir", cfg.DataDir,
		"consume_dir", cfg.ConsumeDir,
		"server", cfg.Server,
		"tesseract_languages", cfg.TesseractLanguages,
		"max_upload_size", cfg.MaxUploadSize,
	)

	return cfg, logger, nil
}

// validate ensures DataDir and ConsumeDir exist (creating them if absent),
// that at least one tesseract language is configured, and that
// PDFRendererBackend names a renderer this build knows about.
func (c Config) validate() error {
	if len(c.TesseractLanguages) == 0 {
		return fmt.Errorf("no tesseract languages configured")
	}
	switch c.PDFRendererBackend {
	case pdfrenderer.BackendFitz, pdfrenderer.BackendPDFium:
	default:
		return fmt.Errorf("unknown pdf renderer backend %q", c.PDFRendererBackend)
	}
	for _, dir := range []string{c.DataDir, c.ConsumeDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// setupLogging configures the application logger: text handler to stdout or
// to LOG_FILE under DataDir, level from LOG_LEVEL.
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	var logWriter io.Writer
	logOutput := getEnv("LOG_OUTPUT", "stdout")
	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logName := getEnv("LOG_FILE", "shreddr.log")
		if !filepath.IsAbs(logName) {
			logName = filepath.Join(getEnv("DATA_DIR", defaultDataDir), logName)
		}
		logPath, err := filepath.Abs(filepath.ToSlash(logName))
		if err != nil {
			fmt.Printf("error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			fmt.Printf("failed to create log directory: %v\n", err)
			logWriter = os.Stdout
		} else if logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666); err != nil {
			fmt.Printf("failed to open log file: %v\n", err)
			logWriter = os.Stdout
		} else {
			logWriter = logFile
		}
	}

	return slog.New(slog.NewTextHandler(logWriter, handlerOptions))
}
