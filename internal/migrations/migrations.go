// Package migrations applies forward-only schema migrations to the
// on-disk metadata file, mirroring the teacher's numbered-migration-list
// idiom (database/bun_migrations.go) but operating on a single YAML file
// instead of a SQL schema.
package migrations

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/N-Schaef/shreddr/internal/docmodel"
	"github.com/N-Schaef/shreddr/internal/shreddrerr"
	"gopkg.in/yaml.v3"
)

var Logger *slog.Logger = slog.Default()

const component = "migrations"

// MaxVersion is the highest schema version this build understands.
const MaxVersion = 2

// legacySegmentExtensions are the tantivy on-disk segment file suffixes the
// original implementation deletes on the v1->v2 reindex migration. Kept
// for on-disk compatibility with metadata files migrated from that format,
// even though this build's SearchIndex is bleve-backed.
var legacySegmentExtensions = []string{
	".fast", ".fieldnorm", ".idx", ".lock", ".pos", ".posidx", ".store", ".term",
}

// docV0 is the bare pre-versioning record shape: a flat list of these used
// to be the entire docs.yaml file.
type docV0 struct {
	ID               docmodel.DocId `yaml:"id"`
	OriginalFilename string         `yaml:"original_filename"`
	Title            string         `yaml:"title"`
	Tags             []docmodel.TagId `yaml:"tags"`
	ImportedDate     time.Time      `yaml:"imported_date"`
	Hash             string         `yaml:"hash"`
	FileSize         uint64         `yaml:"file_size"`
	Language         *string        `yaml:"language,omitempty"`
	InferredDate     *time.Time     `yaml:"inferred_date,omitempty"`
}

type versionedFile struct {
	Version int `yaml:"version"`
}

type v1File struct {
	Version int                     `yaml:"version"`
	Docs    []docmodel.DocumentData `yaml:"docs"`
}

// Result reports what a migration run did, so the façade knows whether a
// full reindex is required before first use.
type Result struct {
	FromVersion      int
	ToVersion        int
	ReindexRequired  bool
}

// Migrate brings docsPath up to MaxVersion, deleting stale search-index
// segment files if the v1->v2 step ran, and wiping bleveDir (the
// SearchIndex's own subdirectory, distinct from docsPath) so the façade can
// rebuild it from the migrated docs. It is idempotent: running it again
// once the file is already at MaxVersion is a no-op.
func Migrate(docsPath, bleveDir string) (Result, error) {
	raw, err := os.ReadFile(docsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{FromVersion: MaxVersion, ToVersion: MaxVersion}, nil
		}
		return Result{}, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("read %s: %w", docsPath, err))
	}

	version, isBareList := detectVersion(raw)
	if version > MaxVersion {
		return Result{}, shreddrerr.New(shreddrerr.KindUnsupportedVersion, component, fmt.Errorf("version %d exceeds max %d", version, MaxVersion))
	}

	from := version
	reindexRequired := false

	if version == 0 {
		migrated, err := migrateV0ToV1(raw, isBareList)
		if err != nil {
			return Result{}, err
		}
		if err := writeV1(docsPath, migrated); err != nil {
			return Result{}, err
		}
		version = 1
		Logger.Info("ran migration", "version", 1, "name", "wrap bare document list")
	}

	if version == 1 {
		if err := deleteLegacySegments(bleveDir); err != nil {
			return Result{}, err
		}
		if err := bumpVersion(docsPath); err != nil {
			return Result{}, err
		}
		version = 2
		reindexRequired = true
		Logger.Info("ran migration", "version", 2, "name", "wipe stale search index, require reindex")
	}

	return Result{FromVersion: from, ToVersion: version, ReindexRequired: reindexRequired}, nil
}

func detectVersion(raw []byte) (version int, isBareList bool) {
	var v versionedFile
	if err := yaml.Unmarshal(raw, &v); err == nil {
		// A mapping: a {version, docs} envelope (version absent means 0).
		return v.Version, false
	}
	return 0, true
}

func migrateV0ToV1(raw []byte, isBareList bool) (v1File, error) {
	var out v1File
	out.Version = 1

	if isBareList {
		var legacy []docV0
		if err := yaml.Unmarshal(raw, &legacy); err != nil {
			return v1File{}, shreddrerr.New(shreddrerr.KindParse, component, fmt.Errorf("parse legacy v0 docs: %w", err))
		}
		for _, d := range legacy {
			out.Docs = append(out.Docs, docmodel.DocumentData{
				ID:               d.ID,
				OriginalFilename: d.OriginalFilename,
				Title:            d.Title,
				Tags:             d.Tags,
				ImportedDate:     d.ImportedDate,
				Hash:             d.Hash,
				FileSize:         d.FileSize,
				Language:         d.Language,
				Extracted: docmodel.ExtractedData{
					DocDate: d.InferredDate,
				},
			})
		}
		return out, nil
	}

	// Versioned envelope already at {version:0, docs:[...]} shape.
	var withVersion struct {
		Version int     `yaml:"version"`
		Docs    []docV0 `yaml:"docs"`
	}
	if err := yaml.Unmarshal(raw, &withVersion); err != nil {
		return v1File{}, shreddrerr.New(shreddrerr.KindParse, component, fmt.Errorf("parse v0 docs: %w", err))
	}
	for _, d := range withVersion.Docs {
		out.Docs = append(out.Docs, docmodel.DocumentData{
			ID:               d.ID,
			OriginalFilename: d.OriginalFilename,
			Title:            d.Title,
			Tags:             d.Tags,
			ImportedDate:     d.ImportedDate,
			Hash:             d.Hash,
			FileSize:         d.FileSize,
			Language:         d.Language,
			Extracted: docmodel.ExtractedData{
				DocDate: d.InferredDate,
			},
		})
	}
	return out, nil
}

func writeV1(path string, doc v1File) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return shreddrerr.New(shreddrerr.KindParse, component, fmt.Errorf("marshal migrated docs: %w", err))
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}

func bumpVersion(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("read %s: %w", path, err))
	}
	var doc v1File
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return shreddrerr.New(shreddrerr.KindParse, component, fmt.Errorf("parse %s: %w", path, err))
	}
	doc.Version = 2
	return writeV1(path, doc)
}

// deleteLegacySegments removes any stale tantivy-style segment files under
// dir, plus meta.json, then removes dir entirely so a bleve-backed
// SearchIndex starts clean. dir must be the SearchIndex's own
// subdirectory, never the directory that also holds docs.yaml.
func deleteLegacySegments(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("readdir %s: %w", dir, err))
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == "meta.json" || hasLegacyExtension(name) {
			if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
				return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("remove %s: %w", name, err))
			}
		}
	}

	// The bleve index itself lives alongside these legacy markers; remove
	// it wholesale so the façade rebuilds from the migrated docs.
	if err := os.RemoveAll(dir); err != nil {
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("remove index dir %s: %w", dir, err))
	}
	return nil
}

func hasLegacyExtension(name string) bool {
	for _, ext := range legacySegmentExtensions {
		if filepath.Ext(name) == ext {
			return true
		}
	}
	return false
}
