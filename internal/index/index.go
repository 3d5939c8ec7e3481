// Package index implements the Index façade: the single coordination point
// that owns FileStore, MetadataStore, SearchIndex, Tagger, TextExtractor and
// IdAllocator, and enforces the single-writer discipline across them.
//
// Each component guards its own state with its own lock and releases it
// before the façade moves on to the next component. The one nested
// acquisition is MetadataStore, which holds its own lock while it calls into
// SearchIndex; nothing takes those two locks in the opposite order, so two
// concurrent façade operations cannot deadlock on them.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/N-Schaef/shreddr/internal/docmodel"
	"github.com/N-Schaef/shreddr/internal/filestore"
	"github.com/N-Schaef/shreddr/internal/idalloc"
	"github.com/N-Schaef/shreddr/internal/jobqueue"
	"github.com/N-Schaef/shreddr/internal/metadatastore"
	"github.com/N-Schaef/shreddr/internal/migrations"
	"github.com/N-Schaef/shreddr/internal/pdfrenderer"
	"github.com/N-Schaef/shreddr/internal/searchindex"
	"github.com/N-Schaef/shreddr/internal/shreddrerr"
	"github.com/N-Schaef/shreddr/internal/tagger"
	"github.com/N-Schaef/shreddr/internal/textextract"
)

var Logger *slog.Logger = slog.Default()

const component = "index"

// Index is the façade. All fields are themselves safe for concurrent use;
// Index adds no lock of its own.
type Index struct {
	dataDir      string
	thumbnailDir string

	files     *filestore.Store
	meta      *metadatastore.Store
	search    *searchindex.Index
	tagger    *tagger.Tagger
	extractor *textextract.Extractor
	ids       *idalloc.Allocator

	jobs   *jobqueue.Queue
	worker *jobqueue.Worker
}

// Open wires every component rooted at dataDir, running migrations before
// the metadata store and search index are opened. rendererBackend selects
// the in-process PDF rasterizer used for thumbnails when `convert` is
// unavailable (see internal/pdfrenderer); an empty value defaults to Fitz.
func Open(dataDir string, tesseractLanguages []string, rendererBackend pdfrenderer.Backend) (*Index, error) {
	documentsDir := filepath.Join(dataDir, "documents")
	thumbnailDir := filepath.Join(dataDir, "thumbnails")
	tmpDir := filepath.Join(dataDir, "tmp")
	indexDir := filepath.Join(dataDir, "index")
	bleveDir := filepath.Join(indexDir, "bleve")
	docsPath := filepath.Join(indexDir, "docs.yaml")
	idPath := filepath.Join(dataDir, "id.dat")
	tagsPath := filepath.Join(dataDir, "tags.toml")

	for _, dir := range []string{dataDir, documentsDir, thumbnailDir, tmpDir, indexDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("create %s: %w", dir, err))
		}
	}

	result, err := migrations.Migrate(docsPath, bleveDir)
	if err != nil {
		return nil, err
	}
	if result.FromVersion != result.ToVersion {
		Logger.Info("migrated metadata store", "from", result.FromVersion, "to", result.ToVersion)
	}

	search, err := searchindex.Open(bleveDir)
	if err != nil {
		return nil, err
	}

	meta, err := metadatastore.Open(docsPath, search)
	if err != nil {
		return nil, err
	}

	if result.ReindexRequired {
		Logger.Info("full reindex required after migration, rebuilding search index")
		if err := meta.ReindexAll(); err != nil {
			return nil, err
		}
	}

	files, err := filestore.New(documentsDir)
	if err != nil {
		return nil, err
	}

	tg, err := tagger.New(tagsPath)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		dataDir:      dataDir,
		thumbnailDir: thumbnailDir,
		files:        files,
		meta:         meta,
		search:       search,
		tagger:       tg,
		extractor:    textextract.New(tesseractLanguages, tmpDir, rendererBackend),
		ids:          idalloc.New(idPath),
	}

	ix.jobs = jobqueue.NewQueue()
	ix.worker = jobqueue.NewWorker(ix.jobs, ix)
	return ix, nil
}

// Close releases the search index's underlying file handles.
func (ix *Index) Close() error {
	return ix.search.Close()
}

// Enqueue pushes a job onto the queue for the worker goroutine to pick up.
// Producers (watcher, upload handlers) call this rather than the import/
// reprocess methods directly, so every mutation flows through the single
// worker.
func (ix *Index) Enqueue(t jobqueue.JobType) jobqueue.Job {
	return ix.jobs.Push(t)
}

// QueueLen reports the number of jobs awaiting the worker, for producer-side
// backpressure sampling.
func (ix *Index) QueueLen() int {
	return ix.jobs.Len()
}

// RunWorker drains the job queue forever on the calling goroutine. It
// returns once the queue is closed and drained.
func (ix *Index) RunWorker() {
	ix.worker.Run()
}

// CloseQueue signals the worker to exit once the queue drains.
func (ix *Index) CloseQueue() {
	ix.jobs.Close()
}

// GetCurrentJob exposes the worker's in-flight job, if any.
func (ix *Index) GetCurrentJob() (jobqueue.Job, bool) {
	return ix.worker.CurrentJob()
}

// ImportFile computes the source file's hash, short-circuits on a duplicate,
// and otherwise allocates an id, copies the file, extracts text, renders a
// thumbnail, tags the document and persists it. Satisfies
// jobqueue.Processor.
func (ix *Index) ImportFile(path string, copy bool) (docmodel.DocId, error) {
	hash, size, err := hashFile(path)
	if err != nil {
		return 0, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("hash %s: %w", path, err))
	}

	if existing, ok := ix.meta.ContainsHash(hash); ok {
		Logger.Info("duplicate import, skipping", "path", path, "hash", hash, "existing_id", existing)
		return existing, nil
	}

	id, err := ix.ids.Next()
	if err != nil {
		return 0, err
	}

	if err := ix.files.Add(id, path); err != nil {
		return 0, err
	}
	storedPath, err := ix.files.Get(id)
	if err != nil {
		return 0, err
	}

	body, err := ix.extractor.ExtractBody(storedPath)
	if err != nil {
		Logger.Warn("text extraction failed, importing without a body", "id", id, "error", err)
	}

	ix.extractor.RenderThumbnail(storedPath, ix.thumbnailPath(id))

	doc := docmodel.DocumentData{
		ID:               id,
		OriginalFilename: filepath.Base(path),
		Body:             body,
		Tags:             []docmodel.TagId{},
		ImportedDate:     time.Now().UTC(),
		Hash:             hash,
		FileSize:         size,
	}

	if err := ix.tagger.TagDocument(&doc); err != nil {
		Logger.Warn("tagging failed", "id", id, "error", err)
	}

	if err := ix.meta.Add(doc); err != nil {
		return 0, err
	}

	if !copy {
		if err := os.Remove(path); err != nil {
			Logger.Warn("failed to remove source file after non-copy import", "path", path, "error", err)
		}
	}

	return id, nil
}

// ReprocessFile re-extracts a document's body (via the normal extraction
// path, or directly via OCR when forceOCR is set), clears its classification, re-renders its thumbnail,
// re-tags it and persists the result. Satisfies jobqueue.Processor.
func (ix *Index) ReprocessFile(id docmodel.DocId, forceOCR bool) error {
	doc, err := ix.meta.Get(id)
	if err != nil {
		return err
	}

	path, err := ix.files.Get(id)
	if err != nil {
		return err
	}

	var body *string
	if forceOCR {
		body, err = ix.extractor.OCR(path)
	} else {
		body, err = ix.extractor.ExtractBody(path)
	}
	if err != nil {
		Logger.Warn("reprocess extraction failed, keeping prior body", "id", id, "force_ocr", forceOCR, "error", err)
	} else {
		doc.Body = body
	}

	ix.extractor.RenderThumbnail(path, ix.thumbnailPath(id))

	doc.Tags = []docmodel.TagId{}
	doc.Extracted.DocDate = nil
	if err := ix.tagger.TagDocument(&doc); err != nil {
		Logger.Warn("tagging failed during reprocess", "id", id, "error", err)
	}

	return ix.meta.Add(doc)
}

// RemoveDocument deletes a document's file and metadata. Either side
// missing is logged and treated as a partial success, per the façade
// contract.
func (ix *Index) RemoveDocument(id docmodel.DocId) error {
	var firstErr error
	if _, err := ix.files.Get(id); err != nil {
		Logger.Warn("stored file already missing, removing metadata only", "id", id)
	} else if err := ix.files.Remove(id); err != nil {
		Logger.Warn("removing stored file failed", "id", id, "error", err)
		firstErr = err
	}
	if err := ix.meta.Remove(id); err != nil {
		if shreddrerr.Is(err, shreddrerr.KindNotFound) {
			Logger.Warn("metadata already missing, treating removal as partial success", "id", id)
		} else {
			Logger.Warn("removing metadata failed", "id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// GetDocument returns a document's metadata record.
func (ix *Index) GetDocument(id docmodel.DocId) (docmodel.DocumentData, error) {
	return ix.meta.Get(id)
}

// GetDocumentPath returns the on-disk path of a document's stored file.
func (ix *Index) GetDocumentPath(id docmodel.DocId) (string, error) {
	return ix.files.Get(id)
}

// GetDocuments returns an unsorted window of documents.
func (ix *Index) GetDocuments(offset, count int) []docmodel.DocumentData {
	return ix.meta.GetAll(offset, count)
}

// GetSortedDocuments returns a filtered, sorted, paginated window.
func (ix *Index) GetSortedDocuments(offset, count int, filter docmodel.FilterOptions) ([]docmodel.DocumentData, error) {
	return ix.meta.GetFiltered(offset, count, filter)
}

// UpdateDocMetadata upserts a document's metadata without re-indexing.
func (ix *Index) UpdateDocMetadata(doc docmodel.DocumentData) error {
	return ix.meta.UpdateMetadata(doc)
}

// AddTag passes through to the Tagger.
func (ix *Index) AddTag(cfg docmodel.TagConfig) (docmodel.TagConfig, error) {
	return ix.tagger.AddTag(cfg)
}

// AddOrReplaceTag passes through to the Tagger.
func (ix *Index) AddOrReplaceTag(cfg docmodel.TagConfig) (docmodel.TagConfig, error) {
	return ix.tagger.AddOrReplaceTag(cfg)
}

// RemoveTag passes through to the Tagger.
func (ix *Index) RemoveTag(id docmodel.TagId) error {
	return ix.tagger.RemoveTag(id)
}

// GetTag passes through to the Tagger.
func (ix *Index) GetTag(id docmodel.TagId) (docmodel.TagConfig, error) {
	return ix.tagger.GetTag(id)
}

// GetTags passes through to the Tagger.
func (ix *Index) GetTags() []docmodel.TagConfig {
	return ix.tagger.GetTags()
}

func (ix *Index) thumbnailPath(id docmodel.DocId) string {
	return filepath.Join(ix.thumbnailDir, fmt.Sprintf("%d.jpg", id))
}

func hashFile(path string) (hexDigest string, size uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), uint64(n), nil
}
