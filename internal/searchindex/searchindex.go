// Package searchindex is an n-gram inverted index over document bodies,
// backed by bleve's on-disk scorch index -- the Go analogue of the
// original implementation's tantivy + MmapDirectory + NgramTokenizer(3,6).
package searchindex

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/N-Schaef/shreddr/internal/docmodel"
	"github.com/N-Schaef/shreddr/internal/shreddrerr"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/token/ngram"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
)

var Logger *slog.Logger = slog.Default()

const component = "searchindex"

// analyzerName is the custom n-gram analyzer registered on the body field.
const analyzerName = "shreddr_ngram"

// queryLimit bounds the number of hits a free-text query returns.
const queryLimit = 100

// pruneRatio keeps only hits scoring above pruneRatio * max score, per the
// filtered-query pruning contract in MetadataStore.GetFiltered.
const pruneRatio = 0.1

type indexedDoc struct {
	ID   uint64 `json:"id"`
	Body string `json:"body"`
}

// Index wraps a bleve index over document bodies.
type Index struct {
	mu   sync.RWMutex
	bi   bleve.Index
	path string
}

// Open opens the index at path, creating it (with the n-gram analyzer
// configured) if absent.
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		bi, err := bleve.Open(path)
		if err != nil {
			return nil, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("open index %s: %w", path, err))
		}
		return &Index{bi: bi, path: path}, nil
	}

	mapping, err := buildMapping()
	if err != nil {
		return nil, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("build index mapping: %w", err))
	}

	bi, err := bleve.New(path, mapping)
	if err != nil {
		return nil, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("create index %s: %w", path, err))
	}
	Logger.Info("search index created", "path", path)
	return &Index{bi: bi, path: path}, nil
}

func buildMapping() (*bleve.IndexMapping, error) {
	im := bleve.NewIndexMapping()

	if err := im.AddCustomTokenFilter("shreddr_ngram_filter", map[string]interface{}{
		"type": ngram.Name,
		"min":  3.0,
		"max":  6.0,
	}); err != nil {
		return nil, err
	}

	if err := im.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			"to_lower",
			"shreddr_ngram_filter",
		},
	}); err != nil {
		return nil, err
	}

	bodyField := bleve.NewTextFieldMapping()
	bodyField.Analyzer = analyzerName
	bodyField.Store = false
	bodyField.IncludeTermVectors = true

	idField := bleve.NewNumericFieldMapping()
	idField.Store = true
	idField.Index = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("body", bodyField)
	docMapping.AddFieldMappingsAt("id", idField)

	im.DefaultMapping = docMapping
	return im, nil
}

// Upsert deletes any existing document with the same id then indexes the
// given body, committing synchronously before returning.
func (idx *Index) Upsert(id docmodel.DocId, body string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	docID := strconv.FormatUint(id, 10)
	if err := idx.bi.Index(docID, indexedDoc{ID: id, Body: body}); err != nil {
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("index document %d: %w", id, err))
	}
	return nil
}

// Remove deletes the document with the given id, if present.
func (idx *Index) Remove(id docmodel.DocId) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	docID := strconv.FormatUint(id, 10)
	if err := idx.bi.Delete(docID); err != nil {
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("remove document %d: %w", id, err))
	}
	return nil
}

// Len returns the total number of live documents in the index.
func (idx *Index) Len() (uint64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	count, err := idx.bi.DocCount()
	if err != nil {
		return 0, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("doc count: %w", err))
	}
	return count, nil
}

// Query tokenizes text with the index's n-gram analyzer, runs a
// disjunctive match query over the body field with a top-N limit, and
// returns a DocId -> score mapping for each hit.
func (idx *Index) Query(text string) (map[docmodel.DocId]float64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	query := bleve.NewMatchQuery(text)
	query.SetField("body")
	query.Analyzer = analyzerName

	req := bleve.NewSearchRequestOptions(query, queryLimit, 0, false)
	result, err := idx.bi.Search(req)
	if err != nil {
		return nil, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("search: %w", err))
	}

	scores := make(map[docmodel.DocId]float64, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		scores[id] = hit.Score
	}
	return scores, nil
}

// Prune drops every score at or below pruneRatio * max(scores), per the
// filtered-query pruning contract.
func Prune(scores map[docmodel.DocId]float64) map[docmodel.DocId]float64 {
	var max float64
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	threshold := max * pruneRatio
	pruned := make(map[docmodel.DocId]float64, len(scores))
	for id, s := range scores {
		if s > threshold {
			pruned[id] = s
		}
	}
	return pruned
}

// Close releases the underlying bleve index.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.bi.Close()
}
