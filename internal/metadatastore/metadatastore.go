// Package metadatastore persists the ordered collection of DocumentData to
// a single versioned YAML file, read-through/write-through on every
// mutation, and keeps the search index in sync.
package metadatastore

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/N-Schaef/shreddr/internal/docmodel"
	"github.com/N-Schaef/shreddr/internal/searchindex"
	"github.com/N-Schaef/shreddr/internal/shreddrerr"
	"gopkg.in/yaml.v3"
)

var Logger *slog.Logger = slog.Default()

const component = "metadatastore"

// CurrentVersion is the schema version new files are written at.
const CurrentVersion = 2

// onDisk is the file-level envelope: {version, docs}.
type onDisk struct {
	Version int                     `yaml:"version"`
	Docs    []docmodel.DocumentData `yaml:"docs"`
}

// Store is the persisted, ordered collection of documents, kept in sync
// with a SearchIndex.
type Store struct {
	mu    sync.RWMutex
	path  string
	docs  []docmodel.DocumentData
	index *searchindex.Index
}

// Open loads path (a missing file starts empty at CurrentVersion) and
// associates it with index for upsert/remove propagation. The caller is
// responsible for running migrations on path before calling Open.
func Open(path string, index *searchindex.Index) (*Store, error) {
	s := &Store{path: path, index: index}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("read %s: %w", path, err))
	}

	var doc onDisk
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, shreddrerr.New(shreddrerr.KindParse, component, fmt.Errorf("parse %s: %w", path, err))
	}
	s.docs = doc.Docs
	return s, nil
}

func (s *Store) persist() error {
	payload := onDisk{Version: CurrentVersion, Docs: s.docs}
	raw, err := yaml.Marshal(payload)
	if err != nil {
		return shreddrerr.New(shreddrerr.KindParse, component, fmt.Errorf("marshal docs: %w", err))
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("write %s: %w", s.path, err))
	}
	return nil
}

func (s *Store) indexOf(id docmodel.DocId) int {
	for i := range s.docs {
		if s.docs[i].ID == id {
			return i
		}
	}
	return -1
}

// Add upserts doc: removes any existing record with the same id, appends
// the new one, persists the file, then reindexes the body.
func (s *Store) Add(doc docmodel.DocumentData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(doc.ID); i >= 0 {
		s.docs = append(s.docs[:i], s.docs[i+1:]...)
	}
	s.docs = append(s.docs, doc)

	if err := s.persist(); err != nil {
		return err
	}

	body := ""
	if doc.Body != nil {
		body = *doc.Body
	}
	if s.index != nil {
		if err := s.index.Upsert(doc.ID, body); err != nil {
			return err
		}
	}
	return nil
}

// UpdateMetadata upserts doc's metadata without touching the search index.
func (s *Store) UpdateMetadata(doc docmodel.DocumentData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(doc.ID); i >= 0 {
		s.docs = append(s.docs[:i], s.docs[i+1:]...)
	}
	s.docs = append(s.docs, doc)
	return s.persist()
}

// Remove drops id from the sequence, persists, then removes it from the
// search index.
func (s *Store) Remove(id docmodel.DocId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return shreddrerr.New(shreddrerr.KindNotFound, component, fmt.Errorf("document %d", id))
	}
	s.docs = append(s.docs[:i], s.docs[i+1:]...)

	if err := s.persist(); err != nil {
		return err
	}
	if s.index != nil {
		return s.index.Remove(id)
	}
	return nil
}

// Get returns a copy of the record for id.
func (s *Store) Get(id docmodel.DocId) (docmodel.DocumentData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return docmodel.DocumentData{}, shreddrerr.New(shreddrerr.KindNotFound, component, fmt.Errorf("document %d", id))
	}
	return s.docs[i], nil
}

// Len returns the number of live documents, sourced from the search index
// when available (it is the authoritative count per the on-disk contract).
func (s *Store) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index != nil {
		n, err := s.index.Len()
		if err != nil {
			return 0, err
		}
		return int(n), nil
	}
	return len(s.docs), nil
}

// ContainsHash returns the DocId whose hash equals hex, if any.
func (s *Store) ContainsHash(hex string) (docmodel.DocId, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.docs {
		if d.Hash == hex {
			return d.ID, true
		}
	}
	return 0, false
}

// ReindexAll re-upserts every document's body into the search index. Used
// after a migration that wiped the on-disk index and signaled that a full
// reindex is required.
func (s *Store) ReindexAll() error {
	s.mu.RLock()
	docs := make([]docmodel.DocumentData, len(s.docs))
	copy(docs, s.docs)
	idx := s.index
	s.mu.RUnlock()

	if idx == nil {
		return nil
	}
	for _, d := range docs {
		body := ""
		if d.Body != nil {
			body = *d.Body
		}
		if err := idx.Upsert(d.ID, body); err != nil {
			return err
		}
	}
	return nil
}

// GetAll returns an unsorted (insertion order) slice [offset, offset+count).
func (s *Store) GetAll(offset, count int) []docmodel.DocumentData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sliceWindow(s.docs, offset, count)
}

// GetFiltered implements the deterministic filter/sort/paginate algorithm.
func (s *Store) GetFiltered(offset, count int, filter docmodel.FilterOptions) ([]docmodel.DocumentData, error) {
	s.mu.RLock()
	docs := make([]docmodel.DocumentData, len(s.docs))
	copy(docs, s.docs)
	idx := s.index
	s.mu.RUnlock()

	sortedByScore := false

	if filter.Query != "" {
		if idx == nil {
			return nil, shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("no search index configured"))
		}
		scores, err := idx.Query(filter.Query)
		if err != nil {
			return nil, err
		}
		pruned := searchindex.Prune(scores)

		filtered := docs[:0]
		for _, d := range docs {
			if _, ok := pruned[d.ID]; ok {
				filtered = append(filtered, d)
			}
		}
		docs = filtered

		sort.SliceStable(docs, func(i, j int) bool {
			return pruned[docs[i].ID] > pruned[docs[j].ID]
		})
		sortedByScore = true
	}

	if len(filter.Tags) > 0 {
		filtered := docs[:0]
		for _, d := range docs {
			if d.HasAllTags(filter.Tags) {
				filtered = append(filtered, d)
			}
		}
		docs = filtered
	}

	switch filter.Sort {
	case docmodel.SortImportedDate:
		sort.SliceStable(docs, func(i, j int) bool {
			return docs[i].ImportedDate.After(docs[j].ImportedDate)
		})
	case docmodel.SortInferredDate:
		sort.SliceStable(docs, func(i, j int) bool {
			return inferredDateOrZero(docs[i]).After(inferredDateOrZero(docs[j]))
		})
	case docmodel.SortNoOrder:
		if !sortedByScore {
			sort.SliceStable(docs, func(i, j int) bool {
				return docs[i].ImportedDate.After(docs[j].ImportedDate)
			})
		}
	}

	return sliceWindow(docs, offset, count), nil
}

// inferredDateOrZero returns the zero time.Time (the earliest possible
// value) when a document has no inferred date, so it sorts last in a
// descending-by-inferred-date ordering.
func inferredDateOrZero(d docmodel.DocumentData) time.Time {
	if d.Extracted.DocDate == nil {
		return time.Time{}
	}
	return *d.Extracted.DocDate
}

func sliceWindow(docs []docmodel.DocumentData, offset, count int) []docmodel.DocumentData {
	if offset > len(docs) {
		offset = len(docs)
	}
	end := offset + count
	if end > len(docs) {
		end = len(docs)
	}
	out := make([]docmodel.DocumentData, end-offset)
	copy(out, docs[offset:end])
	return out
}
