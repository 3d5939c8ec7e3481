// Package tagger implements the rule-based classification engine: matching
// user-defined tags against a document body and inferring date/language.
package tagger

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/N-Schaef/shreddr/internal/docmodel"
	"github.com/N-Schaef/shreddr/internal/shreddrerr"
	"github.com/pelletier/go-toml/v2"
)

var Logger *slog.Logger = slog.Default()

const component = "tagger"

// Tagger owns the in-memory tag configuration and its persisted file.
type Tagger struct {
	mu       sync.RWMutex
	path     string
	config   docmodel.TagsConfig
	matchers map[docmodel.TagId]func(string) bool
}

// New loads tags from path. A missing file is treated as an empty
// configuration.
func New(path string) (*Tagger, error) {
	t := &Tagger{path: path, matchers: make(map[docmodel.TagId]func(string) bool)}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tagger) load() error {
	raw, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			t.config = docmodel.TagsConfig{}
			return nil
		}
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("read %s: %w", t.path, err))
	}

	var cfg docmodel.TagsConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return shreddrerr.New(shreddrerr.KindParse, component, fmt.Errorf("parse %s: %w", t.path, err))
	}
	t.config = cfg

	t.matchers = make(map[docmodel.TagId]func(string) bool, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		matcher, err := compileMatcher(tag.Matcher)
		if err != nil {
			Logger.Warn("skipping tag with invalid matcher", "tag", tag.Name, "error", err)
			continue
		}
		t.matchers[tag.ID] = matcher
	}
	return nil
}

func (t *Tagger) persist() error {
	raw, err := toml.Marshal(t.config)
	if err != nil {
		return shreddrerr.New(shreddrerr.KindParse, component, fmt.Errorf("marshal tags: %w", err))
	}
	if err := os.WriteFile(t.path, raw, 0o644); err != nil {
		return shreddrerr.New(shreddrerr.KindIO, component, fmt.Errorf("write %s: %w", t.path, err))
	}
	return nil
}

// AddTag assigns the next curr_id to cfg (overriding any caller-supplied
// id), appends it, and persists.
func (t *Tagger) AddTag(cfg docmodel.TagConfig) (docmodel.TagConfig, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	matcher, err := compileMatcher(cfg.Matcher)
	if err != nil {
		return docmodel.TagConfig{}, fmt.Errorf("invalid matcher: %w", err)
	}

	t.config.CurrID++
	cfg.ID = t.config.CurrID
	t.config.Tags = append(t.config.Tags, cfg)
	t.matchers[cfg.ID] = matcher

	if err := t.persist(); err != nil {
		return docmodel.TagConfig{}, err
	}
	return cfg, nil
}

// AddOrReplaceTag replaces the tag with matching id if it exists,
// preserving the id; otherwise it behaves like AddTag.
func (t *Tagger) AddOrReplaceTag(cfg docmodel.TagConfig) (docmodel.TagConfig, error) {
	t.mu.Lock()
	for i, existing := range t.config.Tags {
		if existing.ID != cfg.ID {
			continue
		}
		matcher, err := compileMatcher(cfg.Matcher)
		if err != nil {
			t.mu.Unlock()
			return docmodel.TagConfig{}, fmt.Errorf("invalid matcher: %w", err)
		}
		t.config.Tags[i] = cfg
		t.matchers[cfg.ID] = matcher
		err = t.persist()
		t.mu.Unlock()
		if err != nil {
			return docmodel.TagConfig{}, err
		}
		return cfg, nil
	}
	t.mu.Unlock()

	return t.AddTag(cfg)
}

// RemoveTag drops the tag from the in-memory map and the persisted file.
// Documents that reference the removed id are not rewritten.
func (t *Tagger) RemoveTag(id docmodel.TagId) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.config.Tags[:0]
	for _, tag := range t.config.Tags {
		if tag.ID != id {
			kept = append(kept, tag)
		}
	}
	t.config.Tags = kept
	delete(t.matchers, id)

	return t.persist()
}

// GetTag returns a copy of the tag configuration for id.
func (t *Tagger) GetTag(id docmodel.TagId) (docmodel.TagConfig, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, tag := range t.config.Tags {
		if tag.ID == id {
			return tag, nil
		}
	}
	return docmodel.TagConfig{}, shreddrerr.New(shreddrerr.KindNotFound, component, fmt.Errorf("tag %d", id))
}

// GetTags returns a copy of every configured tag.
func (t *Tagger) GetTags() []docmodel.TagConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]docmodel.TagConfig, len(t.config.Tags))
	copy(out, t.config.Tags)
	return out
}

// TagDocument evaluates every configured matcher against doc's body,
// appending matching tag ids, then infers date and language. Callers
// reprocessing a document must clear Tags and Extracted.DocDate first so
// classification starts clean.
func (t *Tagger) TagDocument(doc *docmodel.DocumentData) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if doc.Body == nil {
		return shreddrerr.New(shreddrerr.KindEmptyBody, component, fmt.Errorf("document %d has no body", doc.ID))
	}
	body := *doc.Body

	for _, tag := range t.config.Tags {
		matcher, ok := t.matchers[tag.ID]
		if !ok {
			continue
		}
		if matcher(body) {
			doc.Tags = append(doc.Tags, tag.ID)
		}
	}

	if date, ok := inferDate(body); ok {
		doc.Extracted.DocDate = date
	}
	if lang, ok := inferLanguage(body); ok {
		doc.Language = &lang
	}
	return nil
}
