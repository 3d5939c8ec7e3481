// Package docmodel defines the data types shared across the ingestion and
// indexing pipeline: documents, tags, matchers, and query filters.
package docmodel

import "time"

// DocId identifies a document. Ids are allocated monotonically and never
// reused.
type DocId = uint64

// TagId identifies a tag.
type TagId = uint64

// ExtractedData holds metadata inferred from a document's body during
// tagging, beyond the tag set itself.
type ExtractedData struct {
	Phone []string   `yaml:"phone" json:"phone"`
	Email []string   `yaml:"email" json:"email"`
	Link  []string   `yaml:"link" json:"link"`
	IBAN  []string   `yaml:"iban" json:"iban"`
	// DocDate is the inferred document date, nil if none could be inferred.
	DocDate *time.Time `yaml:"doc_date,omitempty" json:"doc_date,omitempty"`
}

// DocumentData is the persisted record for one document. Body is
// deliberately excluded from YAML persistence: it is transient, re-derived
// from the stored file and fed only to the search index.
type DocumentData struct {
	ID               DocId         `yaml:"id" json:"id"`
	OriginalFilename string        `yaml:"original_filename" json:"original_filename"`
	Title            string        `yaml:"title" json:"title"`
	Body             *string       `yaml:"-" json:"-"`
	Tags             []TagId       `yaml:"tags" json:"tags"`
	ImportedDate     time.Time     `yaml:"imported_date" json:"imported_date"`
	Hash             string        `yaml:"hash" json:"hash"`
	FileSize         uint64        `yaml:"file_size" json:"file_size"`
	Language         *string       `yaml:"language,omitempty" json:"language,omitempty"`
	Extracted        ExtractedData `yaml:"extracted" json:"extracted"`
}

// HasTag reports whether the document carries tag id t.
func (d *DocumentData) HasTag(t TagId) bool {
	for _, tag := range d.Tags {
		if tag == t {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the document carries every tag in want.
func (d *DocumentData) HasAllTags(want []TagId) bool {
	for _, t := range want {
		if !d.HasTag(t) {
			return false
		}
	}
	return true
}

// MatcherKind discriminates the tagged union of tag matcher variants.
type MatcherKind string

const (
	MatcherFull  MatcherKind = "full"
	MatcherRegex MatcherKind = "regex"
	MatcherAny   MatcherKind = "any"
)

// MatcherConfig is the on-disk, tagged-union representation of a matcher:
// Kind selects which fields apply, rather than an interface hierarchy, so
// the whole thing round-trips through TOML as a flat struct.
type MatcherConfig struct {
	Kind            MatcherKind `toml:"kind" json:"kind"`
	MatchStr        string      `toml:"match_str" json:"match_str"`
	CaseInsensitive bool        `toml:"case_insensitive,omitempty" json:"case_insensitive,omitempty"`
}

// TagConfig is a user-defined classification rule.
type TagConfig struct {
	ID      TagId         `toml:"id" json:"id"`
	Name    string        `toml:"name" json:"name"`
	Color   *string       `toml:"color,omitempty" json:"color,omitempty"`
	Matcher MatcherConfig `toml:"matcher" json:"matcher"`
}

// TagsConfig is the persisted tag collection.
type TagsConfig struct {
	CurrID TagId       `toml:"curr_id" json:"curr_id"`
	Tags   []TagConfig `toml:"tags" json:"tags"`
}

// SortOrder selects the ordering applied by a filtered query.
type SortOrder int

const (
	SortImportedDate SortOrder = iota
	SortInferredDate
	SortNoOrder
)

// FilterOptions parameterizes MetadataStore.GetFiltered.
type FilterOptions struct {
	Sort  SortOrder
	Tags  []TagId
	Query string
}
