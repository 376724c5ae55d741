package query

import (
	"sort"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/index"
	"github.com/gcbaptista/go-inner-hits/internal/tokenizer"
	"github.com/gcbaptista/go-inner-hits/model"
)

// Unit is one matchable thing: a stored document or a nested sub-document of one.
// A Unit lazily caches its field values and term frequencies, so it must not be
// shared between goroutines; build fresh units per worker instead.
type Unit struct {
	DocID   uint32                 // Internal ID of the stored document owning the unit
	ID      string                 // External ID of that stored document
	Type    string                 // Document type of that stored document
	Path    string                 // Full dot-path of a nested unit, "" for a stored document
	Nested  *model.NestedIdentity  // Address of a nested unit, nil for a stored document
	Source  map[string]interface{} // The unit's own object
	Ordinal int                    // Position among the candidates it was resolved with

	settings *config.IndexSettings
	values   map[string][]interface{}
	analyses map[string]tokenizer.Analysis
}

// NewDocumentUnit wraps a stored document.
func NewDocumentUnit(settings *config.IndexSettings, docID uint32, doc model.Document) *Unit {
	id, _ := doc.GetDocumentID()
	return &Unit{
		DocID:    docID,
		ID:       id,
		Type:     doc.GetDocumentType(settings.DefaultType),
		Source:   doc,
		settings: settings,
	}
}

// NewNestedUnit wraps a nested sub-document of owner.
func NewNestedUnit(owner *Unit, path string, identity *model.NestedIdentity, source map[string]interface{}) *Unit {
	return &Unit{
		DocID:    owner.DocID,
		ID:       owner.ID,
		Type:     owner.Type,
		Path:     path,
		Nested:   identity,
		Source:   source,
		settings: owner.settings,
	}
}

// Settings returns the index settings the unit was built with.
func (u *Unit) Settings() *config.IndexSettings {
	return u.settings
}

// IsDocument reports whether the unit is a stored document rather than a nested one.
func (u *Unit) IsDocument() bool {
	return u.Nested == nil
}

func (u *Unit) load() {
	if u.values != nil {
		return
	}
	u.values = make(map[string][]interface{})
	index.WalkFields(u.Source, u.Path, u.settings.IsNested, func(path string, value interface{}) {
		if items, ok := value.([]interface{}); ok {
			u.values[path] = append(u.values[path], items...)
			return
		}
		u.values[path] = append(u.values[path], value)
	})
}

// Values returns every leaf value of a full dot-path field that belongs to this unit.
// Fields under a nested path deeper than the unit are not visible.
func (u *Unit) Values(field string) []interface{} {
	u.load()
	return u.values[field]
}

// Fields returns the unit's own fields in sorted order.
func (u *Unit) Fields() []string {
	u.load()
	fields := make([]string, 0, len(u.values))
	for field := range u.values {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Analysis returns the term frequencies of a searchable text field.
func (u *Unit) Analysis(field string) (tokenizer.Analysis, bool) {
	if !u.settings.IsSearchable(field) {
		return tokenizer.Analysis{}, false
	}
	if an, ok := u.analyses[field]; ok {
		return an, an.Length > 0
	}
	if u.analyses == nil {
		u.analyses = make(map[string]tokenizer.Analysis)
	}
	text, ok := index.TextOf(u.Values(field))
	var an tokenizer.Analysis
	if ok {
		an = tokenizer.Analyze(text)
	}
	u.analyses[field] = an
	return an, an.Length > 0
}

// Clone returns a copy of u with empty caches, safe to hand to another goroutine.
func (u *Unit) Clone() *Unit {
	return &Unit{
		DocID:    u.DocID,
		ID:       u.ID,
		Type:     u.Type,
		Path:     u.Path,
		Nested:   u.Nested,
		Source:   u.Source,
		Ordinal:  u.Ordinal,
		settings: u.settings,
	}
}
