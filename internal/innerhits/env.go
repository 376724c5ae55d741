package innerhits

import (
	"fmt"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/index"
	"github.com/gcbaptista/go-inner-hits/internal/query"
	"github.com/gcbaptista/go-inner-hits/store"
)

// Snapshot is a read-only view of one index at a single store generation.
// It implements query.Env and query.Schema. The caller must hold read locks on the
// document store, the inverted index and the join index for as long as the snapshot
// is in use; within that window a Snapshot is safe for concurrent use.
type Snapshot struct {
	settings   *config.IndexSettings
	docs       *store.DocumentStore
	inverted   *index.InvertedIndex
	joins      *index.JoinIndex
	nested     *NestedResolver
	children   *ChildResolver
	cache      *ResolutionCache
	generation uint64
}

// NewSnapshot builds a snapshot over locked index structures. cache may be nil.
func NewSnapshot(settings *config.IndexSettings, docs *store.DocumentStore, inverted *index.InvertedIndex, joins *index.JoinIndex, cache *ResolutionCache) *Snapshot {
	return &Snapshot{
		settings:   settings,
		docs:       docs,
		inverted:   inverted,
		joins:      joins,
		nested:     NewNestedResolver(settings),
		children:   NewChildResolver(settings, docs, joins),
		cache:      cache,
		generation: docs.Generation,
	}
}

func (s *Snapshot) FieldStats(field string) index.FieldStat { return s.inverted.FieldStats(field) }
func (s *Snapshot) DocFreq(field, term string) int         { return s.inverted.DocFreq(field, term) }

func (s *Snapshot) CheckPath(path string) error      { return s.nested.CheckPath(path) }
func (s *Snapshot) CheckType(childType string) error { return s.children.CheckType(childType) }

// HasAnyTerm reports whether u has its own posting for at least one of refs.
func (s *Snapshot) HasAnyTerm(u *query.Unit, refs []index.FieldTerm) bool {
	for _, ref := range refs {
		if s.inverted.HasUnit(ref.Term, ref.Field, u.DocID, u.Nested) {
			return true
		}
	}
	return false
}

// Document returns the unit of a stored document by internal ID.
func (s *Snapshot) Document(docID uint32) (*query.Unit, bool) {
	doc, ok := s.docs.Docs[docID]
	if !ok {
		return nil, false
	}
	return query.NewDocumentUnit(s.settings, docID, doc), true
}

// Nested returns fresh units for the sub-documents of u under path, in storage order.
func (s *Snapshot) Nested(u *query.Unit, path string) ([]*query.Unit, error) {
	selector := NestedPath{Path: path}
	key := cacheKey(s.settings.Name, s.generation, u.DocID, u.Nested.String(), selector)
	slots, ok := s.cache.getNested(key)
	if !ok {
		var err error
		slots, err = s.nested.ResolveWithin(u.Source, u.Path, u.Nested, path)
		if err != nil {
			return nil, err
		}
		s.cache.set(key, slots, len(slots))
	}

	units := make([]*query.Unit, len(slots))
	for i, slot := range slots {
		unit := query.NewNestedUnit(u, path, slot.Identity, slot.Source)
		unit.Ordinal = i
		units[i] = unit
	}
	return units, nil
}

// Children returns fresh units for the children of type childType joined to u.
// Nested units have no children.
func (s *Snapshot) Children(u *query.Unit, childType string) ([]*query.Unit, error) {
	if !u.IsDocument() {
		return nil, nil
	}
	selector := ChildType{Type: childType}
	key := cacheKey(s.settings.Name, s.generation, u.DocID, "", selector)
	docs, ok := s.cache.getChildren(key)
	if !ok {
		var err error
		docs, err = s.children.Resolve(u.Type, u.ID, childType)
		if err != nil {
			return nil, err
		}
		s.cache.set(key, docs, len(docs))
	}

	units := make([]*query.Unit, len(docs))
	for i, child := range docs {
		unit := query.NewDocumentUnit(s.settings, child.InternalID, child.Source)
		unit.Ordinal = i
		units[i] = unit
	}
	return units, nil
}

// Candidates resolves the subspace a selector designates for one parent.
func (s *Snapshot) Candidates(parent *query.Unit, selector Selector) ([]*query.Unit, error) {
	switch sel := selector.(type) {
	case NestedPath:
		return s.Nested(parent, sel.Path)
	case ChildType:
		return s.Children(parent, sel.Type)
	default:
		return nil, fmt.Errorf("unknown selector %T", selector)
	}
}
