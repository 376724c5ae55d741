package innerhits

import (
	"fmt"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/index"
	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/model"
	"github.com/gcbaptista/go-inner-hits/store"
)

// ChildDoc is one child document joined to a parent.
type ChildDoc struct {
	InternalID uint32
	ID         string
	Type       string
	Source     model.Document
}

// ChildResolver lists the children of a parent document through the join index.
// Callers hold read locks on the document store and the join index.
type ChildResolver struct {
	settings *config.IndexSettings
	docs     *store.DocumentStore
	joins    *index.JoinIndex
}

// NewChildResolver creates a resolver over the parent mapping declared in settings.
func NewChildResolver(settings *config.IndexSettings, docs *store.DocumentStore, joins *index.JoinIndex) *ChildResolver {
	return &ChildResolver{settings: settings, docs: docs, joins: joins}
}

// CheckType fails when childType has no parent mapping.
func (r *ChildResolver) CheckType(childType string) error {
	if _, ok := r.settings.ParentTypeOf(childType); !ok {
		return errors.NewChildTypeError(childType, r.settings.Name)
	}
	return nil
}

// Resolve returns the children of type childType joined to (parentType, parentID) in
// ascending internal ID order, which is insertion order. A parent whose type is not the
// mapped parent type has no children.
func (r *ChildResolver) Resolve(parentType, parentID, childType string) ([]ChildDoc, error) {
	if err := r.CheckType(childType); err != nil {
		return nil, err
	}
	mappedParent, _ := r.settings.ParentTypeOf(childType)
	if mappedParent != parentType {
		return nil, nil
	}

	ids := r.joins.ChildrenOf(store.ExternalKey(parentType, parentID), childType)
	children := make([]ChildDoc, 0, len(ids))
	for _, id := range ids {
		doc, ok := r.docs.Docs[id]
		if !ok {
			return nil, fmt.Errorf("child %d of %s/%s is joined but missing from the document store", id, parentType, parentID)
		}
		childID, _ := doc.GetDocumentID()
		children = append(children, ChildDoc{
			InternalID: id,
			ID:         childID,
			Type:       doc.GetDocumentType(r.settings.DefaultType),
			Source:     doc,
		})
	}
	return children, nil
}
