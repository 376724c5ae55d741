package innerhits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-inner-hits/index"
	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/model"
	"github.com/gcbaptista/go-inner-hits/store"
)

func newJoinedStore() (*store.DocumentStore, *index.JoinIndex) {
	docs := store.NewDocumentStore()
	joins := index.NewJoinIndex()
	add := func(id uint32, doc model.Document) {
		docs.Docs[id] = doc
		docs.ExternalIDtoInternalID[store.ExternalKey(doc.GetDocumentType("_doc"), doc["documentID"].(string))] = id
		if parentID, ok := doc.GetParentID(); ok {
			joins.AddUnsafe(store.ExternalKey("article", parentID), "comment", id)
		}
	}
	add(0, model.Document{"documentID": "1", "documentType": "article"})
	add(3, model.Document{"documentID": "2", "documentType": "comment", "parentID": "1", "message": "second"})
	add(1, model.Document{"documentID": "1", "documentType": "comment", "parentID": "1", "message": "first"})
	add(2, model.Document{"documentID": "9", "documentType": "comment", "parentID": "2", "message": "elsewhere"})
	return docs, joins
}

func TestChildResolver_Resolve(t *testing.T) {
	docs, joins := newJoinedStore()
	r := NewChildResolver(testSettings(), docs, joins)

	children, err := r.Resolve("article", "1", "comment")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "1", children[0].ID)
	assert.Equal(t, uint32(1), children[0].InternalID)
	assert.Equal(t, "2", children[1].ID)
	assert.Equal(t, "comment", children[1].Type)
	assert.Equal(t, "second", children[1].Source["message"])
}

func TestChildResolver_WrongParentType(t *testing.T) {
	docs, joins := newJoinedStore()
	r := NewChildResolver(testSettings(), docs, joins)

	children, err := r.Resolve("comment", "1", "comment")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestChildResolver_NoChildren(t *testing.T) {
	docs, joins := newJoinedStore()
	r := NewChildResolver(testSettings(), docs, joins)

	children, err := r.Resolve("article", "42", "comment")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestChildResolver_UnmappedType(t *testing.T) {
	docs, joins := newJoinedStore()
	r := NewChildResolver(testSettings(), docs, joins)

	_, err := r.Resolve("article", "1", "note")
	assert.ErrorIs(t, err, errors.ErrSchemaResolution)
}

func TestChildResolver_DanglingJoin(t *testing.T) {
	docs, joins := newJoinedStore()
	delete(docs.Docs, 3)
	r := NewChildResolver(testSettings(), docs, joins)

	_, err := r.Resolve("article", "1", "comment")
	require.Error(t, err)
	assert.False(t, errors.IsConfigurationError(err), "a dangling join is a data error")
}
