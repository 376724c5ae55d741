package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/gcbaptista/go-inner-hits/model"
)

func init() {
	// Documents decoded from JSON carry nested objects and arrays as interface{} values.
	gob.Register([]interface{}{})
	gob.Register(map[string]interface{}{})
	gob.Register([]string{})
	gob.Register(float64(0))
	gob.Register(false)
}

// DocumentStore holds every stored document: root documents and child documents alike.
// Nested sub-documents live inside their parent and are not stored separately.
type DocumentStore struct {
	Mu                     sync.RWMutex
	Docs                   map[uint32]model.Document // Internal ID to full document
	ExternalIDtoInternalID map[string]uint32         // "type/id" to internal uint32 ID
	NextID                 uint32
	Generation             uint64 // Bumped on every mutation
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		Docs:                   make(map[uint32]model.Document),
		ExternalIDtoInternalID: make(map[string]uint32),
	}
}

// ExternalKey builds the lookup key of a document. IDs are unique per type,
// so an article "1" and a comment "1" are different documents.
func ExternalKey(docType, docID string) string {
	return docType + "/" + docID
}

// LookupUnsafe returns the internal ID and document stored under (docType, docID).
// The caller must hold Mu.
func (ds *DocumentStore) LookupUnsafe(docType, docID string) (uint32, model.Document, bool) {
	internalID, ok := ds.ExternalIDtoInternalID[ExternalKey(docType, docID)]
	if !ok {
		return 0, nil, false
	}
	doc, ok := ds.Docs[internalID]
	return internalID, doc, ok
}

// Get returns a stored document by type and ID.
func (ds *DocumentStore) Get(docType, docID string) (model.Document, bool) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	_, doc, ok := ds.LookupUnsafe(docType, docID)
	return doc, ok
}

// Len returns the number of stored documents.
func (ds *DocumentStore) Len() int {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	return len(ds.Docs)
}

// CurrentGeneration returns the mutation epoch of the store.
func (ds *DocumentStore) CurrentGeneration() uint64 {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	return ds.Generation
}

// gobDocumentStoreData is a helper struct for Gob encoding/decoding DocumentStore data.
// It excludes the mutex.
type gobDocumentStoreData struct {
	Docs                   map[uint32]model.Document
	ExternalIDtoInternalID map[string]uint32
	NextID                 uint32
	Generation             uint64
}

// GobEncode implements the gob.GobEncoder interface for DocumentStore.
func (ds *DocumentStore) GobEncode() ([]byte, error) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	storableDocs := make(map[uint32]model.Document, len(ds.Docs))
	for id, doc := range ds.Docs {
		storableDocs[id] = model.Document(storableObject(doc))
	}

	dataToEncode := gobDocumentStoreData{
		Docs:                   storableDocs,
		ExternalIDtoInternalID: ds.ExternalIDtoInternalID,
		NextID:                 ds.NextID,
		Generation:             ds.Generation,
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, fmt.Errorf("failed to gob encode document store data: %w", err)
	}
	return buf.Bytes(), nil
}

// storableObject rewrites a document tree so that gob only meets registered types.
// model.Document values embedded inside other documents become plain maps.
func storableObject(obj map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		out[k] = storableValue(v)
	}
	return out
}

func storableValue(v interface{}) interface{} {
	switch val := v.(type) {
	case model.Document:
		return storableObject(val)
	case map[string]interface{}:
		return storableObject(val)
	case []interface{}:
		items := make([]interface{}, len(val))
		for i, item := range val {
			items[i] = storableValue(item)
		}
		return items
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return val
	}
}

// GobDecode implements the gob.GobDecoder interface for DocumentStore.
func (ds *DocumentStore) GobDecode(data []byte) error {
	decodedData := gobDocumentStoreData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return fmt.Errorf("failed to gob decode document store data: %w", err)
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	ds.Docs = decodedData.Docs
	ds.ExternalIDtoInternalID = decodedData.ExternalIDtoInternalID
	ds.NextID = decodedData.NextID
	ds.Generation = decodedData.Generation

	if ds.Docs == nil {
		ds.Docs = make(map[uint32]model.Document)
	}
	if ds.ExternalIDtoInternalID == nil {
		ds.ExternalIDtoInternalID = make(map[string]uint32)
	}

	return nil
}
