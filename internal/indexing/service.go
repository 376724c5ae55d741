package indexing

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-inner-hits/index"
	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/internal/innerhits"
	"github.com/gcbaptista/go-inner-hits/internal/query"
	"github.com/gcbaptista/go-inner-hits/internal/tokenizer"
	"github.com/gcbaptista/go-inner-hits/model"
	"github.com/gcbaptista/go-inner-hits/store"
)

// Service implements the indexing logic for a single index.
// It fulfills the services.Indexer interface.
//
// Every document is indexed as a set of units: the document itself and each of its
// nested sub-documents. Child documents are indexed like any other document and
// registered in the join index under their parent.
type Service struct {
	invertedIndex *index.InvertedIndex
	documentStore *store.DocumentStore
	joinIndex     *index.JoinIndex
	nested        *innerhits.NestedResolver
	logger        *zap.Logger
	// settings are accessible via invertedIndex.Settings
}

// NewService creates a new indexing Service.
// It assumes that invertedIndex.Settings is not nil.
func NewService(invertedIndex *index.InvertedIndex, documentStore *store.DocumentStore, joinIndex *index.JoinIndex, logger *zap.Logger) (*Service, error) {
	if invertedIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if documentStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if joinIndex == nil {
		return nil, fmt.Errorf("join index cannot be nil")
	}
	if invertedIndex.Settings == nil {
		return nil, fmt.Errorf("inverted index settings cannot be nil")
	}
	if invertedIndex.Index == nil {
		// Initialize the maps if nil to prevent panics later
		invertedIndex.Index = make(map[string]index.PostingList)
	}
	if invertedIndex.Fields == nil {
		invertedIndex.Fields = make(map[string]*index.FieldStat)
	}
	if documentStore.Docs == nil {
		documentStore.Docs = make(map[uint32]model.Document)
	}
	if documentStore.ExternalIDtoInternalID == nil {
		documentStore.ExternalIDtoInternalID = make(map[string]uint32)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		invertedIndex: invertedIndex,
		documentStore: documentStore,
		joinIndex:     joinIndex,
		nested:        innerhits.NewNestedResolver(invertedIndex.Settings),
		logger:        logger,
	}, nil
}

// analyzedUnit holds the term frequencies of every searchable field of one unit.
type analyzedUnit struct {
	nested *model.NestedIdentity
	fields map[string]tokenizer.Analysis
}

// preparedDoc is a validated document with its units analysed, ready to be applied
// to the index under lock.
type preparedDoc struct {
	id        string
	docType   string
	parentKey string // "" unless the document is a child
	doc       model.Document
	units     []analyzedUnit
}

// AddDocuments adds a batch of documents to the index.
// This satisfies the services.Indexer interface.
func (s *Service) AddDocuments(docs []model.Document) error {
	// Process documents in micro-batches to minimize lock contention and allow search operations to interleave
	const microBatchSize = 10

	for i := 0; i < len(docs); i += microBatchSize {
		end := i + microBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		// Analysis needs no lock
		batch := make([]*preparedDoc, 0, end-i)
		for _, doc := range docs[i:end] {
			p, err := s.prepare(doc)
			if err != nil {
				return fmt.Errorf("failed to add document ID %s: %w", describeDoc(doc), err)
			}
			batch = append(batch, p)
		}
		s.applyBatch(batch)

		// Yield to allow search operations to proceed between micro-batches
		if end < len(docs) {
			time.Sleep(1 * time.Millisecond)
		}
	}
	return nil
}

// applyBatch writes prepared documents under the store, index and join locks, in that order.
func (s *Service) applyBatch(batch []*preparedDoc) {
	if len(batch) == 0 {
		return
	}
	s.documentStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	s.joinIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()
	defer s.joinIndex.Mu.Unlock()

	for _, p := range batch {
		s.applyUnsafe(p)
	}
	s.documentStore.Generation++
}

// prepare validates doc and analyses its units. The stored copy always carries its type.
func (s *Service) prepare(doc model.Document) (*preparedDoc, error) {
	settings := s.invertedIndex.Settings

	docIDValue, docIDExists := doc[model.DocumentIDKey]
	if !docIDExists {
		return nil, fmt.Errorf("document documentID not found in document map or is nil; documentID must be provided in the document data with key '%s'", model.DocumentIDKey)
	}
	docID, isStr := docIDValue.(string)
	if !isStr {
		return nil, fmt.Errorf("document documentID has an invalid type in the map, expected string")
	}
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, fmt.Errorf("document documentID cannot be empty or whitespace-only")
	}

	stored := make(model.Document, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored[model.DocumentIDKey] = docID
	docType := stored.GetDocumentType(settings.DefaultType)
	stored[model.DocumentTypeKey] = docType

	p := &preparedDoc{id: docID, docType: docType, doc: stored}
	if parentType, isChild := settings.ParentTypeOf(docType); isChild {
		parentID, ok := stored.GetParentID()
		if !ok {
			return nil, errors.NewValidationError(model.ParentIDKey, fmt.Sprintf("documents of type '%s' must reference a '%s' parent", docType, parentType))
		}
		p.parentKey = store.ExternalKey(parentType, parentID)
	}

	units, err := s.analyze(0, stored)
	if err != nil {
		return nil, err
	}
	p.units = units
	return p, nil
}

// analyze builds the document unit and every nested unit of doc, outermost levels first.
func (s *Service) analyze(docID uint32, doc model.Document) ([]analyzedUnit, error) {
	settings := s.invertedIndex.Settings
	root := query.NewDocumentUnit(settings, docID, doc)
	units := []analyzedUnit{analyzeUnit(root)}

	for _, path := range settings.NestedPaths {
		slots, err := s.nested.Resolve(doc, path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve nested path '%s': %w", path, err)
		}
		for _, slot := range slots {
			units = append(units, analyzeUnit(query.NewNestedUnit(root, path, slot.Identity, slot.Source)))
		}
	}
	return units, nil
}

func analyzeUnit(u *query.Unit) analyzedUnit {
	au := analyzedUnit{nested: u.Nested, fields: make(map[string]tokenizer.Analysis)}
	for _, field := range u.Fields() {
		if an, ok := u.Analysis(field); ok {
			au.fields[field] = an
		}
	}
	return au
}

// applyUnsafe stores p and indexes its units. An existing document with the same type
// and ID keeps its internal ID and has its old postings removed first.
// The caller must hold the store, index and join locks.
func (s *Service) applyUnsafe(p *preparedDoc) {
	internalID, oldDoc, exists := s.documentStore.LookupUnsafe(p.docType, p.id)
	if exists {
		s.removeUnsafe(internalID, oldDoc)
	} else {
		internalID = s.documentStore.NextID
		s.documentStore.ExternalIDtoInternalID[store.ExternalKey(p.docType, p.id)] = internalID
		s.documentStore.NextID++
	}
	s.documentStore.Docs[internalID] = p.doc

	for _, unit := range p.units {
		for field, an := range unit.fields {
			for term, tf := range an.Terms {
				s.invertedIndex.AddUnsafe(term, index.PostingEntry{
					DocID:     internalID,
					FieldName: field,
					Nested:    unit.nested,
					Score:     float64(tf),
				})
			}
			s.invertedIndex.AddFieldLengthUnsafe(field, an.Length, 1)
		}
	}

	if p.parentKey != "" {
		s.joinIndex.AddUnsafe(p.parentKey, p.docType, internalID)
	}
}

// removeUnsafe drops the postings, field statistics and join entry of a stored document.
// The document itself stays in the store.
func (s *Service) removeUnsafe(internalID uint32, oldDoc model.Document) {
	if oldDoc != nil {
		units, err := s.analyze(internalID, oldDoc)
		if err != nil {
			s.logger.Warn("cannot recompute field statistics of replaced document",
				zap.Uint32("internal_id", internalID), zap.Error(err))
		}
		for _, unit := range units {
			for field, an := range unit.fields {
				s.invertedIndex.AddFieldLengthUnsafe(field, an.Length, -1)
			}
		}
		s.joinIndex.RemoveUnsafe(oldDoc.GetDocumentType(s.invertedIndex.Settings.DefaultType), internalID)
	}
	s.invertedIndex.RemoveDocUnsafe(internalID)
}

// DeleteAllDocuments removes all documents from the index, clearing the document store,
// the inverted index and the join index.
// This satisfies the services.Indexer interface.
func (s *Service) DeleteAllDocuments() error {
	s.documentStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	s.joinIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()
	defer s.joinIndex.Mu.Unlock()

	s.documentStore.Docs = make(map[uint32]model.Document)
	s.documentStore.ExternalIDtoInternalID = make(map[string]uint32)
	s.documentStore.NextID = 0
	s.documentStore.Generation++

	s.invertedIndex.ResetUnsafe()
	s.joinIndex.ResetUnsafe()
	return nil
}

// DeleteDocument removes a specific document from the index by its type and external ID.
// Children of a deleted parent stay stored and joined under the parent's key, so they
// reappear if the parent is indexed again.
// This satisfies the services.Indexer interface.
func (s *Service) DeleteDocument(docType, docID string) error {
	s.documentStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	s.joinIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()
	defer s.joinIndex.Mu.Unlock()

	key := store.ExternalKey(docType, docID)
	internalID, exists := s.documentStore.ExternalIDtoInternalID[key]
	if !exists {
		return errors.NewDocumentNotFoundError(docType, docID)
	}

	doc, docExists := s.documentStore.Docs[internalID]
	if !docExists {
		delete(s.documentStore.ExternalIDtoInternalID, key)
		return fmt.Errorf("document '%s' found in mapping but not in store (inconsistent state)", key)
	}

	s.removeUnsafe(internalID, doc)
	delete(s.documentStore.Docs, internalID)
	delete(s.documentStore.ExternalIDtoInternalID, key)
	s.documentStore.Generation++
	return nil
}

func describeDoc(doc model.Document) string {
	if id, ok := doc.GetDocumentID(); ok {
		return id
	}
	return "<unknown>"
}
