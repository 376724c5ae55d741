package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/index"
	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/internal/indexing"
	"github.com/gcbaptista/go-inner-hits/internal/search"
	"github.com/gcbaptista/go-inner-hits/model"
	"github.com/gcbaptista/go-inner-hits/services"
	"github.com/gcbaptista/go-inner-hits/store"
)

// IndexInstance holds all components and services for a single search index.
// It implements the services.IndexAccessor interface.
//
// The settings are shared by pointer with the inverted index and both services.
// mu guards them: operations hold it for reading, settings updates for writing.
type IndexInstance struct {
	mu            sync.RWMutex
	settings      *config.IndexSettings
	InvertedIndex *index.InvertedIndex
	DocumentStore *store.DocumentStore
	JoinIndex     *index.JoinIndex
	indexer       *indexing.Service
	searcher      *search.Service
}

// NewIndexInstance creates an empty index.
func NewIndexInstance(settings config.IndexSettings, opts search.Options) (*IndexInstance, error) {
	if settings.Name == "" {
		return nil, fmt.Errorf("index name cannot be empty in settings")
	}
	return newIndexInstance(&settings, store.NewDocumentStore(), index.NewInvertedIndex(&settings), index.NewJoinIndex(), opts)
}

func newIndexInstance(settings *config.IndexSettings, docStore *store.DocumentStore, invIndex *index.InvertedIndex, joinIndex *index.JoinIndex, opts search.Options) (*IndexInstance, error) {
	invIndex.Settings = settings

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	indexerService, err := indexing.NewService(invIndex, docStore, joinIndex, logger.With(zap.String("index", settings.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}
	searchService, err := search.NewService(invIndex, docStore, joinIndex, settings, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	return &IndexInstance{
		settings:      settings,
		InvertedIndex: invIndex,
		DocumentStore: docStore,
		JoinIndex:     joinIndex,
		indexer:       indexerService,
		searcher:      searchService,
	}, nil
}

// AddDocuments delegates to the underlying Indexer service.
func (i *IndexInstance) AddDocuments(docs []model.Document) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.indexer.AddDocuments(docs)
}

// BulkAddDocuments analyses docs in parallel before applying them.
func (i *IndexInstance) BulkAddDocuments(docs []model.Document, cfg indexing.BulkIndexingConfig) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return indexing.NewBulkIndexer(i.indexer, cfg).BulkAddDocuments(docs)
}

// DeleteAllDocuments delegates to the underlying Indexer service.
func (i *IndexInstance) DeleteAllDocuments() error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.indexer.DeleteAllDocuments()
}

// DeleteDocument delegates to the underlying Indexer service.
func (i *IndexInstance) DeleteDocument(docType, docID string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.indexer.DeleteDocument(docType, docID)
}

// Search delegates to the underlying Searcher service.
func (i *IndexInstance) Search(ctx context.Context, query services.SearchQuery) (services.SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.searcher.Search(ctx, query)
}

// MultiSearch delegates to the underlying MultiSearcher service.
func (i *IndexInstance) MultiSearch(ctx context.Context, query services.MultiSearchQuery) (*services.MultiSearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.searcher.MultiSearch(ctx, query)
}

// Settings returns a copy of the configuration settings for this index.
func (i *IndexInstance) Settings() config.IndexSettings {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return *i.settings
}

// GetDocument returns a stored document by type and ID.
func (i *IndexInstance) GetDocument(docType, docID string) (model.Document, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	doc, ok := i.DocumentStore.Get(docType, docID)
	if !ok {
		return nil, errors.NewDocumentNotFoundError(docType, docID, i.settings.Name)
	}
	return doc, nil
}

// DocumentCount returns the number of stored documents, children included.
func (i *IndexInstance) DocumentCount() int {
	return i.DocumentStore.Len()
}

// Generation returns the store generation. It changes on every write.
func (i *IndexInstance) Generation() uint64 {
	return i.DocumentStore.CurrentGeneration()
}
