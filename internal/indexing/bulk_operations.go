package indexing

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-inner-hits/model"
)

// BulkIndexingConfig contains configuration for bulk indexing operations
type BulkIndexingConfig struct {
	BatchSize        int // Number of prepared documents applied per lock acquisition
	WorkerCount      int // Number of parallel workers analysing documents
	ProgressCallback func(processed, total int, message string)
}

// DefaultBulkIndexingConfig returns sensible defaults for bulk indexing
func DefaultBulkIndexingConfig() BulkIndexingConfig {
	return BulkIndexingConfig{
		BatchSize:   1000,
		WorkerCount: runtime.NumCPU(),
	}
}

// BulkIndexer analyses documents in parallel and applies them to the index in
// input order, so internal IDs (and therefore child order) match a sequential load.
type BulkIndexer struct {
	service *Service
	config  BulkIndexingConfig
}

// NewBulkIndexer creates a new bulk indexer with the given configuration
func NewBulkIndexer(service *Service, config BulkIndexingConfig) *BulkIndexer {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBulkIndexingConfig().BatchSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = runtime.NumCPU()
	}
	return &BulkIndexer{service: service, config: config}
}

// BulkAddDocuments adds docs using parallel analysis. Nothing is written when any
// document is invalid.
func (bi *BulkIndexer) BulkAddDocuments(docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}

	logger := bi.service.logger
	logger.Info("starting bulk indexing", zap.Int("documents", len(docs)), zap.Int("workers", bi.config.WorkerCount))
	start := time.Now()

	prepared, err := bi.prepareAll(docs)
	if err != nil {
		return fmt.Errorf("bulk indexing failed: %w", err)
	}
	bi.applyAll(prepared)

	duration := time.Since(start)
	logger.Info("bulk indexing completed",
		zap.Int("documents", len(docs)),
		zap.Duration("duration", duration),
		zap.Float64("docs_per_sec", float64(len(docs))/duration.Seconds()))
	return nil
}

// prepareAll validates and analyses docs in parallel. Results keep input order.
func (bi *BulkIndexer) prepareAll(docs []model.Document) ([]*preparedDoc, error) {
	prepared := make([]*preparedDoc, len(docs))
	var g errgroup.Group
	g.SetLimit(bi.config.WorkerCount)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			p, err := bi.service.prepare(doc)
			if err != nil {
				return fmt.Errorf("document %d (ID %s): %w", i, describeDoc(doc), err)
			}
			prepared[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prepared, nil
}

func (bi *BulkIndexer) applyAll(prepared []*preparedDoc) {
	for i := 0; i < len(prepared); i += bi.config.BatchSize {
		end := i + bi.config.BatchSize
		if end > len(prepared) {
			end = len(prepared)
		}
		bi.service.applyBatch(prepared[i:end])

		if bi.config.ProgressCallback != nil {
			bi.config.ProgressCallback(end, len(prepared), fmt.Sprintf("Processed %d/%d documents", end, len(prepared)))
		}
	}
}

// BulkReindex re-analyses every stored document against the current settings, for
// instance after nested paths or searchable fields changed. Relative document order
// is preserved.
func (s *Service) BulkReindex(config BulkIndexingConfig) error {
	start := time.Now()

	s.documentStore.Mu.RLock()
	ids := make([]uint32, 0, len(s.documentStore.Docs))
	for id := range s.documentStore.Docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	docs := make([]model.Document, len(ids))
	for i, id := range ids {
		docs[i] = s.documentStore.Docs[id]
	}
	s.documentStore.Mu.RUnlock()

	if len(docs) == 0 {
		s.logger.Info("no documents to reindex")
		return nil
	}

	// Documents that no longer validate abort the reindex before anything is cleared
	bi := NewBulkIndexer(s, config)
	prepared, err := bi.prepareAll(docs)
	if err != nil {
		return fmt.Errorf("bulk reindex failed: %w", err)
	}

	if err := s.DeleteAllDocuments(); err != nil {
		return fmt.Errorf("failed to clear index before reindex: %w", err)
	}
	bi.applyAll(prepared)

	s.logger.Info("bulk reindex completed",
		zap.Int("documents", len(docs)),
		zap.Duration("duration", time.Since(start)))
	return nil
}
