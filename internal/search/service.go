package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/index"
	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/internal/innerhits"
	"github.com/gcbaptista/go-inner-hits/internal/metrics"
	"github.com/gcbaptista/go-inner-hits/internal/query"
	"github.com/gcbaptista/go-inner-hits/services"
	"github.com/gcbaptista/go-inner-hits/store"
)

const (
	defaultPageSize = 10
	// cancelCheckInterval is how many documents are evaluated between context checks.
	cancelCheckInterval = 256
)

// Options tune query execution.
type Options struct {
	InnerHitsWorkers int                        // Parallel (hit, definition) pairs per request
	Timeout          time.Duration              // 0 disables the per-request timeout
	Cache            *innerhits.ResolutionCache // nil disables resolution caching
	Logger           *zap.Logger
}

// Service implements the search logic for a single index.
// It fulfills the services.Searcher and services.MultiSearcher interfaces.
type Service struct {
	invertedIndex *index.InvertedIndex
	documentStore *store.DocumentStore
	joinIndex     *index.JoinIndex
	settings      *config.IndexSettings
	opts          Options
	logger        *zap.Logger
}

// NewService creates a new search Service.
func NewService(invIndex *index.InvertedIndex, docStore *store.DocumentStore, joinIndex *index.JoinIndex, settings *config.IndexSettings, opts Options) (*Service, error) {
	if invIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if docStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if joinIndex == nil {
		return nil, fmt.Errorf("join index cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		invertedIndex: invIndex,
		documentStore: docStore,
		joinIndex:     joinIndex,
		settings:      settings,
		opts:          opts,
		logger:        logger.With(zap.String("index", settings.Name)),
	}, nil
}

// Search evaluates the outer query, pages the ranked hits and attaches inner hits to
// every hit of the page. The query and every inner hit definition are validated before
// any document is evaluated; the first invalid one rejects the request.
//
// The whole request reads one consistent epoch: the document store, the inverted index
// and the join index stay read-locked until inner hits are attached.
func (s *Service) Search(ctx context.Context, q services.SearchQuery) (services.SearchResult, error) {
	startTime := time.Now()

	result, err := s.search(ctx, q, startTime)
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case result.TimedOut:
		status = "partial"
	}
	metrics.SearchRequestsTotal.WithLabelValues(s.settings.Name, status).Inc()
	return result, err
}

func (s *Service) search(ctx context.Context, q services.SearchQuery, startTime time.Time) (services.SearchResult, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	outer, err := query.Parse(q.Query)
	if err != nil {
		return services.SearchResult{}, err
	}

	s.documentStore.Mu.RLock()
	s.invertedIndex.Mu.RLock()
	s.joinIndex.Mu.RLock()
	defer s.documentStore.Mu.RUnlock()
	defer s.invertedIndex.Mu.RUnlock()
	defer s.joinIndex.Mu.RUnlock()

	env := innerhits.NewSnapshot(s.settings, s.documentStore, s.invertedIndex, s.joinIndex, s.opts.Cache)
	if err := outer.Validate(env); err != nil {
		return services.SearchResult{}, err
	}
	defs, err := innerhits.Build(q.InnerHits, s.settings, env)
	if err != nil {
		return services.SearchResult{}, err
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	candidates, err := s.evaluate(ctx, env, outer, q.Types)
	if err != nil {
		return services.SearchResult{}, err
	}
	rankHits(candidates, s.settings.RankingCriteria)

	totalHits := len(candidates)
	startIndex := (page - 1) * pageSize
	endIndex := startIndex + pageSize
	var paginated []candidateHit
	if startIndex < totalHits {
		if endIndex > totalHits {
			endIndex = totalHits
		}
		paginated = candidates[startIndex:endIndex]
	}

	parents := make([]*query.Unit, len(paginated))
	for i, hit := range paginated {
		parents[i] = hit.unit
	}
	aggregator := innerhits.NewAggregator(innerhits.NewScopedExecutor(env), s.opts.InnerHitsWorkers, s.logger)
	outcome := aggregator.Attach(ctx, defs, parents)

	hits := make([]services.HitResult, len(paginated))
	for i, hit := range paginated {
		hits[i] = services.HitResult{
			ID:        hit.unit.ID,
			Type:      hit.unit.Type,
			Score:     hit.score,
			Document:  s.documentStore.Docs[hit.docID],
			InnerHits: outcome.For(i),
		}
	}

	return services.SearchResult{
		Hits:             hits,
		Total:            totalHits,
		Page:             page,
		PageSize:         pageSize,
		Took:             time.Since(startTime).Milliseconds(),
		QueryId:          uuid.New().String(),
		TimedOut:         outcome.TimedOut,
		InnerHitFailures: outcome.Failures,
	}, nil
}

// evaluate runs the outer query over the candidate documents, in internal ID order,
// optionally restricted to the given types. The caller holds the read locks.
func (s *Service) evaluate(ctx context.Context, env *innerhits.Snapshot, outer query.Query, types []string) ([]candidateHit, error) {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}

	ids := s.candidateIDs(outer)

	var candidates []candidateHit
	for i, id := range ids {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", errors.ErrSearchCancelled, err)
			}
		}
		unit, ok := env.Document(id)
		if !ok {
			continue
		}
		if len(allowed) > 0 && !allowed[unit.Type] {
			continue
		}
		matched, score, err := outer.Evaluate(env, unit)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate query against %s/%s: %w", unit.Type, unit.ID, err)
		}
		if matched {
			candidates = append(candidates, candidateHit{docID: id, unit: unit, score: score})
		}
	}
	return candidates, nil
}

// candidateIDs returns the documents that can match outer. Queries that require one of
// a set of terms are narrowed through the postings; anything else scans every document.
func (s *Service) candidateIDs(outer query.Query) []uint32 {
	if refs, ok := query.DocumentTerms(outer); ok {
		return s.invertedIndex.DocsWithAny(refs)
	}
	ids := make([]uint32, 0, len(s.documentStore.Docs))
	for id := range s.documentStore.Docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
