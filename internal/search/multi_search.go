package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-inner-hits/services"
)

// MultiSearch executes multiple named search queries in parallel.
// A query that fails is reported under its name in Errors; the others still return.
func (s *Service) MultiSearch(ctx context.Context, multiQuery services.MultiSearchQuery) (*services.MultiSearchResult, error) {
	startTime := time.Now()

	if len(multiQuery.Queries) == 0 {
		return nil, fmt.Errorf("at least one query is required")
	}

	seen := make(map[string]bool, len(multiQuery.Queries))
	for _, namedQuery := range multiQuery.Queries {
		if namedQuery.Name == "" {
			return nil, fmt.Errorf("each query must have a non-empty name")
		}
		if seen[namedQuery.Name] {
			return nil, fmt.Errorf("duplicate query name '%s'", namedQuery.Name)
		}
		seen[namedQuery.Name] = true
	}

	type queryResult struct {
		name   string
		result services.SearchResult
		err    error
	}

	resultChan := make(chan queryResult, len(multiQuery.Queries))

	// Execute queries in parallel
	for _, namedQuery := range multiQuery.Queries {
		go func(nq services.NamedSearchQuery) {
			searchQuery := services.SearchQuery{
				Query:     nq.Query,
				Types:     nq.Types,
				Page:      multiQuery.Page,
				PageSize:  multiQuery.PageSize,
				InnerHits: nq.InnerHits,
			}

			result, err := s.Search(ctx, searchQuery)

			resultChan <- queryResult{
				name:   nq.Name,
				result: result,
				err:    err,
			}
		}(namedQuery)
	}

	// Collect results from all goroutines
	results := make(map[string]services.SearchResult)
	var queryErrors map[string]string
	for i := 0; i < len(multiQuery.Queries); i++ {
		select {
		case qr := <-resultChan:
			if qr.err != nil {
				if queryErrors == nil {
					queryErrors = make(map[string]string)
				}
				queryErrors[qr.name] = qr.err.Error()
				s.logger.Debug("multi-search query failed", zap.String("query", qr.name), zap.Error(qr.err))
				continue
			}
			results[qr.name] = qr.result
		case <-ctx.Done():
			return nil, fmt.Errorf("multi-search cancelled: %w", ctx.Err())
		}
	}

	processingTime := time.Since(startTime)

	return &services.MultiSearchResult{
		Results:          results,
		Errors:           queryErrors,
		TotalQueries:     len(multiQuery.Queries),
		ProcessingTimeMs: float64(processingTime.Nanoseconds()) / 1e6,
	}, nil
}
