// Package testing provides utilities and helpers for testing the search engine.
package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/internal/engine"
	"github.com/gcbaptista/go-inner-hits/model"
	"github.com/gcbaptista/go-inner-hits/services"
)

// CreateTestEngine creates an engine persisting into a per-test temporary directory.
func CreateTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := config.DefaultServerConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Search.InnerHitsWorkers = 4

	eng, err := engine.NewEngine(cfg, nil)
	require.NoError(t, err, "Failed to create test engine")
	t.Cleanup(eng.Close)
	return eng
}

// ArticleSettings returns settings for articles with nested comments and comment children.
func ArticleSettings(indexName string) config.IndexSettings {
	return config.IndexSettings{
		Name:        indexName,
		NestedPaths: []string{"comments"},
		ParentTypes: map[string]string{"comment": "article"},
	}
}

// CreateTestIndex creates an article index.
func CreateTestIndex(t *testing.T, eng *engine.Engine, indexName string) config.IndexSettings {
	t.Helper()
	settings := ArticleSettings(indexName)
	require.NoError(t, eng.CreateIndex(settings), "Failed to create test index")
	return settings
}

// NestedArticles are two articles whose comments are nested sub-documents.
func NestedArticles() []model.Document {
	return []model.Document{
		{
			"documentID": "1", "documentType": "article", "title": "quick brown fox",
			"comments": []interface{}{
				map[string]interface{}{"message": "fox eat quick"},
				map[string]interface{}{"message": "fox ate rabbit x y z"},
				map[string]interface{}{"message": "rabbit got away"},
			},
		},
		{
			"documentID": "2", "documentType": "article", "title": "big gray elephant",
			"comments": []interface{}{
				map[string]interface{}{"message": "elephant captured"},
				map[string]interface{}{"message": "mice squashed by elephant x"},
				map[string]interface{}{"message": "elephant scared by mice x y"},
			},
		},
	}
}

// ChildComments are comment documents joined to the NestedArticles.
func ChildComments() []model.Document {
	return []model.Document{
		{"documentID": "1", "documentType": "comment", "parentID": "1", "message": "fox eat quick"},
		{"documentID": "2", "documentType": "comment", "parentID": "1", "message": "fox ate rabbit x y z"},
		{"documentID": "3", "documentType": "comment", "parentID": "1", "message": "rabbit got away"},
		{"documentID": "4", "documentType": "comment", "parentID": "2", "message": "elephant captured"},
		{"documentID": "5", "documentType": "comment", "parentID": "2", "message": "mice squashed by elephant x"},
		{"documentID": "6", "documentType": "comment", "parentID": "2", "message": "elephant scared by mice x y"},
	}
}

// AddTestDocuments adds the articles and their child comments to an index.
func AddTestDocuments(t *testing.T, eng *engine.Engine, indexName string) []model.Document {
	t.Helper()
	indexAccessor, err := eng.GetIndex(indexName)
	require.NoError(t, err, "Failed to get index accessor")

	docs := append(NestedArticles(), ChildComments()...)
	require.NoError(t, indexAccessor.AddDocuments(docs), "Failed to add test documents")
	return docs
}

// SearchTestCase represents a test case for search operations
type SearchTestCase struct {
	Name          string
	Query         services.SearchQuery
	ExpectedCount int
	ExpectedFirst string           // Expected first result document ID
	ExpectedInner map[string][]int // Definition name -> expected inner hit totals, one per hit
	ValidateFunc  func(t *testing.T, results *services.SearchResult)
}

// RunSearchTests runs a suite of search tests against an index
func RunSearchTests(t *testing.T, indexAccessor services.IndexAccessor, tests []SearchTestCase) {
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			results, err := indexAccessor.Search(context.Background(), tt.Query)
			require.NoError(t, err, "Search should not fail")

			assert.Equal(t, tt.ExpectedCount, results.Total, "Result count should match")

			if tt.ExpectedFirst != "" && len(results.Hits) > 0 {
				assert.Equal(t, tt.ExpectedFirst, results.Hits[0].ID, "First result should match expected")
			}

			for name, totals := range tt.ExpectedInner {
				require.Len(t, results.Hits, len(totals), "Inner hit totals are given per hit")
				for i, total := range totals {
					inner, ok := results.Hits[i].InnerHits.Get(name)
					require.True(t, ok, "hit %d should carry inner hits %q", i, name)
					assert.Equal(t, total, inner.Total, "hit %d inner hits %q", i, name)
				}
			}

			if tt.ValidateFunc != nil {
				tt.ValidateFunc(t, &results)
			}
		})
	}
}
