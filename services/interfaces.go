package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/model"
)

// InnerHit is one nested sub-document or child document that matched an inner hit query.
// A nested hit carries its parent's ID and type plus the nested address; a child hit
// carries its own ID and type and never a nested address.
type InnerHit struct {
	ID     string                 `json:"_id"`
	Type   string                 `json:"_type"`
	Nested *model.NestedIdentity  `json:"_nested,omitempty"`
	Score  float64                `json:"_score"`
	Source map[string]interface{} `json:"_source,omitempty"`
}

// InnerHitResult is the ranked page of inner hits of one definition for one outer hit.
type InnerHitResult struct {
	Total    int        `json:"total"` // Exact number of matches, independent of the page size
	MaxScore float64    `json:"max_score"`
	Hits     []InnerHit `json:"hits"`
}

// NamedInnerHits pairs a definition name with its result.
type NamedInnerHits struct {
	Name   string
	Result InnerHitResult
}

// InnerHits maps definition names to results in declaration order.
type InnerHits []NamedInnerHits

// Get returns the result attached under name.
func (ih InnerHits) Get(name string) (InnerHitResult, bool) {
	for _, entry := range ih {
		if entry.Name == name {
			return entry.Result, true
		}
	}
	return InnerHitResult{}, false
}

// Names returns the attached definition names in order.
func (ih InnerHits) Names() []string {
	names := make([]string, len(ih))
	for i, entry := range ih {
		names[i] = entry.Name
	}
	return names
}

// MarshalJSON encodes the mapping as a JSON object whose keys keep declaration order.
func (ih InnerHits) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range ih {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode inner hits %q: %w", entry.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// InnerHitFailure reports one (outer hit, definition) pair that produced no result.
type InnerHitFailure struct {
	HitID      string `json:"hit_id"`
	HitType    string `json:"hit_type"`
	Definition string `json:"inner_hit"`
	Reason     string `json:"reason"`
	Cancelled  bool   `json:"cancelled,omitempty"`
}

// HitResult represents a single document in the search results with its inner hits.
type HitResult struct {
	ID        string         `json:"_id"`
	Type      string         `json:"_type"`
	Score     float64        `json:"_score"`
	Document  model.Document `json:"document"`
	InnerHits InnerHits      `json:"inner_hits,omitempty"`
}

type SearchResult struct {
	Hits             []HitResult       `json:"hits"`
	Total            int               `json:"total"`
	Page             int               `json:"page"`
	PageSize         int               `json:"page_size"`
	Took             int64             `json:"took"`     // milliseconds
	QueryId          string            `json:"query_id"` // unique UUID for this search query
	TimedOut         bool              `json:"timed_out"`
	InnerHitFailures []InnerHitFailure `json:"inner_hit_failures,omitempty"`
}

// SortField is one level of an explicit inner hit sort.
type SortField struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"` // "asc" or "desc"
}

// SourceFilter selects which source fields are returned.
// It decodes from false, a field name, a list of field names, or {"includes": [...], "excludes": [...]}.
type SourceFilter struct {
	Disabled bool     `json:"-"`
	Includes []string `json:"includes,omitempty"`
	Excludes []string `json:"excludes,omitempty"`
}

// UnmarshalJSON accepts the shorthand forms of a source filter.
func (sf *SourceFilter) UnmarshalJSON(data []byte) error {
	var enabled bool
	if err := json.Unmarshal(data, &enabled); err == nil {
		*sf = SourceFilter{Disabled: !enabled}
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*sf = SourceFilter{Includes: []string{single}}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*sf = SourceFilter{Includes: list}
		return nil
	}
	var obj struct {
		Includes []string `json:"includes"`
		Excludes []string `json:"excludes"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("_source must be a boolean, a field, a list of fields or an includes/excludes object")
	}
	*sf = SourceFilter{Includes: obj.Includes, Excludes: obj.Excludes}
	return nil
}

// InnerHitRequest is one named inner hit definition as sent by a client.
// Exactly one of Path and Type must be set.
type InnerHitRequest struct {
	Name   string          `json:"name"`
	Path   string          `json:"path,omitempty"`
	Type   string          `json:"type,omitempty"`
	Query  json.RawMessage `json:"query,omitempty"`
	Size   *int            `json:"size,omitempty"`
	From   int             `json:"from,omitempty"`
	Sort   []SortField     `json:"sort,omitempty"`
	Source *SourceFilter   `json:"_source,omitempty"`
}

type SearchQuery struct {
	Query     json.RawMessage   `json:"query,omitempty"` // Query DSL; empty matches every document
	Types     []string          `json:"types,omitempty"` // Optional: restrict hits to these document types
	Page      int               `json:"page,omitempty"`
	PageSize  int               `json:"page_size,omitempty"`
	InnerHits []InnerHitRequest `json:"inner_hits,omitempty"` // Ordered inner hit definitions
}

// MultiSearchQuery represents a request to execute multiple named search queries
type MultiSearchQuery struct {
	Queries  []NamedSearchQuery `json:"queries"`
	Page     int                `json:"page,omitempty"`
	PageSize int                `json:"page_size,omitempty"`
}

// NamedSearchQuery represents a single named search query within a multi-search request
type NamedSearchQuery struct {
	Name      string            `json:"name"`
	Query     json.RawMessage   `json:"query,omitempty"`
	Types     []string          `json:"types,omitempty"`
	InnerHits []InnerHitRequest `json:"inner_hits,omitempty"`
}

// MultiSearchResult represents the response from a multi-search operation
type MultiSearchResult struct {
	Results          map[string]SearchResult `json:"results"`
	Errors           map[string]string       `json:"errors,omitempty"`
	TotalQueries     int                     `json:"total_queries"`
	ProcessingTimeMs float64                 `json:"processing_time_ms"`
}

// Indexer defines operations for adding data to an index
type Indexer interface {
	AddDocuments(docs []model.Document) error
	DeleteAllDocuments() error
	DeleteDocument(docType, docID string) error
}

// Searcher defines operations for querying an index
type Searcher interface {
	Search(ctx context.Context, query SearchQuery) (SearchResult, error)
}

// MultiSearcher defines operations for performing multiple queries in a single request
type MultiSearcher interface {
	MultiSearch(ctx context.Context, query MultiSearchQuery) (*MultiSearchResult, error)
}

// IndexManager manages the lifecycle of indices
type IndexManager interface {
	CreateIndex(settings config.IndexSettings) error
	GetIndex(name string) (IndexAccessor, error)
	GetIndexSettings(name string) (config.IndexSettings, error)
	UpdateIndexSettings(name string, settings config.IndexSettings) error
	DeleteIndex(name string) error
	ListIndexes() []string
	PersistIndexData(indexName string) error
}

type IndexAccessor interface {
	Indexer
	Searcher
	MultiSearcher
	Settings() config.IndexSettings
	GetDocument(docType, docID string) (model.Document, error)
	DocumentCount() int
	Generation() uint64
}
