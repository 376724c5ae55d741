// Package config provides configuration structures for the search engine.
// It defines index settings, the nested/parent-child mapping and server configuration.
package config

import (
	"sort"
	"strings"
)

const (
	// DefaultDocumentType is used for documents that do not declare a documentType.
	DefaultDocumentType = "_doc"

	defaultInnerHitsSize    = 3
	defaultInnerHitsMaxSize = 100
)

// RankingCriterion defines a single field and direction to use for ranking search results.
// The ranking is applied in the order specified in the IndexSettings.RankingCriteria slice.
// The special field "~score" refers to the query relevance score.
type RankingCriterion struct {
	Field string `json:"field"` // Field name to rank by (e.g., "popularity", "~score")
	Order string `json:"order"` // Sort order: "asc" for ascending, "desc" for descending
}

// IndexSettings contains all configuration options for a search index,
// including the schema metadata that declares nested fields and parent/child types.
//
// NestedPaths lists dot-paths whose values are arrays of independently matchable
// sub-documents (e.g. "comments", "comments.replies"). A path nested inside another
// nested path inherits the outer level: "comments.replies" is resolved per comment.
//
// ParentTypes maps a child document type to its parent type. A child document
// carries the parent's documentID in its "parentID" field.
type IndexSettings struct {
	Name                 string             `json:"name"`                              // Unique name for the index
	SearchableFields     []string           `json:"searchable_fields"`                 // Optional allow-list of full dot-paths to index; empty indexes every text field
	NestedPaths          []string           `json:"nested_paths"`                      // Declared nested dot-paths
	ParentTypes          map[string]string  `json:"parent_types"`                      // child type -> parent type
	DefaultType          string             `json:"default_type"`                      // Type assigned to documents without a documentType
	RankingCriteria      []RankingCriterion `json:"ranking_criteria"`                  // Ordered ranking criteria for top-level hits
	InnerHitsDefaultSize int                `json:"inner_hits_default_size,omitempty"` // Page size of an inner hit definition that sets none
	InnerHitsMaxSize     int                `json:"inner_hits_max_size,omitempty"`     // Upper bound for an inner hit definition's from+size
}

// IsNested reports whether path is declared as a nested field.
func (settings *IndexSettings) IsNested(path string) bool {
	for _, p := range settings.NestedPaths {
		if p == path {
			return true
		}
	}
	return false
}

// NestedLevels returns the declared nested paths that enclose path, outermost first,
// including path itself when it is declared nested.
// For NestedPaths ["comments", "comments.replies"] and path "comments.replies"
// the result is ["comments", "comments.replies"].
func (settings *IndexSettings) NestedLevels(path string) []string {
	var levels []string
	for _, p := range settings.NestedPaths {
		if p == path || strings.HasPrefix(path, p+".") {
			levels = append(levels, p)
		}
	}
	sort.Slice(levels, func(i, j int) bool {
		return strings.Count(levels[i], ".") < strings.Count(levels[j], ".")
	})
	return levels
}

// ParentTypeOf returns the parent type declared for childType.
func (settings *IndexSettings) ParentTypeOf(childType string) (string, bool) {
	parent, ok := settings.ParentTypes[childType]
	return parent, ok && parent != ""
}

// IsSearchable reports whether the full dot-path field should be indexed.
func (settings *IndexSettings) IsSearchable(field string) bool {
	if len(settings.SearchableFields) == 0 {
		return true
	}
	for _, f := range settings.SearchableFields {
		if f == field {
			return true
		}
	}
	return false
}

// SettingsConflict is one invalid setting, keyed by the JSON name of the setting.
type SettingsConflict struct {
	Field   string
	Message string
}

// ValidateFieldNames validates field names and mapping references.
func (settings *IndexSettings) ValidateFieldNames() []string {
	conflicts := settings.Conflicts()
	if len(conflicts) == 0 {
		return nil
	}
	messages := make([]string, len(conflicts))
	for i, c := range conflicts {
		messages[i] = c.Message
	}
	return messages
}

// Conflicts lists every invalid setting. Nested path and parent type problems are
// reported under "nested_paths" and "parent_types".
func (settings *IndexSettings) Conflicts() []SettingsConflict {
	var conflicts []SettingsConflict
	add := func(field string, messages ...string) {
		for _, m := range messages {
			conflicts = append(conflicts, SettingsConflict{Field: field, Message: m})
		}
	}

	add("searchable_fields", checkDuplicates("searchable_fields", settings.SearchableFields)...)
	for _, field := range settings.SearchableFields {
		if strings.TrimSpace(field) == "" {
			add("searchable_fields", "Field name cannot be empty or whitespace-only")
		}
	}

	add("nested_paths", checkDuplicates("nested_paths", settings.NestedPaths)...)
	for _, path := range settings.NestedPaths {
		if !isValidDotPath(path) {
			add("nested_paths", "Nested path '"+path+"' is not a valid dot-separated path")
		}
	}

	add("parent_types", settings.validateParentTypes()...)

	for _, criterion := range settings.RankingCriteria {
		if criterion.Order != "asc" && criterion.Order != "desc" {
			add("ranking_criteria", "Invalid order '"+criterion.Order+"' for field '"+criterion.Field+"' in ranking_criteria (must be 'asc' or 'desc')")
		}
	}

	if settings.InnerHitsDefaultSize < 0 {
		add("inner_hits_default_size", "inner_hits_default_size cannot be negative")
	}
	if settings.InnerHitsMaxSize < 0 {
		add("inner_hits_max_size", "inner_hits_max_size cannot be negative")
	}
	if settings.InnerHitsMaxSize > 0 && settings.InnerHitsDefaultSize > settings.InnerHitsMaxSize {
		add("inner_hits_default_size", "inner_hits_default_size cannot exceed inner_hits_max_size")
	}

	return conflicts
}

// validateParentTypes checks the child -> parent type mapping.
func (settings *IndexSettings) validateParentTypes() []string {
	var errors []string

	childTypes := make([]string, 0, len(settings.ParentTypes))
	for child := range settings.ParentTypes {
		childTypes = append(childTypes, child)
	}
	sort.Strings(childTypes) // deterministic error order

	for _, child := range childTypes {
		parent := settings.ParentTypes[child]
		if strings.TrimSpace(child) == "" || strings.TrimSpace(parent) == "" {
			errors = append(errors, "parent_types entries must name both a child and a parent type")
			continue
		}
		if child == parent {
			errors = append(errors, "Type '"+child+"' cannot be its own parent")
		}
	}
	return errors
}

// checkDuplicates checks for duplicate values in a slice and returns error messages
func checkDuplicates(fieldName string, fields []string) []string {
	var errors []string
	seen := make(map[string]bool)

	for _, field := range fields {
		if seen[field] {
			errors = append(errors, "Duplicate field '"+field+"' found in "+fieldName)
		}
		seen[field] = true
	}

	return errors
}

func isValidDotPath(path string) bool {
	if strings.TrimSpace(path) != path || path == "" {
		return false
	}
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return false
		}
	}
	return true
}

// ApplyDefaults applies default values to the index settings
func (settings *IndexSettings) ApplyDefaults() {
	if settings.DefaultType == "" {
		settings.DefaultType = DefaultDocumentType
	}
	if settings.InnerHitsDefaultSize == 0 {
		settings.InnerHitsDefaultSize = defaultInnerHitsSize
	}
	if settings.InnerHitsMaxSize == 0 {
		settings.InnerHitsMaxSize = defaultInnerHitsMaxSize
	}

	// Initialize empty collections if nil to prevent nil pointer issues
	if settings.SearchableFields == nil {
		settings.SearchableFields = []string{}
	}
	if settings.NestedPaths == nil {
		settings.NestedPaths = []string{}
	}
	if settings.ParentTypes == nil {
		settings.ParentTypes = map[string]string{}
	}
	if settings.RankingCriteria == nil {
		settings.RankingCriteria = []RankingCriterion{}
	}
}
