package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/model"
)

func TestValidationResult_AddError(t *testing.T) {
	result := &ValidationResult{Valid: true}
	assert.False(t, result.HasErrors())

	result.AddError("field1", "error message")

	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ValidationError{Field: "field1", Message: "error message"}, result.Errors[0])
}

func TestValidateIndexName(t *testing.T) {
	tests := []struct {
		name      string
		indexName string
		wantError string
	}{
		{name: "valid index name", indexName: "test-index"},
		{name: "empty index name", indexName: "", wantError: "Index name is required"},
		{name: "leading whitespace", indexName: " test-index", wantError: "Index name cannot have leading or trailing whitespace"},
		{name: "trailing whitespace", indexName: "test-index ", wantError: "Index name cannot have leading or trailing whitespace"},
		{name: "slash", indexName: "a/b", wantError: "Index name cannot contain path separators"},
		{name: "backslash", indexName: `a\b`, wantError: "Index name cannot contain path separators"},
		{name: "parent directory", indexName: "..", wantError: "Index name cannot contain path separators"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateIndexName(tt.indexName)
			if tt.wantError == "" {
				assert.True(t, result.Valid)
				assert.Empty(t, result.Errors)
				return
			}
			assert.False(t, result.Valid)
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.wantError, result.Errors[0].Message)
		})
	}
}

func TestValidateDocumentID(t *testing.T) {
	tests := []struct {
		name       string
		documentID string
		wantError  string
	}{
		{name: "valid document ID", documentID: "doc-123"},
		{name: "empty document ID", documentID: "", wantError: "Document ID is required"},
		{name: "leading whitespace", documentID: " doc-123", wantError: "Document ID cannot have leading or trailing whitespace"},
		{name: "trailing whitespace", documentID: "doc-123 ", wantError: "Document ID cannot have leading or trailing whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateDocumentID(tt.documentID)
			if tt.wantError == "" {
				assert.True(t, result.Valid)
				return
			}
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.wantError, result.Errors[0].Message)
		})
	}
}

func TestValidateIndexSettings(t *testing.T) {
	tests := []struct {
		name      string
		settings  *config.IndexSettings
		wantField string
		wantError string
	}{
		{
			name: "valid settings",
			settings: &config.IndexSettings{
				Name:        "test-index",
				NestedPaths: []string{"comments", "comments.replies"},
				ParentTypes: map[string]string{"comment": "article"},
			},
		},
		{name: "nil settings", settings: nil, wantField: "settings", wantError: "Index settings are required"},
		{
			name:      "empty name",
			settings:  &config.IndexSettings{NestedPaths: []string{"comments"}},
			wantField: "name",
			wantError: "Index name is required",
		},
		{
			name:      "name with separator",
			settings:  &config.IndexSettings{Name: "../etc"},
			wantField: "name",
			wantError: "Index name cannot contain path separators",
		},
		{
			name: "invalid nested path",
			settings: &config.IndexSettings{
				Name:        "test-index",
				NestedPaths: []string{"comments..replies"},
			},
			wantField: "nested_paths",
			wantError: "Nested path 'comments..replies' is not a valid dot-separated path",
		},
		{
			name: "self parent",
			settings: &config.IndexSettings{
				Name:        "test-index",
				ParentTypes: map[string]string{"comment": "comment"},
			},
			wantField: "parent_types",
			wantError: "Type 'comment' cannot be its own parent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateIndexSettings(tt.settings)
			if tt.wantError == "" {
				assert.True(t, result.Valid, "unexpected errors: %v", result.Errors)
				return
			}
			assert.False(t, result.Valid)
			assert.Contains(t, result.Errors, ValidationError{Field: tt.wantField, Message: tt.wantError})
		})
	}
}

func TestValidateDocuments(t *testing.T) {
	tests := []struct {
		name      string
		docs      []model.Document
		wantField string
		wantError string
	}{
		{
			name: "valid documents",
			docs: []model.Document{
				{"documentID": "1", "documentType": "article", "title": "Test"},
				{"documentID": "1", "documentType": "comment", "parentID": "1"},
			},
		},
		{name: "empty documents", docs: []model.Document{}, wantField: "documents", wantError: "No documents provided"},
		{
			name:      "missing documentID",
			docs:      []model.Document{{"title": "Test"}},
			wantField: "documents[0].documentID",
			wantError: "Document must have a 'documentID' field",
		},
		{
			name:      "non-string documentID",
			docs:      []model.Document{{"documentID": 123}},
			wantField: "documents[0].documentID",
			wantError: "Document ID must be a string",
		},
		{
			name:      "whitespace-only documentID",
			docs:      []model.Document{{"documentID": "  "}},
			wantField: "documents[0].documentID",
			wantError: "Document ID cannot be empty or whitespace-only",
		},
		{
			name:      "non-string parentID",
			docs:      []model.Document{{"documentID": "1"}, {"documentID": "2", "parentID": 1}},
			wantField: "documents[1].parentID",
			wantError: "'parentID' must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateDocuments(tt.docs)
			if tt.wantError == "" {
				assert.True(t, result.Valid, "unexpected errors: %v", result.Errors)
				return
			}
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.wantField, result.Errors[0].Field)
			assert.Equal(t, tt.wantError, result.Errors[0].Message)
		})
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
		wantValid    bool
	}{
		{name: "valid pagination", page: 2, pageSize: 20, wantPage: 2, wantPageSize: 20, wantValid: true},
		{name: "zero page defaults to 1", page: 0, pageSize: 20, wantPage: 1, wantPageSize: 20, wantValid: true},
		{name: "zero page size defaults to 10", page: 1, pageSize: 0, wantPage: 1, wantPageSize: 10, wantValid: true},
		{name: "page size over 100 capped", page: 1, pageSize: 150, wantPage: 1, wantPageSize: 100, wantValid: true},
		{name: "negative page", page: -1, pageSize: 10, wantPage: 1, wantPageSize: 10, wantValid: false},
		{name: "negative page size", page: 1, pageSize: -5, wantPage: 1, wantPageSize: 10, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPage, gotPageSize, result := ValidatePagination(tt.page, tt.pageSize)
			assert.Equal(t, tt.wantPage, gotPage)
			assert.Equal(t, tt.wantPageSize, gotPageSize)
			assert.Equal(t, tt.wantValid, result.Valid)
		})
	}
}
