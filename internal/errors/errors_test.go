package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexErrors(t *testing.T) {
	notFound := NewIndexNotFoundError("articles")
	assert.Equal(t, "index named 'articles' not found", notFound.Error())
	assert.ErrorIs(t, notFound, ErrIndexNotFound)
	assert.NotErrorIs(t, notFound, ErrIndexAlreadyExists)

	exists := NewIndexAlreadyExistsError("articles")
	assert.Equal(t, "index named 'articles' already exists", exists.Error())
	assert.ErrorIs(t, exists, ErrIndexAlreadyExists)
}

func TestDocumentNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *DocumentNotFoundError
		expected string
	}{
		{
			name:     "with type and index",
			err:      NewDocumentNotFoundError("comment", "4", "articles"),
			expected: "document with ID 'comment/4' not found in index 'articles'",
		},
		{
			name:     "without index",
			err:      NewDocumentNotFoundError("comment", "4"),
			expected: "document with ID 'comment/4' not found",
		},
		{
			name:     "without type",
			err:      NewDocumentNotFoundError("", "4"),
			expected: "document with ID '4' not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.ErrorIs(t, tt.err, ErrDocumentNotFound)
		})
	}
}

func TestValidationError(t *testing.T) {
	withField := NewValidationError("parentID", "must be a string")
	assert.Equal(t, "validation error for field 'parentID': must be a string", withField.Error())
	assert.ErrorIs(t, withField, ErrInvalidInput)

	withoutField := NewValidationError("", "bad input")
	assert.Equal(t, "validation error: bad input", withoutField.Error())
}

func TestInnerHitDefinitionError(t *testing.T) {
	named := NewInnerHitDefinitionError("comments", "[size] cannot be negative")
	assert.Equal(t, "inner hit [comments]: [size] cannot be negative", named.Error())
	assert.ErrorIs(t, named, ErrInvalidInnerHit)
	assert.NotErrorIs(t, named, ErrSchemaResolution)

	anonymous := NewInnerHitDefinitionError("", "missing selector")
	assert.Equal(t, "inner hit: missing selector", anonymous.Error())
}

func TestSchemaResolutionError(t *testing.T) {
	path := NewNestedPathError("tags", "articles")
	assert.Equal(t, "[nested] path [tags] is not declared as nested in index 'articles'", path.Error())
	assert.ErrorIs(t, path, ErrSchemaResolution)

	childType := NewChildTypeError("review", "articles")
	assert.Equal(t, "[has_child] type [review] has no parent mapping in index 'articles'", childType.Error())
	assert.ErrorIs(t, childType, ErrSchemaResolution)

	other := &SchemaResolutionError{Kind: "field", Value: "x", Index: "articles"}
	assert.Equal(t, "cannot resolve field [x] in index 'articles'", other.Error())
}

func TestQueryParseError(t *testing.T) {
	err := NewQueryParseError("match", "unknown operator [xor]")
	assert.Equal(t, "failed to parse [match] query: unknown operator [xor]", err.Error())
	assert.ErrorIs(t, err, ErrInvalidQuery)

	assert.Equal(t, "failed to parse query: empty", NewQueryParseError("", "empty").Error())
}

func TestIsConfigurationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "inner hit definition", err: NewInnerHitDefinitionError("a", "bad"), expected: true},
		{name: "schema resolution", err: NewNestedPathError("tags", "articles"), expected: true},
		{name: "query parse", err: NewQueryParseError("term", "bad"), expected: true},
		{name: "validation", err: NewValidationError("name", "bad"), expected: true},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NewChildTypeError("review", "articles")), expected: true},
		{name: "document not found", err: NewDocumentNotFoundError("comment", "1"), expected: false},
		{name: "cancelled", err: fmt.Errorf("%w: deadline", ErrSearchCancelled), expected: false},
		{name: "plain", err: errors.New("boom"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsConfigurationError(tt.err))
		})
	}
}
