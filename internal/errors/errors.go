package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrIndexNotFound is returned when an index is not found
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexAlreadyExists is returned when trying to create an index that already exists
	ErrIndexAlreadyExists = errors.New("index already exists")

	// ErrDocumentNotFound is returned when a document is not found
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidInnerHit is returned when an inner hit definition is malformed
	ErrInvalidInnerHit = errors.New("invalid inner hit definition")

	// ErrSchemaResolution is returned when a nested path or child type is not declared in the mapping
	ErrSchemaResolution = errors.New("schema resolution failed")

	// ErrInvalidQuery is returned when a query cannot be parsed
	ErrInvalidQuery = errors.New("invalid query")

	// ErrSearchCancelled is returned when a search is cancelled or times out before completing
	ErrSearchCancelled = errors.New("search cancelled")
)

// IndexNotFoundError represents an index not found error with context
type IndexNotFoundError struct {
	IndexName string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index named '%s' not found", e.IndexName)
}

func (e *IndexNotFoundError) Is(target error) bool {
	return target == ErrIndexNotFound
}

// NewIndexNotFoundError creates a new IndexNotFoundError
func NewIndexNotFoundError(indexName string) *IndexNotFoundError {
	return &IndexNotFoundError{IndexName: indexName}
}

// IndexAlreadyExistsError represents an index already exists error with context
type IndexAlreadyExistsError struct {
	IndexName string
}

func (e *IndexAlreadyExistsError) Error() string {
	return fmt.Sprintf("index named '%s' already exists", e.IndexName)
}

func (e *IndexAlreadyExistsError) Is(target error) bool {
	return target == ErrIndexAlreadyExists
}

// NewIndexAlreadyExistsError creates a new IndexAlreadyExistsError
func NewIndexAlreadyExistsError(indexName string) *IndexAlreadyExistsError {
	return &IndexAlreadyExistsError{IndexName: indexName}
}

// DocumentNotFoundError represents a document not found error with context
type DocumentNotFoundError struct {
	DocumentID   string
	DocumentType string
	IndexName    string
}

func (e *DocumentNotFoundError) Error() string {
	id := e.DocumentID
	if e.DocumentType != "" {
		id = e.DocumentType + "/" + e.DocumentID
	}
	if e.IndexName != "" {
		return fmt.Sprintf("document with ID '%s' not found in index '%s'", id, e.IndexName)
	}
	return fmt.Sprintf("document with ID '%s' not found", id)
}

func (e *DocumentNotFoundError) Is(target error) bool {
	return target == ErrDocumentNotFound
}

// NewDocumentNotFoundError creates a new DocumentNotFoundError
func NewDocumentNotFoundError(documentType, documentID string, indexName ...string) *DocumentNotFoundError {
	err := &DocumentNotFoundError{DocumentID: documentID, DocumentType: documentType}
	if len(indexName) > 0 {
		err.IndexName = indexName[0]
	}
	return err
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InnerHitDefinitionError is a request-time rejection of an inner hit definition.
// It is fatal to the whole request.
type InnerHitDefinitionError struct {
	Name    string
	Message string
}

func (e *InnerHitDefinitionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("inner hit [%s]: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("inner hit: %s", e.Message)
}

func (e *InnerHitDefinitionError) Is(target error) bool {
	return target == ErrInvalidInnerHit
}

// NewInnerHitDefinitionError creates a new InnerHitDefinitionError
func NewInnerHitDefinitionError(name, message string) *InnerHitDefinitionError {
	return &InnerHitDefinitionError{Name: name, Message: message}
}

// SchemaResolutionError reports a nested path or child type missing from the index mapping.
type SchemaResolutionError struct {
	Kind  string // "path" or "type"
	Value string
	Index string
}

func (e *SchemaResolutionError) Error() string {
	switch e.Kind {
	case "path":
		return fmt.Sprintf("[nested] path [%s] is not declared as nested in index '%s'", e.Value, e.Index)
	case "type":
		return fmt.Sprintf("[has_child] type [%s] has no parent mapping in index '%s'", e.Value, e.Index)
	default:
		return fmt.Sprintf("cannot resolve %s [%s] in index '%s'", e.Kind, e.Value, e.Index)
	}
}

func (e *SchemaResolutionError) Is(target error) bool {
	return target == ErrSchemaResolution
}

// NewNestedPathError creates a SchemaResolutionError for an undeclared nested path
func NewNestedPathError(path, indexName string) *SchemaResolutionError {
	return &SchemaResolutionError{Kind: "path", Value: path, Index: indexName}
}

// NewChildTypeError creates a SchemaResolutionError for a child type without parent mapping
func NewChildTypeError(childType, indexName string) *SchemaResolutionError {
	return &SchemaResolutionError{Kind: "type", Value: childType, Index: indexName}
}

// QueryParseError represents a malformed query clause
type QueryParseError struct {
	Clause  string
	Message string
}

func (e *QueryParseError) Error() string {
	if e.Clause != "" {
		return fmt.Sprintf("failed to parse [%s] query: %s", e.Clause, e.Message)
	}
	return fmt.Sprintf("failed to parse query: %s", e.Message)
}

func (e *QueryParseError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// NewQueryParseError creates a new QueryParseError
func NewQueryParseError(clause, message string) *QueryParseError {
	return &QueryParseError{Clause: clause, Message: message}
}

// IsConfigurationError reports whether err aborts a request before execution.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidInnerHit) ||
		errors.Is(err, ErrSchemaResolution) ||
		errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, ErrInvalidInput)
}
