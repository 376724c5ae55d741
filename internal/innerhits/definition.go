// Package innerhits resolves inner hits: for every top-level hit and every named
// definition it finds the nested sub-documents or child documents matching the
// definition's scoped query and attaches them, ranked, to the hit.
package innerhits

import (
	"fmt"
	"strings"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/internal/query"
	"github.com/gcbaptista/go-inner-hits/internal/scoring"
	"github.com/gcbaptista/go-inner-hits/services"
)

// Validation messages surfaced to clients.
const (
	MsgSelectorMissing   = "Either [path] or [type] must be defined"
	MsgSelectorConflict  = "Only one of [path] or [type] can be defined"
	defaultSortDirection = "desc"
)

// Selector picks the subspace a definition searches. It is either a NestedPath or a
// ChildType; no other implementations exist.
type Selector interface {
	// Key identifies the selector in cache keys and logs.
	Key() string
	sealed()
}

// NestedPath selects the sub-documents under a declared nested path.
type NestedPath struct {
	Path string
}

func (s NestedPath) Key() string { return "path:" + s.Path }
func (NestedPath) sealed() {}

// ChildType selects the child documents of a declared type.
type ChildType struct {
	Type string
}

func (s ChildType) Key() string { return "type:" + s.Type }
func (ChildType) sealed() {}

// Options shape the result of one definition.
type Options struct {
	From   int
	Size   int
	Sort   []services.SortField
	Source services.SourceFilter
}

// Definition is one validated, immutable inner hit request.
type Definition struct {
	name     string
	selector Selector
	query    query.Query
	options  Options
}

func (d *Definition) Name() string { return d.name }
func (d *Definition) Selector() Selector { return d.selector }
func (d *Definition) Query() query.Query { return d.query }
func (d *Definition) Options() Options { return d.options }
func (d *Definition) String() string { return d.name + "(" + d.selector.Key() + ")" }

// NewNestedDefinition builds a definition over the nested sub-documents at path.
func NewNestedDefinition(name, path string, q query.Query, opts Options) (*Definition, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewInnerHitDefinitionError(name, MsgSelectorMissing)
	}
	return newDefinition(name, NestedPath{Path: path}, q, opts)
}

// NewChildDefinition builds a definition over the children of childType.
func NewChildDefinition(name, childType string, q query.Query, opts Options) (*Definition, error) {
	if strings.TrimSpace(childType) == "" {
		return nil, errors.NewInnerHitDefinitionError(name, MsgSelectorMissing)
	}
	return newDefinition(name, ChildType{Type: childType}, q, opts)
}

func newDefinition(name string, selector Selector, q query.Query, opts Options) (*Definition, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewInnerHitDefinitionError("", "[name] must be defined")
	}
	if q == nil {
		q = query.MatchAll{}
	}
	if opts.From < 0 {
		return nil, errors.NewInnerHitDefinitionError(name, "[from] cannot be negative")
	}
	if opts.Size < 0 {
		return nil, errors.NewInnerHitDefinitionError(name, "[size] cannot be negative")
	}
	sortFields := make([]services.SortField, len(opts.Sort))
	for i, sf := range opts.Sort {
		if strings.TrimSpace(sf.Field) == "" {
			return nil, errors.NewInnerHitDefinitionError(name, "sort field cannot be empty")
		}
		switch sf.Order {
		case "":
			sf.Order = "asc"
			if sf.Field == scoring.ScoreField {
				sf.Order = defaultSortDirection
			}
		case "asc", "desc":
		default:
			return nil, errors.NewInnerHitDefinitionError(name, fmt.Sprintf("invalid sort order '%s' for field '%s' (must be 'asc' or 'desc')", sf.Order, sf.Field))
		}
		sortFields[i] = sf
	}
	opts.Sort = sortFields
	return &Definition{name: name, selector: selector, query: q, options: opts}, nil
}

// ParseDefinition validates a client request into a Definition. Selector errors are
// checked before anything else. A missing name defaults to the path or type.
func ParseDefinition(req services.InnerHitRequest, settings *config.IndexSettings) (*Definition, error) {
	path := strings.TrimSpace(req.Path)
	childType := strings.TrimSpace(req.Type)
	switch {
	case path == "" && childType == "":
		return nil, errors.NewInnerHitDefinitionError(req.Name, MsgSelectorMissing)
	case path != "" && childType != "":
		return nil, errors.NewInnerHitDefinitionError(req.Name, MsgSelectorConflict)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = path + childType
	}

	q, err := query.Parse(req.Query)
	if err != nil {
		return nil, errors.NewInnerHitDefinitionError(name, err.Error())
	}

	size := settings.InnerHitsDefaultSize
	if req.Size != nil {
		size = *req.Size
	}
	if settings.InnerHitsMaxSize > 0 && req.From+size > settings.InnerHitsMaxSize {
		return nil, errors.NewInnerHitDefinitionError(name, fmt.Sprintf("[from] + [size] cannot exceed %d", settings.InnerHitsMaxSize))
	}

	opts := Options{From: req.From, Size: size, Sort: req.Sort}
	if req.Source != nil {
		opts.Source = *req.Source
	}

	if path != "" {
		return NewNestedDefinition(name, path, q, opts)
	}
	return NewChildDefinition(name, childType, q, opts)
}

// Definitions is the validated, ordered set of definitions of one request.
// It is immutable and shared read-only by every worker.
type Definitions struct {
	items []*Definition
}

// Build validates every request and its mapping references before any execution.
// Definition errors are reported before schema errors; the first failure rejects the
// whole request.
func Build(reqs []services.InnerHitRequest, settings *config.IndexSettings, schema query.Schema) (*Definitions, error) {
	defs := &Definitions{items: make([]*Definition, 0, len(reqs))}
	seen := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		def, err := ParseDefinition(req, settings)
		if err != nil {
			return nil, err
		}
		if seen[def.name] {
			return nil, errors.NewInnerHitDefinitionError(def.name, "name is declared more than once")
		}
		seen[def.name] = true
		defs.items = append(defs.items, def)
	}

	for _, def := range defs.items {
		if err := CheckSelector(def.selector, schema); err != nil {
			return nil, err
		}
		if err := def.query.Validate(schema); err != nil {
			return nil, fmt.Errorf("inner hit [%s]: %w", def.name, err)
		}
	}
	return defs, nil
}

// NewDefinitions wraps already validated definitions.
func NewDefinitions(items ...*Definition) *Definitions {
	out := make([]*Definition, len(items))
	copy(out, items)
	return &Definitions{items: out}
}

// CheckSelector verifies that the selector names a declared nested path or a child type
// with a parent mapping.
func CheckSelector(selector Selector, schema query.Schema) error {
	switch s := selector.(type) {
	case NestedPath:
		return schema.CheckPath(s.Path)
	case ChildType:
		return schema.CheckType(s.Type)
	default:
		return fmt.Errorf("unknown selector %T", selector)
	}
}

// Len returns the number of definitions.
func (d *Definitions) Len() int {
	if d == nil {
		return 0
	}
	return len(d.items)
}

// At returns the i-th definition in declaration order.
func (d *Definitions) At(i int) *Definition {
	return d.items[i]
}

// Names returns the definition names in declaration order.
func (d *Definitions) Names() []string {
	names := make([]string, d.Len())
	for i := range names {
		names[i] = d.items[i].name
	}
	return names
}
