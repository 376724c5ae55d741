package innerhits

import (
	"strings"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/model"
)

// NestedSlot is one addressable nested sub-document.
type NestedSlot struct {
	Identity *model.NestedIdentity
	Source   map[string]interface{}
}

// NestedResolver enumerates the nested sub-documents of a document.
type NestedResolver struct {
	settings *config.IndexSettings
}

// NewNestedResolver creates a resolver over the nested paths declared in settings.
func NewNestedResolver(settings *config.IndexSettings) *NestedResolver {
	return &NestedResolver{settings: settings}
}

// CheckPath fails when path is not declared nested.
func (r *NestedResolver) CheckPath(path string) error {
	if !r.settings.IsNested(path) {
		return errors.NewNestedPathError(path, r.settings.Name)
	}
	return nil
}

// Resolve returns every sub-document under path in storage order. Offsets are positions
// in the immediately enclosing nested array; deeper levels chain onto their parent identity.
// Plain object arrays between two nested levels are flattened, so offsets keep counting
// across their elements. A document without content at path yields an empty result.
func (r *NestedResolver) Resolve(doc map[string]interface{}, path string) ([]NestedSlot, error) {
	return r.ResolveWithin(doc, "", nil, path)
}

// ResolveWithin resolves path relative to a nested sub-document located at basePath with
// identity base. A path outside basePath yields an empty result.
func (r *NestedResolver) ResolveWithin(source map[string]interface{}, basePath string, base *model.NestedIdentity, path string) ([]NestedSlot, error) {
	if err := r.CheckPath(path); err != nil {
		return nil, err
	}
	if basePath != "" && !strings.HasPrefix(path, basePath+".") {
		return nil, nil
	}

	type frame struct {
		path     string
		identity *model.NestedIdentity
		source   map[string]interface{}
	}
	current := []frame{{path: basePath, identity: base, source: source}}

	for _, level := range r.settings.NestedLevels(path) {
		if basePath != "" && (level == basePath || !strings.HasPrefix(level, basePath+".")) {
			continue
		}
		var next []frame
		for _, f := range current {
			rel := level
			if f.path != "" {
				rel = strings.TrimPrefix(level, f.path+".")
			}
			for offset, element := range lookupAll(f.source, strings.Split(rel, ".")) {
				obj, isObj := model.AsObject(element)
				if !isObj {
					continue
				}
				next = append(next, frame{
					path:     level,
					identity: f.identity.WithChild(level, offset),
					source:   obj,
				})
			}
		}
		current = next
		if len(current) == 0 {
			return nil, nil
		}
	}

	slots := make([]NestedSlot, 0, len(current))
	for _, f := range current {
		slots = append(slots, NestedSlot{Identity: f.identity, Source: f.source})
	}
	return slots, nil
}

// lookupAll follows segments from obj, descending into every object of an intermediate
// array, and returns the flattened elements found at the last segment.
func lookupAll(obj map[string]interface{}, segments []string) []interface{} {
	value, ok := obj[segments[0]]
	if !ok {
		return nil
	}
	if len(segments) == 1 {
		return nestedElements(value)
	}
	var out []interface{}
	for _, element := range nestedElements(value) {
		if sub, isObj := model.AsObject(element); isObj {
			out = append(out, lookupAll(sub, segments[1:])...)
		}
	}
	return out
}

// nestedElements returns the array entries of a nested value. A single object is a
// one-element array.
func nestedElements(value interface{}) []interface{} {
	switch v := value.(type) {
	case []interface{}:
		return v
	case []map[string]interface{}:
		items := make([]interface{}, len(v))
		for i, m := range v {
			items[i] = m
		}
		return items
	case []model.Document:
		items := make([]interface{}, len(v))
		for i, m := range v {
			items[i] = m
		}
		return items
	default:
		if _, ok := model.AsObject(value); ok {
			return []interface{}{value}
		}
		return nil
	}
}
