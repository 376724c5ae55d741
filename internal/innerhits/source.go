package innerhits

import (
	"strings"

	"github.com/gcbaptista/go-inner-hits/model"
	"github.com/gcbaptista/go-inner-hits/services"
)

// filterSource applies a source filter to the object of an inner hit. Patterns may be
// written relative to the hit (message) or as full dot-paths (comments.message).
// A trailing * matches any suffix. An unfiltered source is returned as is.
func filterSource(src map[string]interface{}, filter services.SourceFilter, basePath string) map[string]interface{} {
	if filter.Disabled {
		return nil
	}
	if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
		return src
	}
	includes := relativePatterns(filter.Includes, basePath)
	excludes := relativePatterns(filter.Excludes, basePath)
	return filterObject(src, "", includes, excludes)
}

func relativePatterns(patterns []string, basePath string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if basePath != "" {
			p = strings.TrimPrefix(p, basePath+".")
		}
		out = append(out, p)
	}
	return out
}

func filterObject(obj map[string]interface{}, prefix string, includes, excludes []string) map[string]interface{} {
	out := make(map[string]interface{}, len(obj))
	for key, value := range obj {
		field := key
		if prefix != "" {
			field = prefix + "." + key
		}
		if matchesAny(field, excludes) {
			continue
		}

		if len(includes) == 0 || matchesAny(field, includes) {
			if hasDescendantPattern(field, excludes) {
				if filtered, ok := filterValue(value, field, nil, excludes); ok {
					out[key] = filtered
				}
				continue
			}
			out[key] = value
			continue
		}

		if hasDescendantPattern(field, includes) {
			if filtered, ok := filterValue(value, field, includes, excludes); ok {
				out[key] = filtered
			}
		}
	}
	return out
}

// filterValue descends into objects and arrays of objects. Leaves below a partially
// matched path are dropped.
func filterValue(value interface{}, field string, includes, excludes []string) (interface{}, bool) {
	if obj, ok := model.AsObject(value); ok {
		sub := filterObject(obj, field, includes, excludes)
		return sub, len(sub) > 0 || len(includes) == 0
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil, false
	}
	filtered := make([]interface{}, 0, len(items))
	for _, item := range items {
		if obj, isObj := model.AsObject(item); isObj {
			filtered = append(filtered, filterObject(obj, field, includes, excludes))
		} else if len(includes) == 0 {
			filtered = append(filtered, item)
		}
	}
	return filtered, len(filtered) > 0
}

func matchesAny(field string, patterns []string) bool {
	for _, p := range patterns {
		if p == field || strings.HasPrefix(field, p+".") {
			return true
		}
		if stem, wildcard := strings.CutSuffix(p, "*"); wildcard && strings.HasPrefix(field, stem) {
			return true
		}
	}
	return false
}

func hasDescendantPattern(field string, patterns []string) bool {
	for _, p := range patterns {
		stem := strings.TrimSuffix(p, "*")
		if strings.HasPrefix(stem, field+".") {
			return true
		}
	}
	return false
}
