package index

import (
	"strings"

	"github.com/gcbaptista/go-inner-hits/model"
)

// WalkFields calls fn for every leaf value of the unit rooted at obj.
// prefix is the full dot-path of obj ("" for a stored document). Sub-trees under a
// nested path belong to their own units and are skipped; plain object arrays are flattened.
func WalkFields(obj map[string]interface{}, prefix string, isNested func(string) bool, fn func(path string, value interface{})) {
	for key, value := range obj {
		if prefix == "" && model.IsReservedKey(key) {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if isNested(path) {
			continue
		}
		walkValue(path, value, isNested, fn)
	}
}

func walkValue(path string, value interface{}, isNested func(string) bool, fn func(string, interface{})) {
	if sub, ok := model.AsObject(value); ok {
		WalkFields(sub, path, isNested, fn)
		return
	}
	if items, ok := value.([]interface{}); ok {
		var leaves []interface{}
		for _, item := range items {
			if sub, isObj := model.AsObject(item); isObj {
				WalkFields(sub, path, isNested, fn)
			} else {
				leaves = append(leaves, item)
			}
		}
		if len(leaves) > 0 {
			fn(path, leaves)
		}
		return
	}
	fn(path, value)
}

// TextOf joins the string content of a leaf value. Non-text values report false.
func TextOf(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []string:
		return strings.Join(v, " "), true
	case []interface{}:
		var parts []string
		for _, item := range v {
			if str, ok := item.(string); ok {
				parts = append(parts, str)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, " "), true
	default:
		return "", false
	}
}
