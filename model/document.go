package model

import "strings"

// Reserved document keys. Everything else in a Document is user content.
const (
	DocumentIDKey   = "documentID"
	DocumentTypeKey = "documentType"
	ParentIDKey     = "parentID"
)

// Document is a flexible map representing a JSON document.
// The documentID is the only required field for document identification.
// Other fields like "title" or "comments" are accessed by their string keys and depend on index configuration.
// Example: doc["title"], doc["comments"]
type Document map[string]interface{}

// GetDocumentID returns the documentID if it's stored in the document map under "documentID" key.
func (d Document) GetDocumentID() (string, bool) {
	return d.stringField(DocumentIDKey)
}

// GetDocumentType returns the document type, or defaultType when the document does not declare one.
func (d Document) GetDocumentType(defaultType string) string {
	if t, ok := d.stringField(DocumentTypeKey); ok {
		return t
	}
	return defaultType
}

// GetParentID returns the parent reference of a child document.
func (d Document) GetParentID() (string, bool) {
	return d.stringField(ParentIDKey)
}

func (d Document) stringField(key string) (string, bool) {
	if v, ok := d[key]; ok {
		if str, sok := v.(string); sok {
			str = strings.TrimSpace(str)
			if str != "" {
				return str, true
			}
		}
	}
	return "", false
}

// IsReservedKey reports whether key is document metadata rather than content.
func IsReservedKey(key string) bool {
	return key == DocumentIDKey || key == DocumentTypeKey || key == ParentIDKey
}

// Lookup walks a dot-separated path through nested maps.
// It stops at the first segment that is missing or not an object.
func Lookup(doc map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	var current interface{} = doc
	for _, segment := range strings.Split(path, ".") {
		obj, ok := AsObject(current)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// AsObject converts the two map shapes a decoded document can carry into a plain map.
func AsObject(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Document:
		return m, true
	default:
		return nil, false
	}
}
