package model

import (
	"fmt"
	"strings"
)

// NestedIdentity addresses a nested sub-document inside its parent document.
// Field is the full dot-path of the nested array, Offset the position inside the
// immediately enclosing array. Child continues the chain for deeper nesting levels,
// outermost level first.
type NestedIdentity struct {
	Field  string          `json:"field"`
	Offset int             `json:"offset"`
	Child  *NestedIdentity `json:"_nested,omitempty"`
}

// WithChild returns a copy of the chain with child appended after the innermost level.
// The receiver is left untouched so chains can be shared between siblings.
func (n *NestedIdentity) WithChild(field string, offset int) *NestedIdentity {
	leaf := &NestedIdentity{Field: field, Offset: offset}
	if n == nil {
		return leaf
	}
	root := &NestedIdentity{Field: n.Field, Offset: n.Offset}
	dst := root
	for src := n.Child; src != nil; src = src.Child {
		dst.Child = &NestedIdentity{Field: src.Field, Offset: src.Offset}
		dst = dst.Child
	}
	dst.Child = leaf
	return root
}

// Equal compares two chains level by level.
func (n *NestedIdentity) Equal(other *NestedIdentity) bool {
	a, b := n, other
	for a != nil && b != nil {
		if a.Field != b.Field || a.Offset != b.Offset {
			return false
		}
		a, b = a.Child, b.Child
	}
	return a == nil && b == nil
}

// String renders the chain as comments[1].replies[0] style address.
func (n *NestedIdentity) String() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	prev := ""
	for cur := n; cur != nil; cur = cur.Child {
		name := cur.Field
		if prev != "" {
			sb.WriteByte('.')
			name = strings.TrimPrefix(name, prev+".")
		}
		sb.WriteString(fmt.Sprintf("%s[%d]", name, cur.Offset))
		prev = cur.Field
	}
	return sb.String()
}
