package query

import "github.com/gcbaptista/go-inner-hits/index"

// UnitTerms returns field terms of which every unit matching q holds at least one in
// its own postings. The boolean is false when q cannot be narrowed that way, for
// example when it contains fuzzy matches, exact values or ranges. An empty result with
// true means q matches nothing.
func UnitTerms(q Query) ([]index.FieldTerm, bool) {
	return requiredTerms(q, false)
}

// DocumentTerms is UnitTerms for stored documents: terms required by nested clauses
// count too, since nested postings carry the ID of the document that owns them.
func DocumentTerms(q Query) ([]index.FieldTerm, bool) {
	return requiredTerms(q, true)
}

func requiredTerms(q Query, throughNested bool) ([]index.FieldTerm, bool) {
	switch v := q.(type) {
	case *Match:
		if v.Fuzziness != 0 {
			return nil, false
		}
		refs := make([]index.FieldTerm, len(v.Terms))
		for i, term := range v.Terms {
			refs[i] = index.FieldTerm{Field: v.Field, Term: term}
		}
		return refs, true
	case *Nested:
		if !throughNested {
			return nil, false
		}
		return requiredTerms(v.Query, throughNested)
	case *Bool:
		for _, group := range [][]Query{v.Must, v.Filter} {
			for _, clause := range group {
				if refs, ok := requiredTerms(clause, throughNested); ok {
					return refs, true
				}
			}
		}
		if len(v.Should) == 0 || v.minimumShouldMatch() < 1 {
			return nil, false
		}
		var union []index.FieldTerm
		for _, clause := range v.Should {
			refs, ok := requiredTerms(clause, throughNested)
			if !ok {
				return nil, false
			}
			union = append(union, refs...)
		}
		return union, true
	default:
		return nil, false
	}
}
