package index

import "github.com/gcbaptista/go-inner-hits/model"

// PostingEntry represents one indexed unit that contains a term, the field it appeared in,
// and the term frequency in that field.
// A unit is a stored document (Nested == nil) or one nested sub-document of it.
type PostingEntry struct {
	DocID     uint32                // Internal numeric ID of the stored document
	FieldName string                // Full dot-path of the field (e.g. "title", "comments.message")
	Nested    *model.NestedIdentity // Address of the nested sub-document, nil for the document itself
	Score     float64               // Term frequency within this field of this unit
}

// SameUnit reports whether the entry belongs to the given document and nested address.
func (e PostingEntry) SameUnit(docID uint32, nested *model.NestedIdentity) bool {
	return e.DocID == docID && e.Nested.Equal(nested)
}

// PostingList is a slice of PostingEntry, sorted by DocID, field name, then nested address.
type PostingList []PostingEntry

// FieldTerm names an analysed term in one field.
type FieldTerm struct {
	Field string
	Term  string
}

// FieldStat aggregates per-field statistics used for BM25 length normalisation.
type FieldStat struct {
	DocCount    int // Number of units with at least one token in the field
	TotalLength int // Sum of token counts of the field over those units
}

// AverageLength returns the mean field length, or 0 when the field is empty.
func (fs FieldStat) AverageLength() float64 {
	if fs.DocCount == 0 {
		return 0
	}
	return float64(fs.TotalLength) / float64(fs.DocCount)
}
