package search

import "github.com/gcbaptista/go-inner-hits/internal/query"

// candidateHit represents a document that matched the outer query
type candidateHit struct {
	docID uint32
	unit  *query.Unit
	score float64
}
