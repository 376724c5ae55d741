// Package scoring holds relevance scoring and the comparators shared by the
// outer search and inner hit ranking.
package scoring

import (
	"math"

	"github.com/gcbaptista/go-inner-hits/index"
)

// BM25 parameters
const (
	K1 = 1.2  // Controls term frequency saturation
	B  = 0.75 // Controls how much effect field length has
)

// Stats is the read-only view of index statistics BM25 needs.
type Stats interface {
	FieldStats(field string) index.FieldStat
	DocFreq(field, term string) int
}

// BM25Calculator scores one term occurrence inside one field of one unit.
type BM25Calculator struct {
	stats Stats
}

// NewBM25Calculator creates a new BM25 calculator
func NewBM25Calculator(stats Stats) *BM25Calculator {
	return &BM25Calculator{stats: stats}
}

// IDF uses the non-negative Lucene variant: log(1 + (N - df + 0.5) / (df + 0.5)).
func (calc *BM25Calculator) IDF(field, term string) float64 {
	n := float64(calc.stats.FieldStats(field).DocCount)
	if n == 0 {
		return 0.0
	}
	df := float64(calc.stats.DocFreq(field, term))
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// Score calculates BM25 with field length normalisation
// BM25 = IDF * (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * (|f| / avgfl)))
func (calc *BM25Calculator) Score(field, term string, termFreq float64, fieldLength int) float64 {
	if termFreq <= 0 {
		return 0.0
	}
	idf := calc.IDF(field, term)

	avgLength := calc.stats.FieldStats(field).AverageLength()
	norm := 1.0
	if avgLength > 0 {
		norm = 1 - B + B*(float64(fieldLength)/avgLength)
	}

	return idf * (termFreq * (K1 + 1)) / (termFreq + K1*norm)
}
