package search

import (
	"sort"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/internal/scoring"
	"github.com/gcbaptista/go-inner-hits/model"
)

// scoreCriterion is the ranking field naming the query relevance score.
const scoreCriterion = "~score"

// rankHits applies the ranking criteria in order, then falls back to score descending
// and finally to internal ID, so equal hits keep storage order.
func rankHits(hits []candidateHit, criteria []config.RankingCriterion) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		for _, criterion := range criteria {
			var c int
			if criterion.Field == scoreCriterion {
				c = scoring.CompareScores(a.score, b.score)
				if criterion.Order == "asc" {
					c = -c
				}
			} else {
				valA, okA := model.Lookup(a.unit.Source, criterion.Field)
				valB, okB := model.Lookup(b.unit.Source, criterion.Field)
				c = scoring.CompareSortValues(valA, valB, okA, okB, criterion.Order)
			}
			if c != 0 {
				return c < 0
			}
		}

		if c := scoring.CompareScores(a.score, b.score); c != 0 {
			return c < 0
		}
		return a.docID < b.docID
	})
}
