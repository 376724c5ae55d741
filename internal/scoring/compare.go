package scoring

import "math"

// ScoreEpsilon is the tolerance under which two scores are treated as tied.
const ScoreEpsilon = 1e-9

// CompareScores orders scores descending: it returns -1 when a ranks before b,
// 1 when b ranks before a and 0 when they tie.
func CompareScores(a, b float64) int {
	if math.Abs(a-b) <= ScoreEpsilon {
		return 0
	}
	if a > b {
		return -1
	}
	return 1
}

// ScoreField is the pseudo-field naming the relevance score in sort keys.
const ScoreField = "_score"

// CompareSortValues compares the values of one sort key for two units.
// Missing values always sort last, whatever the direction.
func CompareSortValues(a, b interface{}, okA, okB bool, order string) int {
	if !okA && !okB {
		return 0
	}
	if okA && !okB {
		return -1
	}
	if !okA && okB {
		return 1
	}
	c := CompareOrdered(a, b)
	if order == "desc" {
		return -c
	}
	return c
}
