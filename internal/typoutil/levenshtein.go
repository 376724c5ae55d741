// Package typoutil provides the edit distance used by fuzzy match queries.
package typoutil

import "unicode/utf8"

// Distance returns the optimal string alignment distance between a and b: insertions,
// deletions, substitutions and adjacent transpositions each cost one edit.
// Any distance above limit is reported as limit+1.
func Distance(a, b string, limit int) int {
	ra, rb := []rune(a), []rune(b)
	if d := len(ra) - len(rb); d > limit || -d > limit {
		return limit + 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return max(len(ra), len(rb))
	}

	// rows[0] is row i-2, rows[1] row i-1, rows[2] the row being filled
	var rows [3][]int
	for k := range rows {
		rows[k] = make([]int, len(rb)+1)
	}
	for j := range rows[1] {
		rows[1][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		two, prev, cur := rows[0], rows[1], rows[2]
		cur[0] = i
		rowMin := i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				cur[j] = min(cur[j], two[j-2]+1)
			}
			rowMin = min(rowMin, cur[j])
		}
		if rowMin > limit {
			return limit + 1
		}
		rows[0], rows[1], rows[2] = prev, cur, two
	}
	return min(rows[1][len(rb)], limit+1)
}

// AutoFuzziness returns the edit distance allowed for a term of the given length:
// 0 for up to 2 characters, 1 for up to 5, 2 beyond.
func AutoFuzziness(term string) int {
	switch n := utf8.RuneCountInString(term); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

// Variants returns the candidates within maxDistance (Damerau-Levenshtein) of term,
// mapped to their distance. The term itself is included at distance 0 when present.
func Variants(term string, candidates []string, maxDistance int) map[string]int {
	variants := make(map[string]int)
	if term == "" {
		return variants
	}
	for _, candidate := range candidates {
		if candidate == term {
			variants[candidate] = 0
			continue
		}
		if maxDistance <= 0 {
			continue
		}
		dist := Distance(term, candidate, maxDistance)
		if dist <= maxDistance {
			variants[candidate] = dist
		}
	}
	return variants
}
