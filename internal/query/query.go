// Package query implements the search DSL: parsing, schema validation and
// evaluation of a query against one unit (a document or a nested sub-document).
package query

import (
	"github.com/gcbaptista/go-inner-hits/internal/scoring"
	"github.com/gcbaptista/go-inner-hits/internal/typoutil"
)

// fuzzyPenalty scales the score of a term matched through an edit.
const fuzzyPenalty = 0.8

// Env gives a query read-only access to index statistics and to the units
// reachable from a unit through nested paths and parent/child joins.
type Env interface {
	scoring.Stats
	Nested(u *Unit, path string) ([]*Unit, error)
	Children(u *Unit, childType string) ([]*Unit, error)
}

// Schema checks the mapping references of a query before execution.
type Schema interface {
	CheckPath(path string) error
	CheckType(childType string) error
}

// Query is a parsed, immutable query clause. Queries hold no per-evaluation
// state and are safe to share between goroutines.
type Query interface {
	// Validate checks field names and mapping references.
	Validate(schema Schema) error
	// Evaluate reports whether u matches and with what score.
	Evaluate(env Env, u *Unit) (bool, float64, error)
}

// MatchAll matches every unit with a constant score.
type MatchAll struct{}

func (MatchAll) Validate(Schema) error { return nil }

func (MatchAll) Evaluate(Env, *Unit) (bool, float64, error) { return true, 1.0, nil }

// Match is a full-text query over one field.
type Match struct {
	Field     string
	Terms     []string
	Operator  string // "or" (default) or "and"
	Fuzziness int    // maximum edits, -1 for AUTO
}

func (q *Match) Validate(Schema) error {
	return requireField("match", q.Field)
}

func (q *Match) Evaluate(env Env, u *Unit) (bool, float64, error) {
	if len(q.Terms) == 0 {
		return false, 0, nil
	}
	an, ok := u.Analysis(q.Field)
	if !ok {
		return false, 0, nil
	}

	candidates := make([]string, 0, len(an.Terms))
	for term := range an.Terms {
		candidates = append(candidates, term)
	}

	bm25 := scoring.NewBM25Calculator(env)
	matched := 0
	score := 0.0
	for _, term := range q.Terms {
		maxEdits := q.Fuzziness
		if maxEdits < 0 {
			maxEdits = typoutil.AutoFuzziness(term)
		}

		best := 0.0
		found := false
		if tf, exact := an.Terms[term]; exact {
			best = bm25.Score(q.Field, term, float64(tf), an.Length)
			found = true
		} else if maxEdits > 0 {
			for variant := range typoutil.Variants(term, candidates, maxEdits) {
				s := bm25.Score(q.Field, variant, float64(an.Terms[variant]), an.Length) * fuzzyPenalty
				if !found || s > best {
					best = s
				}
				found = true
			}
		}
		if found {
			matched++
			score += best
		}
	}

	if q.Operator == "and" {
		if matched < len(q.Terms) {
			return false, 0, nil
		}
	} else if matched == 0 {
		return false, 0, nil
	}
	return true, score, nil
}

// Term matches an exact value, or a single token of a text field.
type Term struct {
	Field string
	Value interface{}
}

func (q *Term) Validate(Schema) error {
	return requireField("term", q.Field)
}

func (q *Term) Evaluate(_ Env, u *Unit) (bool, float64, error) {
	values := u.Values(q.Field)
	if scoring.ValuesEqual(values, q.Value) {
		return true, 1.0, nil
	}
	if token, ok := q.Value.(string); ok {
		if an, analyzed := u.Analysis(q.Field); analyzed && an.Terms[token] > 0 {
			return true, 1.0, nil
		}
	}
	return false, 0, nil
}

// Range matches values within the given bounds. Nil bounds are open.
type Range struct {
	Field string
	GT    interface{}
	GTE   interface{}
	LT    interface{}
	LTE   interface{}
}

func (q *Range) Validate(Schema) error {
	if err := requireField("range", q.Field); err != nil {
		return err
	}
	if q.GT == nil && q.GTE == nil && q.LT == nil && q.LTE == nil {
		return parseError("range", "at least one of [gt, gte, lt, lte] is required")
	}
	return nil
}

func (q *Range) Evaluate(_ Env, u *Unit) (bool, float64, error) {
	for _, value := range u.Values(q.Field) {
		if q.within(value) {
			return true, 1.0, nil
		}
	}
	return false, 0, nil
}

func (q *Range) within(value interface{}) bool {
	bounds := []struct {
		op    string
		bound interface{}
	}{{"gt", q.GT}, {"gte", q.GTE}, {"lt", q.LT}, {"lte", q.LTE}}
	for _, b := range bounds {
		if b.bound != nil && !scoring.CompareWithOperator(value, b.bound, b.op) {
			return false
		}
	}
	return true
}

// Bool combines clauses. Must and Should contribute to the score; Filter and
// MustNot only restrict.
type Bool struct {
	Must               []Query
	Should             []Query
	Filter             []Query
	MustNot            []Query
	MinimumShouldMatch *int
}

func (q *Bool) Validate(schema Schema) error {
	for _, group := range [][]Query{q.Must, q.Should, q.Filter, q.MustNot} {
		for _, clause := range group {
			if err := clause.Validate(schema); err != nil {
				return err
			}
		}
	}
	if q.MinimumShouldMatch != nil && (*q.MinimumShouldMatch < 0 || *q.MinimumShouldMatch > len(q.Should)) {
		return parseError("bool", "minimum_should_match must be between 0 and the number of should clauses")
	}
	return nil
}

func (q *Bool) Evaluate(env Env, u *Unit) (bool, float64, error) {
	score := 0.0
	for _, clause := range q.Must {
		ok, s, err := clause.Evaluate(env, u)
		if err != nil || !ok {
			return false, 0, err
		}
		score += s
	}
	for _, clause := range q.Filter {
		ok, _, err := clause.Evaluate(env, u)
		if err != nil || !ok {
			return false, 0, err
		}
	}
	for _, clause := range q.MustNot {
		ok, _, err := clause.Evaluate(env, u)
		if err != nil {
			return false, 0, err
		}
		if ok {
			return false, 0, nil
		}
	}

	shouldMatched := 0
	for _, clause := range q.Should {
		ok, s, err := clause.Evaluate(env, u)
		if err != nil {
			return false, 0, err
		}
		if ok {
			shouldMatched++
			score += s
		}
	}
	if shouldMatched < q.minimumShouldMatch() {
		return false, 0, nil
	}

	if len(q.Must) == 0 && len(q.Should) == 0 && len(q.Filter) == 0 && len(q.MustNot) == 0 {
		return true, 1.0, nil
	}
	return true, score, nil
}

func (q *Bool) minimumShouldMatch() int {
	if q.MinimumShouldMatch != nil {
		return *q.MinimumShouldMatch
	}
	if len(q.Should) > 0 && len(q.Must) == 0 && len(q.Filter) == 0 {
		return 1
	}
	return 0
}

// Nested evaluates Query against the sub-documents under Path and matches
// when at least one of them does.
type Nested struct {
	Path      string
	Query     Query
	ScoreMode string // avg (default), max, min, sum, none
}

func (q *Nested) Validate(schema Schema) error {
	if q.Path == "" {
		return parseError("nested", "[path] is required")
	}
	if err := schema.CheckPath(q.Path); err != nil {
		return err
	}
	return q.Query.Validate(schema)
}

func (q *Nested) Evaluate(env Env, u *Unit) (bool, float64, error) {
	subs, err := env.Nested(u, q.Path)
	if err != nil {
		return false, 0, err
	}
	var scores []float64
	for _, sub := range subs {
		ok, s, err := q.Query.Evaluate(env, sub)
		if err != nil {
			return false, 0, err
		}
		if ok {
			scores = append(scores, s)
		}
	}
	if len(scores) == 0 {
		return false, 0, nil
	}
	mode := q.ScoreMode
	if mode == "" {
		mode = "avg"
	}
	return true, combineScores(mode, scores, 0), nil
}

// HasChild matches parents with at least MinChildren (and at most MaxChildren)
// children of Type matching Query.
type HasChild struct {
	Type        string
	Query       Query
	ScoreMode   string // none (default), avg, max, min, sum
	MinChildren int
	MaxChildren int // 0 means unbounded
}

func (q *HasChild) Validate(schema Schema) error {
	if q.Type == "" {
		return parseError("has_child", "[type] is required")
	}
	if err := schema.CheckType(q.Type); err != nil {
		return err
	}
	if q.MaxChildren > 0 && q.MinChildren > q.MaxChildren {
		return parseError("has_child", "[max_children] cannot be less than [min_children]")
	}
	return q.Query.Validate(schema)
}

func (q *HasChild) Evaluate(env Env, u *Unit) (bool, float64, error) {
	if !u.IsDocument() {
		return false, 0, nil
	}
	children, err := env.Children(u, q.Type)
	if err != nil {
		return false, 0, err
	}
	var scores []float64
	for _, child := range children {
		ok, s, err := q.Query.Evaluate(env, child)
		if err != nil {
			return false, 0, err
		}
		if ok {
			scores = append(scores, s)
		}
	}
	minChildren := q.MinChildren
	if minChildren < 1 {
		minChildren = 1
	}
	if len(scores) < minChildren || (q.MaxChildren > 0 && len(scores) > q.MaxChildren) {
		return false, 0, nil
	}
	mode := q.ScoreMode
	if mode == "" {
		mode = "none"
	}
	return true, combineScores(mode, scores, 1.0), nil
}

// combineScores folds the scores of matching inner units into one.
// Unknown and "none" modes return noneScore.
func combineScores(mode string, scores []float64, noneScore float64) float64 {
	switch mode {
	case "avg":
		total := 0.0
		for _, s := range scores {
			total += s
		}
		return total / float64(len(scores))
	case "max":
		best := scores[0]
		for _, s := range scores[1:] {
			if s > best {
				best = s
			}
		}
		return best
	case "min":
		least := scores[0]
		for _, s := range scores[1:] {
			if s < least {
				least = s
			}
		}
		return least
	case "sum":
		total := 0.0
		for _, s := range scores {
			total += s
		}
		return total
	default:
		return noneScore
	}
}
