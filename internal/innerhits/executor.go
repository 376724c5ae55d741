package innerhits

import (
	"context"
	"fmt"
	"sort"

	"github.com/gcbaptista/go-inner-hits/internal/query"
	"github.com/gcbaptista/go-inner-hits/internal/scoring"
	"github.com/gcbaptista/go-inner-hits/services"
)

// cancelCheckInterval is how many candidates are evaluated between context checks.
const cancelCheckInterval = 64

// Executor runs one definition for one outer hit. Resolve and Execute are split so the
// aggregator can track the pair's progress between the two.
type Executor interface {
	// Resolve returns the candidate subspace of parent for the definition's selector.
	Resolve(ctx context.Context, def *Definition, parent *query.Unit) ([]*query.Unit, error)
	// Execute evaluates the definition's query over exactly candidates and returns the
	// ranked, paged result.
	Execute(ctx context.Context, def *Definition, parent *query.Unit, candidates []*query.Unit) (services.InnerHitResult, error)
}

// ScopedExecutor executes definitions against a Snapshot.
type ScopedExecutor struct {
	env *Snapshot
}

// NewScopedExecutor creates an executor reading from env.
func NewScopedExecutor(env *Snapshot) *ScopedExecutor {
	return &ScopedExecutor{env: env}
}

func (e *ScopedExecutor) Resolve(ctx context.Context, def *Definition, parent *query.Unit) ([]*query.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.env.Candidates(parent, def.Selector())
}

type scoredUnit struct {
	unit  *query.Unit
	score float64
}

func (e *ScopedExecutor) Execute(ctx context.Context, def *Definition, parent *query.Unit, candidates []*query.Unit) (services.InnerHitResult, error) {
	q := def.Query()
	refs, narrowed := query.UnitTerms(q)
	matches := make([]scoredUnit, 0, len(candidates))
	for i, candidate := range candidates {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return services.InnerHitResult{}, err
			}
		}
		if narrowed && !e.env.HasAnyTerm(candidate, refs) {
			continue
		}
		ok, score, err := q.Evaluate(e.env, candidate)
		if err != nil {
			return services.InnerHitResult{}, fmt.Errorf("failed to evaluate %s against %s: %w", def, describeUnit(candidate), err)
		}
		if ok {
			matches = append(matches, scoredUnit{unit: candidate, score: score})
		}
	}

	opts := def.Options()
	sortMatches(matches, opts.Sort)

	result := services.InnerHitResult{Total: len(matches), Hits: []services.InnerHit{}}
	for i, m := range matches {
		if i == 0 || m.score > result.MaxScore {
			result.MaxScore = m.score
		}
	}

	start := opts.From
	if start > len(matches) {
		start = len(matches)
	}
	end := start + opts.Size
	if end > len(matches) {
		end = len(matches)
	}
	for _, m := range matches[start:end] {
		result.Hits = append(result.Hits, buildInnerHit(parent, m, opts))
	}
	return result, nil
}

// ExecuteParent resolves and executes in one call.
func (e *ScopedExecutor) ExecuteParent(ctx context.Context, def *Definition, parent *query.Unit) (services.InnerHitResult, error) {
	candidates, err := e.Resolve(ctx, def, parent)
	if err != nil {
		return services.InnerHitResult{}, err
	}
	return e.Execute(ctx, def, parent, candidates)
}

// ExecuteBatch runs def for every parent in order. The results are identical to
// calling ExecuteParent once per parent.
func (e *ScopedExecutor) ExecuteBatch(ctx context.Context, def *Definition, parents []*query.Unit) ([]services.InnerHitResult, error) {
	results := make([]services.InnerHitResult, len(parents))
	for i, parent := range parents {
		result, err := e.ExecuteParent(ctx, def, parent)
		if err != nil {
			return nil, fmt.Errorf("parent %s: %w", describeUnit(parent), err)
		}
		results[i] = result
	}
	return results, nil
}

// sortMatches orders by score descending, or by the explicit sort keys. Ties fall back
// to the candidates' storage order.
func sortMatches(matches []scoredUnit, sortFields []services.SortField) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if len(sortFields) == 0 {
			if c := scoring.CompareScores(a.score, b.score); c != 0 {
				return c < 0
			}
			return a.unit.Ordinal < b.unit.Ordinal
		}
		for _, sf := range sortFields {
			var c int
			if sf.Field == scoring.ScoreField {
				c = scoring.CompareScores(a.score, b.score)
				if sf.Order == "asc" {
					c = -c
				}
			} else {
				va, okA := sortValue(a.unit, sf.Field)
				vb, okB := sortValue(b.unit, sf.Field)
				c = scoring.CompareSortValues(va, vb, okA, okB, sf.Order)
			}
			if c != 0 {
				return c < 0
			}
		}
		return a.unit.Ordinal < b.unit.Ordinal
	})
}

// sortValue reads the first value of a sort field. Relative field names are resolved
// under the unit's nested path.
func sortValue(u *query.Unit, field string) (interface{}, bool) {
	values := u.Values(field)
	if len(values) == 0 && u.Path != "" {
		values = u.Values(u.Path + "." + field)
	}
	if len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

func buildInnerHit(parent *query.Unit, m scoredUnit, opts Options) services.InnerHit {
	hit := services.InnerHit{
		ID:     m.unit.ID,
		Type:   m.unit.Type,
		Score:  m.score,
		Source: filterSource(m.unit.Source, opts.Source, m.unit.Path),
	}
	if !m.unit.IsDocument() {
		hit.ID = parent.ID
		hit.Type = parent.Type
		hit.Nested = m.unit.Nested
	}
	return hit
}

func describeUnit(u *query.Unit) string {
	if u.Nested != nil {
		return fmt.Sprintf("%s/%s %s", u.Type, u.ID, u.Nested)
	}
	return u.Type + "/" + u.ID
}
