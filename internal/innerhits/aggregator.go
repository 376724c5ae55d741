package innerhits

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-inner-hits/internal/metrics"
	"github.com/gcbaptista/go-inner-hits/internal/query"
	"github.com/gcbaptista/go-inner-hits/services"
)

// PairState tracks one (outer hit, definition) pair through execution.
type PairState int

const (
	PairPending PairState = iota
	PairResolving
	PairExecuting
	PairAttached
	PairFailed
)

func (s PairState) String() string {
	switch s {
	case PairPending:
		return "pending"
	case PairResolving:
		return "resolving"
	case PairExecuting:
		return "executing"
	case PairAttached:
		return "attached"
	case PairFailed:
		return "failed"
	default:
		return fmt.Sprintf("PairState(%d)", int(s))
	}
}

// pairSlot is written only by the goroutine running the pair, and read only after
// every goroutine has returned.
type pairSlot struct {
	hit       int
	def       int
	state     PairState
	result    services.InnerHitResult
	err       error
	cancelled bool
}

// Outcome is the merged result of one aggregation.
type Outcome struct {
	InnerHits [][]services.NamedInnerHits // Indexed like the parents, entries in declaration order
	States    [][]PairState               // Final state of every pair, [hit][definition]
	Failures  []services.InnerHitFailure
	TimedOut  bool
}

// For returns the inner hits attached to the i-th parent.
func (o Outcome) For(i int) services.InnerHits {
	if i >= len(o.InnerHits) || len(o.InnerHits[i]) == 0 {
		return nil
	}
	return services.InnerHits(o.InnerHits[i])
}

// Aggregator fans every (hit, definition) pair out to a bounded worker pool and merges
// the results back onto the hits.
type Aggregator struct {
	executor Executor
	workers  int
	logger   *zap.Logger
}

// NewAggregator creates an aggregator running at most workers pairs at once.
// A non-positive workers uses the number of CPUs.
func NewAggregator(executor Executor, workers int, logger *zap.Logger) *Aggregator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{executor: executor, workers: workers, logger: logger}
}

// Attach runs every definition for every parent. A pair that fails is left absent and
// reported in Outcome.Failures; other pairs are unaffected. When ctx ends early, pairs
// already attached are kept, the rest are reported as cancelled and TimedOut is set.
func (a *Aggregator) Attach(ctx context.Context, defs *Definitions, parents []*query.Unit) Outcome {
	outcome := Outcome{
		InnerHits: make([][]services.NamedInnerHits, len(parents)),
		States:    make([][]PairState, len(parents)),
	}
	if defs.Len() == 0 || len(parents) == 0 {
		return outcome
	}

	slots := make([]pairSlot, 0, len(parents)*defs.Len())
	for h := range parents {
		for d := 0; d < defs.Len(); d++ {
			slots = append(slots, pairSlot{hit: h, def: d})
		}
	}

	var g errgroup.Group
	g.SetLimit(min(len(slots), a.workers))
	for i := range slots {
		if ctx.Err() != nil {
			break
		}
		slot := &slots[i]
		g.Go(func() error {
			a.run(ctx, slot, defs.At(slot.def), parents[slot.hit])
			return nil
		})
	}
	_ = g.Wait()

	return a.merge(ctx, defs, parents, slots, outcome)
}

func (a *Aggregator) run(ctx context.Context, slot *pairSlot, def *Definition, parent *query.Unit) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slot.state = PairFailed
			slot.err = fmt.Errorf("panic during inner hit execution: %v", r)
		}
		metrics.InnerHitPairDuration.Observe(time.Since(start).Seconds())
	}()

	if ctx.Err() != nil {
		return
	}
	unit := parent.Clone()

	slot.state = PairResolving
	candidates, err := a.executor.Resolve(ctx, def, unit)
	if err != nil {
		a.fail(ctx, slot, err)
		return
	}

	slot.state = PairExecuting
	result, err := a.executor.Execute(ctx, def, unit, candidates)
	if err != nil {
		a.fail(ctx, slot, err)
		return
	}
	slot.result = result
	slot.state = PairAttached
}

func (a *Aggregator) fail(ctx context.Context, slot *pairSlot, err error) {
	slot.state = PairFailed
	slot.err = err
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		slot.cancelled = true
	}
}

func (a *Aggregator) merge(ctx context.Context, defs *Definitions, parents []*query.Unit, slots []pairSlot, outcome Outcome) Outcome {
	for h := range parents {
		outcome.States[h] = make([]PairState, defs.Len())
	}

	for _, slot := range slots {
		parent := parents[slot.hit]
		def := defs.At(slot.def)
		outcome.States[slot.hit][slot.def] = slot.state

		switch {
		case slot.state == PairAttached:
			outcome.InnerHits[slot.hit] = append(outcome.InnerHits[slot.hit], services.NamedInnerHits{
				Name:   def.Name(),
				Result: slot.result,
			})
			metrics.InnerHitPairsTotal.WithLabelValues("attached").Inc()

		case slot.state == PairFailed && !slot.cancelled:
			outcome.Failures = append(outcome.Failures, services.InnerHitFailure{
				HitID:      parent.ID,
				HitType:    parent.Type,
				Definition: def.Name(),
				Reason:     slot.err.Error(),
			})
			metrics.InnerHitPairsTotal.WithLabelValues("failed").Inc()
			a.logger.Warn("inner hit pair failed",
				zap.String("hit_id", parent.ID),
				zap.String("hit_type", parent.Type),
				zap.String("inner_hit", def.Name()),
				zap.Error(slot.err))

		default:
			reason := "cancelled before execution"
			if slot.err != nil {
				reason = slot.err.Error()
			} else if err := ctx.Err(); err != nil {
				reason = fmt.Sprintf("cancelled before execution: %v", err)
			}
			outcome.Failures = append(outcome.Failures, services.InnerHitFailure{
				HitID:      parent.ID,
				HitType:    parent.Type,
				Definition: def.Name(),
				Reason:     reason,
				Cancelled:  true,
			})
			outcome.TimedOut = true
			metrics.InnerHitPairsTotal.WithLabelValues("cancelled").Inc()
		}
	}

	if outcome.TimedOut {
		a.logger.Warn("inner hit execution interrupted",
			zap.Int("pairs", len(slots)),
			zap.Int("failures", len(outcome.Failures)),
			zap.Error(ctx.Err()))
	}
	return outcome
}
