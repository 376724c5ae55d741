package innerhits

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-inner-hits/internal/metrics"
	"github.com/gcbaptista/go-inner-hits/internal/query"
	"github.com/gcbaptista/go-inner-hits/model"
	"github.com/gcbaptista/go-inner-hits/services"
)

// fakeExecutor answers every pair with a single hit naming the definition and parent.
// Behaviour per (parent ID, definition name) can be overridden.
type fakeExecutor struct {
	mu       sync.Mutex
	calls    int32
	failures map[string]error
	panics   map[string]bool
	onExec   func(key string)
	seen     map[*query.Unit]bool
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		failures: make(map[string]error),
		panics:   make(map[string]bool),
		seen:     make(map[*query.Unit]bool),
	}
}

func pairKey(parent *query.Unit, def *Definition) string {
	return parent.ID + ":" + def.Name()
}

func (f *fakeExecutor) Resolve(ctx context.Context, def *Definition, parent *query.Unit) ([]*query.Unit, error) {
	f.mu.Lock()
	f.seen[parent] = true
	f.mu.Unlock()
	return []*query.Unit{parent}, nil
}

func (f *fakeExecutor) Execute(ctx context.Context, def *Definition, parent *query.Unit, candidates []*query.Unit) (services.InnerHitResult, error) {
	atomic.AddInt32(&f.calls, 1)
	key := pairKey(parent, def)
	if f.onExec != nil {
		f.onExec(key)
	}
	if err := ctx.Err(); err != nil {
		return services.InnerHitResult{}, err
	}
	if f.panics[key] {
		panic("boom")
	}
	if err := f.failures[key]; err != nil {
		return services.InnerHitResult{}, err
	}
	return services.InnerHitResult{
		Total:    1,
		MaxScore: 1,
		Hits:     []services.InnerHit{{ID: key, Score: 1}},
	}, nil
}

func testParents(n int) []*query.Unit {
	settings := testSettings()
	parents := make([]*query.Unit, n)
	for i := range parents {
		parents[i] = query.NewDocumentUnit(settings, uint32(i), model.Document{
			"documentID":   fmt.Sprint(i + 1),
			"documentType": "article",
		})
	}
	return parents
}

func testDefinitions(t *testing.T, names ...string) *Definitions {
	t.Helper()
	items := make([]*Definition, len(names))
	for i, name := range names {
		def, err := NewNestedDefinition(name, "comments", nil, Options{Size: 3})
		require.NoError(t, err)
		items[i] = def
	}
	return NewDefinitions(items...)
}

func TestAggregator_DeclarationOrder(t *testing.T) {
	executor := newFakeExecutor()
	aggregator := NewAggregator(executor, 4, nil)
	defs := testDefinitions(t, "zeta", "alpha", "mid")
	parents := testParents(5)

	outcome := aggregator.Attach(context.Background(), defs, parents)
	assert.False(t, outcome.TimedOut)
	assert.Empty(t, outcome.Failures)
	assert.Equal(t, int32(15), executor.calls)

	for i, parent := range parents {
		hits := outcome.For(i)
		require.Equal(t, []string{"zeta", "alpha", "mid"}, hits.Names())
		for _, named := range hits {
			assert.Equal(t, parent.ID+":"+named.Name, named.Result.Hits[0].ID)
		}
		assert.Equal(t, []PairState{PairAttached, PairAttached, PairAttached}, outcome.States[i])
	}
}

func TestAggregator_WorkersGetClonedParents(t *testing.T) {
	executor := newFakeExecutor()
	parents := testParents(2)
	NewAggregator(executor, 2, nil).Attach(context.Background(), testDefinitions(t, "a", "b"), parents)

	for _, parent := range parents {
		assert.False(t, executor.seen[parent], "parent unit must not be shared with workers")
	}
	assert.Len(t, executor.seen, 4)
}

func TestAggregator_FailureIsolation(t *testing.T) {
	executor := newFakeExecutor()
	executor.failures["2:b"] = fmt.Errorf("index corrupted")
	executor.panics["3:a"] = true
	attachedBefore := testutil.ToFloat64(metrics.InnerHitPairsTotal.WithLabelValues("attached"))
	failedBefore := testutil.ToFloat64(metrics.InnerHitPairsTotal.WithLabelValues("failed"))

	outcome := NewAggregator(executor, 3, nil).Attach(context.Background(), testDefinitions(t, "a", "b"), testParents(3))

	assert.False(t, outcome.TimedOut)
	require.Len(t, outcome.Failures, 2)
	assert.Equal(t, services.InnerHitFailure{HitID: "2", HitType: "article", Definition: "b", Reason: "index corrupted"}, outcome.Failures[0])
	assert.Equal(t, "3", outcome.Failures[1].HitID)
	assert.Equal(t, "a", outcome.Failures[1].Definition)
	assert.Contains(t, outcome.Failures[1].Reason, "panic")
	assert.False(t, outcome.Failures[1].Cancelled)

	assert.Equal(t, []string{"a", "b"}, outcome.For(0).Names())
	assert.Equal(t, []string{"a"}, outcome.For(1).Names())
	assert.Equal(t, []string{"b"}, outcome.For(2).Names())
	assert.Equal(t, []PairState{PairAttached, PairFailed}, outcome.States[1])
	assert.Equal(t, []PairState{PairFailed, PairAttached}, outcome.States[2])

	assert.Equal(t, attachedBefore+4, testutil.ToFloat64(metrics.InnerHitPairsTotal.WithLabelValues("attached")))
	assert.Equal(t, failedBefore+2, testutil.ToFloat64(metrics.InnerHitPairsTotal.WithLabelValues("failed")))
}

func TestAggregator_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	executor := newFakeExecutor()
	executor.onExec = func(key string) {
		if key == "1:a" {
			cancel()
		}
	}

	// One worker runs pairs in hit-major order, so 1:a is the first pair
	outcome := NewAggregator(executor, 1, nil).Attach(ctx, testDefinitions(t, "a", "b"), testParents(3))

	assert.True(t, outcome.TimedOut)
	require.Len(t, outcome.Failures, 6)
	for _, failure := range outcome.Failures {
		assert.True(t, failure.Cancelled)
		assert.Contains(t, failure.Reason, "cancel")
	}
	for i := range outcome.InnerHits {
		assert.Nil(t, outcome.For(i))
	}
}

func TestAggregator_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := newFakeExecutor()
	outcome := NewAggregator(executor, 2, nil).Attach(ctx, testDefinitions(t, "a"), testParents(2))

	assert.True(t, outcome.TimedOut)
	assert.Zero(t, executor.calls)
	require.Len(t, outcome.Failures, 2)
	assert.Equal(t, "cancelled before execution: context canceled", outcome.Failures[0].Reason)
	assert.Equal(t, []PairState{PairPending}, outcome.States[0])
}

func TestAggregator_Empty(t *testing.T) {
	executor := newFakeExecutor()
	aggregator := NewAggregator(executor, 0, nil)

	outcome := aggregator.Attach(context.Background(), nil, testParents(2))
	assert.Nil(t, outcome.For(0))
	assert.Nil(t, outcome.For(5))
	assert.Empty(t, outcome.Failures)

	outcome = aggregator.Attach(context.Background(), testDefinitions(t, "a"), nil)
	assert.Empty(t, outcome.InnerHits)
	assert.Zero(t, executor.calls)
}

func TestPairState_String(t *testing.T) {
	assert.Equal(t, "pending", PairPending.String())
	assert.Equal(t, "attached", PairAttached.String())
	assert.Equal(t, "failed", PairFailed.String())
	assert.Equal(t, "PairState(9)", PairState(9).String())
}
