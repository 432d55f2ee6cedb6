package ga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"nanoalloy/internal/energy"
	"nanoalloy/internal/topology"
)

// latticeEvaluator builds a 27-atom simple cubic AgCu evaluator for the
// end-to-end population tests.
func latticeEvaluator(t *testing.T) *energy.Evaluator {
	t.Helper()
	_, topo, err := topology.BuildSkeleton("simple-cubic", 2, 3.0)
	require.NoError(t, err)
	coeffs, err := energy.Coefficients("Ag", "Cu")
	require.NoError(t, err)
	ev, err := energy.NewEvaluator(topo, coeffs)
	require.NoError(t, err)
	return ev
}

func testConfig(nDope int) Config {
	return Config{
		PopSize:  20,
		KillRate: 0.2,
		MateRate: 0.8,
		MuteRate: 0.2,
		MuteNum:  1,
		NDope:    nDope,
		Seed:     42,
	}
}

func TestNewPopulationValidation(t *testing.T) {
	ev := latticeEvaluator(t)

	cfg := testConfig(5)
	cfg.PopSize = 0
	_, err := NewPopulation(ev, cfg)
	require.Error(t, err)

	cfg = testConfig(5)
	cfg.KillRate = 1.5
	_, err = NewPopulation(ev, cfg)
	require.Error(t, err)

	cfg = testConfig(40)
	_, err = NewPopulation(ev, cfg)
	require.ErrorIs(t, err, ErrInvalidDopeCount)

	_, err = NewPopulation(nil, testConfig(5))
	require.Error(t, err)
}

func TestNewPopulationSeedsAndSorts(t *testing.T) {
	ev := latticeEvaluator(t)

	p, err := NewPopulation(ev, testConfig(10))
	require.NoError(t, err)
	require.Equal(t, 10, p.DopantCount())
	require.Equal(t, 0, p.Generations())

	stats := p.Stats()
	require.Len(t, stats, 1)
	require.LessOrEqual(t, stats[0].Min, stats[0].Mean)
	require.Equal(t, stats[0].Min, p.Best().CE())
}

func TestXDopeOverridesNDope(t *testing.T) {
	ev := latticeEvaluator(t)

	cfg := testConfig(3)
	cfg.XDope = 0.5
	p, err := NewPopulation(ev, cfg)
	require.NoError(t, err)
	require.Equal(t, 13, p.DopantCount())
}

func TestRunConvergesWithoutWorsening(t *testing.T) {
	ev := latticeEvaluator(t)

	p, err := NewPopulation(ev, testConfig(10))
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), 30, 0))
	require.True(t, p.HasRun())
	require.Positive(t, p.Generations())

	stats := p.Stats()
	for i := 1; i < len(stats); i++ {
		require.LessOrEqual(t, stats[i].Min, stats[i-1].Min, "elite member must never worsen")
	}
	require.Equal(t, p.MinCE(), stats[len(stats)-1].Min)
	require.Equal(t, 10, p.Best().DopantCount())
}

func TestRunTwiceFails(t *testing.T) {
	ev := latticeEvaluator(t)

	p, err := NewPopulation(ev, testConfig(10))
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), 2, 0))
	require.Error(t, p.Run(context.Background(), 2, 0))
}

func TestContinueRunAccumulatesStats(t *testing.T) {
	ev := latticeEvaluator(t)

	p, err := NewPopulation(ev, testConfig(10))
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), 5, 0))
	before := p.Generations()

	require.NoError(t, p.ContinueRun(context.Background(), 5, 0))
	require.Greater(t, p.Generations(), before)
	require.Equal(t, 1, p.Continued())
}

func TestRunMonometallicSkipsLoop(t *testing.T) {
	ev := latticeEvaluator(t)

	p, err := NewPopulation(ev, testConfig(0))
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), 100, 0))
	require.True(t, p.HasRun())
	require.Equal(t, 0, p.Generations())
	require.Equal(t, ev.PureCE(0), p.MinCE())
}

func TestRunStdCutStopsEarly(t *testing.T) {
	ev := latticeEvaluator(t)

	p, err := NewPopulation(ev, testConfig(10))
	require.NoError(t, err)
	// A huge threshold converges after the first generation.
	require.NoError(t, p.Run(context.Background(), 100, 1e6))
	require.Equal(t, 1, p.Generations())
}

func TestRunHonorsContext(t *testing.T) {
	ev := latticeEvaluator(t)

	p, err := NewPopulation(ev, testConfig(10))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Run(ctx, 10, 0), context.Canceled)
}

func TestDetachAttachRoundTrip(t *testing.T) {
	ev := latticeEvaluator(t)

	p, err := NewPopulation(ev, testConfig(10))
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), 3, 0))

	p.Detach()
	require.ErrorIs(t, p.ContinueRun(context.Background(), 3, 0), ErrMutationNotPermitted)

	p.Attach(ev)
	require.NoError(t, p.ContinueRun(context.Background(), 3, 0))
}

func TestIsNewMinAgainstRecalledResult(t *testing.T) {
	ev := latticeEvaluator(t)

	cfg := testConfig(10)
	p, err := NewPopulation(ev, cfg)
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), 10, 0))
	require.True(t, p.IsNewMin(), "no prior result means any minimum is new")
	found := p.MinCE()

	// Recalling that exact result means the rerun cannot beat it.
	cfg = testConfig(10)
	cfg.PrevBest = &RecalledResult{Ordering: p.Best().Ordering(), CE: found - 1.0}
	p2, err := NewPopulation(ev, cfg)
	require.NoError(t, err)
	require.NoError(t, p2.Run(context.Background(), 5, 0))
	require.False(t, p2.IsNewMin())
}

func TestFormula(t *testing.T) {
	ev := latticeEvaluator(t)

	p, err := NewPopulation(ev, testConfig(10))
	require.NoError(t, err)
	require.Equal(t, "Ag17Cu10", p.Formula())
}
