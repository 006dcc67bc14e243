package parametric

import (
	"math"
	"testing"

	"cycleratio/internal/negcycle"
	"cycleratio/internal/numeric"
	"cycleratio/pkg/graphview"
)

// evenCycleOracle implements Oracle for a fixed-point search over a graph of
// raw scalar edge weights: w(e) = e - beta, zero_cancel(C) = mean(e in C).
// Edge payloads are the raw scalar weight directly, not a CostTimeEdge pair.
type evenCycleOracle struct{}

func (evenCycleOracle) Distance(r numeric.Float64, e numeric.Float64) numeric.Float64 {
	return e.Sub(r)
}

func (evenCycleOracle) ZeroCancel(cycle []numeric.Float64) numeric.Float64 {
	var sum numeric.Float64
	for _, v := range cycle {
		sum = sum.Add(v)
	}
	return sum / numeric.Float64(len(cycle))
}

func (evenCycleOracle) Cast(r numeric.Float64) numeric.Float64 { return r }

// minCycleOracle is evenCycleOracle's mirror image: MinParametricSolver looks
// for cycles whose zero-cancel ratio exceeds the current r and raises r to
// match, so its weight function must go negative as r falls below a cycle's
// mean rather than above it.
type minCycleOracle struct{}

func (minCycleOracle) Distance(r numeric.Float64, e numeric.Float64) numeric.Float64 {
	return r - e
}

func (minCycleOracle) ZeroCancel(cycle []numeric.Float64) numeric.Float64 {
	var sum numeric.Float64
	for _, v := range cycle {
		sum = sum.Add(v)
	}
	return sum / numeric.Float64(len(cycle))
}

func (minCycleOracle) Cast(r numeric.Float64) numeric.Float64 { return r }

func TestMinParametricSolverSelfLoopConverges(t *testing.T) {
	g := graphview.New[string, numeric.Float64]()
	g.AddEdge("u", "u", 5)

	solver := &MinParametricSolver[string, numeric.Float64, numeric.Float64, numeric.Float64]{
		Finder:        negcycle.New[string, numeric.Float64, numeric.Float64](g),
		Oracle:        minCycleOracle{},
		MaxIterations: 20,
	}
	dist := map[string]numeric.Float64{"u": 0}

	result := solver.Run(dist, 0)

	if result.HitIterationLimit {
		t.Fatal("expected convergence within the iteration cap")
	}
	if result.Ratio != 5 {
		t.Fatalf("ratio = %v, want 5", result.Ratio)
	}
	if len(result.Cycle) != 1 || result.Cycle[0] != 5 {
		t.Fatalf("cycle = %v, want [5]", result.Cycle)
	}
}

func TestMinParametricSolverPickOneOnlyTakesMoreIterations(t *testing.T) {
	build := func() (*graphview.Graph[string, numeric.Float64], map[string]numeric.Float64) {
		g := graphview.New[string, numeric.Float64]()
		g.AddEdge("x", "x", 3)
		g.AddEdge("y", "y", 5)
		return g, map[string]numeric.Float64{"x": 0, "y": 0}
	}

	g, dist := build()
	full := &MinParametricSolver[string, numeric.Float64, numeric.Float64, numeric.Float64]{
		Finder:        negcycle.New[string, numeric.Float64, numeric.Float64](g),
		Oracle:        minCycleOracle{},
		MaxIterations: 20,
	}
	fullResult := full.Run(dist, 0)

	g2, dist2 := build()
	picky := &MinParametricSolver[string, numeric.Float64, numeric.Float64, numeric.Float64]{
		Finder:        negcycle.New[string, numeric.Float64, numeric.Float64](g2),
		Oracle:        minCycleOracle{},
		MaxIterations: 20,
		PickOneOnly:   true,
	}
	pickyResult := picky.Run(dist2, 0)

	if fullResult.Ratio != 5 || pickyResult.Ratio != 5 {
		t.Fatalf("both runs should converge to ratio 5, got full=%v picky=%v", fullResult.Ratio, pickyResult.Ratio)
	}
	if pickyResult.Iterations <= fullResult.Iterations {
		t.Fatalf("expected PickOneOnly to take strictly more iterations (takes the first improving "+
			"cycle per round instead of the round's best), got full=%d picky=%d",
			fullResult.Iterations, pickyResult.Iterations)
	}
}

func TestMinParametricSolverAlternateDirectionConverges(t *testing.T) {
	g := graphview.New[string, numeric.Float64]()
	g.AddEdge("u", "u", 5)

	solver := &MinParametricSolver[string, numeric.Float64, numeric.Float64, numeric.Float64]{
		Finder:             negcycle.New[string, numeric.Float64, numeric.Float64](g),
		Oracle:             minCycleOracle{},
		MaxIterations:      20,
		AlternateDirection: true,
	}
	dist := map[string]numeric.Float64{"u": 0}

	result := solver.Run(dist, 0)

	if result.HitIterationLimit {
		t.Fatal("expected convergence within the iteration cap")
	}
	if result.Ratio != 5 {
		t.Fatalf("ratio = %v, want 5 (alternating HowardSucc/HowardPred must still find the self-loop)", result.Ratio)
	}
}

func TestMaxParametricSolverEvenCycleFixedPoint(t *testing.T) {
	// five-node timing graph, TCP=7.5, from the original even() fixed point.
	g := graphview.New[string, numeric.Float64]()
	const tcp = numeric.Float64(7.5)
	g.AddEdge("v0", "v3", tcp-6)
	g.AddEdge("v0", "v2", tcp-7)
	g.AddEdge("v1", "v2", tcp-9)
	g.AddEdge("v1", "v4", 3)
	g.AddEdge("v2", "v0", 6)
	g.AddEdge("v2", "v1", 6)
	g.AddEdge("v2", "v3", tcp-6)
	g.AddEdge("v3", "v4", tcp-8)
	g.AddEdge("v3", "v0", 6)
	g.AddEdge("v3", "v2", 6)
	g.AddEdge("v4", "v1", tcp-3)
	g.AddEdge("v4", "v3", 8)

	solver := &MaxParametricSolver[string, numeric.Float64, numeric.Float64, numeric.Float64]{
		Finder:        negcycle.New[string, numeric.Float64, numeric.Float64](g),
		Oracle:        evenCycleOracle{},
		MaxIterations: 20,
	}
	dist := map[string]numeric.Float64{"v0": 0, "v1": 0, "v2": 0, "v3": 0, "v4": 0}

	result := solver.Run(dist, 10)

	if result.HitIterationLimit {
		t.Fatal("expected convergence within the iteration cap")
	}
	if result.Iterations >= 5 {
		t.Fatalf("expected convergence in fewer than 5 iterations, took %d", result.Iterations)
	}
	if math.Abs(float64(result.Ratio)-1.0) > 1e-9 {
		t.Fatalf("expected beta to converge to 1.0, got %v", result.Ratio)
	}
}
