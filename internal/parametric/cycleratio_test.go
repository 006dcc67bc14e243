package parametric

import (
	"testing"

	"cycleratio/internal/numeric"
	"cycleratio/pkg/graphview"
)

func rat(n, d int64) numeric.Rat { return numeric.NewRat(n, d) }

func ct(cost, time int64) CostTimeEdge[numeric.Rat] {
	return CostTimeEdge[numeric.Rat]{Cost: rat(cost, 1), Time: rat(time, 1)}
}

// TestMinCycleRatioFiveNodeCycle covers a 5-node directed cycle
// 0->1->2->3->4->0 (uniform cost=1,time=1 except cost(1,2)=5) plus a
// sink-feeder from a sixth node into every other node.
func TestMinCycleRatioFiveNodeCycle(t *testing.T) {
	g := graphview.New[int, CostTimeEdge[numeric.Rat]]()
	g.AddEdge(0, 1, ct(1, 1))
	g.AddEdge(1, 2, ct(5, 1))
	g.AddEdge(2, 3, ct(1, 1))
	g.AddEdge(3, 4, ct(1, 1))
	g.AddEdge(4, 0, ct(1, 1))
	for n := 0; n < 5; n++ {
		g.AddEdge(5, n, ct(1, 1))
	}

	solver := NewMinCycleRatioSolver[int](g, NewRationalCycleRatioOracle(), 10000)
	dist := map[int]numeric.Rat{0: rat(0, 1), 1: rat(0, 1), 2: rat(0, 1), 3: rat(0, 1), 4: rat(0, 1), 5: rat(0, 1)}

	result := solver.Run(dist, rat(10000, 1))

	if len(result.Cycle) == 0 {
		t.Fatal("expected a witness cycle")
	}
	want := rat(9, 5)
	if !result.Ratio.Equal(want) {
		t.Fatalf("ratio = %s, want %s", result.Ratio, want)
	}
}

// TestMinCycleRatioTimingGraph covers a six-edge timing graph with a mix of
// positive and negative costs.
func TestMinCycleRatioTimingGraph(t *testing.T) {
	g := graphview.New[string, CostTimeEdge[numeric.Rat]]()
	g.AddEdge("a1", "a2", ct(7, 1))
	g.AddEdge("a2", "a1", ct(-1, 1))
	g.AddEdge("a2", "a3", ct(3, 1))
	g.AddEdge("a3", "a2", ct(0, 1))
	g.AddEdge("a3", "a1", ct(2, 1))
	g.AddEdge("a1", "a3", ct(4, 1))

	solver := NewMinCycleRatioSolver[string](g, NewRationalCycleRatioOracle(), 10000)
	dist := map[string]numeric.Rat{"a1": rat(0, 1), "a2": rat(0, 1), "a3": rat(0, 1)}

	result := solver.Run(dist, rat(10000, 1))

	if len(result.Cycle) == 0 {
		t.Fatal("expected a witness cycle")
	}
	if !result.Ratio.Equal(rat(1, 1)) {
		t.Fatalf("ratio = %s, want 1", result.Ratio)
	}
}

// TestMinCycleRatioSelfLoop covers the self-loop invariant: for any
// self-loop with cost/time < r0, the solver returns that exact ratio and a
// one-edge cycle.
func TestMinCycleRatioSelfLoop(t *testing.T) {
	g := graphview.New[int, CostTimeEdge[numeric.Rat]]()
	g.AddEdge(0, 0, ct(2, 1))

	solver := NewMinCycleRatioSolver[int](g, NewRationalCycleRatioOracle(), 10000)
	dist := map[int]numeric.Rat{0: rat(0, 1)}

	result := solver.Run(dist, rat(10000, 1))

	if len(result.Cycle) != 1 {
		t.Fatalf("expected a one-edge cycle, got %v", result.Cycle)
	}
	if !result.Ratio.Equal(rat(2, 1)) {
		t.Fatalf("ratio = %s, want 2", result.Ratio)
	}
}

// TestMinCycleRatioNoCycle covers the no-negative-cycle boundary behaviour:
// a linear chain has no cycle at all, so the solver must return the seed
// ratio untouched and an empty cycle.
func TestMinCycleRatioNoCycle(t *testing.T) {
	g := graphview.New[int, CostTimeEdge[numeric.Rat]]()
	g.AddEdge(0, 1, ct(1, 1))
	g.AddEdge(1, 2, ct(1, 1))

	solver := NewMinCycleRatioSolver[int](g, NewRationalCycleRatioOracle(), 10000)
	dist := map[int]numeric.Rat{0: rat(0, 1), 1: rat(0, 1), 2: rat(0, 1)}

	r0 := rat(10000, 1)
	result := solver.Run(dist, r0)

	if len(result.Cycle) != 0 {
		t.Fatalf("expected no cycle, got %v", result.Cycle)
	}
	if !result.Ratio.Equal(r0) {
		t.Fatalf("ratio = %s, want seed %s", result.Ratio, r0)
	}
}
