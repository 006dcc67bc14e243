package scanner

import (
	"context"
	"testing"
	"time"

	"cycleratio/internal/numeric"
	"cycleratio/internal/parametric"
	"cycleratio/pkg/graphview"
)

func ct(cost, time float64) parametric.CostTimeEdge[numeric.Float64] {
	return parametric.CostTimeEdge[numeric.Float64]{Cost: numeric.Float64(cost), Time: numeric.Float64(time)}
}

func TestScannerFindsCycleAndDeduplicates(t *testing.T) {
	g := graphview.New[string, parametric.CostTimeEdge[numeric.Float64]]()
	g.AddEdge("a", "b", ct(1, 1))
	g.AddEdge("b", "a", ct(5, 1))

	s := New(Config{
		ScanInterval:  time.Hour,
		MaxIterations: 1000,
		InitialRatio:  10000,
		NumWorkers:    1,
		Sources:       []string{"a"},
	}, g, nil)

	s.scanAll(context.Background())
	s.scanAll(context.Background())

	select {
	case f := <-s.Findings():
		if len(f.Cycle) == 0 {
			t.Fatal("expected a non-empty cycle")
		}
		if f.Source != "a" {
			t.Errorf("source = %s, want a", f.Source)
		}
	default:
		t.Fatal("expected a finding on first scan")
	}

	select {
	case f := <-s.Findings():
		t.Fatalf("expected second scan to be deduplicated, got %+v", f)
	default:
	}
}

func TestScannerNoSourcesScansAllNodes(t *testing.T) {
	g := graphview.New[string, parametric.CostTimeEdge[numeric.Float64]]()
	g.AddEdge("x", "x", ct(2, 1))

	s := New(Config{
		ScanInterval:  time.Hour,
		MaxIterations: 1000,
		InitialRatio:  10000,
		NumWorkers:    2,
	}, g, nil)

	s.scanAll(context.Background())

	select {
	case f := <-s.Findings():
		if f.Source != "x" {
			t.Errorf("source = %s, want x", f.Source)
		}
	default:
		t.Fatal("expected a finding when sources defaults to all graph nodes")
	}
}

func TestCycleKeyRotationInvariant(t *testing.T) {
	cycle := []parametric.CostTimeEdge[numeric.Rat]{
		{Cost: numeric.NewRat(3, 1), Time: numeric.NewRat(1, 1)},
		{Cost: numeric.NewRat(1, 1), Time: numeric.NewRat(1, 1)},
		{Cost: numeric.NewRat(2, 1), Time: numeric.NewRat(1, 1)},
	}
	rotated := []parametric.CostTimeEdge[numeric.Rat]{cycle[1], cycle[2], cycle[0]}

	if cycleKey(cycle) != cycleKey(rotated) {
		t.Errorf("cycleKey not rotation-invariant: %s != %s", cycleKey(cycle), cycleKey(rotated))
	}
}

func TestCycleKeyEmpty(t *testing.T) {
	if cycleKey(nil) != "" {
		t.Error("expected empty key for empty cycle")
	}
}
