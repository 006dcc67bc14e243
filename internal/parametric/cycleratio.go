package parametric

import (
	"cycleratio/internal/negcycle"
	"cycleratio/internal/numeric"
	"cycleratio/pkg/graphview"
)

// CostTimeEdge is the edge payload the cycle-ratio specialisation operates
// on: every edge carries a cost and a time, both in the same Domain.
type CostTimeEdge[D numeric.Value[D]] struct {
	Cost D
	Time D
}

// CycleRatioOracle implements Oracle for CostTimeEdge:
//
//	distance(r, e) = cost(e) - r*time(e)
//	zero_cancel(C)  = sum(cost) / sum(time)
//
// D and R are kept distinct so that, e.g., D can be integer while R is
// rational, so crossing between them needs explicit conversion and scaling
// functions rather than a shared arithmetic; callers
// typically get these for free when D and R are the same numeric.Rat type
// (see NewRationalCycleRatioOracle).
type CycleRatioOracle[D numeric.Value[D], R numeric.Value[R]] struct {
	// CastDtoR embeds a Domain value into the Ratio type (cost(e) -> R).
	CastDtoR func(D) R
	// ScaleRbyD computes r*d as an R value.
	ScaleRbyD func(r R, d D) R
	// CastRtoD converts a Ratio value back into Domain, for building the
	// weight function a howard invocation requires.
	CastRtoD func(R) D
	// DivideD computes num/den as an R value (exact or approximate,
	// depending on D/R; integer D needs this to land in R rather than
	// truncating).
	DivideD func(num, den D) R
}

// Distance implements Oracle.
func (o CycleRatioOracle[D, R]) Distance(r R, e CostTimeEdge[D]) R {
	return o.CastDtoR(e.Cost).Sub(o.ScaleRbyD(r, e.Time))
}

// ZeroCancel implements Oracle: sum(cost)/sum(time) over the cycle's edges.
// Precondition: sum(time) != 0 for any cycle the finder can yield; callers
// must ensure this holds for their edge weights, since the
// finder and this oracle have no way to reject a malformed graph.
func (o CycleRatioOracle[D, R]) ZeroCancel(cycle []CostTimeEdge[D]) R {
	var zero D
	if len(cycle) > 0 {
		zero = cycle[0].Cost.Zero()
	}
	sumCost, sumTime := zero, zero
	for _, e := range cycle {
		sumCost = sumCost.Add(e.Cost)
		sumTime = sumTime.Add(e.Time)
	}
	return o.DivideD(sumCost, sumTime)
}

// Cast implements Oracle.
func (o CycleRatioOracle[D, R]) Cast(r R) D {
	return o.CastRtoD(r)
}

// NewRationalCycleRatioOracle builds a CycleRatioOracle for the common exact
// case D = R = numeric.Rat, appropriate for integer or rational cost and
// time, where casting is the identity and scaling/division are plain Rat
// arithmetic.
func NewRationalCycleRatioOracle() CycleRatioOracle[numeric.Rat, numeric.Rat] {
	return CycleRatioOracle[numeric.Rat, numeric.Rat]{
		CastDtoR:  func(d numeric.Rat) numeric.Rat { return d },
		CastRtoD:  func(r numeric.Rat) numeric.Rat { return r },
		ScaleRbyD: func(r, d numeric.Rat) numeric.Rat { return r.Mul(d) },
		DivideD:   func(num, den numeric.Rat) numeric.Rat { return num.Quo(den) },
	}
}

// NewFloatCycleRatioOracle builds a CycleRatioOracle for D = R =
// numeric.Float64, the floating-point instantiation used for approximate
// cycle-ratio scenarios.
func NewFloatCycleRatioOracle() CycleRatioOracle[numeric.Float64, numeric.Float64] {
	return CycleRatioOracle[numeric.Float64, numeric.Float64]{
		CastDtoR:  func(d numeric.Float64) numeric.Float64 { return d },
		CastRtoD:  func(r numeric.Float64) numeric.Float64 { return r },
		ScaleRbyD: func(r, d numeric.Float64) numeric.Float64 { return r * d },
		DivideD:   func(num, den numeric.Float64) numeric.Float64 { return num / den },
	}
}

// MinCycleRatioSolver finds the cycle minimising cost/time over a graph
// whose edges are CostTimeEdge[D]. The minimum cycle ratio problem is
// itself posed as
//
//	max r  s.t.  dist[v] - dist[u] <= cost(u,v) - r*time(u,v)  for all edges
//
// i.e. it is solved by MaxParametricSolver, not MinParametricSolver — "min
// cycle ratio" names the problem, not the solver direction. This composes a
// Finder and a MaxParametricSolver driven by a CycleRatioOracle.
type MinCycleRatioSolver[N comparable, D numeric.Value[D], R numeric.Value[R]] struct {
	solver *MaxParametricSolver[N, CostTimeEdge[D], D, R]
}

// NewMinCycleRatioSolver builds a solver over the given graph view.
func NewMinCycleRatioSolver[N comparable, D numeric.Value[D], R numeric.Value[R]](
	view graphview.View[N, CostTimeEdge[D]],
	oracle CycleRatioOracle[D, R],
	maxIterations int,
) *MinCycleRatioSolver[N, D, R] {
	return &MinCycleRatioSolver[N, D, R]{
		solver: &MaxParametricSolver[N, CostTimeEdge[D], D, R]{
			Finder:        negcycle.New[N, CostTimeEdge[D], D](view),
			Oracle:        oracle,
			MaxIterations: maxIterations,
		},
	}
}

// Run executes the search starting from the given dist seed and initial
// ratio r0, returning the minimum cycle ratio found and its witness cycle.
func (s *MinCycleRatioSolver[N, D, R]) Run(dist map[N]D, r0 R) Result[CostTimeEdge[D], R] {
	return s.solver.Run(dist, r0)
}
