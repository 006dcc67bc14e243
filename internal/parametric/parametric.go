// Package parametric drives internal/negcycle's Howard search in a
// fixed-point loop over a ratio parameter, solving max-r and min-r
// parametric optimisation problems.
package parametric

import (
	"iter"

	"cycleratio/internal/negcycle"
	"cycleratio/internal/numeric"
)

// Oracle is the small capability pair a domain supplies to drive a
// parametric search: a parameter-dependent edge weight and the ratio at
// which a given cycle's total weight under that weight function vanishes.
type Oracle[E any, D numeric.Value[D], R numeric.Value[R]] interface {
	// Distance computes the parameter-dependent weight of edge e at ratio r.
	Distance(r R, e E) R
	// ZeroCancel returns the ratio at which cycle's total weight is zero.
	ZeroCancel(cycle []E) R
	// Cast converts a ratio value into the domain the finder accumulates
	// distances in, for building the weight function howard requires.
	Cast(r R) D
}

// Result is what a parametric solver run produces: the converged ratio and,
// if the seed already admitted no improving cycle, an empty Cycle.
type Result[E any, R any] struct {
	Ratio             R
	Cycle             []E
	Iterations        int
	HitIterationLimit bool
}

// MaxParametricSolver solves max r subject to dist[v]-dist[u] <= distance(r,e)
// for every edge.
type MaxParametricSolver[N comparable, E any, D numeric.Value[D], R numeric.Value[R]] struct {
	Finder        *negcycle.Finder[N, E, D]
	Oracle        Oracle[E, D, R]
	MaxIterations int // 0 means unbounded
}

// Run executes the fixed-point loop starting from r0 and the given dist seed,
// which is mutated in place by the underlying relaxations.
func (s *MaxParametricSolver[N, E, D, R]) Run(dist map[N]D, r0 R) Result[E, R] {
	r := r0
	bestRatio := r0
	var bestCycle []E

	iterations := 0
	for {
		iterations++
		if s.MaxIterations > 0 && iterations > s.MaxIterations {
			return Result[E, R]{Ratio: r, Cycle: bestCycle, Iterations: iterations - 1, HitIterationLimit: true}
		}

		w := func(e E) D { return s.Oracle.Cast(s.Oracle.Distance(r, e)) }
		for cycle := range s.Finder.Howard(dist, w) {
			rc := s.Oracle.ZeroCancel(cycle)
			if rc.Less(bestRatio) {
				bestRatio = rc
				bestCycle = cycle
			}
		}

		if !bestRatio.Less(r) {
			return Result[E, R]{Ratio: r, Cycle: bestCycle, Iterations: iterations}
		}
		r = bestRatio
	}
}

// MinParametricSolver solves min r, the symmetric counterpart of
// MaxParametricSolver: it looks for the maximum-improving cycle each round
// and may alternate predecessor/successor relaxation direction between
// iterations.
type MinParametricSolver[N comparable, E any, D numeric.Value[D], R numeric.Value[R]] struct {
	Finder        *negcycle.Finder[N, E, D]
	Oracle        Oracle[E, D, R]
	MaxIterations int
	// PickOneOnly, when set, stops scanning a round's cycles as soon as one
	// improving cycle is found instead of taking the round's best.
	PickOneOnly bool
	// AlternateDirection, when set, toggles between HowardSucc and
	// HowardPred on successive iterations; when clear, every iteration uses
	// HowardPred.
	AlternateDirection bool
}

// admitAll is the default admissibility gate: every strictly-improving
// relaxation is accepted. The directional variant exists to support
// oscillation control a more elaborate oracle might add; this solver's
// strict-improvement check in RelaxPred/RelaxSucc already prevents cycling.
func admitAll[D any](_, _ D) bool { return true }

// Run executes the fixed-point loop starting from r0.
func (s *MinParametricSolver[N, E, D, R]) Run(dist map[N]D, r0 R) Result[E, R] {
	r := r0
	var bestCycle []E
	reverse := true

	iterations := 0
	for {
		iterations++
		if s.MaxIterations > 0 && iterations > s.MaxIterations {
			return Result[E, R]{Ratio: r, Cycle: bestCycle, Iterations: iterations - 1, HitIterationLimit: true}
		}

		w := func(e E) D { return s.Oracle.Cast(s.Oracle.Distance(r, e)) }

		var cycles iter.Seq[[]E]
		if s.AlternateDirection && reverse {
			cycles = s.Finder.HowardSucc(dist, w, admitAll[D])
		} else {
			cycles = s.Finder.HowardPred(dist, w, admitAll[D])
		}
		if s.AlternateDirection {
			reverse = !reverse
		}

		found := false
		best := r
		var roundCycle []E
		for cycle := range cycles {
			rc := s.Oracle.ZeroCancel(cycle)
			if best.Less(rc) {
				best = rc
				roundCycle = cycle
				found = true
				if s.PickOneOnly {
					break
				}
			}
		}

		if !found {
			return Result[E, R]{Ratio: r, Cycle: bestCycle, Iterations: iterations}
		}
		r = best
		bestCycle = roundCycle
	}
}
