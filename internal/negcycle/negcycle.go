// Package negcycle implements Howard's policy-iteration method for finding
// negative-weight cycles in a directed graph: alternating Bellman-Ford
// relaxation with a walk of the induced predecessor ("policy") graph.
package negcycle

import (
	"iter"

	"cycleratio/internal/numeric"
	"cycleratio/pkg/graphview"
)

// step is one entry of a policy map: from the node holding this step, follow
// Via to continue the walk, and Edge is the payload of the edge connecting
// them (direction depends on which relaxation populated the map: predecessor
// relaxation stores the incoming edge, successor relaxation stores the
// outgoing one).
type step[N comparable, E any] struct {
	Via  N
	Edge E
}

// Finder finds negative cycles on a GraphView under a caller-supplied weight
// function, via Howard's method. N is node identity, E is the opaque edge
// payload, D is the additive ordered domain distances and weights live in.
//
// pred/succ are reset at the start of every top-level Howard/HowardExhaustive
// /HowardPred/HowardSucc invocation; a Finder is not safe for concurrent
// use by multiple goroutines running independent searches, since pred/succ
// are private per-invocation state owned by the Finder instance.
type Finder[N comparable, E any, D numeric.Value[D]] struct {
	view graphview.View[N, E]
	pred map[N]step[N, E]
	succ map[N]step[N, E]
}

// New builds a Finder over the given read-only graph view.
func New[N comparable, E any, D numeric.Value[D]](view graphview.View[N, E]) *Finder[N, E, D] {
	return &Finder[N, E, D]{view: view}
}

// Relax performs one Bellman-Ford sweep over every edge exactly once,
// tightening dist and pred. Returns whether any update occurred. A tie
// (dist[u]+w(e) == dist[v]) does not trigger an update: pred is not
// rewritten for ties.
func (f *Finder[N, E, D]) Relax(dist map[N]D, w func(E) D) bool {
	changed := false
	for _, u := range f.view.Nodes() {
		du := dist[u]
		for _, nb := range f.view.Neighbors(u) {
			candidate := du.Add(w(nb.Edge))
			if candidate.Less(dist[nb.To]) {
				dist[nb.To] = candidate
				f.pred[nb.To] = step[N, E]{Via: u, Edge: nb.Edge}
				changed = true
			}
		}
	}
	return changed
}

// Howard is the one-shot negative-cycle search: it relaxes until a round
// produces at least one policy-graph cycle, yields every cycle discovered in
// that round, and then stops the entire invocation without relaxing again:
// this is the canonical variant, since once a negative cycle exists further
// relaxation diverges. dist is mutably shared with the caller and
// holds the final distance labelling once the returned sequence is fully
// consumed or abandoned.
func (f *Finder[N, E, D]) Howard(dist map[N]D, w func(E) D) iter.Seq[[]E] {
	return func(yield func([]E) bool) {
		f.pred = make(map[N]step[N, E])
		for f.Relax(dist, w) {
			foundAny := false
			for handle := range findCycle(f.view.Nodes(), f.pred) {
				foundAny = true
				if !yield(cycleList(handle, f.pred)) {
					return
				}
			}
			if foundAny {
				return
			}
		}
	}
}

// HowardExhaustive is an alternative control flow: it yields every cycle
// discovered in every relaxation round
// and keeps relaxing until a fixed point (no round produces an update). This
// is only appropriate when the caller repairs pred between cycles it
// consumes; the parametric solvers in this module use the one-shot searches
// (Howard, HowardPred, HowardSucc), not this.
func (f *Finder[N, E, D]) HowardExhaustive(dist map[N]D, w func(E) D) iter.Seq[[]E] {
	return func(yield func([]E) bool) {
		f.pred = make(map[N]step[N, E])
		for f.Relax(dist, w) {
			for handle := range findCycle(f.view.Nodes(), f.pred) {
				if !yield(cycleList(handle, f.pred)) {
					return
				}
			}
		}
	}
}

// AdmissiblePredicate gates a relaxation update in the directional variant:
// an update dist[v] := new is applied only when new is strictly improving
// AND this predicate holds.
type AdmissiblePredicate[D any] func(old, new D) bool

// RelaxPred is Relax gated by an admissibility predicate, writing into the
// same predecessor map Relax/Howard use.
func (f *Finder[N, E, D]) RelaxPred(dist map[N]D, w func(E) D, ok AdmissiblePredicate[D]) bool {
	changed := false
	for _, u := range f.view.Nodes() {
		du := dist[u]
		for _, nb := range f.view.Neighbors(u) {
			candidate := du.Add(w(nb.Edge))
			if candidate.Less(dist[nb.To]) && ok(dist[nb.To], candidate) {
				dist[nb.To] = candidate
				f.pred[nb.To] = step[N, E]{Via: u, Edge: nb.Edge}
				changed = true
			}
		}
	}
	return changed
}

// RelaxSucc relaxes in the reverse direction: for edge (u, v, e), it proposes
// dist[u] := dist[v] - w(e) and applies it when strictly increasing and
// admissible.
func (f *Finder[N, E, D]) RelaxSucc(dist map[N]D, w func(E) D, ok AdmissiblePredicate[D]) bool {
	changed := false
	for _, u := range f.view.Nodes() {
		for _, nb := range f.view.Neighbors(u) {
			candidate := dist[nb.To].Sub(w(nb.Edge))
			if dist[u].Less(candidate) && ok(dist[u], candidate) {
				dist[u] = candidate
				f.succ[u] = step[N, E]{Via: nb.To, Edge: nb.Edge}
				changed = true
			}
		}
	}
	return changed
}

// HowardPred is the one-shot search driven by RelaxPred.
func (f *Finder[N, E, D]) HowardPred(dist map[N]D, w func(E) D, ok AdmissiblePredicate[D]) iter.Seq[[]E] {
	return func(yield func([]E) bool) {
		f.pred = make(map[N]step[N, E])
		for f.RelaxPred(dist, w, ok) {
			foundAny := false
			for handle := range findCycle(f.view.Nodes(), f.pred) {
				foundAny = true
				if !yield(cycleList(handle, f.pred)) {
					return
				}
			}
			if foundAny {
				return
			}
		}
	}
}

// HowardSucc is the one-shot search driven by RelaxSucc.
func (f *Finder[N, E, D]) HowardSucc(dist map[N]D, w func(E) D, ok AdmissiblePredicate[D]) iter.Seq[[]E] {
	return func(yield func([]E) bool) {
		f.succ = make(map[N]step[N, E])
		for f.RelaxSucc(dist, w, ok) {
			foundAny := false
			for handle := range findCycle(f.view.Nodes(), f.succ) {
				foundAny = true
				if !yield(cycleList(handle, f.succ)) {
					return
				}
			}
			if foundAny {
				return
			}
		}
	}
}

// IsNegativePred verifies that the cycle reachable from handle via the
// predecessor map produced by Howard/HowardPred is genuinely negative: some
// edge on it violates the relaxed invariant dist[v] <= dist[u] + w(e).
func (f *Finder[N, E, D]) IsNegativePred(handle N, dist map[N]D, w func(E) D) bool {
	return isNegative(handle, f.pred, dist, w, true)
}

// IsNegativeSucc is the HowardSucc analogue of IsNegativePred.
func (f *Finder[N, E, D]) IsNegativeSucc(handle N, dist map[N]D, w func(E) D) bool {
	return isNegative(handle, f.succ, dist, w, false)
}

// findCycle walks the functional graph induced by pointMap starting from
// every node not yet visited, tagging each visited node with its walk's start
// node. It yields the node at which a walk first revisits a node tagged by
// itself (a cycle in the policy graph); walks that run off the map (a source)
// or rejoin an earlier walk's territory yield nothing. Every node of the
// graph is a candidate start, not just ones reachable from some distinguished
// root, so disconnected negative components are all found.
func findCycle[N comparable, E any](nodes []N, pointMap map[N]step[N, E]) iter.Seq[N] {
	return func(yield func(N) bool) {
		visited := make(map[N]N, len(nodes))
		for _, v := range nodes {
			if _, seen := visited[v]; seen {
				continue
			}
			u := v
			for {
				visited[u] = v
				next, ok := pointMap[u]
				if !ok {
					break
				}
				u = next.Via
				if tag, seen := visited[u]; seen {
					if tag == v {
						if !yield(u) {
							return
						}
					}
					break
				}
			}
		}
	}
}

// cycleList reconstructs the cycle starting at handle by following pointMap
// until it returns to handle, collecting the edge payload of each step. The
// resulting order is an artifact of which direction pointMap was populated
// in; callers should treat it as a multiset for summation purposes.
func cycleList[N comparable, E any](handle N, pointMap map[N]step[N, E]) []E {
	cycle := make([]E, 0, 4)
	v := handle
	for {
		next := pointMap[v]
		cycle = append(cycle, next.Edge)
		v = next.Via
		if v == handle {
			break
		}
	}
	return cycle
}

// isNegative walks the cycle reachable from handle checking the relaxed
// invariant at each edge. forward selects the direction the invariant is
// stated in: true for predecessor-populated maps (edge runs Via->node, so
// the check is dist[Via]+w(e) < dist[node]); false for successor-populated
// maps (edge runs node->Via, so the check is dist[node] < dist[Via]-w(e)).
func isNegative[N comparable, E any, D numeric.Value[D]](handle N, pointMap map[N]step[N, E], dist map[N]D, w func(E) D, forward bool) bool {
	v := handle
	for {
		next := pointMap[v]
		if forward {
			if dist[next.Via].Add(w(next.Edge)).Less(dist[v]) {
				return true
			}
		} else {
			if dist[v].Less(dist[next.Via].Sub(w(next.Edge))) {
				return true
			}
		}
		v = next.Via
		if v == handle {
			break
		}
	}
	return false
}
