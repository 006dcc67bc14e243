package scanner

import (
	"fmt"
	"strings"
	"time"

	"cycleratio/internal/numeric"
	"cycleratio/internal/parametric"
)

// Finding is a critical cycle reported for one watched source node: the
// minimum cost/time ratio the solver found over the whole graph, and a
// witness cycle achieving it. The solve does not depend on Source; Source
// labels the finding and scopes its deduplication.
type Finding struct {
	Source       string
	Ratio        numeric.Rat
	Cycle        []parametric.CostTimeEdge[numeric.Rat]
	CycleKey     string
	DiscoveredAt time.Time
}

// cycleKey returns a rotation-normalised identity for a cycle, used to
// deduplicate findings regardless of which edge the underlying cycle
// detector happened to start from. It rotates over the edge payloads
// themselves rather than node labels, since the detector only ever hands
// back edge payloads, not the node sequence that produced them.
func cycleKey(cycle []parametric.CostTimeEdge[numeric.Rat]) string {
	if len(cycle) == 0 {
		return ""
	}

	minIdx := 0
	for i := 1; i < len(cycle); i++ {
		if less(cycle[i], cycle[minIdx]) {
			minIdx = i
		}
	}

	parts := make([]string, len(cycle))
	for i := range cycle {
		e := cycle[(minIdx+i)%len(cycle)]
		parts[i] = fmt.Sprintf("%s/%s", e.Cost, e.Time)
	}

	return strings.Join(parts, "->")
}

func less(a, b parametric.CostTimeEdge[numeric.Rat]) bool {
	if !a.Cost.Equal(b.Cost) {
		return a.Cost.Less(b.Cost)
	}
	return a.Time.Less(b.Time)
}
