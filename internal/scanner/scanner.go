package scanner

import (
	"context"
	"sync"
	"time"

	"cycleratio/internal/metrics"
	"cycleratio/internal/numeric"
	"cycleratio/internal/parametric"
	"cycleratio/pkg/graphview"

	"github.com/rs/zerolog/log"
)

// Config holds scanner configuration.
type Config struct {
	ScanInterval  time.Duration
	MaxIterations int
	InitialRatio  int64
	NumWorkers    int
	Sources       []string
}

// Scanner periodically (and on every graph mutation) runs a minimum-cycle-
// ratio scan once per watched source node, distributing source nodes over a
// worker pool and re-evaluating on a ticker or on an external trigger signal.
type Scanner struct {
	cfg     Config
	graph   *graphview.Graph[string, parametric.CostTimeEdge[numeric.Float64]]
	metrics *metrics.Metrics

	seenMu sync.Mutex
	seen   map[string]map[string]struct{} // source -> cycleKey -> {}

	findingsCh chan Finding
}

// New creates a Scanner over the given live graph.
func New(cfg Config, g *graphview.Graph[string, parametric.CostTimeEdge[numeric.Float64]], m *metrics.Metrics) *Scanner {
	return &Scanner{
		cfg:        cfg,
		graph:      g,
		metrics:    m,
		seen:       make(map[string]map[string]struct{}),
		findingsCh: make(chan Finding, 100),
	}
}

// Findings returns the channel of newly discovered, deduplicated findings.
func (s *Scanner) Findings() <-chan Finding {
	return s.findingsCh
}

// Run drives the scan loop: on every tick, and on every signal from trigger,
// it scans the current graph from every configured source node.
func (s *Scanner) Run(ctx context.Context, trigger <-chan struct{}) error {
	log.Info().
		Int("workers", s.cfg.NumWorkers).
		Dur("interval", s.cfg.ScanInterval).
		Strs("sources", s.cfg.Sources).
		Msg("starting scanner")

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(s.findingsCh)
			return ctx.Err()
		case <-ticker.C:
			s.scanAll(ctx)
		case <-trigger:
			s.scanAll(ctx)
		}
	}
}

// scanAll runs a scan from every source node in parallel over a fixed worker
// pool.
func (s *Scanner) scanAll(ctx context.Context) {
	startTime := time.Now()

	sources := s.cfg.Sources
	if len(sources) == 0 {
		sources = s.graph.Nodes()
	}

	workCh := make(chan string, len(sources))
	for _, src := range sources {
		workCh <- src
	}
	close(workCh)

	numWorkers := s.cfg.NumWorkers
	if numWorkers <= 0 || numWorkers > len(sources) {
		numWorkers = len(sources)
	}
	if numWorkers == 0 {
		return
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for source := range workCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				s.scanFrom(source)
			}
		}()
	}
	wg.Wait()

	if s.metrics != nil {
		s.metrics.RecordScanLatency(time.Since(startTime))
		s.metrics.RecordGraphStats(s.graph.NumNodes(), s.graph.NumEdges())
	}
}

// scanFrom runs MinCycleRatioSolver over the whole graph with every node's
// distance seeded at zero and, if the resulting cycle is new (previously
// unseen for source), emits a Finding labelled with source. The search is
// neither started from nor restricted to cycles reachable from source.
func (s *Scanner) scanFrom(source string) {
	ratView := ratRationalView{g: s.graph}
	oracle := parametric.NewRationalCycleRatioOracle()
	solver := parametric.NewMinCycleRatioSolver[string](ratView, oracle, s.cfg.MaxIterations)

	dist := make(map[string]numeric.Rat, len(ratView.Nodes()))
	for _, n := range ratView.Nodes() {
		dist[n] = numeric.NewRat(0, 1)
	}

	r0 := numeric.NewRat(s.cfg.InitialRatio, 1)
	result := solver.Run(dist, r0)

	if s.metrics != nil {
		s.metrics.RecordIterations(result.Iterations)
	}

	if len(result.Cycle) == 0 {
		return
	}

	key := cycleKey(result.Cycle)
	if key == "" {
		return
	}

	s.seenMu.Lock()
	bySource, ok := s.seen[source]
	if !ok {
		bySource = make(map[string]struct{})
		s.seen[source] = bySource
	}
	_, dup := bySource[key]
	bySource[key] = struct{}{}
	s.seenMu.Unlock()

	if dup {
		return
	}

	if s.metrics != nil {
		s.metrics.RecordCycleFound(source)
		s.metrics.SetBestRatio(source, result.Ratio.Float64())
	}

	finding := Finding{
		Source:       source,
		Ratio:        result.Ratio,
		Cycle:        result.Cycle,
		CycleKey:     key,
		DiscoveredAt: time.Now(),
	}

	select {
	case s.findingsCh <- finding:
	default:
		log.Warn().Str("source", source).Msg("findings channel full, discarding")
	}
}

// ratRationalView adapts the live Float64-weighted graph into a
// graphview.View over exact Rat edges, so the solver runs with exact
// arithmetic even though the feed delivers float64 costs/times.
type ratRationalView struct {
	g *graphview.Graph[string, parametric.CostTimeEdge[numeric.Float64]]
}

func (v ratRationalView) Nodes() []string { return v.g.Nodes() }

func (v ratRationalView) Neighbors(u string) []graphview.Neighbor[string, parametric.CostTimeEdge[numeric.Rat]] {
	src := v.g.Neighbors(u)
	out := make([]graphview.Neighbor[string, parametric.CostTimeEdge[numeric.Rat]], len(src))
	for i, n := range src {
		out[i] = graphview.Neighbor[string, parametric.CostTimeEdge[numeric.Rat]]{
			To: n.To,
			Edge: parametric.CostTimeEdge[numeric.Rat]{
				Cost: numeric.RatFromFloat64(float64(n.Edge.Cost)),
				Time: numeric.RatFromFloat64(float64(n.Edge.Time)),
			},
		}
	}
	return out
}
