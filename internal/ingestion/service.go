package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cycleratio/internal/metrics"
	"cycleratio/internal/numeric"
	"cycleratio/internal/parametric"
	"cycleratio/pkg/graphview"

	"github.com/rs/zerolog/log"
)

const (
	maxReconnectAttempts = 10
	defaultReconnectBase = 1 * time.Second
	defaultReconnectCap  = 30 * time.Second
	defaultPingInterval  = pingPeriod
)

// Service ingests edge-weight updates from a streaming feed and applies them
// to a live graph.
type Service struct {
	wsURL             string
	reconnectInterval time.Duration
	pingInterval      time.Duration
	client            *WSClient
	decoder           *Decoder

	graph   *graphview.Graph[string, parametric.CostTimeEdge[numeric.Float64]]
	metrics *metrics.Metrics

	// updates fires once per applied mutation, so a listener (the scanner)
	// can re-run without waiting for its next ticker.
	updates chan struct{}
}

// NewService creates a new ingestion service over the given live graph, using
// the built-in reconnect and ping intervals until WithIntervals overrides them.
func NewService(
	wsURL string,
	g *graphview.Graph[string, parametric.CostTimeEdge[numeric.Float64]],
	m *metrics.Metrics,
) *Service {
	return &Service{
		wsURL:             wsURL,
		reconnectInterval: defaultReconnectBase,
		pingInterval:      defaultPingInterval,
		decoder:           NewDecoder(),
		graph:             g,
		metrics:           m,
		updates:           make(chan struct{}, 1),
	}
}

// WithIntervals overrides the reconnect backoff base and ping interval,
// sourced from config.FeedConfig. A non-positive value keeps the current one.
func (s *Service) WithIntervals(reconnect, ping time.Duration) *Service {
	if reconnect > 0 {
		s.reconnectInterval = reconnect
	}
	if ping > 0 {
		s.pingInterval = ping
	}
	return s
}

// Updates returns a channel that receives a value after every graph mutation
// the service applies. The channel is coalescing: a burst of updates collapses
// into a single pending signal.
func (s *Service) Updates() <-chan struct{} {
	return s.updates
}

// Run starts the ingestion service with automatic reconnection.
func (s *Service) Run(ctx context.Context) error {
	for attempt := 0; attempt < maxReconnectAttempts; attempt++ {
		if attempt > 0 {
			backoff := s.calculateBackoff(attempt)
			log.Info().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("reconnecting to feed")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := s.runOnce(ctx)
		if err == nil || ctx.Err() != nil {
			return err
		}

		log.Error().Err(err).Msg("feed connection error")

		if s.metrics != nil {
			s.metrics.SetFeedConnected(false)
		}
	}

	return fmt.Errorf("max reconnection attempts reached")
}

// runOnce runs the ingestion service until an error occurs or context is canceled.
func (s *Service) runOnce(ctx context.Context) error {
	s.client = NewWSClient(s.wsURL)

	if err := s.client.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to feed: %w", err)
	}
	defer s.client.Close()

	if s.metrics != nil {
		s.metrics.SetFeedConnected(true)
	}

	if err := s.client.Subscribe(ctx, nil); err != nil {
		return fmt.Errorf("subscribing to feed: %w", err)
	}

	go s.client.StartPingLoop(ctx, s.pingInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.client.ReadMessages(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errCh:
			return err

		case msg := <-s.client.Messages():
			s.processMessage(msg)
		}
	}
}

// processMessage decodes a raw feed message and applies it to the graph.
func (s *Service) processMessage(raw json.RawMessage) {
	log.Debug().RawJSON("message", raw).Msg("received feed message")

	update, err := s.decoder.DecodeEdgeUpdate(raw)
	if err != nil {
		log.Warn().Err(err).Msg("failed to decode edge update")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordEventReceived("edge_update")
		s.metrics.RecordEventLatency(update.Timestamp)
	}

	if update.Remove {
		s.graph.RemoveEdge(update.From, update.To)
	} else {
		s.graph.AddEdge(update.From, update.To, parametric.CostTimeEdge[numeric.Float64]{
			Cost: numeric.Float64(update.Cost),
			Time: numeric.Float64(update.Time),
		})
	}

	if s.metrics != nil {
		s.metrics.RecordGraphStats(s.graph.NumNodes(), s.graph.NumEdges())
	}

	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Service) calculateBackoff(attempt int) time.Duration {
	backoff := s.reconnectInterval * (1 << uint(attempt))
	if backoff > defaultReconnectCap {
		backoff = defaultReconnectCap
	}
	return backoff
}
