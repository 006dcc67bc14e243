package ingestion

import (
	"encoding/json"
	"fmt"
	"time"
)

// EdgeUpdate is a single edge-weight mutation as received from the feed:
// set the cost/time of the directed edge From->To, or remove it entirely.
type EdgeUpdate struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Cost      float64   `json:"cost"`
	Time      float64   `json:"time"`
	Remove    bool      `json:"remove"`
	Timestamp time.Time `json:"timestamp"`
}

// rawEdgeUpdate is the wire shape: timestamps arrive as Unix seconds, not
// RFC3339, matching what the feed's publisher side actually emits.
type rawEdgeUpdate struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Cost      float64 `json:"cost"`
	Time      float64 `json:"time"`
	Remove    bool    `json:"remove"`
	Timestamp int64   `json:"timestamp"`
}

// Decoder turns raw feed messages into EdgeUpdates.
type Decoder struct{}

// NewDecoder creates a new edge-update decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeEdgeUpdate decodes a single edge_update notification payload.
func (d *Decoder) DecodeEdgeUpdate(raw json.RawMessage) (*EdgeUpdate, error) {
	var r rawEdgeUpdate
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("unmarshaling edge update: %w", err)
	}

	if r.From == "" || r.To == "" {
		return nil, fmt.Errorf("edge update missing endpoint: from=%q to=%q", r.From, r.To)
	}
	if !r.Remove && r.Time == 0 {
		return nil, fmt.Errorf("edge update %s->%s has zero time, cycle ratio undefined", r.From, r.To)
	}

	return &EdgeUpdate{
		From:      r.From,
		To:        r.To,
		Cost:      r.Cost,
		Time:      r.Time,
		Remove:    r.Remove,
		Timestamp: time.Unix(r.Timestamp, 0).UTC(),
	}, nil
}
