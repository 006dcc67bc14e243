package ingestion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEdgeUpdate(t *testing.T) {
	decoder := NewDecoder()

	raw := json.RawMessage(`{"from":"a","to":"b","cost":2.5,"time":1,"remove":false,"timestamp":1700000000}`)

	update, err := decoder.DecodeEdgeUpdate(raw)
	require.NoError(t, err)
	require.NotNil(t, update)

	require.Equal(t, "a", update.From)
	require.Equal(t, "b", update.To)
	require.Equal(t, 2.5, update.Cost)
	require.Equal(t, 1.0, update.Time)
	require.False(t, update.Remove)
	require.Equal(t, int64(1700000000), update.Timestamp.Unix())
}

func TestDecodeEdgeUpdateRemoval(t *testing.T) {
	decoder := NewDecoder()

	raw := json.RawMessage(`{"from":"a","to":"b","remove":true,"timestamp":1700000000}`)

	update, err := decoder.DecodeEdgeUpdate(raw)
	require.NoError(t, err)
	require.True(t, update.Remove)
}

func TestDecodeEdgeUpdateMissingEndpoint(t *testing.T) {
	decoder := NewDecoder()

	raw := json.RawMessage(`{"from":"","to":"b","cost":1,"time":1,"timestamp":1700000000}`)

	_, err := decoder.DecodeEdgeUpdate(raw)
	require.Error(t, err)
}

func TestDecodeEdgeUpdateZeroTime(t *testing.T) {
	decoder := NewDecoder()

	raw := json.RawMessage(`{"from":"a","to":"b","cost":1,"time":0,"remove":false,"timestamp":1700000000}`)

	_, err := decoder.DecodeEdgeUpdate(raw)
	require.Error(t, err)
}

func TestDecodeEdgeUpdateMalformed(t *testing.T) {
	decoder := NewDecoder()

	_, err := decoder.DecodeEdgeUpdate(json.RawMessage(`not json`))
	require.Error(t, err)
}
