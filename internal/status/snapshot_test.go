package status_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/brewmon/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFullSnapshot(t *testing.T) {
	payload := []byte(`{
		"brew_id": "brew-42",
		"current_flow_rate": "0.0500",
		"current_weight": "1250.5",
		"target_weight": "4000",
		"brew_state": "brewing",
		"brew_strategy": "pid",
		"time_started": "2025-06-01T10:00:00Z",
		"time_completed": null,
		"estimated_time_remaining": "3600.5",
		"error_message": null,
		"valve_position": 120
	}`)

	snapshot, err := status.Decode(payload)
	require.NoError(t, err)

	assert.Equal(t, "brew-42", snapshot.BrewID)
	assert.Equal(t, status.StateBrewing, snapshot.State)
	assert.Equal(t, "pid", snapshot.Strategy)
	require.True(t, snapshot.FlowRate.Valid)
	assert.InDelta(t, 0.05, snapshot.FlowRate.Value, 1e-9)
	require.True(t, snapshot.Weight.Valid)
	assert.InDelta(t, 1250.5, snapshot.Weight.Value, 1e-9)
	assert.InDelta(t, 4000, snapshot.TargetWeight, 1e-9)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), snapshot.StartedAt)
	require.NotNil(t, snapshot.Remaining)
	assert.Equal(t, time.Duration(3600.5*float64(time.Second)), *snapshot.Remaining)
	require.NotNil(t, snapshot.ValvePosition)
	assert.Equal(t, 120, *snapshot.ValvePosition)
	assert.Nil(t, snapshot.CompletedAt)
	assert.Empty(t, snapshot.ErrorMessage)
}

func TestDecodeNullMetricsAreUnavailableNotZero(t *testing.T) {
	payload := []byte(`{
		"brew_id": "brew-1",
		"current_flow_rate": null,
		"current_weight": "0",
		"target_weight": "4000",
		"brew_state": "paused",
		"brew_strategy": "default",
		"time_started": "2025-06-01T10:00:00Z"
	}`)

	snapshot, err := status.Decode(payload)
	require.NoError(t, err)

	// Unavailable flow is distinct from zero flow
	assert.False(t, snapshot.FlowRate.Valid)
	require.True(t, snapshot.Weight.Valid)
	assert.Zero(t, snapshot.Weight.Value)
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	payload := []byte(`{
		"brew_id": "brew-1",
		"target_weight": "100",
		"brew_state": "idle",
		"brew_strategy": "default",
		"time_started": "2025-06-01T10:00:00Z",
		"some_future_field": {"nested": true}
	}`)

	snapshot, err := status.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, status.StateIdle, snapshot.State)
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"non-JSON text", "not json at all"},
		{"unknown brew state", `{"brew_state": "exploding", "target_weight": "1", "time_started": "2025-06-01T10:00:00Z"}`},
		{"non-numeric flow rate", `{"brew_state": "brewing", "current_flow_rate": "fast", "target_weight": "1", "time_started": "2025-06-01T10:00:00Z"}`},
		{"wrong field type", `{"brew_state": "brewing", "target_weight": 4000, "time_started": "2025-06-01T10:00:00Z"}`},
		{"bad timestamp", `{"brew_state": "brewing", "target_weight": "1", "time_started": "yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := status.Decode([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestDecodeZonelessTimestamp(t *testing.T) {
	payload := []byte(`{
		"brew_id": "brew-1",
		"target_weight": "100",
		"brew_state": "brewing",
		"brew_strategy": "default",
		"time_started": "2025-06-01T10:00:00.123456"
	}`)

	snapshot, err := status.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 123456000, time.UTC), snapshot.StartedAt)
}

func TestDecodeErrorMessageOnlyInErrorState(t *testing.T) {
	payload := []byte(`{
		"brew_id": "brew-1",
		"target_weight": "100",
		"brew_state": "brewing",
		"brew_strategy": "default",
		"time_started": "2025-06-01T10:00:00Z",
		"error_message": "stale text from a previous run"
	}`)

	snapshot, err := status.Decode(payload)
	require.NoError(t, err)
	assert.Empty(t, snapshot.ErrorMessage)
}

func TestDecodeCompletionTimeOnlyWhenCompleted(t *testing.T) {
	payload := []byte(`{
		"brew_id": "brew-1",
		"target_weight": "100",
		"brew_state": "completed",
		"brew_strategy": "default",
		"time_started": "2025-06-01T10:00:00Z",
		"time_completed": "2025-06-02T08:30:00Z"
	}`)

	snapshot, err := status.Decode(payload)
	require.NoError(t, err)
	require.NotNil(t, snapshot.CompletedAt)
	assert.Equal(t, time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC), *snapshot.CompletedAt)
}

func TestDecodeOutOfRangeValvePositionDropped(t *testing.T) {
	payload := []byte(`{
		"brew_id": "brew-1",
		"target_weight": "100",
		"brew_state": "brewing",
		"brew_strategy": "default",
		"time_started": "2025-06-01T10:00:00Z",
		"valve_position": 250
	}`)

	snapshot, err := status.Decode(payload)
	require.NoError(t, err)
	assert.Nil(t, snapshot.ValvePosition)
}

func TestDeriveError(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	errorSnapshot := &status.Snapshot{State: status.StateError, ErrorMessage: "pump failure"}
	derived := status.DeriveError(errorSnapshot, now)
	require.NotNil(t, derived)
	assert.Equal(t, "pump failure", derived.Message)
	assert.Equal(t, now, derived.Timestamp)

	// Error state without a message falls back to generic text
	bare := &status.Snapshot{State: status.StateError}
	derived = status.DeriveError(bare, now)
	require.NotNil(t, derived)
	assert.Equal(t, "brew entered error state", derived.Message)

	// Any non-error state derives no error
	running := &status.Snapshot{State: status.StateBrewing}
	assert.Nil(t, status.DeriveError(running, now))
	assert.Nil(t, status.DeriveError(nil, now))
}

func TestBrewStateClassification(t *testing.T) {
	assert.True(t, status.StateBrewing.IsActive())
	assert.True(t, status.StatePaused.IsActive())
	assert.False(t, status.StateIdle.IsActive())

	assert.True(t, status.StateCompleted.IsTerminal())
	assert.True(t, status.StateIdle.IsTerminal())
	assert.True(t, status.StateError.IsTerminal())
	assert.False(t, status.StateBrewing.IsTerminal())
}
