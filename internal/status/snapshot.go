package status

import (
	"encoding/json"
	"strconv"
	"time"

	"codeberg.org/mutker/brewmon/internal/errors"
)

const (
	// Valve actuator bounds, one full rotation of the stepper
	minValvePosition = 0
	maxValvePosition = 199

	// Fallback error text when the controller reports the error state
	// without a message
	genericErrorMessage = "brew entered error state"
)

// wireStatus mirrors the JSON pushed by the controller. Unknown extra
// fields are ignored for forward compatibility.
type wireStatus struct {
	BrewID                 string  `json:"brew_id"`
	CurrentFlowRate        *string `json:"current_flow_rate"`
	CurrentWeight          *string `json:"current_weight"`
	TargetWeight           string  `json:"target_weight"`
	BrewState              string  `json:"brew_state"`
	BrewStrategy           string  `json:"brew_strategy"`
	TimeStarted            string  `json:"time_started"`
	TimeCompleted          *string `json:"time_completed"`
	EstimatedTimeRemaining *string `json:"estimated_time_remaining"`
	ErrorMessage           *string `json:"error_message"`
	ValvePosition          *int    `json:"valve_position"`
}

// Decode parses one wire message into a Snapshot. Decode failures are
// non-fatal to the caller; the message is simply not usable.
func Decode(payload []byte) (*Snapshot, error) {
	errFactory := errors.New()

	var wire wireStatus
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, errFactory.Wrap(ErrDecodeFailed, err)
	}

	state := BrewState(wire.BrewState)
	if !state.IsValid() {
		return nil, errFactory.WithData(ErrInvalidState, wire.BrewState)
	}

	flowRate, err := parseMetric(wire.CurrentFlowRate)
	if err != nil {
		return nil, err
	}

	weight, err := parseMetric(wire.CurrentWeight)
	if err != nil {
		return nil, err
	}

	targetWeight := 0.0
	if wire.TargetWeight != "" {
		targetWeight, err = strconv.ParseFloat(wire.TargetWeight, 64)
		if err != nil {
			return nil, errFactory.Wrap(ErrInvalidMetric, err)
		}
	}

	startedAt, err := parseInstant(wire.TimeStarted)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		BrewID:       wire.BrewID,
		FlowRate:     flowRate,
		Weight:       weight,
		TargetWeight: targetWeight,
		State:        state,
		Strategy:     wire.BrewStrategy,
		StartedAt:    startedAt,
	}

	// Completion time is meaningful only for a completed brew
	if state == StateCompleted && wire.TimeCompleted != nil {
		completedAt, err := parseInstant(*wire.TimeCompleted)
		if err != nil {
			return nil, err
		}
		snapshot.CompletedAt = &completedAt
	}

	if wire.EstimatedTimeRemaining != nil {
		seconds, err := strconv.ParseFloat(*wire.EstimatedTimeRemaining, 64)
		if err != nil {
			return nil, errFactory.Wrap(ErrInvalidMetric, err)
		}
		remaining := time.Duration(seconds * float64(time.Second))
		snapshot.Remaining = &remaining
	}

	// Error text is meaningful only in the error state
	if state == StateError && wire.ErrorMessage != nil {
		snapshot.ErrorMessage = *wire.ErrorMessage
	}

	if wire.ValvePosition != nil {
		position := *wire.ValvePosition
		if position >= minValvePosition && position <= maxValvePosition {
			snapshot.ValvePosition = &position
		}
	}

	return snapshot, nil
}

// DeriveError derives the brew error state from a snapshot. Returns nil
// unless the snapshot reports the error lifecycle state.
func DeriveError(snapshot *Snapshot, now time.Time) *BrewError {
	if snapshot == nil || snapshot.State != StateError {
		return nil
	}

	message := snapshot.ErrorMessage
	if message == "" {
		message = genericErrorMessage
	}

	return &BrewError{
		Message:   message,
		Timestamp: now,
	}
}

func parseMetric(raw *string) (Metric, error) {
	if raw == nil {
		return Metric{}, nil
	}

	value, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		return Metric{}, errors.New().Wrap(ErrInvalidMetric, err)
	}

	return MetricOf(value), nil
}

// parseInstant accepts RFC 3339 timestamps as well as the zone-less
// ISO 8601 form the controller emits; the latter is taken as UTC.
func parseInstant(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	if at, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return at, nil
	}

	at, err := time.Parse("2006-01-02T15:04:05.999999999", raw)
	if err != nil {
		return time.Time{}, errors.New().Wrap(ErrInvalidTimestamp, err)
	}

	return at.UTC(), nil
}
