package status

import "time"

// BrewState represents the lifecycle state reported by the controller
type BrewState string

const (
	StateIdle      BrewState = "idle"
	StateBrewing   BrewState = "brewing"
	StatePaused    BrewState = "paused"
	StateCompleted BrewState = "completed"
	StateError     BrewState = "error"
)

// IsValid returns whether the state is one the controller can report
func (s BrewState) IsValid() bool {
	switch s {
	case StateIdle, StateBrewing, StatePaused, StateCompleted, StateError:
		return true
	default:
		return false
	}
}

// IsActive reports whether history should be recorded in this state
func (s BrewState) IsActive() bool {
	return s == StateBrewing || s == StatePaused
}

// IsTerminal reports whether the state ends history recording
func (s BrewState) IsTerminal() bool {
	return s == StateCompleted || s == StateIdle || s == StateError
}

// Metric is an optional decimal measurement. A null or missing wire value
// decodes to Valid == false; zero flow is meaningful and distinct from
// unavailable.
type Metric struct {
	Value float64
	Valid bool
}

// MetricOf returns an available metric carrying the given value
func MetricOf(value float64) Metric {
	return Metric{Value: value, Valid: true}
}

// Snapshot is one immutable point-in-time description of the monitored brew.
// Each wire message produces a new value; a Snapshot is never mutated after
// construction.
type Snapshot struct {
	BrewID        string
	FlowRate      Metric
	Weight        Metric
	TargetWeight  float64
	State         BrewState
	Strategy      string
	StartedAt     time.Time
	CompletedAt   *time.Time
	Remaining     *time.Duration
	ErrorMessage  string
	ValvePosition *int
}

// BrewError is the error state derived from the latest snapshot. It is
// present only while the controller reports the error lifecycle state.
type BrewError struct {
	Message   string
	Timestamp time.Time
}
