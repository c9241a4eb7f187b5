package telemetry

import (
	"context"

	"codeberg.org/mutker/brewmon/internal/status"
)

// Recorder journals received snapshots for later inspection.
type Recorder interface {
	Record(ctx context.Context, snapshot *status.Snapshot) error
	Close() error
}

// Repository persists snapshots.
type Repository interface {
	Store(ctx context.Context, snapshot *status.Snapshot) error
	Close() error
}
