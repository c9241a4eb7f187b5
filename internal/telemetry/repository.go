package telemetry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/brewmon/internal/errors"
	"codeberg.org/mutker/brewmon/internal/logger"
	"codeberg.org/mutker/brewmon/internal/status"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing telemetry repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func (r *sqliteRepository) Store(ctx context.Context, snapshot *status.Snapshot) error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO brew_status (
            timestamp, brew_id, brew_state,
            flow_rate, weight, target_weight,
            strategy, valve_position, error_message, is_active
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            brew_id = excluded.brew_id,
            brew_state = excluded.brew_state,
            flow_rate = excluded.flow_rate,
            weight = excluded.weight,
            target_weight = excluded.target_weight,
            strategy = excluded.strategy,
            valve_position = excluded.valve_position,
            error_message = excluded.error_message,
            is_active = excluded.is_active
    `,
		time.Now().Unix(),
		snapshot.BrewID,
		string(snapshot.State),
		nullableMetric(snapshot.FlowRate),
		nullableMetric(snapshot.Weight),
		snapshot.TargetWeight,
		snapshot.Strategy,
		nullableInt(snapshot.ValvePosition),
		snapshot.ErrorMessage,
		boolToInt(snapshot.State.IsActive()),
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}
	return nil
}

// nullableMetric maps an unavailable metric to SQL NULL; zero stays zero
func nullableMetric(m status.Metric) any {
	if !m.Valid {
		return nil
	}
	return m.Value
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
