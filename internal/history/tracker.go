// Package history records every batch run so results can be traced back to
// the files that produced them.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ilc-alumni/reconcile/internal/db"
	"github.com/ilc-alumni/reconcile/internal/logger"
)

// ErrRunNotFound is returned by Get for an unknown run id
var ErrRunNotFound = errors.New("run not found")

// Run statuses
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one execution of a reconcile command
type Run struct {
	ID         string            `json:"id"`
	Tool       string            `json:"tool"`
	Inputs     map[string]string `json:"inputs"`
	Output     string            `json:"output,omitempty"`
	Stats      map[string]int    `json:"stats,omitempty"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// Duration returns how long the run took, or zero while it is still running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Tracker stores runs in the history database
type Tracker struct {
	conn *db.Connection
	log  *logger.Logger
	now  func() time.Time
}

// NewTracker creates a tracker over an open connection
func NewTracker(conn *db.Connection, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Tracker{
		conn: conn,
		log:  log,
		// Stored as unix seconds.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Migrate creates the run table if it does not exist
func (t *Tracker) Migrate(ctx context.Context) error {
	_, err := t.conn.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reconcile_run (
			run_id      TEXT PRIMARY KEY,
			tool        TEXT NOT NULL,
			inputs_json TEXT NOT NULL,
			output      TEXT NOT NULL DEFAULT '',
			stats_json  TEXT NOT NULL DEFAULT '{}',
			status      TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			started_at  BIGINT NOT NULL,
			finished_at BIGINT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create run table: %w", err)
	}
	return nil
}

// Start records a new running run
func (t *Tracker) Start(ctx context.Context, tool string, inputs map[string]string, output string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Tool:      tool,
		Inputs:    inputs,
		Output:    output,
		Status:    StatusRunning,
		StartedAt: t.now(),
	}

	inputsJSON, err := json.Marshal(run.Inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inputs: %w", err)
	}

	_, err = t.conn.DB.ExecContext(ctx, t.conn.Rebind(`
		INSERT INTO reconcile_run (run_id, tool, inputs_json, output, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), run.ID, run.Tool, string(inputsJSON), run.Output, run.Status, run.StartedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	t.log.Debug("run started", "run_id", run.ID, "tool", tool)
	return run, nil
}

// Finish stores the outcome of a run. A non-nil runErr marks it failed.
func (t *Tracker) Finish(ctx context.Context, run *Run, stats map[string]int, runErr error) error {
	finished := t.now()
	run.FinishedAt = &finished
	run.Stats = stats
	run.Status = StatusSucceeded
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	}

	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	res, err := t.conn.DB.ExecContext(ctx, t.conn.Rebind(`
		UPDATE reconcile_run
		SET stats_json = ?, status = ?, error = ?, finished_at = ?
		WHERE run_id = ?
	`), string(statsJSON), run.Status, run.Error, finished.Unix(), run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}

	t.log.Debug("run finished", "run_id", run.ID, "status", run.Status)
	return nil
}

// List returns the most recent runs first
func (t *Tracker) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := t.conn.DB.QueryContext(ctx, t.conn.Rebind(`
		SELECT run_id, tool, inputs_json, output, stats_json, status, error, started_at, finished_at
		FROM reconcile_run
		ORDER BY started_at DESC, run_id
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run by id
func (t *Tracker) Get(ctx context.Context, id string) (*Run, error) {
	row := t.conn.DB.QueryRowContext(ctx, t.conn.Rebind(`
		SELECT run_id, tool, inputs_json, output, stats_json, status, error, started_at, finished_at
		FROM reconcile_run
		WHERE run_id = ?
	`), id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run                   Run
		inputsJSON, statsJSON string
		started               int64
		finished              sql.NullInt64
	)
	err := s.Scan(&run.ID, &run.Tool, &inputsJSON, &run.Output, &statsJSON,
		&run.Status, &run.Error, &started, &finished)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(inputsJSON), &run.Inputs); err != nil {
		return nil, fmt.Errorf("failed to decode inputs of run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats of run %s: %w", run.ID, err)
	}

	run.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		ft := time.Unix(finished.Int64, 0).UTC()
		run.FinishedAt = &ft
	}
	return &run, nil
}
