package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fwojciec/bggcrawl"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ bggcrawl.RunService = (*RunService)(nil)

// RunService implements bggcrawl.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun assigns an ID and start time and stores the run.
func (s *RunService) CreateRun(ctx context.Context, run *bggcrawl.Run) error {
	run.ID = uuid.New().String()
	run.StartedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at)
		VALUES (?, ?)
	`, run.ID, formatTime(run.StartedAt))

	return err
}

// FinishRun stores the final counters of a run.
func (s *RunService) FinishRun(ctx context.Context, run *bggcrawl.Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, requests = ?, games = ?, ratings = ?, users = ?, failed = ?
		WHERE id = ?
	`, formatTime(run.FinishedAt), run.Requests, run.Games, run.Ratings, run.Users, run.Failed, run.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return bggcrawl.Errorf(bggcrawl.ENOTFOUND, "run not found")
	}

	return nil
}

// FindRunByID retrieves a run by ID.
func (s *RunService) FindRunByID(ctx context.Context, id string) (*bggcrawl.Run, error) {
	var run bggcrawl.Run
	var startedAt, finishedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, requests, games, ratings, users, failed
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &startedAt, &finishedAt, &run.Requests, &run.Games, &run.Ratings,
		&run.Users, &run.Failed)

	if err == sql.ErrNoRows {
		return nil, bggcrawl.Errorf(bggcrawl.ENOTFOUND, "run not found")
	}
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = parseRFC3339(startedAt, "started_at")
	if err != nil {
		return nil, err
	}
	if finishedAt != "" {
		run.FinishedAt, err = parseRFC3339(finishedAt, "finished_at")
		if err != nil {
			return nil, err
		}
	}

	return &run, nil
}
