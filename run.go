package bggcrawl

import (
	"context"
	"time"
)

// Run records one crawl session.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
	Requests   int       `json:"requests"`
	Games      int       `json:"games"`
	Ratings    int       `json:"ratings"`
	Users      int       `json:"users"`
	Failed     int       `json:"failed"`
}

// RunService records crawl sessions.
type RunService interface {
	// CreateRun assigns an ID and start time and stores the run.
	CreateRun(ctx context.Context, run *Run) error

	// FinishRun stores the final counters of a run.
	// Returns ENOTFOUND if the run does not exist.
	FinishRun(ctx context.Context, run *Run) error

	// FindRunByID retrieves a run by ID.
	// Returns ENOTFOUND if the run does not exist.
	FindRunByID(ctx context.Context, id string) (*Run, error)
}
