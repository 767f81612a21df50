// Package storage persists run history: which experiments ran and how
// fitness developed per generation. Genome topology is deliberately never
// encoded here.
package storage

import (
	"context"
	"time"

	"gnarl/internal/stats"
)

// RunRecord describes one completed (or aborted) evolution run.
type RunRecord struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Task        string    `json:"task"`
	Seed        int64     `json:"seed"`
	Population  int       `json:"population"`
	BatchSize   int       `json:"batch_size"`
	Elitism     int       `json:"elitism"`
	Generations int       `json:"generations"`
	Selection   string    `json:"selection"`
	FinalBest   float64   `json:"final_best"`
}

// Store defines persistence operations for run history.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveDiagnostics(ctx context.Context, runID string, diagnostics []stats.GenerationDiagnostics) error
	GetDiagnostics(ctx context.Context, runID string) ([]stats.GenerationDiagnostics, bool, error)
}
