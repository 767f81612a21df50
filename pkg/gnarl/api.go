// Package gnarl is the public surface of the neuroevolution engine. A
// Client wires tasks, the generational pool and the run-history store
// together so callers and the CLI share one code path.
package gnarl

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"gnarl/internal/evo"
	"gnarl/internal/stats"
	"gnarl/internal/storage"
	"gnarl/internal/task"
)

const defaultDBPath = "gnarl.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store

	initialized bool
}

type RunRequest struct {
	Task            string
	Population      int
	BatchSize       int
	Elitism         int
	Generations     int
	Seed            int64
	CrossoverChance float64
	Selection       string
	NodesGrowth     float64
	ConnsGrowth     float64
	GatesGrowth     float64
}

type RunSummary struct {
	RunID            string
	Task             string
	Seed             int64
	Generations      int
	BestByGeneration []float64
	FinalBestFitness float64
	Diagnostics      []stats.GenerationDiagnostics
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID       string
	CreatedAt   time.Time
	Task        string
	Seed        int64
	Population  int
	Generations int
	Selection   string
	FinalBest   float64
}

type FitnessHistoryRequest struct {
	RunID string
	Limit int
}

type DiagnosticsRequest struct {
	RunID string
	Limit int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Tasks lists the built-in task names.
func (c *Client) Tasks() []string {
	return task.Names()
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Task == "" {
		req.Task = "xor"
	}
	if req.Population <= 0 {
		req.Population = 50
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.Elitism < 0 {
		return RunSummary{}, errors.New("elitism must be >= 0")
	}
	if req.Elitism == 0 {
		req.Elitism = req.Population / 10
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	if req.Selection == "" {
		req.Selection = "power"
	}

	env, err := task.Lookup(req.Task)
	if err != nil {
		return RunSummary{}, err
	}
	selection, err := selectionFromName(req.Selection)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	rng := rand.New(rand.NewSource(req.Seed))
	pool, err := evo.NewPool(env.Configuration(), evo.PoolConfig{
		PopulationSize:  req.Population,
		BatchSize:       req.BatchSize,
		Elitism:         req.Elitism,
		CrossoverChance: req.CrossoverChance,
		NodesGrowth:     req.NodesGrowth,
		ConnsGrowth:     req.ConnsGrowth,
		GatesGrowth:     req.GatesGrowth,
		Selection:       selection,
	}, rng)
	if err != nil {
		return RunSummary{}, err
	}

	history := make([]float64, 0, req.Generations)
	diagnostics := make([]stats.GenerationDiagnostics, 0, req.Generations)
	for generation := 0; generation < req.Generations; generation++ {
		if err := pool.Evolve(ctx, env, nil); err != nil {
			return RunSummary{}, err
		}
		snapshot := stats.Summarize(generation, pool.Members())
		history = append(history, snapshot.BestFitness)
		diagnostics = append(diagnostics, snapshot)
	}

	finalBest := 0.0
	if len(history) > 0 {
		finalBest = history[len(history)-1]
	}

	runID := uuid.NewString()
	record := storage.RunRecord{
		ID:          runID,
		CreatedAt:   time.Now().UTC(),
		Task:        env.Name(),
		Seed:        req.Seed,
		Population:  req.Population,
		BatchSize:   req.BatchSize,
		Elitism:     req.Elitism,
		Generations: req.Generations,
		Selection:   selection.Name(),
		FinalBest:   finalBest,
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveDiagnostics(ctx, runID, diagnostics); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		Task:             env.Name(),
		Seed:             req.Seed,
		Generations:      pool.Generation(),
		BestByGeneration: history,
		FinalBestFitness: finalBest,
		Diagnostics:      diagnostics,
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListRuns(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]RunItem, 0, len(records))
	for _, record := range records {
		out = append(out, RunItem{
			RunID:       record.ID,
			CreatedAt:   record.CreatedAt,
			Task:        record.Task,
			Seed:        record.Seed,
			Population:  record.Population,
			Generations: record.Generations,
			Selection:   record.Selection,
			FinalBest:   record.FinalBest,
		})
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.RunID == "" {
		return nil, errors.New("fitness history requires a run id")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", req.RunID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]stats.GenerationDiagnostics, error) {
	if req.RunID == "" {
		return nil, errors.New("diagnostics requires a run id")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	diagnostics, ok, err := c.store.GetDiagnostics(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", req.RunID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]stats.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func selectionFromName(name string) (evo.Selection, error) {
	switch name {
	case "power":
		return evo.Power{Exponent: 4}, nil
	case "tournament":
		return evo.Tournament{Size: 5, Probability: 0.5}, nil
	case "fitness-proportionate":
		return &evo.FitnessProportionate{}, nil
	default:
		return nil, fmt.Errorf("unsupported selection strategy: %s", name)
	}
}
