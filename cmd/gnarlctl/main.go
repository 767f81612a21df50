package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"gnarl/internal/stats"
	"gnarl/internal/storage"
	gnarlapi "gnarl/pkg/gnarl"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "tasks":
		return runTasks(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: gnarlctl <run|runs|fitness|diagnostics|tasks> [flags]", msg)
}

func runRun(ctx context.Context, args []string) error {
	defaults := defaultRunConfig()

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config INI path")
	taskName := fs.String("task", defaults.Task, "task name")
	population := fs.Int("pop", defaults.Population, "population size")
	batchSize := fs.Int("batch", defaults.BatchSize, "evaluation batch size (0 for single batch)")
	elitism := fs.Int("elitism", defaults.Elitism, "elite count preserved each generation (0 derives from population)")
	generations := fs.Int("gens", defaults.Generations, "generation count")
	seed := fs.Int64("seed", defaults.Seed, "rng seed (0 uses wall clock)")
	crossoverChance := fs.Float64("crossover", defaults.CrossoverChance, "probability a child is bred by crossover instead of mutation")
	selectionName := fs.String("selection", defaults.Selection, "parent selection strategy: power|tournament|fitness-proportionate")
	nodesGrowth := fs.Float64("nodes-growth", defaults.NodesGrowth, "score penalty per hidden node")
	connsGrowth := fs.Float64("conns-growth", defaults.ConnsGrowth, "score penalty per connection")
	gatesGrowth := fs.Float64("gates-growth", defaults.GatesGrowth, "score penalty per gated connection")
	storeKind := fs.String("store", defaults.Store, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaults.DBPath, "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := defaults
	if *configPath != "" {
		loaded, err := loadRunConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// Explicit flags win over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "task":
			cfg.Task = *taskName
		case "pop":
			cfg.Population = *population
		case "batch":
			cfg.BatchSize = *batchSize
		case "elitism":
			cfg.Elitism = *elitism
		case "gens":
			cfg.Generations = *generations
		case "seed":
			cfg.Seed = *seed
		case "crossover":
			cfg.CrossoverChance = *crossoverChance
		case "selection":
			cfg.Selection = *selectionName
		case "nodes-growth":
			cfg.NodesGrowth = *nodesGrowth
		case "conns-growth":
			cfg.ConnsGrowth = *connsGrowth
		case "gates-growth":
			cfg.GatesGrowth = *gatesGrowth
		case "store":
			cfg.Store = *storeKind
		case "db-path":
			cfg.DBPath = *dbPath
		}
	})

	client, err := gnarlapi.New(gnarlapi.Options{StoreKind: cfg.Store, DBPath: cfg.DBPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, gnarlapi.RunRequest{
		Task:            cfg.Task,
		Population:      cfg.Population,
		BatchSize:       cfg.BatchSize,
		Elitism:         cfg.Elitism,
		Generations:     cfg.Generations,
		Seed:            cfg.Seed,
		CrossoverChance: cfg.CrossoverChance,
		Selection:       cfg.Selection,
		NodesGrowth:     cfg.NodesGrowth,
		ConnsGrowth:     cfg.ConnsGrowth,
		GatesGrowth:     cfg.GatesGrowth,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("run=%s task=%s seed=%d generations=%d final_best=%.6f\n",
		summary.RunID, summary.Task, summary.Seed, summary.Generations, summary.FinalBestFitness)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to print")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "gnarl.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit runs as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := gnarlapi.New(gnarlapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, gnarlapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	rows := make([]stats.RunRow, 0, len(runs))
	for _, item := range runs {
		rows = append(rows, stats.RunRow{
			RunID:       item.RunID,
			CreatedAt:   item.CreatedAt,
			Task:        item.Task,
			Seed:        item.Seed,
			Population:  item.Population,
			Generations: item.Generations,
			FinalBest:   item.FinalBest,
			Evaluations: int64(item.Population) * int64(item.Generations),
		})
	}
	fmt.Print(stats.FormatRunsTable(rows))
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "gnarl.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("fitness requires --run-id")
	}

	client, err := gnarlapi.New(gnarlapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, gnarlapi.FitnessHistoryRequest{RunID: *runID, Limit: *limit})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "gnarl.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("diagnostics requires --run-id")
	}

	client, err := gnarlapi.New(gnarlapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, gnarlapi.DiagnosticsRequest{RunID: *runID, Limit: *limit})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnostics)
	}

	for _, d := range diagnostics {
		fmt.Printf("generation=%d best=%.6f mean=%.6f min=%.6f mean_nodes=%.2f mean_conns=%.2f gated=%d\n",
			d.Generation,
			d.BestScore,
			d.MeanScore,
			d.MinScore,
			d.MeanNodes,
			d.MeanConnections,
			d.GatedTotal,
		)
	}
	return nil
}

func runTasks(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("tasks", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := gnarlapi.New(gnarlapi.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, name := range client.Tasks() {
		fmt.Println(name)
	}
	return nil
}
