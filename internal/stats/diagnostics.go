// Package stats summarizes populations per generation and renders run
// listings for the CLI.
package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"gnarl/internal/nn"
)

type GenerationDiagnostics struct {
	Generation      int     `json:"generation"`
	BestFitness     float64 `json:"best_fitness"`
	BestScore       float64 `json:"best_score"`
	MeanScore       float64 `json:"mean_score"`
	MinScore        float64 `json:"min_score"`
	MeanNodes       float64 `json:"mean_nodes"`
	MeanConnections float64 `json:"mean_connections"`
	GatedTotal      int     `json:"gated_total"`
}

// Summarize reads one scored population snapshot. Members need not be
// sorted.
func Summarize(generation int, members []*nn.Network) GenerationDiagnostics {
	if len(members) == 0 {
		return GenerationDiagnostics{Generation: generation}
	}

	best := members[0]
	minScore := members[0].Score
	totalScore := 0.0
	totalNodes := 0
	totalConns := 0
	gated := 0
	for _, member := range members {
		if member.Score > best.Score {
			best = member
		}
		if member.Score < minScore {
			minScore = member.Score
		}
		totalScore += member.Score
		totalNodes += member.NodeCount()
		totalConns += member.ConnectionCount()
		gated += member.GatedCount()
	}

	return GenerationDiagnostics{
		Generation:      generation,
		BestFitness:     best.Fitness,
		BestScore:       best.Score,
		MeanScore:       totalScore / float64(len(members)),
		MinScore:        minScore,
		MeanNodes:       float64(totalNodes) / float64(len(members)),
		MeanConnections: float64(totalConns) / float64(len(members)),
		GatedTotal:      gated,
	}
}

// RunRow is one line of the runs listing.
type RunRow struct {
	RunID       string
	CreatedAt   time.Time
	Task        string
	Seed        int64
	Population  int
	Generations int
	FinalBest   float64
	Evaluations int64
}

// FormatRunsTable renders run rows as an aligned text table.
func FormatRunsTable(rows []RunRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s  %-14s  %-8s  %10s  %6s  %5s  %12s  %s\n",
		"RUN", "CREATED", "TASK", "SEED", "POP", "GENS", "EVALUATIONS", "BEST")
	for _, row := range rows {
		fmt.Fprintf(&b, "%-36s  %-14s  %-8s  %10d  %6d  %5d  %12s  %.4f\n",
			row.RunID,
			humanize.Time(row.CreatedAt),
			row.Task,
			row.Seed,
			row.Population,
			row.Generations,
			humanize.Comma(row.Evaluations),
			row.FinalBest,
		)
	}
	return b.String()
}
