package main

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// runConfig mirrors the run subcommand flags so experiments can live in an
// INI file and be replayed verbatim.
type runConfig struct {
	Task            string  `ini:"task"`
	Population      int     `ini:"population"`
	BatchSize       int     `ini:"batch_size"`
	Elitism         int     `ini:"elitism"`
	Generations     int     `ini:"generations"`
	Seed            int64   `ini:"seed"`
	CrossoverChance float64 `ini:"crossover_chance"`
	Selection       string  `ini:"selection"`
	NodesGrowth     float64 `ini:"nodes_growth"`
	ConnsGrowth     float64 `ini:"conns_growth"`
	GatesGrowth     float64 `ini:"gates_growth"`
	Store           string  `ini:"store"`
	DBPath          string  `ini:"db_path"`
}

func defaultRunConfig() runConfig {
	return runConfig{
		Task:        "xor",
		Population:  50,
		Generations: 100,
		Selection:   "power",
		DBPath:      "gnarl.db",
	}
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	file, err := ini.Load(path)
	if err != nil {
		return runConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := file.Section("").MapTo(&cfg); err != nil {
		return runConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
