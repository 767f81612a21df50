package evo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"gnarl/internal/nn"
)

// Environment assigns fitness to a batch of genomes. It must tolerate one
// concurrent invocation per disjoint batch, must only assign Fitness and
// never mutate topology. Any returned error propagates out of Evolve.
type Environment interface {
	Name() string
	Evaluate(ctx context.Context, batch []*nn.Network) error
}

// PoolConfig carries the generational parameters. BatchSize defaults to the
// population size (single batch) and Selection to Power{Exponent: 2}.
type PoolConfig struct {
	PopulationSize  int
	BatchSize       int
	Elitism         int
	CrossoverChance float64

	// Complexity penalty coefficients: score = fitness
	//   - hidden nodes * NodesGrowth
	//   - connections  * ConnsGrowth
	//   - gated conns  * GatesGrowth
	NodesGrowth float64
	ConnsGrowth float64
	GatesGrowth float64

	Selection Selection
}

func (c *PoolConfig) validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("population size must be > 0")
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must be >= 0")
	}
	if c.BatchSize == 0 {
		c.BatchSize = c.PopulationSize
	}
	if c.Elitism < 0 || c.Elitism > c.PopulationSize {
		return fmt.Errorf("elitism must be in [0, population size]")
	}
	if c.CrossoverChance < 0 || c.CrossoverChance > 1 {
		return fmt.Errorf("crossover chance must be in [0, 1]")
	}
	if c.CrossoverChance > 0 && c.PopulationSize < 2 {
		return fmt.Errorf("crossover requires a population of at least 2")
	}
	if c.Selection == nil {
		c.Selection = Power{Exponent: 2}
	}
	return nil
}

// Pool owns a fixed-size population and drives the evaluate -> breed
// generational cycle. Membership is mutated in place each generation:
// positions below the elitism cutoff keep the current best genomes
// untouched, everything else is replaced by freshly bred networks.
type Pool struct {
	cfg     *nn.Configuration
	members []*nn.Network

	generation int

	batchSize       int
	elitism         int
	crossoverChance float64
	nodesGrowth     float64
	connsGrowth     float64
	gatesGrowth     float64
	selection       Selection

	rng *rand.Rand
}

// NewPool seeds a fresh population of fully connected networks.
func NewPool(cfg *nn.Configuration, pc PoolConfig, rng *rand.Rand) (*Pool, error) {
	if err := pc.validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}

	members := make([]*nn.Network, pc.PopulationSize)
	for i := range members {
		network, err := nn.NewNetwork(cfg, rng)
		if err != nil {
			return nil, err
		}
		members[i] = network
	}

	return &Pool{
		cfg:             cfg,
		members:         members,
		batchSize:       pc.BatchSize,
		elitism:         pc.Elitism,
		crossoverChance: pc.CrossoverChance,
		nodesGrowth:     pc.NodesGrowth,
		connsGrowth:     pc.ConnsGrowth,
		gatesGrowth:     pc.GatesGrowth,
		selection:       pc.Selection,
		rng:             rng,
	}, nil
}

// Generation reports how many breeding cycles have completed.
func (p *Pool) Generation() int { return p.generation }

func (p *Pool) Size() int { return len(p.members) }

func (p *Pool) Member(i int) *nn.Network { return p.members[i] }

// Members returns the population in its current order.
func (p *Pool) Members() []*nn.Network {
	out := make([]*nn.Network, len(p.members))
	copy(out, p.members)
	return out
}

// Evolve runs one evaluate -> breed cycle. A nil selection falls back to
// the pool's default. An environment error aborts the cycle: batches that
// completed keep their scores, the rest do not, and the population must be
// fully re-evaluated before it is consistent again.
func (p *Pool) Evolve(ctx context.Context, env Environment, selection Selection) error {
	if env == nil {
		return fmt.Errorf("environment is required")
	}
	if selection == nil {
		selection = p.selection
	}

	if err := p.evaluate(ctx, env); err != nil {
		return fmt.Errorf("evaluate generation %d: %w", p.generation, err)
	}
	if err := p.breed(ctx, selection); err != nil {
		return fmt.Errorf("breed generation %d: %w", p.generation, err)
	}
	p.generation++
	return nil
}

// evaluate fans out one task per contiguous batch and blocks until every
// batch finished. Scores are applied per batch as it completes.
func (p *Pool) evaluate(ctx context.Context, env Environment) error {
	tasks := pool.New().WithErrors().WithContext(ctx)
	for start := 0; start < len(p.members); start += p.batchSize {
		end := start + p.batchSize
		if end > len(p.members) {
			end = len(p.members)
		}
		batch := p.members[start:end]
		tasks.Go(func(ctx context.Context) error {
			if err := env.Evaluate(ctx, batch); err != nil {
				return err
			}
			for _, member := range batch {
				member.Score = member.Fitness - p.penalty(member)
			}
			return nil
		})
	}
	return tasks.Wait()
}

func (p *Pool) penalty(n *nn.Network) float64 {
	return float64(n.HiddenCount())*p.nodesGrowth +
		float64(n.ConnectionCount())*p.connsGrowth +
		float64(n.GatedCount())*p.gatesGrowth
}

// breed sorts the population descending by score and replaces every
// position outside the elite prefix with a freshly bred network. Breeding
// tasks read only the sorted snapshot and write only new objects, so the
// batches need no locking; each task gets its own child generator so a
// seeded pool stays reproducible per batch.
func (p *Pool) breed(ctx context.Context, selection Selection) error {
	sort.SliceStable(p.members, func(i, j int) bool {
		return p.members[i].Score > p.members[j].Score
	})
	if resettable, ok := selection.(Resettable); ok {
		resettable.Reset()
	}

	ranked := p.members
	replacements := make([]*nn.Network, len(p.members))
	tasks := pool.New().WithErrors().WithContext(ctx)
	for start := 0; start < len(p.members); start += p.batchSize {
		end := start + p.batchSize
		if end > len(p.members) {
			end = len(p.members)
		}
		seed := p.rng.Int63()
		tasks.Go(func(ctx context.Context) error {
			rng := rand.New(rand.NewSource(seed))
			for idx := start; idx < end; idx++ {
				if idx < p.elitism {
					continue
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				child, err := p.breedOne(rng, selection, ranked)
				if err != nil {
					return err
				}
				replacements[idx] = child
			}
			return nil
		})
	}
	if err := tasks.Wait(); err != nil {
		return err
	}

	for i := p.elitism; i < len(p.members); i++ {
		p.members[i] = replacements[i]
	}
	return nil
}

// partnerRetries bounds the second-parent redraw so a selection that keeps
// returning the same genome (Tournament with certain accept, for one)
// cannot spin the crossover path forever.
const partnerRetries = 16

func (p *Pool) breedOne(rng *rand.Rand, selection Selection, ranked []*nn.Network) (*nn.Network, error) {
	if rng.Float64() < p.crossoverChance {
		first := selection.Select(rng, ranked)
		second := selection.Select(rng, ranked)
		for attempt := 0; second == first && attempt < partnerRetries; attempt++ {
			second = selection.Select(rng, ranked)
		}
		if second != first {
			return nn.Offspring(rng, first, second)
		}
	}
	parent := selection.Select(rng, ranked)
	child := parent.Clone()
	child.Mutate(rng)
	return child, nil
}
