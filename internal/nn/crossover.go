package nn

import (
	"errors"
	"math/rand"
	"sort"
)

// ErrConfigMismatch reports a crossover attempt between parents built from
// different Configurations. No child is produced.
var ErrConfigMismatch = errors.New("parents share no common configuration")

type connGene struct {
	weight float64
	gater  int
}

// Crossover builds a child genome from two parents sharing the same
// Configuration (pointer identity). The child's node count equals the
// fitter parent's; on a fitness tie it is drawn uniformly between the two
// parents' counts, inclusive. Non-output positions copy the node found at
// that position in a random parent when both have one (outside their own
// output tails), otherwise from the only parent that does; output positions
// are taken aligned to each parent's output tail. Connection genes are
// unioned by endpoint positions: genes in both parents pick one parent's
// weight and gating at random, single-parent genes are inherited only when
// that parent's fitness is at least the other's, and genes whose endpoints
// fall outside the child are silently dropped.
func Crossover(rng *rand.Rand, a, b *Network) (*Network, error) {
	if a.cfg != b.cfg {
		return nil, ErrConfigMismatch
	}
	cfg := a.cfg

	size := 0
	switch {
	case a.Fitness > b.Fitness:
		size = len(a.nodes)
	case b.Fitness > a.Fitness:
		size = len(b.nodes)
	default:
		lo, hi := len(a.nodes), len(b.nodes)
		if lo > hi {
			lo, hi = hi, lo
		}
		size = lo + rng.Intn(hi-lo+1)
	}

	child := &Network{cfg: cfg}
	firstOutput := size - cfg.Outputs
	for i := 0; i < size; i++ {
		var src *Node
		role := RoleHidden
		if i < cfg.Inputs {
			role = RoleInput
		}
		if i < firstOutput {
			aHas := i < len(a.nodes)-cfg.Outputs
			bHas := i < len(b.nodes)-cfg.Outputs
			switch {
			case aHas && bHas:
				if rng.Intn(2) == 0 {
					src = a.nodes[i]
				} else {
					src = b.nodes[i]
				}
			case aHas:
				src = a.nodes[i]
			default:
				src = b.nodes[i]
			}
		} else {
			role = RoleOutput
			k := i - firstOutput
			if rng.Intn(2) == 0 {
				src = a.nodes[len(a.nodes)-cfg.Outputs+k]
			} else {
				src = b.nodes[len(b.nodes)-cfg.Outputs+k]
			}
		}
		child.nodes = append(child.nodes, &Node{
			Role:       role,
			Bias:       src.Bias,
			Activation: src.Activation,
		})
	}

	aGenes := connGenes(a)
	bGenes := connGenes(b)
	seen := make(map[nodePair]struct{}, len(aGenes)+len(bGenes))
	pairs := make([]nodePair, 0, len(aGenes)+len(bGenes))
	for pair := range aGenes {
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}
	for pair := range bGenes {
		if _, ok := seen[pair]; !ok {
			pairs = append(pairs, pair)
		}
	}
	// Sorted iteration keeps rng consumption stable for a given seed.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].from != pairs[j].from {
			return pairs[i].from < pairs[j].from
		}
		return pairs[i].to < pairs[j].to
	})
	for _, pair := range pairs {
		aGene, inA := aGenes[pair]
		bGene, inB := bGenes[pair]
		var gene connGene
		switch {
		case inA && inB:
			if rng.Intn(2) == 0 {
				gene = aGene
			} else {
				gene = bGene
			}
		case inA:
			if a.Fitness < b.Fitness {
				continue
			}
			gene = aGene
		default:
			if b.Fitness < a.Fitness {
				continue
			}
			gene = bGene
		}
		if pair.from >= size || pair.to >= size {
			continue
		}
		c := child.addConnection(pair.from, pair.to, gene.weight)
		if gene.gater != NoGater && gene.gater < size {
			c.Gater = gene.gater
		}
	}

	return child, nil
}

func connGenes(n *Network) map[nodePair]connGene {
	genes := make(map[nodePair]connGene, len(n.conns)+len(n.nodes))
	for _, c := range n.allConnections() {
		genes[nodePair{from: c.From, to: c.To}] = connGene{weight: c.Weight, gater: c.Gater}
	}
	return genes
}

// Offspring is the conventional breeding operation: crossover followed by
// one bulk mutation pass.
func Offspring(rng *rand.Rand, a, b *Network) (*Network, error) {
	child, err := Crossover(rng, a, b)
	if err != nil {
		return nil, err
	}
	child.Mutate(rng)
	return child, nil
}
