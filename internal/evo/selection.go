package evo

import (
	"math"
	"math/rand"
	"reflect"
	"sort"
	"sync"

	"gnarl/internal/nn"
)

// Selection picks one genome from a candidate collection that the caller
// has already sorted descending by score.
type Selection interface {
	Name() string
	Select(rng *rand.Rand, ranked []*nn.Network) *nn.Network
}

// Resettable is implemented by selections that cache per-collection state.
// The pool resets the cache at the start of every breed phase; callers that
// mutate scores in place on a previously seen collection must do the same.
type Resettable interface {
	Reset()
}

// Power biases the draw toward the front of the ranking: the pick lands at
// floor(u^Exponent * n) for u uniform in [0, 1), so exponents above one
// favor the best candidates.
type Power struct {
	Exponent float64
}

func (Power) Name() string {
	return "power"
}

func (s Power) Select(rng *rand.Rand, ranked []*nn.Network) *nn.Network {
	if len(ranked) == 0 {
		return nil
	}
	return ranked[powerIndex(rng.Float64(), s.Exponent, len(ranked))]
}

func powerIndex(u, exponent float64, n int) int {
	idx := int(math.Pow(u, exponent) * float64(n))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Tournament draws Size candidates with replacement (the full collection
// when Size is zero), deduplicates, sorts them descending and scans from
// the front accepting each with Probability. When nothing is accepted the
// worst of the drawn set is returned.
type Tournament struct {
	Size        int
	Probability float64
}

func (Tournament) Name() string {
	return "tournament"
}

func (s Tournament) Select(rng *rand.Rand, ranked []*nn.Network) *nn.Network {
	if len(ranked) == 0 {
		return nil
	}

	var drawn []*nn.Network
	if s.Size <= 0 {
		drawn = append(drawn, ranked...)
	} else {
		for i := 0; i < s.Size; i++ {
			drawn = append(drawn, ranked[rng.Intn(len(ranked))])
		}
	}

	seen := make(map[*nn.Network]struct{}, len(drawn))
	unique := drawn[:0]
	for _, candidate := range drawn {
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		unique = append(unique, candidate)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Score > unique[j].Score
	})

	for _, candidate := range unique {
		if rng.Float64() < s.Probability {
			return candidate
		}
	}
	return unique[len(unique)-1]
}

type rouletteEntry struct {
	total  float64
	shift  float64
	length int
}

// rouletteEpsilon keeps the worst candidate's weight just above zero after
// shifting, so degenerate collections (all-equal or all-negative scores)
// still spin a usable wheel.
const rouletteEpsilon = 1e-9

// FitnessProportionate is a roulette-wheel draw over scores shifted by the
// most negative observed value plus a small epsilon, so every candidate
// gets positive weight. The shifted total is cached per
// candidate-collection identity (the slice's backing array) until Reset is
// called.
type FitnessProportionate struct {
	mu    sync.Mutex
	cache map[uintptr]rouletteEntry
}

func (*FitnessProportionate) Name() string {
	return "fitness-proportionate"
}

func (s *FitnessProportionate) Reset() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

func (s *FitnessProportionate) Select(rng *rand.Rand, ranked []*nn.Network) *nn.Network {
	if len(ranked) == 0 {
		return nil
	}

	entry := s.entryFor(ranked)
	draw := rng.Float64() * entry.total
	for _, candidate := range ranked {
		weight := candidate.Score + entry.shift
		if draw < weight {
			return candidate
		}
		draw -= weight
	}
	return ranked[len(ranked)-1]
}

func (s *FitnessProportionate) entryFor(ranked []*nn.Network) rouletteEntry {
	key := reflect.ValueOf(ranked).Pointer()

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.cache[key]; ok && entry.length == len(ranked) {
		return entry
	}

	minScore := 0.0
	total := 0.0
	for _, candidate := range ranked {
		if candidate.Score < minScore {
			minScore = candidate.Score
		}
		total += candidate.Score
	}
	shift := rouletteEpsilon - minScore
	entry := rouletteEntry{
		total:  total + shift*float64(len(ranked)),
		shift:  shift,
		length: len(ranked),
	}
	if s.cache == nil {
		s.cache = make(map[uintptr]rouletteEntry)
	}
	s.cache[key] = entry
	return entry
}
