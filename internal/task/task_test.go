package task

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"gnarl/internal/nn"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"xor", "XOR", " sine "} {
		found, err := Lookup(name)
		if err != nil {
			t.Fatalf("lookup %q: %v", name, err)
		}
		if found == nil {
			t.Fatalf("lookup %q returned nil task", name)
		}
	}

	_, err := Lookup("parity")
	if !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
}

func TestNamesAreSorted(t *testing.T) {
	names := Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
	for _, name := range names {
		if _, err := Lookup(name); err != nil {
			t.Fatalf("listed task %q does not resolve: %v", name, err)
		}
	}
}

func TestXOREvaluateAssignsPositiveFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	env := XOR{}
	cfg := env.Configuration()
	if cfg.Inputs != 2 || cfg.Outputs != 1 {
		t.Fatalf("unexpected xor shape: %d/%d", cfg.Inputs, cfg.Outputs)
	}

	batch := make([]*nn.Network, 5)
	for i := range batch {
		network, err := nn.NewNetwork(cfg, rng)
		if err != nil {
			t.Fatalf("new network: %v", err)
		}
		batch[i] = network
	}
	if err := env.Evaluate(context.Background(), batch); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for i, member := range batch {
		if member.Fitness <= 0 {
			t.Fatalf("member %d fitness = %f, want > 0", i, member.Fitness)
		}
	}
}

func TestXOREvaluateIsRepeatable(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	env := XOR{}
	network, err := nn.NewNetwork(env.Configuration(), rng)
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	network.AddSelfConnection(rng)

	batch := []*nn.Network{network}
	if err := env.Evaluate(context.Background(), batch); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	first := network.Fitness
	if err := env.Evaluate(context.Background(), batch); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if network.Fitness != first {
		t.Fatalf("fitness drifted across evaluations: %f vs %f", network.Fitness, first)
	}
}

func TestSineEvaluateAssignsPositiveFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	env := Sine{}
	cfg := env.Configuration()
	if cfg.Inputs != 1 || cfg.Outputs != 1 {
		t.Fatalf("unexpected sine shape: %d/%d", cfg.Inputs, cfg.Outputs)
	}

	network, err := nn.NewNetwork(cfg, rng)
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	if err := env.Evaluate(context.Background(), []*nn.Network{network}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if network.Fitness <= 0 {
		t.Fatalf("fitness = %f, want > 0", network.Fitness)
	}
}

func TestEvaluateHonorsCancellation(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	env := XOR{}
	network, err := nn.NewNetwork(env.Configuration(), rng)
	if err != nil {
		t.Fatalf("new network: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := env.Evaluate(ctx, []*nn.Network{network}); err == nil {
		t.Fatal("expected cancellation error")
	}
}
