package nn

import (
	"math"
	"math/rand"
	"testing"
)

// identityConfig keeps every activation pool at Identity so forward-pass
// arithmetic is predictable in tests.
func identityConfig(inputs, outputs int) *Configuration {
	cfg := DefaultConfiguration(inputs, outputs)
	cfg.InputActivations = []Activation{Identity()}
	cfg.HiddenActivations = []Activation{Identity()}
	cfg.OutputActivations = []Activation{Identity()}
	return cfg
}

func mustNetwork(t *testing.T, cfg *Configuration, seed int64) *Network {
	t.Helper()
	n, err := NewNetwork(cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	return n
}

func TestNewNetworkFullyConnects(t *testing.T) {
	cfg := DefaultConfiguration(3, 2)
	n := mustNetwork(t, cfg, 1)

	if n.NodeCount() != 5 {
		t.Fatalf("node count = %d, want 5", n.NodeCount())
	}
	if n.ConnectionCount() != 6 {
		t.Fatalf("connection count = %d, want 6", n.ConnectionCount())
	}
	for i := 0; i < 3; i++ {
		for o := 3; o < 5; o++ {
			if !n.connected(i, o) {
				t.Fatalf("missing connection %d -> %d", i, o)
			}
		}
	}
	for _, c := range n.Connections() {
		if c.Weight < -1 || c.Weight >= 1 {
			t.Fatalf("initial weight out of range: %g", c.Weight)
		}
		if c.Gated() {
			t.Fatalf("initial connection unexpectedly gated: %+v", c)
		}
	}
}

func TestNewNetworkRolePartition(t *testing.T) {
	cfg := DefaultConfiguration(2, 2)
	n := mustNetwork(t, cfg, 3)
	assertRolePartition(t, n)
}

func assertRolePartition(t *testing.T, n *Network) {
	t.Helper()
	cfg := n.Config()
	for i := 0; i < n.NodeCount(); i++ {
		want := RoleHidden
		if i < cfg.Inputs {
			want = RoleInput
		} else if i >= n.NodeCount()-cfg.Outputs {
			want = RoleOutput
		}
		if got := n.Node(i).Role; got != want {
			t.Fatalf("node %d role = %s, want %s", i, got, want)
		}
	}
	for _, c := range n.Connections() {
		if c.From == c.To {
			t.Fatalf("self edge in connection set: %+v", c)
		}
		if c.From < 0 || c.From >= n.NodeCount() || c.To < 0 || c.To >= n.NodeCount() {
			t.Fatalf("connection endpoint out of range: %+v", c)
		}
		if c.Gater != NoGater && (c.Gater < 0 || c.Gater >= n.NodeCount()) {
			t.Fatalf("gater out of range: %+v", c)
		}
	}
}

func TestNewNetworkRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfiguration(0, 1)
	if _, err := NewNetwork(cfg, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error for zero inputs")
	}
	if _, err := NewNetwork(DefaultConfiguration(1, 1), nil); err == nil {
		t.Fatal("expected error for nil rng")
	}
}

func TestInvokeRejectsWrongInputLength(t *testing.T) {
	n := mustNetwork(t, identityConfig(2, 1), 1)
	if _, err := n.Invoke([]float64{1}); err == nil {
		t.Fatal("expected input length error")
	}
	if _, err := n.Invoke([]float64{1, 2, 3}); err == nil {
		t.Fatal("expected input length error")
	}
}

func TestInvokeForwardArithmetic(t *testing.T) {
	n := mustNetwork(t, identityConfig(1, 1), 1)
	n.conns[0].Weight = 0.5
	n.nodes[1].Bias = 0.25

	out, err := n.Invoke([]float64{2})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if want := 0.25 + 0.5*2; math.Abs(out[0]-want) > 1e-12 {
		t.Fatalf("output = %g, want %g", out[0], want)
	}
}

func TestInvokeRecurrentUsesPreviousValue(t *testing.T) {
	// input(0) -> hidden(1) -> output(2), plus output -> hidden recurrence.
	n := mustNetwork(t, identityConfig(1, 1), 1)
	n.removeConnection(n.conns[0])
	n.insertNode(1, &Node{Role: RoleHidden, Activation: Identity()})
	n.addConnection(0, 1, 1)
	n.addConnection(1, 2, 1)
	recurrent := n.addConnection(2, 1, 1)
	if recurrent.Type != ConnRecurrent {
		t.Fatalf("expected recurrent type, got %v", recurrent.Type)
	}

	want := []float64{1, 2, 3}
	for pass, expected := range want {
		out, err := n.Invoke([]float64{1})
		if err != nil {
			t.Fatalf("invoke pass %d: %v", pass, err)
		}
		if math.Abs(out[0]-expected) > 1e-12 {
			t.Fatalf("pass %d output = %g, want %g", pass, out[0], expected)
		}
	}

	n.Reset()
	out, err := n.Invoke([]float64{1})
	if err != nil {
		t.Fatalf("invoke after reset: %v", err)
	}
	if math.Abs(out[0]-1) > 1e-12 {
		t.Fatalf("output after reset = %g, want 1", out[0])
	}
}

func TestInvokeSelfConnectionCarriesState(t *testing.T) {
	n := mustNetwork(t, identityConfig(1, 1), 1)
	n.conns[0].Weight = 1
	n.addConnection(1, 1, 1)

	first, err := n.Invoke([]float64{1})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if math.Abs(first[0]-1) > 1e-12 {
		t.Fatalf("first pass = %g, want 1", first[0])
	}

	second, err := n.Invoke([]float64{1})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if math.Abs(second[0]-2) > 1e-12 {
		t.Fatalf("second pass = %g, want 2", second[0])
	}
}

func TestInvokeGatingScalesWeight(t *testing.T) {
	n := mustNetwork(t, identityConfig(2, 1), 1)
	// Keep only 0 -> 2, gated by input node 1.
	for _, c := range n.Connections() {
		n.removeConnection(c)
	}
	gated := n.addConnection(0, 2, 1)
	gated.Gater = 1

	out, err := n.Invoke([]float64{0.5, 0.25})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if want := 0.5 * 0.25; math.Abs(out[0]-want) > 1e-12 {
		t.Fatalf("gated output = %g, want %g", out[0], want)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	n := mustNetwork(t, identityConfig(1, 1), 1)
	n.conns[0].Weight = 1
	n.addConnection(1, 1, 1)

	if _, err := n.Invoke([]float64{1}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	n.Reset()
	n.Reset()
	out, err := n.Invoke([]float64{1})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if math.Abs(out[0]-1) > 1e-12 {
		t.Fatalf("output after double reset = %g, want 1", out[0])
	}
}

func TestCloneIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := mustNetwork(t, DefaultConfiguration(2, 2), 5)
	n.AddNode(rng)
	n.AddSelfConnection(rng)
	n.AddGate(rng)
	n.Fitness = 3.5
	n.Score = 3.25

	clone := n.Clone()
	if clone.Config() != n.Config() {
		t.Fatal("clone must share the configuration pointer")
	}
	if clone.NodeCount() != n.NodeCount() || clone.ConnectionCount() != n.ConnectionCount() {
		t.Fatalf("clone shape mismatch: %d/%d vs %d/%d",
			clone.NodeCount(), clone.ConnectionCount(), n.NodeCount(), n.ConnectionCount())
	}
	if clone.SelfConnectionCount() != n.SelfConnectionCount() {
		t.Fatalf("self count mismatch: %d vs %d", clone.SelfConnectionCount(), n.SelfConnectionCount())
	}
	if clone.GatedCount() != n.GatedCount() {
		t.Fatalf("gated count mismatch: %d vs %d", clone.GatedCount(), n.GatedCount())
	}
	if clone.Fitness != n.Fitness || clone.Score != n.Score {
		t.Fatal("clone must copy fitness and score")
	}

	// Mutating the clone must not touch the original.
	before := n.ConnectionCount()
	for i := 0; i < 20; i++ {
		clone.Mutate(rng)
	}
	if n.ConnectionCount() != before {
		t.Fatal("mutating the clone changed the original")
	}
	assertRolePartition(t, clone)
}
