package nn

import (
	"math/rand"
	"testing"
)

func TestAddNodeSplitsConnection(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := mustNetwork(t, identityConfig(1, 1), 1)

	n.AddNode(rng)
	if n.NodeCount() != 3 {
		t.Fatalf("node count = %d, want 3", n.NodeCount())
	}
	if n.HiddenCount() != 1 {
		t.Fatalf("hidden count = %d, want 1", n.HiddenCount())
	}
	if n.ConnectionCount() != 2 {
		t.Fatalf("connection count = %d, want 2", n.ConnectionCount())
	}
	if !n.connected(0, 1) || !n.connected(1, 2) {
		t.Fatal("expected input -> hidden -> output chain")
	}
	if n.connected(0, 2) {
		t.Fatal("split connection must be removed")
	}
	assertRolePartition(t, n)
}

func TestAddNodeMovesGater(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	n := mustNetwork(t, identityConfig(1, 1), 2)
	n.conns[0].Gater = 0

	n.AddNode(rng)
	if got := n.GatedCount(); got != 1 {
		t.Fatalf("gated count after split = %d, want 1", got)
	}
	assertRolePartition(t, n)
}

func TestAddNodeNoConnectionsIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := mustNetwork(t, identityConfig(1, 1), 3)
	n.removeConnection(n.conns[0])

	n.AddNode(rng)
	if n.NodeCount() != 2 {
		t.Fatalf("node count = %d, want 2", n.NodeCount())
	}
}

func TestAddForwardConnection(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	n := mustNetwork(t, identityConfig(1, 1), 4)

	// Fully connected: no candidates.
	n.AddForwardConnection(rng)
	if n.ConnectionCount() != 1 {
		t.Fatalf("connection count = %d, want 1", n.ConnectionCount())
	}

	// A split chain leaves input -> output open again.
	n.AddNode(rng)
	n.AddForwardConnection(rng)
	if n.ConnectionCount() != 3 {
		t.Fatalf("connection count = %d, want 3", n.ConnectionCount())
	}
	if !n.connected(0, 2) {
		t.Fatal("expected new forward edge input -> output")
	}
}

func TestAddSelfConnection(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := mustNetwork(t, identityConfig(1, 1), 5)

	n.AddSelfConnection(rng)
	if n.SelfConnectionCount() != 1 {
		t.Fatalf("self count = %d, want 1", n.SelfConnectionCount())
	}
	if n.Node(0).Self != nil {
		t.Fatal("input node must never carry a self-connection")
	}
	if n.ConnectionCount() != 1 {
		t.Fatal("self edge must not join the connection set")
	}

	// The only candidate is taken, so a second call is a no-op.
	n.AddSelfConnection(rng)
	if n.SelfConnectionCount() != 1 {
		t.Fatalf("self count = %d, want 1 after no-op", n.SelfConnectionCount())
	}
}

func TestAddRecurrentConnection(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	n := mustNetwork(t, identityConfig(1, 1), 6)

	n.AddRecurrentConnection(rng)
	if n.ConnectionCount() != 2 {
		t.Fatalf("connection count = %d, want 2", n.ConnectionCount())
	}
	if !n.connected(1, 0) {
		t.Fatal("expected recurrent edge output -> input")
	}
	for _, c := range n.Connections() {
		if c.From == 1 && c.To == 0 && c.Type != ConnRecurrent {
			t.Fatalf("expected recurrent type, got %v", c.Type)
		}
	}

	n.AddRecurrentConnection(rng)
	if n.ConnectionCount() != 2 {
		t.Fatal("expected no-op when every backward pair is connected")
	}
}

func TestAddGateAndRemoveGate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := mustNetwork(t, identityConfig(1, 1), 7)

	n.AddGate(rng)
	if n.GatedCount() != 1 {
		t.Fatalf("gated count = %d, want 1", n.GatedCount())
	}
	n.RemoveGate(rng)
	if n.GatedCount() != 0 {
		t.Fatalf("gated count = %d, want 0", n.GatedCount())
	}
	// No gated connections left: no-op.
	n.RemoveGate(rng)
	if n.GatedCount() != 0 {
		t.Fatal("remove gate on ungated network must be a no-op")
	}
}

func TestMutateWeightChangesOneWeight(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	n := mustNetwork(t, identityConfig(2, 2), 8)

	before := make([]float64, 0, n.ConnectionCount())
	for _, c := range n.Connections() {
		before = append(before, c.Weight)
	}
	n.MutateWeight(rng)
	changed := 0
	for i, c := range n.Connections() {
		if c.Weight != before[i] {
			changed++
		}
	}
	if changed != 1 {
		t.Fatalf("changed %d weights, want 1", changed)
	}
}

func TestMutateBiasSkipsInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	n := mustNetwork(t, identityConfig(2, 1), 9)

	for i := 0; i < 100; i++ {
		n.MutateBias(rng)
	}
	if n.Node(0).Bias != 0 || n.Node(1).Bias != 0 {
		t.Fatal("input node bias must never change")
	}
	if n.Node(2).Bias == 0 {
		t.Fatal("output bias should have moved after 100 mutations")
	}
}

func TestMutateActivationStaysInRolePool(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	cfg := DefaultConfiguration(2, 1)
	n := mustNetwork(t, cfg, 10)
	n.AddNode(rng)

	poolNames := func(pool []Activation) map[string]struct{} {
		names := make(map[string]struct{}, len(pool))
		for _, act := range pool {
			names[act.Name()] = struct{}{}
		}
		return names
	}
	pools := map[Role]map[string]struct{}{
		RoleInput:  poolNames(cfg.InputActivations),
		RoleHidden: poolNames(cfg.HiddenActivations),
		RoleOutput: poolNames(cfg.OutputActivations),
	}

	for i := 0; i < 200; i++ {
		n.MutateActivation(rng)
	}
	for i := 0; i < n.NodeCount(); i++ {
		node := n.Node(i)
		if _, ok := pools[node.Role][node.Activation.Name()]; !ok {
			t.Fatalf("node %d (%s) has activation %s outside its role pool",
				i, node.Role, node.Activation.Name())
		}
	}
}

func TestRemoveNodeReconnects(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := mustNetwork(t, identityConfig(1, 1), 11)
	n.AddNode(rng)

	n.RemoveNode(rng)
	if n.NodeCount() != 2 {
		t.Fatalf("node count = %d, want 2", n.NodeCount())
	}
	if !n.connected(0, 1) {
		t.Fatal("surviving source and target must be reconnected")
	}
	assertRolePartition(t, n)
}

func TestRemoveNodeWithoutHiddenIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	n := mustNetwork(t, identityConfig(2, 2), 12)

	n.RemoveNode(rng)
	if n.NodeCount() != 4 {
		t.Fatalf("node count = %d, want 4", n.NodeCount())
	}
}

func TestRemoveNodeClearsItsGating(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	n := mustNetwork(t, identityConfig(2, 1), 13)
	n.AddNode(rng)

	// Every connection gated by the hidden node must lose its gater.
	hidden := n.cfg.Inputs
	for _, c := range n.Connections() {
		c.Gater = hidden
	}
	n.RemoveNode(rng)
	if n.GatedCount() != 0 {
		t.Fatalf("gated count = %d, want 0 after the gater vanished", n.GatedCount())
	}
	assertRolePartition(t, n)
}

func TestRemoveConnectionProtectsSoleForwardEdge(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	n := mustNetwork(t, identityConfig(1, 1), 14)

	n.RemoveConnection(rng)
	if n.ConnectionCount() != 1 {
		t.Fatal("sole forward edge must never be removed")
	}

	// Fully connected 2x2 leaves every edge with redundant fan-in and
	// fan-out, so one becomes removable.
	wide := mustNetwork(t, identityConfig(2, 2), 14)
	wide.RemoveConnection(rng)
	if wide.ConnectionCount() != 3 {
		t.Fatalf("connection count = %d, want 3", wide.ConnectionCount())
	}
}

func TestRemoveConnectionAlwaysAllowsRecurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(15))
	n := mustNetwork(t, identityConfig(1, 1), 15)
	n.AddRecurrentConnection(rng)

	n.RemoveConnection(rng)
	if n.ConnectionCount() != 1 {
		t.Fatalf("connection count = %d, want 1", n.ConnectionCount())
	}
	if n.connected(1, 0) {
		t.Fatal("the recurrent edge should have been removed")
	}
}

func TestRemoveConnectionAllowsSelfConnection(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	n := mustNetwork(t, identityConfig(1, 1), 19)
	n.AddSelfConnection(rng)

	for i := 0; i < 1000 && n.SelfConnectionCount() > 0; i++ {
		n.RemoveConnection(rng)
	}
	if n.SelfConnectionCount() != 0 {
		t.Fatal("self-connection was never removed")
	}
	// The sole forward edge stays protected throughout.
	if n.ConnectionCount() != 1 {
		t.Fatalf("connection count = %d, want 1", n.ConnectionCount())
	}
}

func TestAddNodeSkipsSelfConnections(t *testing.T) {
	rng := rand.New(rand.NewSource(20))
	n := mustNetwork(t, identityConfig(1, 1), 20)
	n.AddSelfConnection(rng)
	n.removeConnection(n.conns[0])

	n.AddNode(rng)
	if n.NodeCount() != 2 {
		t.Fatalf("node count = %d, want 2", n.NodeCount())
	}
	if n.SelfConnectionCount() != 1 {
		t.Fatal("self-connection must survive when it is the only edge")
	}
}

func TestRateCount(t *testing.T) {
	rng := rand.New(rand.NewSource(16))
	if got := rateCount(rng, 0); got != 0 {
		t.Fatalf("rateCount(0) = %d, want 0", got)
	}
	if got := rateCount(rng, 1); got != 1 {
		t.Fatalf("rateCount(1) = %d, want 1", got)
	}
	if got := rateCount(rng, 3); got != 3 {
		t.Fatalf("rateCount(3) = %d, want 3", got)
	}

	total := 0
	for i := 0; i < 10000; i++ {
		count := rateCount(rng, 2.5)
		if count != 2 && count != 3 {
			t.Fatalf("rateCount(2.5) = %d, want 2 or 3", count)
		}
		total += count
	}
	mean := float64(total) / 10000
	if mean < 2.4 || mean > 2.6 {
		t.Fatalf("rateCount(2.5) mean = %f, want about 2.5", mean)
	}
}

func TestEachOperatorPreservesPartition(t *testing.T) {
	operators := []struct {
		name string
		op   func(*Network, *rand.Rand)
	}{
		{"AddNode", (*Network).AddNode},
		{"AddForwardConnection", (*Network).AddForwardConnection},
		{"AddSelfConnection", (*Network).AddSelfConnection},
		{"AddRecurrentConnection", (*Network).AddRecurrentConnection},
		{"AddGate", (*Network).AddGate},
		{"MutateWeight", (*Network).MutateWeight},
		{"MutateBias", (*Network).MutateBias},
		{"MutateActivation", (*Network).MutateActivation},
		{"RemoveNode", (*Network).RemoveNode},
		{"RemoveConnection", (*Network).RemoveConnection},
		{"RemoveGate", (*Network).RemoveGate},
	}
	for _, tt := range operators {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(18))
			n := mustNetwork(t, DefaultConfiguration(2, 1), 18)
			for i := 0; i < 1000; i++ {
				tt.op(n, rng)
			}
			assertRolePartition(t, n)
		})
	}
}

func TestMutatePreservesInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	cfg := DefaultConfiguration(3, 2)
	// Crank the structural rates so the fuzz actually exercises growth,
	// gating and shrinkage.
	cfg.AddNodeRate = 0.5
	cfg.AddForwardConnectionRate = 0.5
	cfg.AddSelfConnectionRate = 0.3
	cfg.AddRecurrentConnectionRate = 0.3
	cfg.AddGateRate = 0.4
	cfg.RemoveNodeRate = 0.3
	cfg.RemoveConnectionRate = 0.4
	cfg.RemoveGateRate = 0.2

	n := mustNetwork(t, cfg, 17)
	for i := 0; i < 1000; i++ {
		n.Mutate(rng)
	}
	assertRolePartition(t, n)
	if n.NodeCount() < cfg.Inputs+cfg.Outputs {
		t.Fatalf("node count %d fell below the fixed boundary nodes", n.NodeCount())
	}
	for i := 0; i < cfg.Inputs; i++ {
		if n.Node(i).Self != nil {
			t.Fatalf("input node %d carries a self-connection", i)
		}
	}
}
