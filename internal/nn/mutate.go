package nn

import "math/rand"

// Every operator picks uniformly among its eligible candidates and is a
// silent no-op when none exist; that is steady state, not an error.

// AddNode splits a random connection: the edge is removed, a fresh hidden
// node is inserted at the old target's position (clamped into the hidden
// range so the role partition always holds), and source->new plus
// new->old-target edges are created with random weights. A gater on the
// removed edge moves onto one of the two new edges at random.
// Self-connections are not split candidates: splitting one would turn a
// node's memory edge into a two-node cycle.
func (n *Network) AddNode(rng *rand.Rand) {
	if len(n.conns) == 0 {
		return
	}
	old := n.conns[rng.Intn(len(n.conns))]
	from, to, gater := old.From, old.To, old.Gater
	n.removeConnection(old)

	pos := to
	if pos < n.cfg.Inputs {
		pos = n.cfg.Inputs
	}
	if max := len(n.nodes) - n.cfg.Outputs; pos > max {
		pos = max
	}
	node := &Node{
		Role:       RoleHidden,
		Activation: n.cfg.HiddenActivations[rng.Intn(len(n.cfg.HiddenActivations))],
	}
	n.insertNode(pos, node)
	if from >= pos {
		from++
	}
	if to >= pos {
		to++
	}
	if gater != NoGater && gater >= pos {
		gater++
	}

	inbound := n.addConnection(from, pos, randomWeight(rng))
	outbound := n.addConnection(pos, to, randomWeight(rng))
	if gater != NoGater {
		if rng.Intn(2) == 0 {
			inbound.Gater = gater
		} else {
			outbound.Gater = gater
		}
	}
}

type nodePair struct {
	from int
	to   int
}

// AddForwardConnection adds a random-weight edge between an unconnected
// pair whose target sits after its source.
func (n *Network) AddForwardConnection(rng *rand.Rand) {
	var candidates []nodePair
	for from := 0; from < len(n.nodes); from++ {
		for to := from + 1; to < len(n.nodes); to++ {
			if !n.connected(from, to) {
				candidates = append(candidates, nodePair{from: from, to: to})
			}
		}
	}
	if len(candidates) == 0 {
		return
	}
	pair := candidates[rng.Intn(len(candidates))]
	n.addConnection(pair.from, pair.to, randomWeight(rng))
}

// AddSelfConnection installs a random-weight self edge on a non-input node
// that has none.
func (n *Network) AddSelfConnection(rng *rand.Rand) {
	var candidates []int
	for i := n.cfg.Inputs; i < len(n.nodes); i++ {
		if n.nodes[i].Self == nil {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return
	}
	pos := candidates[rng.Intn(len(candidates))]
	n.addConnection(pos, pos, randomWeight(rng))
}

// AddRecurrentConnection adds a random-weight edge from a non-input node to
// an earlier unconnected node.
func (n *Network) AddRecurrentConnection(rng *rand.Rand) {
	var candidates []nodePair
	for from := n.cfg.Inputs; from < len(n.nodes); from++ {
		for to := 0; to < from; to++ {
			if !n.connected(from, to) {
				candidates = append(candidates, nodePair{from: from, to: to})
			}
		}
	}
	if len(candidates) == 0 {
		return
	}
	pair := candidates[rng.Intn(len(candidates))]
	n.addConnection(pair.from, pair.to, randomWeight(rng))
}

// AddGate assigns a uniformly random node as gater of a random connection.
func (n *Network) AddGate(rng *rand.Rand) {
	candidates := n.allConnections()
	if len(candidates) == 0 {
		return
	}
	candidates[rng.Intn(len(candidates))].Gater = rng.Intn(len(n.nodes))
}

// MutateWeight jitters a random connection weight by a uniform delta in
// [-1, 1).
func (n *Network) MutateWeight(rng *rand.Rand) {
	candidates := n.allConnections()
	if len(candidates) == 0 {
		return
	}
	candidates[rng.Intn(len(candidates))].Weight += randomWeight(rng)
}

// MutateBias jitters a random non-input node bias by a uniform delta in
// [-1, 1).
func (n *Network) MutateBias(rng *rand.Rand) {
	if len(n.nodes) <= n.cfg.Inputs {
		return
	}
	idx := n.cfg.Inputs + rng.Intn(len(n.nodes)-n.cfg.Inputs)
	n.nodes[idx].Bias += randomWeight(rng)
}

// MutateActivation replaces a random node's activation with a pick from its
// role's candidate pool.
func (n *Network) MutateActivation(rng *rand.Rand) {
	idx := rng.Intn(len(n.nodes))
	pool := n.activationPool(n.nodes[idx].Role)
	if len(pool) == 0 {
		return
	}
	n.nodes[idx].Activation = pool[rng.Intn(len(pool))]
}

func (n *Network) activationPool(role Role) []Activation {
	switch role {
	case RoleInput:
		return n.cfg.InputActivations
	case RoleOutput:
		return n.cfg.OutputActivations
	default:
		return n.cfg.HiddenActivations
	}
}

// RemoveNode drops a random hidden node, reconnects every surviving
// (incoming-source, outgoing-target) pair that is not already connected
// with fresh random-weight edges, and redistributes the gaters of the
// removed incident edges onto the new edges, one per edge; extras are
// dropped.
func (n *Network) RemoveNode(rng *rand.Rand) {
	hidden := n.HiddenCount()
	if hidden <= 0 {
		return
	}
	pos := n.cfg.Inputs + rng.Intn(hidden)
	node := n.nodes[pos]

	var sources, targets []int
	var gaters []int
	for _, c := range append(append([]*Connection{}, node.In...), node.Out...) {
		if c.From != pos {
			sources = append(sources, c.From)
		}
		if c.To != pos {
			targets = append(targets, c.To)
		}
		if c.Gated() && c.Gater != pos {
			gaters = append(gaters, c.Gater)
		}
		n.removeConnection(c)
	}
	if node.Self != nil {
		n.removeConnection(node.Self)
	}
	// Connections gated by the vanishing node lose their gater.
	for _, c := range n.allConnections() {
		if c.Gater == pos {
			c.Gater = NoGater
		}
	}

	n.removeNodeAt(pos)
	shift := func(idx int) int {
		if idx > pos {
			return idx - 1
		}
		return idx
	}

	var created []*Connection
	for _, src := range sources {
		for _, tgt := range targets {
			from, to := shift(src), shift(tgt)
			if n.connected(from, to) {
				continue
			}
			created = append(created, n.addConnection(from, to, randomWeight(rng)))
		}
	}
	for i, gater := range gaters {
		if i >= len(created) {
			break
		}
		created[i].Gater = shift(gater)
	}
}

// RemoveConnection drops a random eligible connection. A forward edge is
// protected while it is the sole forward inbound edge of its target or the
// sole forward outgoing edge of its source; self and recurrent edges are
// always eligible.
func (n *Network) RemoveConnection(rng *rand.Rand) {
	var candidates []*Connection
	for _, c := range n.allConnections() {
		if c.Type == ConnSelf || c.Type == ConnRecurrent {
			candidates = append(candidates, c)
			continue
		}
		if n.forwardInbound(c.To) > 1 && n.forwardOutgoing(c.From) > 1 {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return
	}
	n.removeConnection(candidates[rng.Intn(len(candidates))])
}

func (n *Network) forwardInbound(to int) int {
	count := 0
	for _, c := range n.nodes[to].In {
		if c.Type == ConnForward {
			count++
		}
	}
	return count
}

func (n *Network) forwardOutgoing(from int) int {
	count := 0
	for _, c := range n.nodes[from].Out {
		if c.Type == ConnForward {
			count++
		}
	}
	return count
}

// RemoveGate clears the gater of a random gated connection.
func (n *Network) RemoveGate(rng *rand.Rand) {
	var candidates []*Connection
	for _, c := range n.allConnections() {
		if c.Gated() {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return
	}
	candidates[rng.Intn(len(candidates))].Gater = NoGater
}

// Mutate applies every operator at its configured rate: floor(rate)
// guaranteed applications plus one more with probability rate-floor(rate).
func (n *Network) Mutate(rng *rand.Rand) {
	apply := func(rate float64, op func(*rand.Rand)) {
		for i := 0; i < rateCount(rng, rate); i++ {
			op(rng)
		}
	}
	apply(n.cfg.AddNodeRate, n.AddNode)
	apply(n.cfg.AddForwardConnectionRate, n.AddForwardConnection)
	apply(n.cfg.AddSelfConnectionRate, n.AddSelfConnection)
	apply(n.cfg.AddRecurrentConnectionRate, n.AddRecurrentConnection)
	apply(n.cfg.AddGateRate, n.AddGate)
	apply(n.cfg.MutateWeightRate, n.MutateWeight)
	apply(n.cfg.MutateBiasRate, n.MutateBias)
	apply(n.cfg.MutateActivationRate, n.MutateActivation)
	apply(n.cfg.RemoveNodeRate, n.RemoveNode)
	apply(n.cfg.RemoveConnectionRate, n.RemoveConnection)
	apply(n.cfg.RemoveGateRate, n.RemoveGate)
}

func rateCount(rng *rand.Rand, rate float64) int {
	count := int(rate)
	if rng.Float64() < rate-float64(count) {
		count++
	}
	return count
}
