package nn

import (
	"fmt"
	"math/rand"
)

type Role int

const (
	RoleInput Role = iota
	RoleHidden
	RoleOutput
)

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleHidden:
		return "hidden"
	case RoleOutput:
		return "output"
	default:
		return "unknown"
	}
}

type ConnectionType int

const (
	// ConnForward links a node to a later node in the sequence.
	ConnForward ConnectionType = iota
	// ConnSelf links a node to itself; held on the node, never in the set.
	ConnSelf
	// ConnRecurrent links a node to an earlier node, so within one pass it
	// carries the source value computed on the previous invocation.
	ConnRecurrent
)

// Connection is a directed, optionally gated, weighted edge. Endpoints and
// the gater are stored as node positions into the owning network's node
// sequence; Gater is NoGater when ungated. The Type tag is fixed from the
// index difference at creation time and is not recomputed when later
// structural edits shift node positions; see the Network doc comment.
type Connection struct {
	From   int
	To     int
	Weight float64
	Gater  int
	Type   ConnectionType
}

const NoGater = -1

func (c *Connection) Gated() bool {
	return c.Gater != NoGater
}

// Node is one neuron. Role mirrors the positional partition of the owning
// network (inputs first, outputs last, hidden between). In and Out are
// derived, non-owning adjacency views over the network's connection set;
// Self is the node's optional self-connection, which lives on the node and
// never in the set.
type Node struct {
	Role       Role
	Bias       float64
	Activation Activation

	state float64
	value float64

	Self *Connection
	In   []*Connection
	Out  []*Connection
}

// State returns the pre-activation accumulator from the last invocation.
func (n *Node) State() float64 { return n.state }

// Value returns the post-activation output read by downstream connections.
func (n *Node) Value() float64 { return n.value }

// Network is the evolvable genome: an ordered node sequence plus a set of
// non-self connections. The first Inputs positions are input nodes, the
// last Outputs positions are output nodes, and everything between is
// hidden; structural operators preserve that partition.
//
// Connection Type tags are assigned once at creation from the then-current
// index difference. A later node insertion or removal can shift positions
// without refreshing the tag, so a tag may go stale relative to the live
// index order. The forward pass never consults the tag (ordering alone
// decides recurrence), so staleness only affects removal eligibility, which
// deliberately matches the reference behavior.
type Network struct {
	cfg   *Configuration
	nodes []*Node
	conns []*Connection

	// Fitness is assigned externally by an Environment; Score is Fitness
	// minus the pool's complexity penalty and drives ranking.
	Fitness float64
	Score   float64

	pendingReset bool
}

// NewNetwork builds the initial genome: input and output nodes with
// activations drawn from the role pools, fully connected input to output
// with weights uniform in [-1, 1).
func NewNetwork(cfg *Configuration, rng *rand.Rand) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}

	n := &Network{cfg: cfg}
	for i := 0; i < cfg.Inputs; i++ {
		n.nodes = append(n.nodes, &Node{
			Role:       RoleInput,
			Activation: cfg.InputActivations[rng.Intn(len(cfg.InputActivations))],
		})
	}
	for o := 0; o < cfg.Outputs; o++ {
		n.nodes = append(n.nodes, &Node{
			Role:       RoleOutput,
			Activation: cfg.OutputActivations[rng.Intn(len(cfg.OutputActivations))],
		})
	}
	for i := 0; i < cfg.Inputs; i++ {
		for o := 0; o < cfg.Outputs; o++ {
			n.addConnection(i, cfg.Inputs+o, randomWeight(rng))
		}
	}
	return n, nil
}

func randomWeight(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

func (n *Network) Config() *Configuration { return n.cfg }

func (n *Network) NodeCount() int { return len(n.nodes) }

func (n *Network) HiddenCount() int { return len(n.nodes) - n.cfg.Inputs - n.cfg.Outputs }

func (n *Network) ConnectionCount() int { return len(n.conns) }

func (n *Network) Node(i int) *Node { return n.nodes[i] }

func (n *Network) Connections() []*Connection {
	out := make([]*Connection, len(n.conns))
	copy(out, n.conns)
	return out
}

// SelfConnectionCount reports how many nodes carry a self-connection.
func (n *Network) SelfConnectionCount() int {
	count := 0
	for _, node := range n.nodes {
		if node.Self != nil {
			count++
		}
	}
	return count
}

// GatedCount reports gated connections across the set and self-connections.
func (n *Network) GatedCount() int {
	count := 0
	for _, c := range n.allConnections() {
		if c.Gated() {
			count++
		}
	}
	return count
}

// Reset requests that the next Invoke zeroes every node's state and value
// before processing, discarding recurrent memory.
func (n *Network) Reset() {
	n.pendingReset = true
}

// Invoke runs one forward pass. Nodes are processed exactly once in stored
// order: input nodes take their value straight from the raw input, every
// other node accumulates self-connection memory, bias and gated incoming
// contributions into its state and squashes it. Because processing follows
// node order, a connection whose source sits after its target contributes
// the source value from the previous invocation. Node state persists across
// calls until Reset is requested.
func (n *Network) Invoke(inputs []float64) ([]float64, error) {
	if len(inputs) != n.cfg.Inputs {
		return nil, fmt.Errorf("input length mismatch: got=%d want=%d", len(inputs), n.cfg.Inputs)
	}

	if n.pendingReset {
		for _, node := range n.nodes {
			node.state = 0
			node.value = 0
		}
		n.pendingReset = false
	}

	outputs := make([]float64, n.cfg.Outputs)
	firstOutput := len(n.nodes) - n.cfg.Outputs
	for i, node := range n.nodes {
		if node.Role == RoleInput {
			node.value = node.Activation.Apply(inputs[i])
			continue
		}

		state := node.Bias
		if node.Self != nil {
			state += node.Self.Weight * node.state * n.gaterValue(node.Self)
		}
		for _, c := range node.In {
			state += c.Weight * n.nodes[c.From].value * n.gaterValue(c)
		}
		node.state = state
		node.value = node.Activation.Apply(state)

		if node.Role == RoleOutput {
			outputs[i-firstOutput] = node.value
		}
	}
	return outputs, nil
}

func (n *Network) gaterValue(c *Connection) float64 {
	if !c.Gated() {
		return 1
	}
	return n.nodes[c.Gater].value
}

// Clone deep-copies the genome. The copy shares only the Configuration.
func (n *Network) Clone() *Network {
	out := &Network{
		cfg:          n.cfg,
		Fitness:      n.Fitness,
		Score:        n.Score,
		pendingReset: n.pendingReset,
	}
	out.nodes = make([]*Node, len(n.nodes))
	for i, node := range n.nodes {
		out.nodes[i] = &Node{
			Role:       node.Role,
			Bias:       node.Bias,
			Activation: node.Activation,
			state:      node.state,
			value:      node.value,
		}
	}
	for _, c := range n.conns {
		copied := out.addConnection(c.From, c.To, c.Weight)
		copied.Gater = c.Gater
		copied.Type = c.Type
	}
	for i, node := range n.nodes {
		if node.Self == nil {
			continue
		}
		copied := out.addConnection(i, i, node.Self.Weight)
		copied.Gater = node.Self.Gater
	}
	return out
}

// connectionTypeFor classifies an edge from the current index difference.
func connectionTypeFor(from, to int) ConnectionType {
	switch {
	case from == to:
		return ConnSelf
	case from > to:
		return ConnRecurrent
	default:
		return ConnForward
	}
}

// addConnection creates and registers an edge. A from == to edge installs
// as the node's self-connection (the caller must have checked none exists);
// anything else joins the connection set and both adjacency lists.
func (n *Network) addConnection(from, to int, weight float64) *Connection {
	c := &Connection{
		From:   from,
		To:     to,
		Weight: weight,
		Gater:  NoGater,
		Type:   connectionTypeFor(from, to),
	}
	if from == to {
		n.nodes[from].Self = c
		return c
	}
	n.conns = append(n.conns, c)
	n.nodes[from].Out = append(n.nodes[from].Out, c)
	n.nodes[to].In = append(n.nodes[to].In, c)
	return c
}

// removeConnection exactly undoes addConnection's registration.
func (n *Network) removeConnection(c *Connection) {
	if c.From == c.To {
		if n.nodes[c.From].Self == c {
			n.nodes[c.From].Self = nil
		}
		return
	}
	n.conns = removeConnFrom(n.conns, c)
	n.nodes[c.From].Out = removeConnFrom(n.nodes[c.From].Out, c)
	n.nodes[c.To].In = removeConnFrom(n.nodes[c.To].In, c)
}

func removeConnFrom(list []*Connection, c *Connection) []*Connection {
	for i, candidate := range list {
		if candidate == c {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// connected reports whether a from -> to edge already exists, consulting
// the node's self-connection when from == to.
func (n *Network) connected(from, to int) bool {
	if from == to {
		return n.nodes[from].Self != nil
	}
	for _, c := range n.nodes[from].Out {
		if c.To == to {
			return true
		}
	}
	return false
}

// allConnections returns the set plus self-connections, in a stable order.
func (n *Network) allConnections() []*Connection {
	out := make([]*Connection, 0, len(n.conns)+len(n.nodes))
	out = append(out, n.conns...)
	for _, node := range n.nodes {
		if node.Self != nil {
			out = append(out, node.Self)
		}
	}
	return out
}

// insertNode splices a hidden node into the sequence and renumbers every
// stored position at or after it.
func (n *Network) insertNode(pos int, node *Node) {
	n.nodes = append(n.nodes, nil)
	copy(n.nodes[pos+1:], n.nodes[pos:])
	n.nodes[pos] = node
	n.renumber(func(idx int) int {
		if idx >= pos {
			return idx + 1
		}
		return idx
	})
}

// removeNodeAt drops the node at pos and renumbers stored positions. The
// caller must already have removed every connection incident to it.
func (n *Network) removeNodeAt(pos int) {
	n.nodes = append(n.nodes[:pos], n.nodes[pos+1:]...)
	n.renumber(func(idx int) int {
		if idx > pos {
			return idx - 1
		}
		return idx
	})
}

func (n *Network) renumber(shift func(int) int) {
	for _, c := range n.allConnections() {
		c.From = shift(c.From)
		c.To = shift(c.To)
		if c.Gater != NoGater {
			c.Gater = shift(c.Gater)
		}
	}
}
