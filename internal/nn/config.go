package nn

import "fmt"

// Configuration carries the parameters shared by every network in one search
// run: layer sizes, per-role activation candidate pools and the per-operator
// mutation rates. It is treated as immutable after construction; networks
// bred together must hold the same *Configuration (crossover enforces
// pointer identity).
//
// A rate R means floor(R) guaranteed applications of the operator per
// Mutate call plus one more with probability R - floor(R).
type Configuration struct {
	Inputs  int
	Outputs int

	InputActivations  []Activation
	HiddenActivations []Activation
	OutputActivations []Activation

	AddNodeRate                float64
	AddForwardConnectionRate   float64
	AddSelfConnectionRate      float64
	AddRecurrentConnectionRate float64
	AddGateRate                float64
	MutateWeightRate           float64
	MutateBiasRate             float64
	MutateActivationRate       float64
	RemoveNodeRate             float64
	RemoveConnectionRate       float64
	RemoveGateRate             float64
}

// DefaultConfiguration returns a configuration with the stock activation
// pools and mutation rates. The Random activation is deliberately left out
// of the default pools so default runs stay deterministic under a seeded
// generator.
func DefaultConfiguration(inputs, outputs int) *Configuration {
	return &Configuration{
		Inputs:  inputs,
		Outputs: outputs,

		InputActivations: []Activation{Identity()},
		HiddenActivations: []Activation{
			Sigmoid(1), Tanh(1), Sinus(1), Step(0), Sign(), ReLU(), SELU(), SiLU(1), Identity(),
		},
		OutputActivations: []Activation{Sigmoid(1), Tanh(1), Identity()},

		AddNodeRate:                0.05,
		AddForwardConnectionRate:   0.2,
		AddSelfConnectionRate:      0.02,
		AddRecurrentConnectionRate: 0.02,
		AddGateRate:                0.05,
		MutateWeightRate:           1.5,
		MutateBiasRate:             0.5,
		MutateActivationRate:       0.1,
		RemoveNodeRate:             0.02,
		RemoveConnectionRate:       0.05,
		RemoveGateRate:             0.02,
	}
}

func (c *Configuration) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is required")
	}
	if c.Inputs <= 0 {
		return fmt.Errorf("inputs must be > 0")
	}
	if c.Outputs <= 0 {
		return fmt.Errorf("outputs must be > 0")
	}
	if len(c.InputActivations) == 0 {
		return fmt.Errorf("input activation pool must not be empty")
	}
	if len(c.HiddenActivations) == 0 {
		return fmt.Errorf("hidden activation pool must not be empty")
	}
	if len(c.OutputActivations) == 0 {
		return fmt.Errorf("output activation pool must not be empty")
	}
	for _, rate := range []struct {
		name  string
		value float64
	}{
		{"add node", c.AddNodeRate},
		{"add forward connection", c.AddForwardConnectionRate},
		{"add self connection", c.AddSelfConnectionRate},
		{"add recurrent connection", c.AddRecurrentConnectionRate},
		{"add gate", c.AddGateRate},
		{"mutate weight", c.MutateWeightRate},
		{"mutate bias", c.MutateBiasRate},
		{"mutate activation", c.MutateActivationRate},
		{"remove node", c.RemoveNodeRate},
		{"remove connection", c.RemoveConnectionRate},
		{"remove gate", c.RemoveGateRate},
	} {
		if rate.value < 0 {
			return fmt.Errorf("%s rate must be >= 0", rate.name)
		}
	}
	return nil
}
