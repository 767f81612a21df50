package task

import (
	"context"
	"fmt"

	"gnarl/internal/nn"
)

const fitnessEpsilon = 0.000001

var xorCases = []struct {
	in   []float64
	want float64
}{
	{in: []float64{0, 0}, want: 0},
	{in: []float64{0, 1}, want: 1},
	{in: []float64{1, 0}, want: 1},
	{in: []float64{1, 1}, want: 0},
}

// XOR scores each genome by reciprocal squared error over the four truth
// table patterns. Recurrent state is reset per genome so evaluation stays
// deterministic across generations.
type XOR struct{}

func (XOR) Name() string {
	return "xor"
}

func (XOR) Configuration() *nn.Configuration {
	return nn.DefaultConfiguration(2, 1)
}

func (XOR) Evaluate(ctx context.Context, batch []*nn.Network) error {
	for _, member := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}

		member.Reset()
		sse := 0.0
		for _, c := range xorCases {
			out, err := member.Invoke(c.in)
			if err != nil {
				return err
			}
			if len(out) != 1 {
				return fmt.Errorf("xor requires one output, got %d", len(out))
			}
			delta := out[0] - c.want
			sse += delta * delta
		}
		member.Fitness = 1.0 / (sse + fitnessEpsilon)
	}
	return nil
}
