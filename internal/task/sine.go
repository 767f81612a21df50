package task

import (
	"context"
	"math"

	"gnarl/internal/nn"
)

const sineSamples = 20

// Sine scores each genome by reciprocal mean squared error against
// (sin(x)+1)/2 sampled over one period.
type Sine struct{}

func (Sine) Name() string {
	return "sine"
}

func (Sine) Configuration() *nn.Configuration {
	return nn.DefaultConfiguration(1, 1)
}

func (Sine) Evaluate(ctx context.Context, batch []*nn.Network) error {
	for _, member := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}

		member.Reset()
		sse := 0.0
		for i := 0; i < sineSamples; i++ {
			x := 2 * math.Pi * float64(i) / sineSamples
			want := (math.Sin(x) + 1) / 2
			out, err := member.Invoke([]float64{x})
			if err != nil {
				return err
			}
			delta := out[0] - want
			sse += delta * delta
		}
		member.Fitness = 1.0 / (sse/sineSamples + fitnessEpsilon)
	}
	return nil
}
