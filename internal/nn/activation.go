package nn

import (
	"fmt"
	"math"
	"math/rand"
)

// SELU constants from Klambauer et al., fixed by definition.
const (
	seluAlpha = 1.6732632423543772
	seluScale = 1.0507009873554805
)

// Activation is an immutable, optionally parametrized squashing function.
// Every variant is deterministic except Random, which ignores its input and
// reports Deterministic() == false so callers can exclude it from
// reproducibility-sensitive paths.
type Activation struct {
	name          string
	deterministic bool
	fn            func(x float64) float64
}

func (a Activation) Name() string {
	return a.name
}

func (a Activation) Deterministic() bool {
	return a.deterministic
}

func (a Activation) Apply(x float64) float64 {
	return a.fn(x)
}

func Sigmoid(slope float64) Activation {
	return Activation{
		name:          fmt.Sprintf("sigmoid(%g)", slope),
		deterministic: true,
		fn: func(x float64) float64 {
			return 1.0 / (1.0 + math.Exp(-slope*x))
		},
	}
}

func Tanh(slope float64) Activation {
	return Activation{
		name:          fmt.Sprintf("tanh(%g)", slope),
		deterministic: true,
		fn: func(x float64) float64 {
			return math.Tanh(slope * x)
		},
	}
}

func Sinus(compression float64) Activation {
	return Activation{
		name:          fmt.Sprintf("sinus(%g)", compression),
		deterministic: true,
		fn: func(x float64) float64 {
			return math.Sin(compression * x)
		},
	}
}

func Step(threshold float64) Activation {
	return Activation{
		name:          fmt.Sprintf("step(%g)", threshold),
		deterministic: true,
		fn: func(x float64) float64 {
			if x > threshold {
				return 1
			}
			return 0
		},
	}
}

func Sign() Activation {
	return Activation{
		name:          "sign",
		deterministic: true,
		fn: func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			default:
				return 0
			}
		},
	}
}

// Random ignores its input and returns a uniform value in [-1, 1).
func Random() Activation {
	return Activation{
		name:          "random",
		deterministic: false,
		fn: func(float64) float64 {
			return rand.Float64()*2 - 1
		},
	}
}

func ReLU() Activation {
	return Activation{
		name:          "relu",
		deterministic: true,
		fn: func(x float64) float64 {
			if x < 0 {
				return 0
			}
			return x
		},
	}
}

func SELU() Activation {
	return Activation{
		name:          "selu",
		deterministic: true,
		fn: func(x float64) float64 {
			if x < 0 {
				return seluScale * seluAlpha * (math.Exp(x) - 1)
			}
			return seluScale * x
		},
	}
}

func SiLU(beta float64) Activation {
	return Activation{
		name:          fmt.Sprintf("silu(%g)", beta),
		deterministic: true,
		fn: func(x float64) float64 {
			return x / (1.0 + math.Exp(-beta*x))
		},
	}
}

func Linear(gradient float64) Activation {
	return Activation{
		name:          fmt.Sprintf("linear(%g)", gradient),
		deterministic: true,
		fn: func(x float64) float64 {
			return gradient * x
		},
	}
}

func Identity() Activation {
	return Linear(1)
}

// Catalogue returns one instance of every activation variant with its usual
// parametrization.
func Catalogue() []Activation {
	return []Activation{
		Sigmoid(1),
		Tanh(1),
		Sinus(1),
		Step(0),
		Sign(),
		Random(),
		ReLU(),
		SELU(),
		SiLU(1),
		Identity(),
	}
}
