// Package task provides built-in fitness environments the CLI and tests
// evolve against. A task couples an Environment with the network
// Configuration it expects.
package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gnarl/internal/evo"
	"gnarl/internal/nn"
)

var ErrUnknownTask = errors.New("unknown task")

type Task interface {
	evo.Environment
	Configuration() *nn.Configuration
}

func Lookup(name string) (Task, error) {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "xor":
		return XOR{}, nil
	case "sine":
		return Sine{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
}

func Names() []string {
	names := []string{"xor", "sine"}
	sort.Strings(names)
	return names
}
