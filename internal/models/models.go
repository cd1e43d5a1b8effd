// Package models provides plants for closed-loop simulation. Each nonlinear
// model also exposes its linearization about the equilibrium the regulator
// holds, which is what the LQR design is computed from.
package models

import (
	"fmt"
	"sort"

	"github.com/san-kum/dare/internal/plant"
	"github.com/san-kum/dare/internal/sim"
)

// Linearizable is a plant with a known linearization at the origin.
type Linearizable interface {
	sim.Dynamics
	Linearize() plant.StateSpaceModel
}

var registry = map[string]func() Linearizable{
	"pendulum":    func() Linearizable { return NewPendulum() },
	"cartpole":    func() Linearizable { return NewCartPole() },
	"spring_mass": func() Linearizable { return NewSpringChain(3) },
}

// Get returns a fresh model with default parameters.
func Get(name string) (Linearizable, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s (available: %v)", name, List())
	}
	return fn(), nil
}

func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
