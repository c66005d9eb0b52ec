package main

import (
	"fmt"
	"sort"

	"github.com/samuelfneumann/pgrl/environment"
	"github.com/samuelfneumann/pgrl/environment/cartpole"
	"github.com/samuelfneumann/pgrl/environment/gridworld"
)

// constructor creates an environment and a function releasing it
type constructor func(steps int, seed uint64) (environment.Environment,
	func(), error)

var registry = map[string]constructor{
	"cartpole": func(steps int, seed uint64) (environment.Environment,
		func(), error) {
		env, err := cartpole.New(steps, seed)
		return env, func() {}, err
	},

	// A 5x5 grid with the goal in the bottom right corner
	"gridworld": func(steps int, seed uint64) (environment.Environment,
		func(), error) {
		env, err := gridworld.NewRandomStart(5, 4, 4, steps, seed)
		return env, func() {}, err
	},
}

func newEnvironment(name string, steps int, seed uint64) (
	environment.Environment, func(), error) {
	c, ok := registry[name]
	if !ok {
		return nil, nil, fmt.Errorf("newEnvironment: unknown environment "+
			"%v, expected one of %v", name, environments())
	}

	env, closeEnv, err := c(steps, seed)
	if err != nil {
		return nil, nil, fmt.Errorf("newEnvironment: %v", err)
	}
	return env, closeEnv, nil
}

// environments returns the sorted names of all registered environments
func environments() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
