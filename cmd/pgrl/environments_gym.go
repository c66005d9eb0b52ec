//go:build gym

package main

import (
	"github.com/samuelfneumann/pgrl/environment"
	"github.com/samuelfneumann/pgrl/environment/gym"
)

func init() {
	for _, name := range []string{"CartPole-v1", "Acrobot-v1",
		"MountainCar-v0", "LunarLander-v2"} {
		name := name
		registry[name] = func(steps int, seed uint64) (
			environment.Environment, func(), error) {
			env, err := gym.New(name, seed)
			if err != nil {
				return nil, nil, err
			}
			return env, func() { env.Close() }, nil
		}
	}
}
