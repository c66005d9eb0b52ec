// Package trajectory collects episodes of agent-environment
// interaction
package trajectory

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/pgrl/environment"
	"github.com/samuelfneumann/pgrl/policy"
	ts "github.com/samuelfneumann/pgrl/timestep"
	"github.com/samuelfneumann/pgrl/utils/floatutils"
)

// Step is a single step of an episode. Action is the index of the
// action in [0, NumActions), Reward is the reward received for taking
// the action, and Hidden is the hidden state the policy was given when
// choosing the action.
type Step struct {
	Observation []float64
	Action      int
	Reward      float64
	Value       float64
	Hidden      policy.Hidden
}

// Trajectory is a single episode
type Trajectory struct {
	Steps []Step
}

// Len returns the number of steps in the episode
func (t Trajectory) Len() int {
	return len(t.Steps)
}

// Rewards returns the rewards of each step
func (t Trajectory) Rewards() []float64 {
	out := make([]float64, len(t.Steps))
	for i := range t.Steps {
		out[i] = t.Steps[i].Reward
	}
	return out
}

// Values returns the value estimates of each step
func (t Trajectory) Values() []float64 {
	out := make([]float64, len(t.Steps))
	for i := range t.Steps {
		out[i] = t.Steps[i].Value
	}
	return out
}

// Actions returns the action indices of each step
func (t Trajectory) Actions() []int {
	out := make([]int, len(t.Steps))
	for i := range t.Steps {
		out[i] = t.Steps[i].Action
	}
	return out
}

// Observations returns all observations, flattened and concatenated in
// order
func (t Trajectory) Observations() []float64 {
	if len(t.Steps) == 0 {
		return nil
	}
	out := make([]float64, 0, len(t.Steps)*len(t.Steps[0].Observation))
	for i := range t.Steps {
		out = append(out, t.Steps[i].Observation...)
	}
	return out
}

// Return returns the undiscounted sum of rewards
func (t Trajectory) Return() float64 {
	total := 0.0
	for i := range t.Steps {
		total += t.Steps[i].Reward
	}
	return total
}

// chooser selects an action index given a policy's output
type chooser func(out policy.Output) int

// Collect runs a single episode, sampling actions from the policy's
// action distribution. The episode runs until the environment ends it.
func Collect(env environment.Environment, pol policy.Policy,
	rng *rand.Rand) (Trajectory, error) {
	sample := func(out policy.Output) int {
		dist := distuv.NewCategorical(out.Probs, rng)
		return int(dist.Rand())
	}

	traj, err := run(env, pol, sample, nil)
	if err != nil {
		return Trajectory{}, fmt.Errorf("collect: %w", err)
	}
	return traj, nil
}

// Greedy runs a single episode, taking the most probable action at each
// step. Ties are broken with tieBreak, see floatutils.ArgMax. If render
// is not nil, it is called after the environment is reset and after
// each step.
func Greedy(env environment.Environment, pol policy.Policy,
	render func() error, tieBreak func(n int) int) (Trajectory, error) {
	greedy := func(out policy.Output) int {
		return floatutils.ArgMax(out.Probs, tieBreak)
	}

	traj, err := run(env, pol, greedy, render)
	if err != nil {
		return Trajectory{}, fmt.Errorf("greedy: %w", err)
	}
	return traj, nil
}

func run(env environment.Environment, pol policy.Policy, choose chooser,
	render func() error) (Trajectory, error) {
	if n := env.ActionSpec().NumActions(); n != pol.NumActions() {
		return Trajectory{}, fmt.Errorf("run: environment has %v actions, "+
			"policy has %v", n, pol.NumActions())
	}
	offset := int(env.ActionSpec().LowerBound.AtVec(0))

	step, err := env.Reset()
	if err != nil {
		return Trajectory{}, fmt.Errorf("run: could not reset environment: "+
			"%w", err)
	}
	if err := callRender(render); err != nil {
		return Trajectory{}, err
	}

	var traj Trajectory
	hidden := policy.EmptyHidden
	for !step.Last() {
		obs := step.Data()
		out, err := pol.Forward(obs, hidden)
		if err != nil {
			return Trajectory{}, fmt.Errorf("run: step %v: %w", len(traj.Steps),
				err)
		}
		action := choose(out)

		var next ts.TimeStep
		if next, _, err = env.Step(action + offset); err != nil {
			return Trajectory{}, fmt.Errorf("run: step %v: environment: %w",
				len(traj.Steps), err)
		}
		if err := callRender(render); err != nil {
			return Trajectory{}, err
		}

		traj.Steps = append(traj.Steps, Step{
			Observation: obs,
			Action:      action,
			Reward:      next.Reward,
			Value:       out.Value,
			Hidden:      hidden,
		})
		hidden = out.Hidden
		step = next
	}
	return traj, nil
}

func callRender(render func() error) error {
	if render == nil {
		return nil
	}
	if err := render(); err != nil {
		return fmt.Errorf("run: could not render: %w", err)
	}
	return nil
}
