//go:build gym

// Package gym provides access to OpenAI Gym environments with discrete
// actions through GoGym, at https://github.com/samuelfneumann/GoGym.
//
// GoGym embeds a Python interpreter, so this package is only built with
// the gym build tag.
package gym

import (
	"fmt"
	"io"
	"os"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/pgrl/environment"
	ts "github.com/samuelfneumann/pgrl/timestep"
)

// GymEnv implements access to an OpenAI Gym environment using GoGym.
// Only environments with discrete action spaces are supported.
type GymEnv struct {
	gogym.Environment

	currentStep ts.TimeStep
	out         io.Writer
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite.
func New(name string, seed uint64) (*GymEnv, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, fmt.Errorf("new: could not create environment: %v", err)
	}

	if _, ok := goGymEnv.ActionSpace().(*gogym.DiscreteSpace); !ok {
		goGymEnv.Close()
		return nil, fmt.Errorf("new: environment %v does not have a "+
			"discrete action space", name)
	}

	goGymEnv.Seed(int(seed))

	return &GymEnv{
		Environment: goGymEnv,
		out:         os.Stdout,
	}, nil
}

// SetOutput sets the destination of Render
func (g *GymEnv) SetOutput(w io.Writer) {
	g.out = w
}

// Step takes a single environmental step
func (g *GymEnv) Step(a int) (ts.TimeStep, bool, error) {
	action := mat.NewVecDense(1, []float64{float64(a)})
	obs, reward, done, err := g.Environment.Step(action)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, toVec(obs), g.currentStep.Number+1)
	if done {
		t.StepType = ts.Last
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	g.currentStep = ts.New(ts.First, 0, toVec(obs), 0)
	return g.currentStep, nil
}

// Render writes the current observation to the output
func (g *GymEnv) Render() error {
	if g.currentStep.Observation == nil {
		return fmt.Errorf("render: environment must be reset before " +
			"rendering")
	}
	_, err := fmt.Fprintf(g.out, "step %-5d %v\n", g.currentStep.Number,
		mat.Formatted(g.currentStep.Observation.T(), mat.Squeeze()))
	return err
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	low, high := bounds(g.ObservationSpace())
	return env.NewSpec([]int{low.Len()}, env.Observation, low, high,
		env.Continuous)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	low, high := bounds(g.ActionSpace())
	return env.NewSpec([]int{1}, env.Action, low, high, env.Discrete)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}

// space is a GoGym space with bounds
type space interface {
	Low() []*mat.VecDense
	High() []*mat.VecDense
}

// bounds returns the lower and upper bounds of a GoGym space
func bounds(space space) (*mat.VecDense, *mat.VecDense) {
	switch space.(type) {
	case *gogym.BoxSpace, *gogym.DiscreteSpace:
		return space.Low()[0], space.High()[0]
	default:
		panic("bounds: invalid space type, package gym supports " +
			"only GoGym's BoxSpace or DiscreteSpace")
	}
}

// toVec copies an observation into a new VecDense
func toVec(v mat.Vector) *mat.VecDense {
	vec := mat.NewVecDense(v.Len(), nil)
	vec.CopyVec(v)
	return vec
}
