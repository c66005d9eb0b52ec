// Package environment outlines the interfaces and structs needed to
// implement the episodic, discrete-action environments that agents are
// trained and tested on
package environment

import (
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/pgrl/timestep"
)

// Environment implements a simulated, episodic environment with
// discrete actions. Actions are integers in
// [ActionSpec().LowerBound, ActionSpec().UpperBound].
//
// Episodes are ended by the environment itself: Step returns true once
// the returned TimeStep is the last in the episode. After that, Reset
// must be called before stepping again.
type Environment interface {
	// Reset starts a new episode and returns its first TimeStep
	Reset() (ts.TimeStep, error)

	// Step takes one environmental step and returns the next TimeStep
	// together with whether the episode has ended
	Step(action int) (ts.TimeStep, bool, error)

	// Render displays the current state of the environment
	Render() error

	ObservationSpec() Spec
	ActionSpec() Spec
}

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end. If a TimeStep ends an episode,
// End adjusts its StepType to timestep.Last and returns true.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Closer is implemented by environments holding external resources
type Closer interface {
	Close() error
}
