// Package solver wraps the Gorgonia solvers that agents are trained
// with so that their learning rate can be decayed in place
package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam Type = "Adam"
	SGD  Type = "SGD"
)

// Solver wraps a Gorgonia Solver. The wrapped solver's internal state
// (such as Adam's moment estimates) persists across steps and learning
// rate changes for the lifetime of the Solver.
type Solver struct {
	G.Solver
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	if c.LearningRate() <= 0 {
		return nil, fmt.Errorf("newSolver: learning rate must be "+
			"positive, have %v", c.LearningRate())
	}
	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// New returns a solver of the given type with default hyperparameters
// other than the learning rate
func New(t Type, learningRate float64) (*Solver, error) {
	switch t {
	case Adam:
		return NewDefaultAdam(learningRate)
	case SGD:
		return NewSGD(learningRate)
	default:
		return nil, fmt.Errorf("new: unknown solver type %q", t)
	}
}

// SetLearningRate changes the learning rate of the wrapped solver
// without resetting any of its accumulated state
func (s *Solver) SetLearningRate(lr float64) error {
	if lr <= 0 {
		return fmt.Errorf("setLearningRate: learning rate must be "+
			"positive, have %v", lr)
	}
	s.Config = s.Config.withLearningRate(lr)
	G.WithLearnRate(lr)(s.Solver)
	return nil
}

// Decay multiplies the learning rate by rate
func (s *Solver) Decay(rate float64) error {
	return s.SetLearningRate(s.LearningRate() * rate)
}

// Config implements a Gorgonia Solver configuration and can be used to
// create Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	LearningRate() float64
	withLearningRate(float64) Config
}
