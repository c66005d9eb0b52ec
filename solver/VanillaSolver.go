package solver

import G "gorgonia.org/gorgonia"

// SGDConfig describes a configuration of the vanilla stochastic
// gradient descent solver.
type SGDConfig struct {
	StepSize float64
}

// NewSGD returns a new stochastic gradient descent Solver
func NewSGD(stepSize float64) (*Solver, error) {
	return newSolver(SGD, SGDConfig{StepSize: stepSize})
}

// Create returns a Gorgonia Vanilla Solver as described by the
// SGDConfig
func (s SGDConfig) Create() G.Solver {
	return G.NewVanillaSolver(
		G.WithLearnRate(s.StepSize),
		G.WithBatchSize(1),
	)
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (s SGDConfig) ValidType(t Type) bool {
	return t == SGD
}

func (s SGDConfig) LearningRate() float64 { return s.StepSize }

func (s SGDConfig) withLearningRate(lr float64) Config {
	s.StepSize = lr
	return s
}
