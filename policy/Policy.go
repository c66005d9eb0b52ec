// Package policy implements discrete-action policies over neural
// networks: feed forward, convolutional, and actor-critic.
package policy

import (
	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/network"
)

// Hidden is the per-step hidden state threaded through Forward by
// callers. Feed forward and convolutional networks carry no memory
// between steps, so the Hidden returned by Forward holds the inputs to
// the final layer of each network and the incoming Hidden is unused.
type Hidden struct {
	Actor  []float64
	Critic []float64
}

// EmptyHidden is the Hidden passed to the first step of an episode
var EmptyHidden = Hidden{}

// IsEmpty returns whether h holds no state
func (h Hidden) IsEmpty() bool {
	return len(h.Actor) == 0 && len(h.Critic) == 0
}

// Output is the result of a single forward pass of a Policy
type Output struct {
	Probs    []float64
	LogProbs []float64

	// Value is the state value estimate, only set if HasValue
	Value    float64
	HasValue bool

	Hidden Hidden
}

// Policy is a stochastic policy over a discrete set of actions. The
// set of Policy kinds is closed: *FNN, *CNN, and *ActorCritic.
type Policy interface {
	Kind() hyperparams.Architecture

	// Forward computes the action distribution for a single flattened
	// observation
	Forward(obs []float64, h Hidden) (Output, error)

	NumActions() int
	ObservationSize() int

	// Eval and Train switch between evaluation mode and training mode.
	// Dropout is only applied in training mode.
	Eval()
	Train()
	IsEval() bool

	// Batch returns a training-mode copy of the policy's networks which
	// takes batches of size observations
	Batch(size int) (*Batch, error)

	// Update copies the weights of a Batch back into the policy
	Update(b *Batch) error

	// Snapshot returns the architectures and weights of the policy's
	// networks
	Snapshot() (Snapshot, error)

	Close() error
}

// Snapshot holds everything needed to rebuild a Policy
type Snapshot struct {
	Kind       hyperparams.Architecture
	NumActions int
	Archs      []network.Arch
	Params     [][][]float64
}
