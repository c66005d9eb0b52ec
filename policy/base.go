package policy

import (
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/network"
)

// base implements the behaviour shared by all policies. A policy acts
// through graphs of batch size 1, one per mode. Without dropout both
// modes share a single graph.
type base struct {
	kind       hyperparams.Architecture
	numActions int
	obsSize    int
	eval       bool

	train     *graph
	evalGraph *graph
}

func newBase(kind hyperparams.Architecture, archs []network.Arch,
	init G.InitWFn) (*base, error) {
	train, err := newGraph(archs, 1, init, true)
	if err != nil {
		return nil, err
	}

	evalGraph := train
	if archs[0].Dropout > 0 || (len(archs) > 1 && archs[1].Dropout > 0) {
		if evalGraph, err = train.clone(1, false); err != nil {
			return nil, err
		}
		evalGraph.withVM()
	}
	train.withVM()

	return &base{
		kind:       kind,
		numActions: archs[0].Outputs,
		obsSize:    archs[0].InputSize(),
		train:      train,
		evalGraph:  evalGraph,
	}, nil
}

// Kind returns the kind of policy
func (b *base) Kind() hyperparams.Architecture {
	return b.kind
}

// NumActions returns the number of actions the policy chooses between
func (b *base) NumActions() int {
	return b.numActions
}

// ObservationSize returns the length of a flattened observation
func (b *base) ObservationSize() int {
	return b.obsSize
}

// Eval sets the policy to evaluation mode
func (b *base) Eval() { b.eval = true }

// Train sets the policy to training mode
func (b *base) Train() { b.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (b *base) IsEval() bool { return b.eval }

func (b *base) current() *graph {
	if b.eval {
		return b.evalGraph
	}
	return b.train
}

// Forward computes the action distribution for a single flattened
// observation. For actor-critic policies, the state value is also
// computed.
func (b *base) Forward(obs []float64, _ Hidden) (Output, error) {
	if len(obs) != b.obsSize {
		return Output{}, errors.Wrapf(hyperparams.ErrShape, "forward: "+
			"invalid observation size\n\twant(%v)\n\thave(%v)", b.obsSize,
			len(obs))
	}
	return b.current().forward(obs)
}

// Batch returns a training-mode copy of the policy's networks which
// takes batches of size observations
func (b *base) Batch(size int) (*Batch, error) {
	g, err := b.train.clone(size, b.train.actor.Training())
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	return &Batch{graph: g}, nil
}

// Update copies the weights of a Batch into the policy
func (b *base) Update(batch *Batch) error {
	if err := b.train.set(batch.graph); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if b.evalGraph != b.train {
		if err := b.evalGraph.set(batch.graph); err != nil {
			return fmt.Errorf("update: %w", err)
		}
	}
	return nil
}

// Snapshot returns the architectures and weights of the policy's
// networks
func (b *base) Snapshot() (Snapshot, error) {
	s := Snapshot{
		Kind:       b.kind,
		NumActions: b.numActions,
		Archs:      b.train.archs(),
	}
	for _, net := range b.train.nets() {
		params, err := net.Params()
		if err != nil {
			return Snapshot{}, fmt.Errorf("snapshot: %v", err)
		}
		s.Params = append(s.Params, params)
	}
	return s, nil
}

// Close releases the VMs of the policy
func (b *base) Close() error {
	if b.evalGraph != b.train {
		if err := b.evalGraph.close(); err != nil {
			return err
		}
	}
	return b.train.close()
}
