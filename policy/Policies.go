package policy

import (
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/pgrl/environment"
	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/initwfn"
	"github.com/samuelfneumann/pgrl/network"
)

// FNN is a policy with a feed forward, fully connected network over
// flattened observations
type FNN struct{ *base }

// CNN is a policy with convolutional layers followed by fully
// connected layers over image observations
type CNN struct{ *base }

// ActorCritic is a policy with independent actor and critic networks
// which share only their observation input
type ActorCritic struct{ *base }

// Build constructs the policy described by a hyperparameter Spec for
// an environment with the given observation and action specifications
func Build(spec hyperparams.Spec, obs, act environment.Spec) (Policy, error) {
	numActions := act.NumActions()
	if numActions <= 0 {
		return nil, errors.Wrapf(hyperparams.ErrShape, "build: policies "+
			"need discrete actions, have %v %v actions", act.Cardinality,
			act.Shape)
	}

	init, err := initwfn.New(initwfn.Type(spec.Init()), 1.0)
	if err != nil {
		return nil, errors.Wrapf(hyperparams.ErrConfig, "build: %v", err)
	}

	c := spec.Config()
	template := network.Arch{
		Input:      append([]int(nil), obs.Shape...),
		Outputs:    numActions,
		Activation: spec.Activation(),
		Head:       network.LogSoftmax,
		Dropout:    spec.Dropout(),
		Precision:  spec.Precision().String(),
	}

	switch spec.Architecture() {
	case hyperparams.FNN:
		arch := template
		arch.Name = "policy"
		arch.Input = []int{obs.Size()}
		if arch.Hidden, err = network.ExpandHidden(obs.Size(),
			c.HiddenLayers, spec.ConnectionMode()); err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}

		b, err := newBase(hyperparams.FNN, []network.Arch{arch},
			init.InitWFn())
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		return &FNN{b}, nil

	case hyperparams.CNN:
		arch, err := blockArch(template, "policy", c.CNNHiddenLayers,
			c.FNNHiddenLayers, spec.ConnectionMode())
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}

		b, err := newBase(hyperparams.CNN, []network.Arch{arch},
			init.InitWFn())
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		return &CNN{b}, nil

	case hyperparams.ActorCritic:
		actor, err := blockArch(template, "actor", c.Actor.CNNLayers,
			c.Actor.FNNLayers, spec.ConnectionMode())
		if err != nil {
			return nil, fmt.Errorf("build: actor: %w", err)
		}

		critic, err := blockArch(template, "critic", c.Critic.CNNLayers,
			c.Critic.FNNLayers, spec.ConnectionMode())
		if err != nil {
			return nil, fmt.Errorf("build: critic: %w", err)
		}
		critic.Outputs = 1
		critic.Head = network.Linear

		b, err := newBase(hyperparams.ActorCritic,
			[]network.Arch{actor, critic}, init.InitWFn())
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		return &ActorCritic{b}, nil

	default:
		return nil, errors.Wrapf(hyperparams.ErrConfig, "build: unknown "+
			"architecture %q", spec.Architecture())
	}
}

// blockArch returns the architecture of a network with optional
// convolutional layers followed by fully connected layers. Hidden
// sizes are expanded from the number of features entering the first
// fully connected layer.
func blockArch(template network.Arch, name string, conv *hyperparams.ConvLayers,
	hidden []float64, mode hyperparams.ConnectionMode) (network.Arch, error) {
	arch := template
	arch.Name = name
	arch.Input = append([]int(nil), template.Input...)

	if conv.Len() > 0 {
		arch.Channels = append([]int(nil), conv.Channels...)
		arch.Kernels = append([]int(nil), conv.KernelSizes...)
		arch.Strides = append([]int(nil), conv.Strides...)
	}

	features, err := arch.Features()
	if err != nil {
		return network.Arch{}, err
	}
	if arch.Hidden, err = network.ExpandHidden(features, hidden, mode); err != nil {
		return network.Arch{}, err
	}
	return arch, arch.Validate()
}

// Restore rebuilds a policy from a Snapshot
func Restore(s Snapshot) (Policy, error) {
	if len(s.Archs) == 0 || len(s.Archs) != len(s.Params) {
		return nil, errors.Wrapf(hyperparams.ErrConfig, "restore: %v "+
			"architectures with %v parameter sets", len(s.Archs),
			len(s.Params))
	}
	switch s.Kind {
	case hyperparams.FNN, hyperparams.CNN, hyperparams.ActorCritic:
	default:
		return nil, errors.Wrapf(hyperparams.ErrConfig, "restore: unknown "+
			"policy kind %q", s.Kind)
	}
	if (s.Kind == hyperparams.ActorCritic) != (len(s.Archs) == 2) {
		return nil, errors.Wrapf(hyperparams.ErrConfig, "restore: %v "+
			"policy with %v networks", s.Kind, len(s.Archs))
	}

	b, err := newBase(s.Kind, s.Archs, G.Zeroes())
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	graphs := []*graph{b.train}
	if b.evalGraph != b.train {
		graphs = append(graphs, b.evalGraph)
	}
	for _, g := range graphs {
		for i, net := range g.nets() {
			if err := net.SetParams(s.Params[i]); err != nil {
				return nil, fmt.Errorf("restore: %w", err)
			}
		}
	}

	switch s.Kind {
	case hyperparams.FNN:
		return &FNN{b}, nil
	case hyperparams.CNN:
		return &CNN{b}, nil
	default:
		return &ActorCritic{b}, nil
	}
}
