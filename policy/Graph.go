package policy

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/pgrl/network"
)

// graph holds an actor and an optional critic which share an input
// node on the same computational graph
type graph struct {
	actor  *network.Net
	critic *network.Net
	vm     G.VM
}

// newGraph builds the networks described by the architectures on a new
// graph. The first architecture is the actor and the optional second
// is the critic.
func newGraph(archs []network.Arch, batch int, init G.InitWFn,
	training bool) (*graph, error) {
	g := G.NewGraph()
	input, err := network.NewInput(g, archs[0], batch)
	if err != nil {
		return nil, err
	}

	actor, err := network.NewFromInput(archs[0], input, init, training)
	if err != nil {
		return nil, fmt.Errorf("newGraph: could not build actor: %w", err)
	}

	var critic *network.Net
	if len(archs) > 1 {
		critic, err = network.NewFromInput(archs[1], input, init, training)
		if err != nil {
			return nil, fmt.Errorf("newGraph: could not build critic: %w",
				err)
		}
	}

	return &graph{actor: actor, critic: critic}, nil
}

// withVM compiles the graph for forward passes
func (g *graph) withVM() *graph {
	g.vm = G.NewTapeMachine(g.actor.Graph())
	return g
}

// clone returns a copy of g on a new graph with a new batch size and
// mode
func (g *graph) clone(batch int, training bool) (*graph, error) {
	input, err := network.NewInput(G.NewGraph(), g.actor.Arch(), batch)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}

	clone := &graph{}
	if clone.actor, err = g.actor.CloneToInput(input, training); err != nil {
		return nil, fmt.Errorf("clone: actor: %w", err)
	}
	if g.critic != nil {
		clone.critic, err = g.critic.CloneToInput(input, training)
		if err != nil {
			return nil, fmt.Errorf("clone: critic: %w", err)
		}
	}
	return clone, nil
}

// set copies the weights of source into g
func (g *graph) set(source *graph) error {
	if err := g.actor.Set(source.actor); err != nil {
		return fmt.Errorf("set: actor: %w", err)
	}
	if g.critic != nil {
		if err := g.critic.Set(source.critic); err != nil {
			return fmt.Errorf("set: critic: %w", err)
		}
	}
	return nil
}

func (g *graph) archs() []network.Arch {
	archs := []network.Arch{g.actor.Arch()}
	if g.critic != nil {
		archs = append(archs, g.critic.Arch())
	}
	return archs
}

func (g *graph) nets() []*network.Net {
	if g.critic == nil {
		return []*network.Net{g.actor}
	}
	return []*network.Net{g.actor, g.critic}
}

// forward runs the graph on a single observation
func (g *graph) forward(obs []float64) (Output, error) {
	if err := g.actor.SetInput(obs); err != nil {
		return Output{}, fmt.Errorf("forward: %w", err)
	}

	if err := g.vm.RunAll(); err != nil {
		return Output{}, fmt.Errorf("forward: %v", err)
	}
	defer g.vm.Reset()

	logProbs, err := g.actor.Output()
	if err != nil {
		return Output{}, fmt.Errorf("forward: %v", err)
	}
	probs := make([]float64, len(logProbs))
	for i := range logProbs {
		probs[i] = math.Exp(logProbs[i])
	}

	out := Output{Probs: probs, LogProbs: logProbs}
	if out.Hidden.Actor, err = g.actor.Features(); err != nil {
		return Output{}, fmt.Errorf("forward: %v", err)
	}

	if g.critic != nil {
		value, err := g.critic.Output()
		if err != nil {
			return Output{}, fmt.Errorf("forward: %v", err)
		}
		out.Value = value[0]
		out.HasValue = true

		if out.Hidden.Critic, err = g.critic.Features(); err != nil {
			return Output{}, fmt.Errorf("forward: %v", err)
		}
	}
	return out, nil
}

func (g *graph) close() error {
	if g.vm == nil {
		return nil
	}
	return g.vm.Close()
}
