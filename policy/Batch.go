package policy

import (
	G "gorgonia.org/gorgonia"
)

// Batch is a training-mode copy of a policy's networks, built on its
// own graph with a fixed batch size. Algorithms add their losses to
// the Batch's graph and return the trained weights with
// Policy.Update.
type Batch struct {
	*graph
}

// Size returns the number of observations per batch
func (b *Batch) Size() int {
	return b.actor.BatchSize()
}

// Graph returns the computational graph of the Batch
func (b *Batch) Graph() *G.ExprGraph {
	return b.actor.Graph()
}

// LogProbs returns the (size, actions) node of action log-probabilities
func (b *Batch) LogProbs() *G.Node {
	return b.actor.Prediction()
}

// Values returns the (size, 1) node of state values, or nil if the
// policy has no critic
func (b *Batch) Values() *G.Node {
	if b.critic == nil {
		return nil
	}
	return b.critic.Prediction()
}

// Learnables returns the learnables of the actor followed by those of
// the critic
func (b *Batch) Learnables() G.Nodes {
	learnables := append(G.Nodes{}, b.actor.Learnables()...)
	if b.critic != nil {
		learnables = append(learnables, b.critic.Learnables()...)
	}
	return learnables
}

// SetInput sets the batch of flattened observations
func (b *Batch) SetInput(obs []float64) error {
	return b.actor.SetInput(obs)
}
