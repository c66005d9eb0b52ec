package algorithm

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/network"
	"github.com/samuelfneumann/pgrl/policy"
)

// Entropy returns the entropy -Σ p log p of a discrete distribution
func Entropy(probs []float64) float64 {
	h := 0.0
	for _, p := range probs {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h
}

// ActorLoss returns the actor loss of a single step,
// -log π(a|s)·A - β·H(π(·|s))
func ActorLoss(logProb, advantage, entropy, entropyCoeff float64) float64 {
	return -logProb*advantage - entropyCoeff*entropy
}

// CriticLoss returns the critic loss of a single step, c·(G - V(s))²
func CriticLoss(target, value, criticCoeff float64) float64 {
	diff := target - value
	return criticCoeff * diff * diff
}

// A2CLoss returns the total loss of a batch of steps, the sum over
// steps of the actor and critic losses
func A2CLoss(logProbs, advantages, entropies, targets, values []float64,
	entropyCoeff, criticCoeff float64) (float64, error) {
	n := len(logProbs)
	if len(advantages) != n || len(entropies) != n || len(targets) != n ||
		len(values) != n {
		return 0, errors.Wrapf(hyperparams.ErrShape, "a2cLoss: all inputs "+
			"must have %v elements", n)
	}

	loss := 0.0
	for t := 0; t < n; t++ {
		loss += ActorLoss(logProbs[t], advantages[t], entropies[t],
			entropyCoeff)
		loss += CriticLoss(targets[t], values[t], criticCoeff)
	}
	return loss, nil
}

// lossGraph is a loss over a policy Batch, ready to be differentiated
// with respect to its learnables
type lossGraph struct {
	batch      *policy.Batch
	learnables G.Nodes
	loss       *G.Node
	lossVal    G.Value
}

// inputs holds the constant inputs to a loss
type inputs struct {
	obs     []float64
	actions []int
	weights []float64 // policy gradient weights, targets or advantages
	targets []float64 // critic targets
}

// batchInputs adds a constant one-hot matrix of actions and a constant
// column of weights to the Batch's graph
func batchInputs(b *policy.Batch, in inputs) (onehot, weights *G.Node,
	err error) {
	g := b.Graph()
	dt := b.LogProbs().Dtype()
	numActions := b.LogProbs().Shape()[1]
	size := b.Size()

	if len(in.actions) != size || len(in.weights) != size {
		return nil, nil, errors.Wrapf(hyperparams.ErrShape, "batchInputs: "+
			"batch of size %v with %v actions and %v weights", size,
			len(in.actions), len(in.weights))
	}
	if err := b.SetInput(in.obs); err != nil {
		return nil, nil, fmt.Errorf("batchInputs: %w", err)
	}

	indices := make([]float64, size*numActions)
	for i, a := range in.actions {
		if a < 0 || a >= numActions {
			return nil, nil, errors.Wrapf(hyperparams.ErrShape,
				"batchInputs: illegal action %v", a)
		}
		indices[i*numActions+a] = 1
	}

	if onehot, err = constant(g, dt, tensor.Shape{size, numActions}, indices,
		"actions"); err != nil {
		return nil, nil, err
	}
	if weights, err = constant(g, dt, tensor.Shape{size, 1}, in.weights,
		"weights"); err != nil {
		return nil, nil, err
	}
	return onehot, weights, nil
}

// constant adds a matrix filled with data to g
func constant(g *G.ExprGraph, dt tensor.Dtype, shape tensor.Shape,
	data []float64, name string) (*G.Node, error) {
	t, err := network.NewDense(dt, shape, data)
	if err != nil {
		return nil, fmt.Errorf("constant: %v", err)
	}
	return G.NewMatrix(g, dt, G.WithShape(shape...), G.WithName(name),
		G.WithValue(t)), nil
}

// scalar adds a scalar constant of the given type to g
func scalar(dt tensor.Dtype, v float64) *G.Node {
	if dt == tensor.Float32 {
		return G.NewConstant(float32(v))
	}
	return G.NewConstant(v)
}

// actionLogProbs returns the (size, 1) log-probabilities of the taken
// actions
func actionLogProbs(b *policy.Batch, onehot *G.Node) (*G.Node, error) {
	logProbs := b.LogProbs()
	ones := network.Ones(b.Graph(), logProbs.Dtype(), logProbs.Shape()[1],
		"actionOnes")

	selected, err := G.HadamardProd(logProbs, onehot)
	if err != nil {
		return nil, fmt.Errorf("actionLogProbs: %v", err)
	}
	return G.Mul(selected, ones)
}

// reinforceLoss builds the loss -Σ log π(a_t|s_t)·w_t on the actor of
// a Batch
func reinforceLoss(b *policy.Batch, in inputs) (*lossGraph, error) {
	onehot, weights, err := batchInputs(b, in)
	if err != nil {
		return nil, fmt.Errorf("reinforceLoss: %w", err)
	}

	logProbs, err := actionLogProbs(b, onehot)
	if err != nil {
		return nil, fmt.Errorf("reinforceLoss: %v", err)
	}
	weighted, err := G.HadamardProd(logProbs, weights)
	if err != nil {
		return nil, fmt.Errorf("reinforceLoss: %v", err)
	}
	sum, err := G.Sum(weighted)
	if err != nil {
		return nil, fmt.Errorf("reinforceLoss: %v", err)
	}
	loss, err := G.Neg(sum)
	if err != nil {
		return nil, fmt.Errorf("reinforceLoss: %v", err)
	}

	l := &lossGraph{batch: b, learnables: b.Learnables(), loss: loss}
	G.Read(loss, &l.lossVal)
	return l, nil
}

// a2cLoss builds the loss
//
//	Σ [-log π(a_t|s_t)·A_t - β·H(π(·|s_t))] + c·Σ (G_t - V(s_t))²
//
// on the actor and critic of a Batch. The advantages A_t are held
// constant.
func a2cLoss(b *policy.Batch, in inputs, entropyCoeff,
	criticCoeff float64) (*lossGraph, error) {
	if b.Values() == nil {
		return nil, errors.Wrapf(hyperparams.ErrConfig, "a2cLoss: policy "+
			"has no critic")
	}

	onehot, advantages, err := batchInputs(b, in)
	if err != nil {
		return nil, fmt.Errorf("a2cLoss: %w", err)
	}
	dt := b.LogProbs().Dtype()
	if len(in.targets) != b.Size() {
		return nil, errors.Wrapf(hyperparams.ErrShape, "a2cLoss: batch of "+
			"size %v with %v targets", b.Size(), len(in.targets))
	}
	targets, err := constant(b.Graph(), dt, tensor.Shape{b.Size(), 1},
		in.targets, "targets")
	if err != nil {
		return nil, fmt.Errorf("a2cLoss: %v", err)
	}

	// Actor
	logProbs, err := actionLogProbs(b, onehot)
	if err != nil {
		return nil, fmt.Errorf("a2cLoss: %v", err)
	}
	weighted := G.Must(G.HadamardProd(logProbs, advantages))
	actorLoss := G.Must(G.Neg(G.Must(G.Sum(weighted))))

	probs := G.Must(G.Exp(b.LogProbs()))
	plogp := G.Must(G.HadamardProd(probs, b.LogProbs()))
	entropy := G.Must(G.Neg(G.Must(G.Sum(plogp))))
	bonus := G.Must(G.Mul(scalar(dt, entropyCoeff), entropy))
	actorLoss = G.Must(G.Sub(actorLoss, bonus))

	// Critic
	diff := G.Must(G.Sub(targets, b.Values()))
	criticLoss := G.Must(G.Sum(G.Must(G.Square(diff))))
	criticLoss = G.Must(G.Mul(scalar(dt, criticCoeff), criticLoss))

	loss, err := G.Add(actorLoss, criticLoss)
	if err != nil {
		return nil, fmt.Errorf("a2cLoss: %v", err)
	}

	l := &lossGraph{batch: b, learnables: b.Learnables(), loss: loss}
	G.Read(loss, &l.lossVal)
	return l, nil
}

// step differentiates the loss, takes a single solver step, and
// copies the new weights back into pol. The loss before the step is
// returned.
func (l *lossGraph) step(pol policy.Policy, s G.Solver) (float64, error) {
	if _, err := G.Grad(l.loss, l.learnables...); err != nil {
		return 0, fmt.Errorf("step: could not compute gradient: %v", err)
	}

	vm := G.NewTapeMachine(l.batch.Graph(), G.BindDualValues(l.learnables...))
	defer vm.Close()

	if err := vm.RunAll(); err != nil {
		return 0, fmt.Errorf("step: could not run loss graph: %v", err)
	}
	if err := s.Step(G.NodesToValueGrads(l.learnables)); err != nil {
		return 0, fmt.Errorf("step: solver: %v", err)
	}

	if err := pol.Update(l.batch); err != nil {
		return 0, fmt.Errorf("step: %w", err)
	}

	loss, err := network.Float64s(l.lossVal.Data())
	if err != nil {
		return 0, fmt.Errorf("step: %v", err)
	}
	return loss[0], nil
}

// value runs the loss graph without differentiating it
func (l *lossGraph) value() (float64, error) {
	vm := G.NewTapeMachine(l.batch.Graph())
	defer vm.Close()

	if err := vm.RunAll(); err != nil {
		return 0, fmt.Errorf("value: %v", err)
	}
	loss, err := network.Float64s(l.lossVal.Data())
	if err != nil {
		return 0, fmt.Errorf("value: %v", err)
	}
	return loss[0], nil
}
