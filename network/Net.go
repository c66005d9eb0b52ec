// Package network builds feed-forward and convolutional networks on
// Gorgonia computational graphs from declarative architectures
package network

import (
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/pgrl/hyperparams"
)

// Net is a network of optional convolutional layers followed by fully
// connected layers and an output head, built on a computational graph.
//
// A Net only adds nodes to its graph; running the graph is left to the
// owner of the graph's VM. After a run, Output and Features return the
// values computed for the current input.
type Net struct {
	g        *G.ExprGraph
	arch     Arch
	batch    int
	training bool

	input *G.Node
	conv  []*convLayer
	fc    []*fcLayer
	act   *Activation

	learnables G.Nodes

	// features is the input to the final fully connected layer
	features   *G.Node
	featureVal G.Value

	prediction *G.Node
	predVal    G.Value
}

// New creates a new Net on a new computational graph, taking batches
// of batch observations as input. If training is true, dropout is
// applied after hidden layers.
func New(arch Arch, batch int, init G.InitWFn, training bool) (*Net, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}

	g := G.NewGraph()
	input, err := NewInput(g, arch, batch)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return NewFromInput(arch, input, init, training)
}

// NewInput creates an input node on g for batches of observations as
// described by arch. Flat observations have input nodes of shape
// (batch, features) and image observations have input nodes of shape
// (batch, channels, height, width).
func NewInput(g *G.ExprGraph, arch Arch, batch int) (*G.Node, error) {
	if batch <= 0 {
		return nil, errors.Wrapf(hyperparams.ErrShape, "newInput: batch "+
			"size must be positive, have %v", batch)
	}

	dt := arch.Dtype()
	switch len(arch.Input) {
	case 1:
		return G.NewMatrix(
			g,
			dt,
			G.WithShape(batch, arch.Input[0]),
			G.WithName("input"),
			G.WithInit(G.Zeroes()),
		), nil

	case 2, 3:
		c, h, w, err := arch.imageShape()
		if err != nil {
			return nil, err
		}
		return G.NewTensor(
			g,
			dt,
			4,
			G.WithShape(batch, c, h, w),
			G.WithName("input"),
			G.WithInit(G.Zeroes()),
		), nil

	default:
		return nil, errors.Wrapf(hyperparams.ErrShape, "newInput: "+
			"unsupported observation shape %v", arch.Input)
	}
}

// NewFromInput creates a new Net which takes input as its input node.
// Multiple Nets can share the same input node, in which case their
// Arch names must differ.
func NewFromInput(arch Arch, input *G.Node, init G.InitWFn,
	training bool) (*Net, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	arch = arch.clone()

	shape := input.Shape()
	batch := shape[0]
	if size := shape.TotalSize() / batch; size != arch.InputSize() {
		return nil, errors.Wrapf(hyperparams.ErrShape, "newFromInput: "+
			"input of shape %v does not match observation shape %v",
			shape, arch.Input)
	}
	if input.Dtype() != arch.Dtype() {
		return nil, errors.Wrapf(hyperparams.ErrConfig, "newFromInput: "+
			"input type %v does not match precision %v", input.Dtype(),
			arch.Dtype())
	}

	act, err := ActivationFromName(arch.Activation)
	if err != nil {
		return nil, err
	}

	g := input.Graph()
	dt := arch.Dtype()
	net := &Net{
		g:        g,
		arch:     arch,
		batch:    batch,
		training: training,
		input:    input,
		act:      act,
	}

	// Convolutional layers
	if len(arch.Channels) > 0 {
		inChannels, _, _, err := arch.imageShape()
		if err != nil {
			return nil, err
		}
		for i := range arch.Channels {
			name := fmt.Sprintf("%vConv%v", arch.Name, i)
			layer := newConvLayer(g, dt, inChannels, arch.Channels[i],
				arch.Kernels[i], arch.Strides[i], act, init, name)
			net.conv = append(net.conv, layer)
			inChannels = arch.Channels[i]
		}
	}

	// Fully connected layers
	features, err := arch.Features()
	if err != nil {
		return nil, err
	}
	sizes := append([]int{features}, arch.Hidden...)
	sizes = append(sizes, arch.Outputs)
	for i := 0; i < len(sizes)-1; i++ {
		name := fmt.Sprintf("%vFC%v", arch.Name, i)
		layer := newFCLayer(g, dt, sizes[i], sizes[i+1], init, name)
		net.fc = append(net.fc, layer)
	}

	if err := net.fwd(features); err != nil {
		return nil, fmt.Errorf("newFromInput: could not compute forward "+
			"pass: %w", err)
	}
	return net, nil
}

// fwd adds the forward pass of the network to the graph
func (n *Net) fwd(features int) error {
	x := n.input
	var err error

	for i, l := range n.conv {
		if x, err = l.fwd(x); err != nil {
			return fmt.Errorf("fwd: convolution %v: %v", i, err)
		}
	}
	if x.Dims() != 2 {
		if x, err = G.Reshape(x, tensor.Shape{n.batch, features}); err != nil {
			return fmt.Errorf("fwd: could not flatten input: %v", err)
		}
	}

	for i, l := range n.fc {
		if i == len(n.fc)-1 {
			n.features = x
		}

		if x, err = l.fwd(x); err != nil {
			return fmt.Errorf("fwd: fully connected layer %v: %v", i, err)
		}

		if i < len(n.fc)-1 {
			if x, err = n.act.fwd(x); err != nil {
				return fmt.Errorf("fwd: activation %v: %v", i, err)
			}
			if n.training && n.arch.Dropout > 0 {
				if x, err = G.Dropout(x, n.arch.Dropout); err != nil {
					return fmt.Errorf("fwd: dropout %v: %v", i, err)
				}
			}
		}
	}

	if n.arch.Head == LogSoftmax {
		if x, err = logSoftmax(x, n.arch.Name); err != nil {
			return fmt.Errorf("fwd: %v", err)
		}
	}

	n.prediction = x
	G.Read(n.prediction, &n.predVal)
	G.Read(n.features, &n.featureVal)
	return nil
}

// logSoftmax returns the log-softmax of the rows of logits. Row sums
// are computed as a product with a column of ones so that every
// intermediate node keeps the (batch, 1) shape.
func logSoftmax(logits *G.Node, name string) (*G.Node, error) {
	ones := Ones(logits.Graph(), logits.Dtype(), logits.Shape()[1],
		name+"LogSoftmaxOnes")

	exp, err := G.Exp(logits)
	if err != nil {
		return nil, fmt.Errorf("logSoftmax: %v", err)
	}
	sum, err := G.Mul(exp, ones)
	if err != nil {
		return nil, fmt.Errorf("logSoftmax: %v", err)
	}
	logSumExp, err := G.Log(sum)
	if err != nil {
		return nil, fmt.Errorf("logSoftmax: %v", err)
	}
	return G.BroadcastSub(logits, logSumExp, nil, []byte{1})
}

// Ones returns a constant (n, 1) column of ones. Multiplying a
// (batch, n) matrix by it sums each row.
func Ones(g *G.ExprGraph, dt tensor.Dtype, n int, name string) *G.Node {
	return G.NewMatrix(
		g,
		dt,
		G.WithShape(n, 1),
		G.WithName(name),
		G.WithInit(G.Ones()),
	)
}

// Graph returns the computational graph of the Net
func (n *Net) Graph() *G.ExprGraph {
	return n.g
}

// Arch returns a copy of the Net's architecture
func (n *Net) Arch() Arch {
	return n.arch.clone()
}

// BatchSize returns the number of observations per input batch
func (n *Net) BatchSize() int {
	return n.batch
}

// Training returns whether the Net applies dropout
func (n *Net) Training() bool {
	return n.training
}

// Prediction returns the output node of the Net, of shape
// (batch, outputs)
func (n *Net) Prediction() *G.Node {
	return n.prediction
}

// SetInput sets the value of the input node before running the graph.
// The input is a flattened batch of observations.
func (n *Net) SetInput(input []float64) error {
	want := n.input.Shape().TotalSize()
	if len(input) != want {
		return errors.Wrapf(hyperparams.ErrShape, "setInput: invalid "+
			"number of inputs\n\twant(%v)\n\thave(%v)", want, len(input))
	}

	t, err := NewDense(n.arch.Dtype(), n.input.Shape(), input)
	if err != nil {
		return fmt.Errorf("setInput: %v", err)
	}
	return G.Let(n.input, t)
}

// Output returns the flattened output of the last run of the graph
func (n *Net) Output() ([]float64, error) {
	if n.predVal == nil {
		return nil, fmt.Errorf("output: graph has not been run")
	}
	return Float64s(n.predVal.Data())
}

// Features returns the flattened inputs to the final layer from the
// last run of the graph
func (n *Net) Features() ([]float64, error) {
	if n.featureVal == nil {
		return nil, fmt.Errorf("features: graph has not been run")
	}
	return Float64s(n.featureVal.Data())
}

// Learnables returns the learnable nodes of the Net. Convolution
// filters come first, followed by the weights and bias of each fully
// connected layer.
func (n *Net) Learnables() G.Nodes {
	if n.learnables == nil {
		for _, l := range n.conv {
			n.learnables = append(n.learnables, l.Learnables()...)
		}
		for _, l := range n.fc {
			n.learnables = append(n.learnables, l.Learnables()...)
		}
	}
	return n.learnables
}

// CloneToInput returns a copy of the Net that takes input as its input
// node. The input may be on a new graph and have a different batch
// size.
func (n *Net) CloneToInput(input *G.Node, training bool) (*Net, error) {
	clone, err := NewFromInput(n.arch, input, G.Zeroes(), training)
	if err != nil {
		return nil, fmt.Errorf("cloneToInput: %w", err)
	}
	if err := clone.Set(n); err != nil {
		return nil, fmt.Errorf("cloneToInput: %w", err)
	}
	return clone, nil
}

// Set sets the weights of a Net to be equal to the weights of another
// Net with the same architecture
func (dest *Net) Set(source *Net) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return errors.Wrapf(hyperparams.ErrShape, "set: source has %v "+
			"learnables, destination has %v", len(sourceNodes), len(nodes))
	}

	for i, destLearnable := range nodes {
		if !destLearnable.Shape().Eq(sourceNodes[i].Shape()) {
			return errors.Wrapf(hyperparams.ErrShape, "set: learnable %v "+
				"has shape %v in source and %v in destination", i,
				sourceNodes[i].Shape(), destLearnable.Shape())
		}

		value, err := G.CloneValue(sourceNodes[i].Value())
		if err != nil {
			return fmt.Errorf("set: could not copy learnable %v: %v", i, err)
		}
		if err := G.Let(destLearnable, value); err != nil {
			return fmt.Errorf("set: could not set learnable %v: %v", i, err)
		}
	}
	return nil
}

// Params returns copies of the values of all learnables, in the order
// of Learnables
func (n *Net) Params() ([][]float64, error) {
	nodes := n.Learnables()
	params := make([][]float64, len(nodes))
	for i, node := range nodes {
		p, err := Float64s(node.Value().Data())
		if err != nil {
			return nil, fmt.Errorf("params: learnable %v: %v", i, err)
		}
		params[i] = p
	}
	return params, nil
}

// SetParams sets the values of all learnables, given in the order of
// Learnables
func (n *Net) SetParams(params [][]float64) error {
	nodes := n.Learnables()
	if len(params) != len(nodes) {
		return errors.Wrapf(hyperparams.ErrShape, "setParams: have %v "+
			"parameter arrays for %v learnables", len(params), len(nodes))
	}

	for i, node := range nodes {
		t, err := NewDense(n.arch.Dtype(), node.Shape(), params[i])
		if err != nil {
			return errors.Wrapf(hyperparams.ErrShape, "setParams: "+
				"learnable %v: %v", i, err)
		}
		if err := G.Let(node, t); err != nil {
			return fmt.Errorf("setParams: learnable %v: %v", i, err)
		}
	}
	return nil
}
