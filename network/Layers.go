package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer is a single layer of a network, owning its learnable weights
type Layer interface {
	fwd(x *G.Node) (*G.Node, error)
	Learnables() G.Nodes
}

// fcLayer implements a fully connected layer of a feed forward neural
// network. The activation is applied by the caller, since the final
// layer of a network has none.
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
}

// newFCLayer adds the weights of a fully connected layer with in
// inputs and out outputs to the graph
func newFCLayer(g *G.ExprGraph, dt tensor.Dtype, in, out int,
	init G.InitWFn, name string) *fcLayer {
	weights := G.NewMatrix(
		g,
		dt,
		G.WithShape(in, out),
		G.WithName(name+"W"),
		G.WithInit(init),
	)
	bias := G.NewMatrix(
		g,
		dt,
		G.WithShape(1, out),
		G.WithName(name+"B"),
		G.WithInit(G.Zeroes()),
	)
	return &fcLayer{weights, bias}
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, err
	}

	// Broadcast the bias weights to all samples along the batch
	// dimension
	return G.BroadcastAdd(x, f.bias, nil, []byte{0})
}

// Learnables returns the weights and bias of the layer
func (f *fcLayer) Learnables() G.Nodes {
	return G.Nodes{f.weights, f.bias}
}

// convLayer implements a 2D convolutional layer with square kernels,
// no padding, and no bias
type convLayer struct {
	filter *G.Node
	kernel int
	stride int
	act    *Activation
}

// newConvLayer adds the filter of a convolutional layer to the graph
func newConvLayer(g *G.ExprGraph, dt tensor.Dtype, inChannels, outChannels,
	kernel, stride int, act *Activation, init G.InitWFn,
	name string) *convLayer {
	filter := G.NewTensor(
		g,
		dt,
		4,
		G.WithShape(outChannels, inChannels, kernel, kernel),
		G.WithName(name+"Filter"),
		G.WithInit(init),
	)
	return &convLayer{filter, kernel, stride, act}
}

// fwd adds the convolution and activation to the computational graph.
// The input must be of shape (batch, channels, height, width).
func (c *convLayer) fwd(x *G.Node) (*G.Node, error) {
	if x.Dims() != 4 {
		return nil, fmt.Errorf("fwd: convolution input must have 4 "+
			"dimensions, have %v", x.Shape())
	}

	x, err := G.Conv2d(
		x,
		c.filter,
		tensor.Shape{c.kernel, c.kernel},
		[]int{0, 0},
		[]int{c.stride, c.stride},
		[]int{1, 1},
	)
	if err != nil {
		return nil, err
	}
	return c.act.fwd(x)
}

// Learnables returns the convolution filter
func (c *convLayer) Learnables() G.Nodes {
	return G.Nodes{c.filter}
}
