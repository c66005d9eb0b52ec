package network

import (
	"math"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/pgrl/hyperparams"
)

// ConvOutputSize returns the spatial size of a square input of size in
// after being passed through convolutions with the given square kernel
// sizes and strides, applied in order. Each layer maps a size n to
// floor((n - kernel) / stride) + 1. An error wrapping
// hyperparams.ErrShape is returned if any layer would have a
// non-positive output size.
func ConvOutputSize(in int, kernels, strides []int) (int, error) {
	if len(kernels) != len(strides) {
		return 0, errors.Wrapf(hyperparams.ErrConfig, "convOutputSize: "+
			"%v kernel sizes but %v strides", len(kernels), len(strides))
	}

	out := in
	for i := range kernels {
		if strides[i] <= 0 {
			return 0, errors.Wrapf(hyperparams.ErrConfig, "convOutputSize: "+
				"layer %v has non-positive stride %v", i, strides[i])
		}
		if out < kernels[i] {
			return 0, errors.Wrapf(hyperparams.ErrShape, "convOutputSize: "+
				"layer %v kernel %v larger than input %v", i, kernels[i],
				out)
		}
		out = (out-kernels[i])/strides[i] + 1
	}
	return out, nil
}

// ExpandHidden converts hidden layer descriptions into layer sizes.
// In exponentiative mode, a description h becomes floor(input^h)
// units; in literal mode, h is the number of units.
func ExpandHidden(input int, hidden []float64,
	mode hyperparams.ConnectionMode) ([]int, error) {
	sizes := make([]int, len(hidden))
	for i, h := range hidden {
		switch mode {
		case hyperparams.Exponentiative:
			sizes[i] = int(math.Floor(math.Pow(float64(input), h)))
		case hyperparams.Literal:
			sizes[i] = int(h)
		default:
			return nil, errors.Wrapf(hyperparams.ErrConfig, "expandHidden: "+
				"unknown connection mode %q", mode)
		}

		if sizes[i] <= 0 {
			return nil, errors.Wrapf(hyperparams.ErrShape, "expandHidden: "+
				"hidden layer %v (%v) has %v units", i, h, sizes[i])
		}
	}
	return sizes, nil
}

// LayerSizes returns the full list of fully connected layer sizes:
// the input size, the expanded hidden sizes, and the output size.
func LayerSizes(input int, hidden []float64, outputs int,
	mode hyperparams.ConnectionMode) ([]int, error) {
	if input <= 0 || outputs <= 0 {
		return nil, errors.Wrapf(hyperparams.ErrShape, "layerSizes: input "+
			"(%v) and output (%v) sizes must be positive", input, outputs)
	}

	expanded, err := ExpandHidden(input, hidden, mode)
	if err != nil {
		return nil, err
	}

	sizes := make([]int, 0, len(expanded)+2)
	sizes = append(sizes, input)
	sizes = append(sizes, expanded...)
	return append(sizes, outputs), nil
}
