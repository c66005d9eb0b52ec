package network

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/pgrl/hyperparams"
)

// Head determines the output transformation of a network
type Head string

const (
	// LogSoftmax heads output log-probabilities over outputs
	LogSoftmax Head = "log_softmax"

	// Linear heads output unbounded values, such as state values
	Linear Head = "linear"
)

// Arch fully describes the architecture of a Net, independently of its
// weights and batch size. An Arch is everything needed to rebuild a Net
// before restoring its weights.
type Arch struct {
	// Name prefixes the names of all learnable nodes
	Name string

	// Input is the shape of a single observation: [features],
	// [height, width], or [channels, height, width]
	Input []int

	// Convolutional layers, applied before the fully connected
	// layers. Kernels are square and images must be square.
	Channels []int
	Kernels  []int
	Strides  []int

	// Hidden holds the sizes of the fully connected hidden layers
	Hidden  []int
	Outputs int

	Activation string
	Head       Head
	Dropout    float64
	Precision  string
}

// Dtype returns the tensor type of the network's computations
func (a Arch) Dtype() tensor.Dtype {
	if a.Precision == tensor.Float32.String() {
		return tensor.Float32
	}
	return tensor.Float64
}

// InputSize returns the number of elements in a single observation
func (a Arch) InputSize() int {
	size := 1
	for _, dim := range a.Input {
		size *= dim
	}
	return size
}

// imageShape returns the (channels, height, width) of image inputs
func (a Arch) imageShape() (c, h, w int, err error) {
	switch len(a.Input) {
	case 2:
		return 1, a.Input[0], a.Input[1], nil
	case 3:
		return a.Input[0], a.Input[1], a.Input[2], nil
	default:
		return 0, 0, 0, errors.Wrapf(hyperparams.ErrShape, "imageShape: "+
			"convolutional layers need [H, W] or [C, H, W] observations, "+
			"have shape %v", a.Input)
	}
}

// Features returns the number of inputs to the first fully connected
// layer. With convolutional layers, this is the number of channels of
// the last convolution times its square spatial output size.
func (a Arch) Features() (int, error) {
	if len(a.Channels) == 0 {
		return a.InputSize(), nil
	}

	_, h, w, err := a.imageShape()
	if err != nil {
		return 0, err
	}
	if h != w {
		return 0, errors.Wrapf(hyperparams.ErrShape, "features: "+
			"convolutional layers need square observations, have %vx%v", h,
			w)
	}

	out, err := ConvOutputSize(h, a.Kernels, a.Strides)
	if err != nil {
		return 0, err
	}
	return a.Channels[len(a.Channels)-1] * out * out, nil
}

// Validate checks that the architecture can be built
func (a Arch) Validate() error {
	if len(a.Input) == 0 || a.InputSize() <= 0 {
		return errors.Wrapf(hyperparams.ErrShape, "validate: invalid "+
			"input shape %v", a.Input)
	}
	if a.Outputs <= 0 {
		return errors.Wrapf(hyperparams.ErrShape, "validate: invalid "+
			"number of outputs %v", a.Outputs)
	}
	if len(a.Kernels) != len(a.Channels) || len(a.Strides) != len(a.Channels) {
		return errors.Wrapf(hyperparams.ErrConfig, "validate: %v channels, "+
			"%v kernels, and %v strides", len(a.Channels), len(a.Kernels),
			len(a.Strides))
	}
	for _, h := range a.Hidden {
		if h <= 0 {
			return errors.Wrapf(hyperparams.ErrShape, "validate: invalid "+
				"hidden sizes %v", a.Hidden)
		}
	}
	switch a.Head {
	case LogSoftmax, Linear:
	default:
		return errors.Wrapf(hyperparams.ErrConfig, "validate: unknown "+
			"head %q", a.Head)
	}
	if a.Dropout < 0 || a.Dropout >= 1 {
		return errors.Wrapf(hyperparams.ErrConfig, "validate: invalid "+
			"dropout %v", a.Dropout)
	}
	if _, err := ActivationFromName(a.Activation); err != nil {
		return errors.Wrapf(hyperparams.ErrConfig, "validate: %v", err)
	}

	_, err := a.Features()
	return err
}

// clone returns a deep copy of the Arch
func (a Arch) clone() Arch {
	out := a
	out.Input = append([]int(nil), a.Input...)
	out.Channels = append([]int(nil), a.Channels...)
	out.Kernels = append([]int(nil), a.Kernels...)
	out.Strides = append([]int(nil), a.Strides...)
	out.Hidden = append([]int(nil), a.Hidden...)
	return out
}
