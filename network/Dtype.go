package network

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Backing returns a copy of data as a backing slice of the given
// tensor type. Only tensor.Float64 and tensor.Float32 are supported.
func Backing(dt tensor.Dtype, data []float64) (interface{}, error) {
	switch dt {
	case tensor.Float64:
		out := make([]float64, len(data))
		copy(out, data)
		return out, nil

	case tensor.Float32:
		out := make([]float32, len(data))
		for i := range data {
			out[i] = float32(data[i])
		}
		return out, nil

	default:
		return nil, fmt.Errorf("backing: unsupported type %v", dt)
	}
}

// Float64s returns a copy of the data of a tensor value as float64s
func Float64s(data interface{}) ([]float64, error) {
	switch d := data.(type) {
	case []float64:
		out := make([]float64, len(d))
		copy(out, d)
		return out, nil

	case []float32:
		out := make([]float64, len(d))
		for i := range d {
			out[i] = float64(d[i])
		}
		return out, nil

	case float64:
		return []float64{d}, nil

	case float32:
		return []float64{float64(d)}, nil

	default:
		return nil, fmt.Errorf("float64s: unsupported data type %T", data)
	}
}

// NewDense returns a new tensor of type dt and the given shape, filled
// with data
func NewDense(dt tensor.Dtype, shape tensor.Shape,
	data []float64) (*tensor.Dense, error) {
	if shape.TotalSize() != len(data) {
		return nil, fmt.Errorf("newDense: cannot fill shape %v with %v "+
			"values", shape, len(data))
	}
	backing, err := Backing(dt, data)
	if err != nil {
		return nil, fmt.Errorf("newDense: %v", err)
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing)),
		nil
}
