package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is
type SpecType int

const (
	Action SpecType = iota
	Observation
)

// Cardinality determines whether values are discrete or continuous
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of actions or observations in an environment.
//
// Shape is the shape of a single value, for example [4] for a flat
// observation vector or [C, H, W] for an image. Bounds are given per
// element of the flattened value. Discrete action Specs are
// one-dimensional with bounds [min action, max action].
type Spec struct {
	Shape      []int
	Type       SpecType
	LowerBound *mat.VecDense
	UpperBound *mat.VecDense
	Cardinality
}

// NewSpec constructs a new environment specification. NewSpec panics
// if the bounds do not have one element per element of the shape.
func NewSpec(shape []int, t SpecType, lowerBound,
	upperBound *mat.VecDense, cardinality Cardinality) Spec {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	if size != lowerBound.Len() {
		panic(fmt.Sprintf("newSpec: shape size %v must match lower bounds "+
			"length %v", size, lowerBound.Len()))
	}
	if size != upperBound.Len() {
		panic(fmt.Sprintf("newSpec: shape size %v must match upper bounds "+
			"length %v", size, upperBound.Len()))
	}

	s := make([]int, len(shape))
	copy(s, shape)
	return Spec{s, t, lowerBound, upperBound, cardinality}
}

// Size returns the number of elements in a single flattened value
func (s Spec) Size() int {
	size := 1
	for _, dim := range s.Shape {
		size *= dim
	}
	return size
}

// NumActions returns the number of discrete actions described by a
// discrete action Spec. For any other Spec, NumActions returns 0.
func (s Spec) NumActions() int {
	if s.Type != Action || s.Cardinality != Discrete || s.UpperBound == nil {
		return 0
	}
	return int(s.UpperBound.AtVec(0)-s.LowerBound.AtVec(0)) + 1
}
