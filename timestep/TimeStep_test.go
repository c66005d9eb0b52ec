package timestep

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStepType(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{1, 2})

	first := New(First, 0, obs, 0)
	if !first.First() || first.Mid() || first.Last() {
		t.Errorf("first step reported wrong type: %v", first)
	}

	last := New(Last, 1, obs, 5)
	if !last.Last() || last.First() {
		t.Errorf("last step reported wrong type: %v", last)
	}
}

func TestDataIsCopy(t *testing.T) {
	obs := mat.NewVecDense(3, []float64{1, 2, 3})
	step := New(Mid, 0, obs, 1)

	data := step.Data()
	data[0] = 100

	if obs.AtVec(0) != 1 {
		t.Error("modifying Data() changed the observation")
	}

	if (TimeStep{}).Data() != nil {
		t.Error("empty timestep should have nil data")
	}
}
