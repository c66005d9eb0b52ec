package floatutils

import "testing"

func TestMaxSlice(t *testing.T) {
	max, indices := MaxSlice([]float64{1, 3, 2, 3})
	if max != 3 {
		t.Errorf("max: want(3) have(%v)", max)
	}
	if len(indices) != 2 || indices[0] != 1 || indices[1] != 3 {
		t.Errorf("indices: want([1 3]) have(%v)", indices)
	}

	// The first value must not be counted twice
	_, indices = MaxSlice([]float64{5, 1})
	if len(indices) != 1 || indices[0] != 0 {
		t.Errorf("indices: want([0]) have(%v)", indices)
	}
}

func TestArgMax(t *testing.T) {
	values := []float64{0.1, 0.4, 0.4, 0.1}

	if a := ArgMax(values, nil); a != 1 {
		t.Errorf("argmax: want(1) have(%v)", a)
	}
	if a := ArgMax(values, func(n int) int { return n - 1 }); a != 2 {
		t.Errorf("argmax with tie break: want(2) have(%v)", a)
	}
}

func TestClip(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-2, -1}, {0.5, 0.5}, {3, 1},
	}
	for _, test := range tests {
		if have := Clip(test.in, -1, 1); have != test.want {
			t.Errorf("clip(%v): want(%v) have(%v)", test.in, test.want, have)
		}
	}
}
