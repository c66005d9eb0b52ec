package initwfn

import (
	"testing"

	"gorgonia.org/tensor"
)

func TestNew(t *testing.T) {
	for _, typ := range []Type{GlorotU, GlorotN, HeU, HeN} {
		init, err := New(typ, 1.0)
		if err != nil {
			t.Fatalf("%v: %v", typ, err)
		}
		if init.Type() != typ {
			t.Errorf("type: want(%v) have(%v)", typ, init.Type())
		}

		weights, ok := init.InitWFn()(tensor.Float64, 3, 4).([]float64)
		if !ok {
			t.Fatalf("%v: expected []float64 weights", typ)
		}
		if len(weights) != 12 {
			t.Errorf("%v: want 12 weights, have %v", typ, len(weights))
		}
	}
}

func TestNewInvalid(t *testing.T) {
	if _, err := New("Orthogonal", 1); err == nil {
		t.Error("expected an error for an unknown initializer")
	}
	if _, err := New(GlorotU, 0); err == nil {
		t.Error("expected an error for a zero gain")
	}
}
