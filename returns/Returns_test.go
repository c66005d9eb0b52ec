package returns

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const tolerance = 1e-12

func TestDiscounted(t *testing.T) {
	tests := []struct {
		rewards []float64
		gamma   float64
		want    []float64
	}{
		{[]float64{1, 1, 1}, 1.0, []float64{3, 2, 1}},
		{[]float64{1, 2, 3}, 0.5, []float64{2.75, 3.5, 3}},
		{[]float64{0, 0, 10}, 0.9, []float64{8.1, 9, 10}},
		{[]float64{5}, 0.99, []float64{5}},
		{nil, 0.99, []float64{}},
	}

	for _, test := range tests {
		have := Discounted(test.rewards, test.gamma)
		if !floats.EqualApprox(have, test.want, tolerance) {
			t.Errorf("discounted(%v, %v): want(%v) have(%v)", test.rewards,
				test.gamma, test.want, have)
		}
	}
}

func TestDiscountedRecurrence(t *testing.T) {
	rewards := []float64{0.3, -1, 2, 0, 4.5}
	gamma := 0.97
	g := Discounted(rewards, gamma)

	last := len(rewards) - 1
	if g[last] != rewards[last] {
		t.Errorf("G_T: want(%v) have(%v)", rewards[last], g[last])
	}
	for i := 0; i < last; i++ {
		want := rewards[i] + gamma*g[i+1]
		if math.Abs(g[i]-want) > tolerance {
			t.Errorf("G_%v: want(%v) have(%v)", i, want, g[i])
		}
	}
}

func TestFullEpisode(t *testing.T) {
	have := FullEpisode([]float64{1, 2, 3}, 1.0)
	if !floats.Equal(have, []float64{6, 6, 6}) {
		t.Errorf("want([6 6 6]) have(%v)", have)
	}

	if !floats.Equal(Targets([]float64{1, 2, 3}, 1.0, true),
		[]float64{6, 5, 3}) {
		t.Error("causal targets should be rewards-to-go")
	}
}

func TestBaseline(t *testing.T) {
	var b Baseline
	for _, r := range []float64{10, 20, 30} {
		b.Add(r)
	}
	if b.Len() != 3 || math.Abs(b.Value()-20) > tolerance {
		t.Errorf("want mean 20 over 3 episodes, have %v over %v", b.Value(),
			b.Len())
	}

	targets := []float64{4, 1, 7, -2}
	shifted := Subtract(targets, b.Value())
	for i := range targets {
		for j := range targets {
			want := targets[i] - targets[j]
			have := shifted[i] - shifted[j]
			if math.Abs(want-have) > tolerance {
				t.Fatalf("baseline changed difference (%v, %v)", i, j)
			}
		}
	}
	if targets[0] != 4 {
		t.Error("subtract modified its input")
	}
}

func TestAdvantages(t *testing.T) {
	rewards := []float64{1, 0, 2}
	values := []float64{0.5, 1, 1.5}
	gamma := 0.5

	mc, err := MonteCarloAdvantages(rewards, values, gamma)
	if err != nil {
		t.Fatal(err)
	}
	// G = [1.5, 1, 2]
	if !floats.EqualApprox(mc, []float64{1, 0, 0.5}, tolerance) {
		t.Errorf("monte carlo: have %v", mc)
	}

	boot, err := BootstrapAdvantages(rewards, values, gamma)
	if err != nil {
		t.Fatal(err)
	}
	// targets = [1 + 0.5, 0 + 0.75, 2 + 0]
	if !floats.EqualApprox(boot, []float64{1, -0.25, 0.5}, tolerance) {
		t.Errorf("bootstrap: have %v", boot)
	}

	adv, err := Advantages([]float64{1, 1, 1}, values)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(adv, []float64{0.5, 0, -0.5}, tolerance) {
		t.Errorf("advantages: have %v", adv)
	}

	if _, err := MonteCarloAdvantages(rewards, values[:2], gamma); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := BootstrapAdvantages(rewards, values[:2], gamma); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestNormalize(t *testing.T) {
	x := []float64{1, 2, 3, 4, 10}
	n := Normalize(x)

	mean, std := stat.MeanStdDev(n, nil)
	if math.Abs(mean) > 1e-9 {
		t.Errorf("mean: want(0) have(%v)", mean)
	}
	if math.Abs(std-1) > 1e-6 {
		t.Errorf("std: want(1) have(%v)", std)
	}

	constant := Normalize([]float64{3, 3, 3})
	if !floats.Equal(constant, []float64{0, 0, 0}) {
		t.Errorf("constant input: have %v", constant)
	}
	if single := Normalize([]float64{5}); single[0] != 0 {
		t.Errorf("single input: have %v", single)
	}
}
