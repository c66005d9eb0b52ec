package policy_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pgrl/environment"
	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/policy"
)

func obsSpec(shape ...int) environment.Spec {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return environment.NewSpec(shape, environment.Observation,
		mat.NewVecDense(size, nil), mat.NewVecDense(size, nil),
		environment.Continuous)
}

func actSpec(n int) environment.Spec {
	return environment.NewSpec([]int{1}, environment.Action,
		mat.NewVecDense(1, []float64{0}),
		mat.NewVecDense(1, []float64{float64(n - 1)}),
		environment.Discrete)
}

func mustSpec(t *testing.T, m map[string]interface{}) hyperparams.Spec {
	t.Helper()
	s, err := hyperparams.FromMap(m)
	if err != nil {
		t.Fatalf("frommap: %v", err)
	}
	return s
}

func fnnSpec(t *testing.T, extra map[string]interface{}) hyperparams.Spec {
	m := map[string]interface{}{
		"learning_rate":   0.01,
		"train_epochs":    1,
		"lr_decay_rate":   1.0,
		"architecture":    "FNN",
		"connection_mode": "exponentiative",
		"hidden_layers":   []interface{}{1.5},
	}
	for k, v := range extra {
		m[k] = v
	}
	return mustSpec(t, m)
}

func actorCriticSpec(t *testing.T) hyperparams.Spec {
	return mustSpec(t, map[string]interface{}{
		"learning_rate":      0.01,
		"train_epochs":       1,
		"lr_decay_rate":      1.0,
		"architecture":       "actor_critic",
		"connection_mode":    "literal",
		"critic_coeff":       0.5,
		"entropy_coeff":      0.01,
		"gamma":              0.99,
		"regularize_returns": false,
		"actor": map[string]interface{}{
			"CNN_layers": map[string]interface{}{
				"channels":     []interface{}{2},
				"kernel_sizes": []interface{}{2},
				"strides":      []interface{}{1},
			},
			"FNN_layers": []interface{}{8},
		},
		"critic": map[string]interface{}{
			"FNN_layers": []interface{}{6},
		},
	})
}

func checkProbs(t *testing.T, out policy.Output, actions int) {
	t.Helper()

	if len(out.Probs) != actions {
		t.Fatalf("want %v probabilities, have %v", actions, len(out.Probs))
	}
	sum := 0.0
	for _, p := range out.Probs {
		if p < 0 || p > 1 {
			t.Errorf("probability %v out of range", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("probabilities sum to %v", sum)
	}
}

func TestFNN(t *testing.T) {
	pol, err := policy.Build(fnnSpec(t, nil), obsSpec(4), actSpec(3))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer pol.Close()

	if _, ok := pol.(*policy.FNN); !ok || pol.Kind() != hyperparams.FNN {
		t.Fatalf("want *policy.FNN, have %T", pol)
	}

	out, err := pol.Forward([]float64{0.1, 0.2, -0.3, 0.4}, policy.EmptyHidden)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	checkProbs(t, out, 3)
	if out.HasValue {
		t.Error("FNN policy should not predict values")
	}

	// floor(4^1.5) = 8 hidden units
	if len(out.Hidden.Actor) != 8 {
		t.Errorf("want 8 hidden features, have %v", len(out.Hidden.Actor))
	}
}

func TestCNN(t *testing.T) {
	spec := mustSpec(t, map[string]interface{}{
		"learning_rate":   0.01,
		"train_epochs":    1,
		"lr_decay_rate":   1.0,
		"architecture":    "CNN",
		"connection_mode": "literal",
		"CNN_hidden_layers": map[string]interface{}{
			"channels":     []interface{}{3},
			"kernel_sizes": []interface{}{3},
			"strides":      []interface{}{1},
		},
		"FNN_hidden_layers": []interface{}{10},
	})

	pol, err := policy.Build(spec, obsSpec(2, 5, 5), actSpec(4))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer pol.Close()

	if pol.Kind() != hyperparams.CNN {
		t.Errorf("want kind CNN, have %v", pol.Kind())
	}
	out, err := pol.Forward(make([]float64, 50), policy.EmptyHidden)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	checkProbs(t, out, 4)
}

func TestCNNNeedsImages(t *testing.T) {
	spec := mustSpec(t, map[string]interface{}{
		"learning_rate":   0.01,
		"train_epochs":    1,
		"lr_decay_rate":   1.0,
		"architecture":    "CNN",
		"connection_mode": "literal",
		"CNN_hidden_layers": map[string]interface{}{
			"channels":     []interface{}{3},
			"kernel_sizes": []interface{}{3},
			"strides":      []interface{}{1},
		},
		"FNN_hidden_layers": []interface{}{10},
	})

	_, err := policy.Build(spec, obsSpec(4), actSpec(2))
	if !hyperparams.IsShape(err) {
		t.Errorf("expected ErrShape, have %v", err)
	}
}

func TestActorCritic(t *testing.T) {
	pol, err := policy.Build(actorCriticSpec(t), obsSpec(1, 4, 4), actSpec(2))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer pol.Close()

	obs := make([]float64, 16)
	obs[5] = 1
	out, err := pol.Forward(obs, policy.EmptyHidden)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	checkProbs(t, out, 2)
	if !out.HasValue {
		t.Error("actor-critic policy should predict values")
	}
	if len(out.Hidden.Critic) != 6 {
		t.Errorf("want 6 critic features, have %v", len(out.Hidden.Critic))
	}

	batch, err := pol.Batch(3)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if batch.Values() == nil {
		t.Fatal("batch should have a value node")
	}
	if shape := batch.LogProbs().Shape(); shape[0] != 3 || shape[1] != 2 {
		t.Errorf("log probs have shape %v", shape)
	}
}

func TestContinuousActions(t *testing.T) {
	act := environment.NewSpec([]int{1}, environment.Action,
		mat.NewVecDense(1, []float64{-1}), mat.NewVecDense(1, []float64{1}),
		environment.Continuous)

	_, err := policy.Build(fnnSpec(t, nil), obsSpec(4), act)
	if !hyperparams.IsShape(err) {
		t.Errorf("expected ErrShape, have %v", err)
	}
}

func TestForwardSize(t *testing.T) {
	pol, err := policy.Build(fnnSpec(t, nil), obsSpec(4), actSpec(2))
	if err != nil {
		t.Fatal(err)
	}
	defer pol.Close()

	_, err = pol.Forward([]float64{1, 2}, policy.EmptyHidden)
	if !hyperparams.IsShape(err) {
		t.Errorf("expected ErrShape, have %v", err)
	}
}

func TestModes(t *testing.T) {
	pol, err := policy.Build(fnnSpec(t, map[string]interface{}{
		"dropout": 0.5,
	}), obsSpec(4), actSpec(2))
	if err != nil {
		t.Fatal(err)
	}
	defer pol.Close()

	if pol.IsEval() {
		t.Error("policies should start in training mode")
	}

	pol.Eval()
	obs := []float64{1, 1, 1, 1}
	first, err := pol.Forward(obs, policy.EmptyHidden)
	if err != nil {
		t.Fatal(err)
	}
	second, err := pol.Forward(obs, policy.EmptyHidden)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Probs {
		if first.Probs[i] != second.Probs[i] {
			t.Fatal("evaluation mode should be deterministic")
		}
	}

	pol.Train()
	if pol.IsEval() {
		t.Error("policy should be in training mode")
	}
	if _, err := pol.Forward(obs, policy.EmptyHidden); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	pol, err := policy.Build(actorCriticSpec(t), obsSpec(1, 4, 4), actSpec(2))
	if err != nil {
		t.Fatal(err)
	}
	defer pol.Close()

	snapshot, err := pol.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	restored, err := policy.Restore(snapshot)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	defer restored.Close()

	if _, ok := restored.(*policy.ActorCritic); !ok {
		t.Fatalf("want *policy.ActorCritic, have %T", restored)
	}

	obs := make([]float64, 16)
	obs[0] = 0.5
	want, _ := pol.Forward(obs, policy.EmptyHidden)
	have, err := restored.Forward(obs, policy.EmptyHidden)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(want.Value-have.Value) > 1e-12 {
		t.Errorf("value: want(%v) have(%v)", want.Value, have.Value)
	}
	for i := range want.Probs {
		if math.Abs(want.Probs[i]-have.Probs[i]) > 1e-12 {
			t.Errorf("probs: want(%v) have(%v)", want.Probs, have.Probs)
		}
	}
}
