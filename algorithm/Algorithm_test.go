package algorithm

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pgrl/environment"
	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/metrics"
	"github.com/samuelfneumann/pgrl/policy"
	"github.com/samuelfneumann/pgrl/solver"
	ts "github.com/samuelfneumann/pgrl/timestep"
	"github.com/samuelfneumann/pgrl/trajectory"
)

// bandit is an environment with a fixed episode length where action 1
// is rewarded and action 0 is not
type bandit struct {
	length  int
	current int
}

func (b *bandit) Reset() (ts.TimeStep, error) {
	b.current = 0
	return ts.New(ts.First, 0, mat.NewVecDense(2, []float64{1, 0}), 0), nil
}

func (b *bandit) Step(action int) (ts.TimeStep, bool, error) {
	b.current++
	stepType := ts.Mid
	if b.current == b.length {
		stepType = ts.Last
	}
	obs := mat.NewVecDense(2, []float64{1, 0})
	return ts.New(stepType, float64(action), obs, b.current),
		stepType == ts.Last, nil
}

func (b *bandit) Render() error { return nil }

func (b *bandit) ObservationSpec() environment.Spec {
	return environment.NewSpec([]int{2}, environment.Observation,
		mat.NewVecDense(2, nil), mat.NewVecDense(2, []float64{1, 1}),
		environment.Continuous)
}

func (b *bandit) ActionSpec() environment.Spec {
	return environment.NewSpec([]int{1}, environment.Action,
		mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{1}),
		environment.Discrete)
}

func fnnPolicy(t *testing.T, env environment.Environment) policy.Policy {
	t.Helper()
	spec, err := hyperparams.FromMap(map[string]interface{}{
		"learning_rate":   0.05,
		"train_epochs":    1,
		"lr_decay_rate":   1.0,
		"architecture":    "FNN",
		"connection_mode": "literal",
		"hidden_layers":   []interface{}{8},
	})
	if err != nil {
		t.Fatal(err)
	}
	return build(t, spec, env)
}

func actorCriticPolicy(t *testing.T, env environment.Environment) policy.Policy {
	t.Helper()
	spec, err := hyperparams.FromMap(map[string]interface{}{
		"learning_rate":      0.01,
		"train_epochs":       1,
		"lr_decay_rate":      1.0,
		"architecture":       "actor_critic",
		"connection_mode":    "literal",
		"critic_coeff":       0.5,
		"entropy_coeff":      0.1,
		"gamma":              0.9,
		"regularize_returns": false,
		"actor":              map[string]interface{}{"FNN_layers": []interface{}{6}},
		"critic":             map[string]interface{}{"FNN_layers": []interface{}{4}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return build(t, spec, env)
}

func build(t *testing.T, spec hyperparams.Spec,
	env environment.Environment) policy.Policy {
	t.Helper()
	pol, err := policy.Build(spec, env.ObservationSpec(), env.ActionSpec())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { pol.Close() })
	return pol
}

func newContext(t *testing.T, env environment.Environment,
	pol policy.Policy, lr float64) *Context {
	t.Helper()
	s, err := solver.New(solver.Adam, lr)
	if err != nil {
		t.Fatal(err)
	}
	return &Context{
		Env:    env,
		Policy: pol,
		Solver: s,
		Rng:    rand.New(rand.NewSource(42)),
	}
}

func TestEntropyLowersActorLoss(t *testing.T) {
	probs := []float64{0.2, 0.3, 0.5}
	h := Entropy(probs)
	if h <= 0 {
		t.Fatalf("entropy of a non-degenerate distribution is %v", h)
	}

	logProb, advantage := math.Log(0.3), 1.5
	without := ActorLoss(logProb, advantage, h, 0)
	with := ActorLoss(logProb, advantage, h, 0.01)
	if with >= without {
		t.Errorf("entropy bonus did not lower the loss: %v >= %v", with,
			without)
	}

	if Entropy([]float64{0, 1, 0}) != 0 {
		t.Error("degenerate distributions have no entropy")
	}
}

func TestA2CLossScalar(t *testing.T) {
	logProb, adv, entropy, target, value := -0.5, 2.0, 0.6, 1.0, 0.25
	want := 0.5*2.0 - 0.1*0.6 + 0.5*0.75*0.75

	have, err := A2CLoss([]float64{logProb}, []float64{adv},
		[]float64{entropy}, []float64{target}, []float64{value}, 0.1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(have-want) > 1e-12 {
		t.Errorf("want(%v) have(%v)", want, have)
	}

	if _, err := A2CLoss([]float64{1}, nil, nil, nil, nil, 0, 0); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

// The loss graph must agree with the sum of per-step scalar losses
func TestA2CLossGraph(t *testing.T) {
	env := &bandit{length: 2}
	pol := actorCriticPolicy(t, env)

	observations := [][]float64{{1, 0}, {0.5, -1}}
	actions := []int{1, 0}
	advantages := []float64{0.7, -1.2}
	targets := []float64{1.5, 0.3}
	entropyCoeff, criticCoeff := 0.1, 0.5

	var logProbs, entropies, values []float64
	for i, obs := range observations {
		out, err := pol.Forward(obs, policy.EmptyHidden)
		if err != nil {
			t.Fatal(err)
		}
		logProbs = append(logProbs, out.LogProbs[actions[i]])
		entropies = append(entropies, Entropy(out.Probs))
		values = append(values, out.Value)
	}
	want, err := A2CLoss(logProbs, advantages, entropies, targets, values,
		entropyCoeff, criticCoeff)
	if err != nil {
		t.Fatal(err)
	}

	batch, err := pol.Batch(2)
	if err != nil {
		t.Fatal(err)
	}
	in := inputs{
		obs:     append(append([]float64{}, observations[0]...), observations[1]...),
		actions: actions,
		weights: advantages,
		targets: targets,
	}
	l, err := a2cLoss(batch, in, entropyCoeff, criticCoeff)
	if err != nil {
		t.Fatalf("a2cLoss: %v", err)
	}
	have, err := l.value()
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(have-want) > 1e-9 {
		t.Errorf("want(%v) have(%v)", want, have)
	}
}

func TestREINFORCEPhases(t *testing.T) {
	env := &bandit{length: 3}
	pol := fnnPolicy(t, env)
	ctx := newContext(t, env, pol, 0.01)

	tracker := metrics.NewTracker("")
	ctx.Sink = tracker

	var phases []Phase
	ctx.OnPhase = func(_ int, p Phase) { phases = append(phases, p) }

	r := REINFORCE{Epochs: 2, Episodes: 2, UseBaseline: true,
		UseCausality: true, Gamma: 1}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []Phase{Collecting, Estimating, Updating, Collecting,
		Estimating, Updating, Done}
	if len(phases) != len(want) {
		t.Fatalf("want phases %v, have %v", want, phases)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("want phases %v, have %v", want, phases)
		}
	}

	for _, name := range []string{"loss", "reward", "episode_length",
		"learning_rate"} {
		if n := len(tracker.Series(name)); n != 2 {
			t.Errorf("%v: want 2 points, have %v", name, n)
		}
	}
	if length := tracker.Series("episode_length")[0].Value; length != 3 {
		t.Errorf("episode length: want(3) have(%v)", length)
	}
}

func TestREINFORCELearns(t *testing.T) {
	env := &bandit{length: 5}
	pol := fnnPolicy(t, env)
	ctx := newContext(t, env, pol, 0.05)

	obs := []float64{1, 0}
	before, err := pol.Forward(obs, policy.EmptyHidden)
	if err != nil {
		t.Fatal(err)
	}

	r := REINFORCE{Epochs: 30, Episodes: 4, UseBaseline: true,
		UseCausality: true, Gamma: 1}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	after, err := pol.Forward(obs, policy.EmptyHidden)
	if err != nil {
		t.Fatal(err)
	}
	if after.Probs[1] <= before.Probs[1] {
		t.Errorf("probability of the rewarded action did not increase: "+
			"%v -> %v", before.Probs[1], after.Probs[1])
	}
}

func TestA2CRun(t *testing.T) {
	env := &bandit{length: 4}
	pol := actorCriticPolicy(t, env)
	ctx := newContext(t, env, pol, 0.01)

	tracker := metrics.NewTracker("")
	ctx.Sink = tracker

	evaluations := 0
	ctx.Evaluate = func(episodes int) (float64, error) {
		evaluations++
		if episodes != 2 {
			t.Errorf("want 2 test episodes, have %v", episodes)
		}
		return 1, nil
	}

	before, _ := pol.Snapshot()
	a := A2C{
		Epochs:       4,
		Gamma:        0.9,
		EntropyCoeff: 0.01,
		CriticCoeff:  0.5,
		Advantage:    hyperparams.Bootstrap,
		TestSpacing:  2,
		TestEpisodes: 2,
		LRDecayRate:  0.5,
	}
	if err := a.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if evaluations != 2 {
		t.Errorf("want 2 evaluations, have %v", evaluations)
	}
	if n := len(tracker.Series("test_reward")); n != 2 {
		t.Errorf("want 2 test rewards, have %v", n)
	}
	if lr := ctx.Solver.LearningRate(); math.Abs(lr-0.01/16) > 1e-15 {
		t.Errorf("learning rate: want(%v) have(%v)", 0.01/16, lr)
	}

	after, _ := pol.Snapshot()
	if after.Params[1][0][0] == before.Params[1][0][0] &&
		after.Params[0][0][0] == before.Params[0][0][0] {
		t.Error("weights did not change during training")
	}
}

func TestA2CNeedsCritic(t *testing.T) {
	env := &bandit{length: 2}
	ctx := newContext(t, env, fnnPolicy(t, env), 0.01)

	err := A2C{Epochs: 1, Gamma: 0.9}.Run(ctx)
	if !hyperparams.IsConfig(err) {
		t.Errorf("expected ErrConfig, have %v", err)
	}
}

func TestA2CEstimate(t *testing.T) {
	traj := trajectory.Trajectory{Steps: []trajectory.Step{
		{Observation: []float64{1, 0}, Action: 0, Reward: 1, Value: 0.5},
		{Observation: []float64{1, 0}, Action: 1, Reward: 0, Value: 1},
		{Observation: []float64{1, 0}, Action: 1, Reward: 2, Value: 1.5},
	}}

	tests := []struct {
		name       string
		alg        A2C
		targets    []float64
		advantages []float64
	}{
		{
			name:       "monte carlo",
			alg:        A2C{Gamma: 0.5, Advantage: hyperparams.MonteCarlo},
			targets:    []float64{1.5, 1, 2},
			advantages: []float64{1, 0, 0.5},
		},
		{
			name:       "bootstrap",
			alg:        A2C{Gamma: 0.5, Advantage: hyperparams.Bootstrap},
			targets:    []float64{1.5, 0.75, 2},
			advantages: []float64{1, -0.25, 0.5},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			in, err := test.alg.estimate(traj)
			if err != nil {
				t.Fatal(err)
			}
			if !floats.EqualApprox(in.targets, test.targets, 1e-12) {
				t.Errorf("targets: want(%v) have(%v)", test.targets,
					in.targets)
			}
			if !floats.EqualApprox(in.weights, test.advantages, 1e-12) {
				t.Errorf("advantages: want(%v) have(%v)", test.advantages,
					in.weights)
			}
		})
	}

	regularized := A2C{Gamma: 0.5, RegularizeReturns: true}
	in, err := regularized.estimate(traj)
	if err != nil {
		t.Fatal(err)
	}
	for i := range in.weights {
		if want := in.targets[i] - traj.Steps[i].Value; math.Abs(in.weights[i]-want) > 1e-12 {
			t.Errorf("step %v: advantage of normalised target: want(%v) "+
				"have(%v)", i, want, in.weights[i])
		}
	}
	if mean := floats.Sum(in.targets) / 3; math.Abs(mean) > 1e-9 {
		t.Errorf("normalised targets should have mean 0, have %v", mean)
	}
}

func TestREINFORCENeedsNoCritic(t *testing.T) {
	env := &bandit{length: 2}
	ctx := newContext(t, env, actorCriticPolicy(t, env), 0.01)

	err := REINFORCE{Epochs: 1, Episodes: 1, Gamma: 1}.Run(ctx)
	if !hyperparams.IsConfig(err) {
		t.Errorf("expected ErrConfig, have %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	if err := (REINFORCE{Epochs: 0, Episodes: 1}).Validate(); !hyperparams.IsConfig(err) {
		t.Errorf("expected ErrConfig, have %v", err)
	}
	if err := (A2C{Epochs: 1, Gamma: 2}).Validate(); !hyperparams.IsConfig(err) {
		t.Errorf("expected ErrConfig, have %v", err)
	}
}
