// Package agent implements agents which train and test policy gradient
// policies on environments
package agent

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/pgrl/algorithm"
	"github.com/samuelfneumann/pgrl/checkpoint"
	"github.com/samuelfneumann/pgrl/environment"
	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/metrics"
	"github.com/samuelfneumann/pgrl/policy"
	"github.com/samuelfneumann/pgrl/solver"
	"github.com/samuelfneumann/pgrl/trajectory"
	"github.com/samuelfneumann/pgrl/utils/progressbar"
)

// DefaultRenderDelay is the pause after rendering each step of a test
// episode
const DefaultRenderDelay = 200 * time.Millisecond

// DefaultTestEpisodes is the number of episodes of each periodic
// evaluation during A2C training
const DefaultTestEpisodes = 10

// Agent trains and tests a policy on an environment. Agents created
// with ForTraining hold a solver and can be trained. Agents created
// with ForInference can only be tested and saved.
type Agent struct {
	tag    string
	env    environment.Environment
	device checkpoint.Device
	policy policy.Policy

	// Only set for training
	solver *solver.Solver
	spec   *hyperparams.Spec

	sink        metrics.Sink
	logger      *log.Logger
	renderDelay time.Duration
	progress    io.Writer
	useGPU      bool
	seed        uint64
	seeded      bool
	rng         *rand.Rand
}

func newAgent(tag string, env environment.Environment, opts []Option) *Agent {
	a := &Agent{
		tag:         tag,
		env:         env,
		sink:        metrics.Nop{},
		logger:      log.New(os.Stderr, "pgrl: ", log.LstdFlags),
		renderDelay: DefaultRenderDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.New(io.Discard, "", 0)
	}
	if a.sink == nil {
		a.sink = metrics.Nop{}
	}

	a.device = checkpoint.CPU
	if a.useGPU {
		if checkpoint.Available(checkpoint.CUDA) {
			a.device = checkpoint.CUDA
		} else {
			a.logger.Printf("Warning: %v is not available, falling back "+
				"to %v", checkpoint.CUDA, checkpoint.CPU)
		}
	}
	a.logger.Printf("Using %v", a.device)
	return a
}

// ForTraining creates a new Agent with a freshly initialized policy
// and solver described by spec
func ForTraining(tag string, spec hyperparams.Spec,
	env environment.Environment, opts ...Option) (*Agent, error) {
	a := newAgent(tag, env, opts)
	if !a.seeded {
		a.seed = spec.Seed()
	}
	a.rng = rand.New(rand.NewSource(a.seed))

	pol, err := policy.Build(spec, env.ObservationSpec(), env.ActionSpec())
	if err != nil {
		return nil, fmt.Errorf("forTraining: %w", err)
	}

	s, err := solver.New(solver.Type(spec.Optimiser()), spec.LearningRate())
	if err != nil {
		pol.Close()
		return nil, errors.Wrapf(hyperparams.ErrConfig, "forTraining: %v",
			err)
	}

	if err := a.sink.Hyperparams(tag, spec.Map()); err != nil {
		pol.Close()
		return nil, fmt.Errorf("forTraining: %v", err)
	}

	a.policy = pol
	a.solver = s
	a.spec = &spec
	return a, nil
}

// ForInference creates a new Agent with the policy saved at path. The
// Agent has no solver and cannot be trained.
func ForInference(tag string, env environment.Environment, path string,
	opts ...Option) (*Agent, error) {
	a := newAgent(tag, env, opts)
	a.rng = rand.New(rand.NewSource(a.seed))

	pol, device, err := checkpoint.Load(path, a.device)
	if err != nil {
		return nil, fmt.Errorf("forInference: %w", err)
	}
	a.device = device

	if want := env.ActionSpec().NumActions(); pol.NumActions() != want {
		pol.Close()
		return nil, errors.Wrapf(hyperparams.ErrShape, "forInference: "+
			"policy has %v actions, environment has %v", pol.NumActions(),
			want)
	}
	if want := env.ObservationSpec().Size(); pol.ObservationSize() != want {
		pol.Close()
		return nil, errors.Wrapf(hyperparams.ErrShape, "forInference: "+
			"policy takes observations of size %v, environment has %v",
			pol.ObservationSize(), want)
	}

	a.policy = pol
	return a, nil
}

// Tag returns the identifier of the Agent
func (a *Agent) Tag() string { return a.tag }

// Policy returns the policy of the Agent
func (a *Agent) Policy() policy.Policy { return a.policy }

// Device returns the device the Agent's networks are placed on
func (a *Agent) Device() checkpoint.Device { return a.device }

// Seed returns the seed of the Agent's action sampling and tie breaking
func (a *Agent) Seed() uint64 { return a.seed }

// IsInference returns whether the Agent was created for inference
func (a *Agent) IsInference() bool { return a.solver == nil }

// REINFORCEConfig configures TrainREINFORCE
type REINFORCEConfig struct {
	Epochs       int
	Episodes     int
	UseBaseline  bool
	UseCausality bool
}

// DefaultREINFORCE returns the default REINFORCE configuration
func DefaultREINFORCE() REINFORCEConfig {
	return REINFORCEConfig{Epochs: 100, Episodes: 30}
}

// TrainREINFORCE trains the Agent's policy with REINFORCE. The
// discount factor is the gamma hyperparameter if set and 1 otherwise.
func (a *Agent) TrainREINFORCE(cfg REINFORCEConfig) error {
	if a.IsInference() {
		return errors.Wrapf(hyperparams.ErrConfig, "trainREINFORCE: agent "+
			"%v was created for inference", a.tag)
	}

	gamma, ok := a.spec.Gamma()
	if !ok {
		gamma = 1.0
	}

	r := algorithm.REINFORCE{
		Epochs:       cfg.Epochs,
		Episodes:     cfg.Episodes,
		UseBaseline:  cfg.UseBaseline,
		UseCausality: cfg.UseCausality,
		Gamma:        gamma,
	}
	ctx, done := a.context(cfg.Epochs)
	defer done()

	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("trainREINFORCE: %w", err)
	}
	return nil
}

// TrainA2C trains the Agent's actor-critic policy with A2C for the
// number of epochs given by its hyperparameters. If testSpacing > 0,
// the policy is tested every testSpacing epochs.
func (a *Agent) TrainA2C(testSpacing int) error {
	if a.IsInference() {
		return errors.Wrapf(hyperparams.ErrConfig, "trainA2C: agent %v "+
			"was created for inference", a.tag)
	}

	gamma, _ := a.spec.Gamma()
	alg := algorithm.A2C{
		Epochs:            a.spec.TrainEpochs(),
		Gamma:             gamma,
		EntropyCoeff:      a.spec.EntropyCoeff(),
		CriticCoeff:       a.spec.CriticCoeff(),
		RegularizeReturns: a.spec.RegularizeReturns(),
		Advantage:         a.spec.Advantage(),
		TestSpacing:       testSpacing,
		TestEpisodes:      DefaultTestEpisodes,
		LRDecayRate:       a.spec.LRDecayRate(),
	}
	ctx, done := a.context(alg.Epochs)
	defer done()

	if err := alg.Run(ctx); err != nil {
		return fmt.Errorf("trainA2C: %w", err)
	}
	return nil
}

// context returns the algorithm context of the Agent and a function
// which cleans it up
func (a *Agent) context(epochs int) (*algorithm.Context, func()) {
	ctx := &algorithm.Context{
		Env:    a.env,
		Policy: a.policy,
		Solver: a.solver,
		Rng:    a.rng,
		Sink:   a.sink,
		Logger: a.logger,
		Evaluate: func(episodes int) (float64, error) {
			rewards, err := a.Test(episodes)
			if err != nil {
				return 0, err
			}
			total := 0.0
			for _, r := range rewards {
				total += r
			}
			return total / float64(len(rewards)), nil
		},
	}

	if a.progress == nil {
		return ctx, func() {}
	}
	bar := progressbar.NewManualProgressBar(a.progress, 40, epochs)
	ctx.Progress = bar
	return ctx, bar.Close
}

// Test runs episodes with the greedy policy in evaluation mode,
// rendering each step, and returns the return of each episode. The
// policy is returned to training mode afterwards, even if an episode
// fails.
func (a *Agent) Test(episodes int) ([]float64, error) {
	if episodes <= 0 {
		return nil, errors.Wrapf(hyperparams.ErrConfig, "test: episodes "+
			"must be positive, have %v", episodes)
	}

	a.policy.Eval()
	defer a.policy.Train()

	tieBreak := func(n int) int { return a.rng.Intn(n) }
	render := func() error {
		if err := a.env.Render(); err != nil {
			return err
		}
		time.Sleep(a.renderDelay)
		return nil
	}

	rewards := make([]float64, episodes)
	for i := range rewards {
		traj, err := trajectory.Greedy(a.env, a.policy, render, tieBreak)
		if err != nil {
			return nil, fmt.Errorf("test: episode %v: %w", i, err)
		}
		rewards[i] = traj.Return()
	}
	return rewards, nil
}

// Save saves the Agent's policy to path
func (a *Agent) Save(path string) error {
	if err := checkpoint.Save(path, a.tag, a.policy); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	a.logger.Printf("Saved %v to %v", a.tag, path)
	return nil
}

// Close releases the Agent's policy and closes its sink
func (a *Agent) Close() error {
	if err := a.policy.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	if err := a.sink.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return nil
}
