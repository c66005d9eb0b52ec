package algorithm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/returns"
	"github.com/samuelfneumann/pgrl/trajectory"
)

// REINFORCE configures the REINFORCE algorithm. Each epoch collects
// Episodes episodes with the current policy and takes a single
// gradient step on -Σ log π(a_t|s_t)·target_t over all their steps.
type REINFORCE struct {
	Epochs   int
	Episodes int

	// UseBaseline subtracts the running mean of episode returns from
	// each target
	UseBaseline bool

	// UseCausality credits each step only with the rewards that follow
	// it, otherwise each step is credited with the whole episode's
	// return
	UseCausality bool

	Gamma float64
}

// Validate checks that the configuration can be run
func (r REINFORCE) Validate() error {
	if r.Epochs <= 0 {
		return errors.Wrapf(hyperparams.ErrConfig, "validate: epochs must "+
			"be positive, have %v", r.Epochs)
	}
	if r.Episodes <= 0 {
		return errors.Wrapf(hyperparams.ErrConfig, "validate: episodes "+
			"must be positive, have %v", r.Episodes)
	}
	if r.Gamma < 0 || r.Gamma > 1 {
		return errors.Wrapf(hyperparams.ErrConfig, "validate: gamma must "+
			"be in [0, 1], have %v", r.Gamma)
	}
	return nil
}

// Run trains the policy of c. Any failure aborts training.
func (r REINFORCE) Run(c *Context) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := c.validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	switch c.Policy.Kind() {
	case hyperparams.FNN, hyperparams.CNN:
	default:
		return errors.Wrapf(hyperparams.ErrConfig, "run: REINFORCE needs "+
			"a policy without a critic, have %v", c.Policy.Kind())
	}

	var baseline returns.Baseline
	for epoch := 0; epoch < r.Epochs; epoch++ {
		c.phase(epoch, Collecting)
		trajs, err := c.collect(r.Episodes)
		if err != nil {
			return fmt.Errorf("run: epoch %v: %w", epoch, err)
		}

		c.phase(epoch, Estimating)
		in := r.estimate(trajs, &baseline)

		c.phase(epoch, Updating)
		loss, err := r.update(c, in)
		if err != nil {
			return fmt.Errorf("run: epoch %v: %w", epoch, err)
		}

		if err := c.record(epoch, loss, trajs); err != nil {
			return fmt.Errorf("run: epoch %v: %w", epoch, err)
		}
	}

	c.phase(r.Epochs, Done)
	return nil
}

// estimate computes the targets of all steps of all episodes
func (r REINFORCE) estimate(trajs []trajectory.Trajectory,
	baseline *returns.Baseline) inputs {
	targets := make([][]float64, len(trajs))
	for i, traj := range trajs {
		targets[i] = returns.Targets(traj.Rewards(), r.Gamma, r.UseCausality)
		if r.UseBaseline && traj.Len() > 0 {
			baseline.Add(returns.Discounted(traj.Rewards(), r.Gamma)[0])
		}
	}

	var in inputs
	for i, traj := range trajs {
		if r.UseBaseline {
			targets[i] = returns.Subtract(targets[i], baseline.Value())
		}
		in.obs = append(in.obs, traj.Observations()...)
		in.actions = append(in.actions, traj.Actions()...)
		in.weights = append(in.weights, targets[i]...)
	}
	return in
}

// update takes a single gradient step and returns the loss
func (r REINFORCE) update(c *Context, in inputs) (float64, error) {
	if len(in.actions) == 0 {
		return 0, nil
	}

	batch, err := c.Policy.Batch(len(in.actions))
	if err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	l, err := reinforceLoss(batch, in)
	if err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	return l.step(c.Policy, c.Solver)
}
