package algorithm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/returns"
	"github.com/samuelfneumann/pgrl/trajectory"
)

// A2C configures the Advantage Actor-Critic algorithm. Each epoch
// collects a single episode and takes a single gradient step on the
// actor and critic together.
type A2C struct {
	Epochs       int
	Gamma        float64
	EntropyCoeff float64
	CriticCoeff  float64

	// RegularizeReturns normalizes the critic targets of each episode
	// to mean 0 and unit variance
	RegularizeReturns bool
	Advantage         hyperparams.Advantage

	// TestSpacing is the number of epochs between evaluations. No
	// evaluation is done if TestSpacing <= 0.
	TestSpacing  int
	TestEpisodes int

	// LRDecayRate multiplies the learning rate after each epoch
	LRDecayRate float64
}

// Validate checks that the configuration can be run
func (a A2C) Validate() error {
	if a.Epochs <= 0 {
		return errors.Wrapf(hyperparams.ErrConfig, "validate: epochs must "+
			"be positive, have %v", a.Epochs)
	}
	if a.Gamma < 0 || a.Gamma > 1 {
		return errors.Wrapf(hyperparams.ErrConfig, "validate: gamma must "+
			"be in [0, 1], have %v", a.Gamma)
	}
	switch a.Advantage {
	case "", hyperparams.MonteCarlo, hyperparams.Bootstrap:
	default:
		return errors.Wrapf(hyperparams.ErrConfig, "validate: unknown "+
			"advantage %q", a.Advantage)
	}
	if a.TestSpacing > 0 && a.TestEpisodes <= 0 {
		return errors.Wrapf(hyperparams.ErrConfig, "validate: test "+
			"episodes must be positive, have %v", a.TestEpisodes)
	}
	return nil
}

// Run trains the actor-critic policy of c. Any failure aborts training.
func (a A2C) Run(c *Context) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := c.validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if c.Policy.Kind() != hyperparams.ActorCritic {
		return errors.Wrapf(hyperparams.ErrConfig, "run: A2C needs an "+
			"actor-critic policy, have %v", c.Policy.Kind())
	}
	if a.TestSpacing > 0 && c.Evaluate == nil {
		return errors.Wrapf(hyperparams.ErrConfig, "run: periodic "+
			"evaluation needs an Evaluate function")
	}

	for epoch := 0; epoch < a.Epochs; epoch++ {
		c.phase(epoch, Collecting)
		trajs, err := c.collect(1)
		if err != nil {
			return fmt.Errorf("run: epoch %v: %w", epoch, err)
		}

		c.phase(epoch, Estimating)
		in, err := a.estimate(trajs[0])
		if err != nil {
			return fmt.Errorf("run: epoch %v: %w", epoch, err)
		}

		c.phase(epoch, Updating)
		loss, err := a.update(c, in)
		if err != nil {
			return fmt.Errorf("run: epoch %v: %w", epoch, err)
		}
		if err := c.record(epoch, loss, trajs); err != nil {
			return fmt.Errorf("run: epoch %v: %w", epoch, err)
		}
		if err := c.decay(a.LRDecayRate); err != nil {
			return fmt.Errorf("run: epoch %v: %v", epoch, err)
		}

		if a.TestSpacing > 0 && (epoch+1)%a.TestSpacing == 0 {
			c.phase(epoch, Testing)
			reward, err := c.Evaluate(a.TestEpisodes)
			if err != nil {
				return fmt.Errorf("run: epoch %v: evaluation: %w", epoch, err)
			}
			if err := c.Sink.Scalar("test_reward", epoch, reward); err != nil {
				return fmt.Errorf("run: epoch %v: %v", epoch, err)
			}
			c.logf("epoch %d: test reward %.3f", epoch, reward)
		}
	}

	c.phase(a.Epochs, Done)
	return nil
}

// estimate computes the critic targets and advantages of an episode.
// Normalised targets give advantages relative to the normalised returns.
func (a A2C) estimate(traj trajectory.Trajectory) (inputs, error) {
	rewards, values := traj.Rewards(), traj.Values()

	var targets, advantages []float64
	var err error
	if a.Advantage == hyperparams.Bootstrap {
		targets, err = returns.BootstrapTargets(rewards, values, a.Gamma)
		if err == nil && !a.RegularizeReturns {
			advantages, err = returns.BootstrapAdvantages(rewards, values,
				a.Gamma)
		}
	} else {
		targets = returns.Discounted(rewards, a.Gamma)
		if !a.RegularizeReturns {
			advantages, err = returns.MonteCarloAdvantages(rewards, values,
				a.Gamma)
		}
	}
	if err != nil {
		return inputs{}, fmt.Errorf("estimate: %v", err)
	}

	if a.RegularizeReturns {
		targets = returns.Normalize(targets)
		if advantages, err = returns.Advantages(targets, values); err != nil {
			return inputs{}, fmt.Errorf("estimate: %v", err)
		}
	}

	return inputs{
		obs:     traj.Observations(),
		actions: traj.Actions(),
		weights: advantages,
		targets: targets,
	}, nil
}

// update takes a single gradient step and returns the loss
func (a A2C) update(c *Context, in inputs) (float64, error) {
	if len(in.actions) == 0 {
		return 0, nil
	}

	batch, err := c.Policy.Batch(len(in.actions))
	if err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	l, err := a2cLoss(batch, in, a.EntropyCoeff, a.CriticCoeff)
	if err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	return l.step(c.Policy, c.Solver)
}
