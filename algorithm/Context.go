package algorithm

import (
	"fmt"
	"log"
	"math"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/pgrl/environment"
	"github.com/samuelfneumann/pgrl/metrics"
	"github.com/samuelfneumann/pgrl/policy"
	"github.com/samuelfneumann/pgrl/solver"
	"github.com/samuelfneumann/pgrl/trajectory"
	"github.com/samuelfneumann/pgrl/utils/progressbar"
)

// Context holds everything an algorithm trains with. The policy and
// solver are only written by the algorithm, once per epoch.
type Context struct {
	Env    environment.Environment
	Policy policy.Policy
	Solver *solver.Solver
	Rng    *rand.Rand

	// Sink and Logger default to metrics.Nop and no logging
	Sink   metrics.Sink
	Logger *log.Logger

	// Progress, if not nil, is incremented once per epoch
	Progress *progressbar.ManualProgressBar

	// Evaluate runs deterministic test episodes and returns their mean
	// return. Only needed for periodic evaluation.
	Evaluate func(episodes int) (float64, error)

	// OnPhase, if not nil, is called whenever an epoch enters a new
	// phase
	OnPhase func(epoch int, p Phase)
}

func (c *Context) validate() error {
	if c.Env == nil || c.Policy == nil {
		return fmt.Errorf("validate: context needs an environment and " +
			"a policy")
	}
	if c.Solver == nil {
		return fmt.Errorf("validate: context needs a solver")
	}
	if c.Rng == nil {
		c.Rng = rand.New(rand.NewSource(0))
	}
	if c.Sink == nil {
		c.Sink = metrics.Nop{}
	}
	return nil
}

func (c *Context) phase(epoch int, p Phase) {
	if c.OnPhase != nil {
		c.OnPhase(epoch, p)
	}
}

func (c *Context) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

// collect runs n episodes with the stochastic policy
func (c *Context) collect(n int) ([]trajectory.Trajectory, error) {
	trajs := make([]trajectory.Trajectory, n)
	for i := range trajs {
		traj, err := trajectory.Collect(c.Env, c.Policy, c.Rng)
		if err != nil {
			return nil, fmt.Errorf("collect: episode %v: %w", i, err)
		}
		trajs[i] = traj
	}
	return trajs, nil
}

// record logs the per-epoch scalars
func (c *Context) record(epoch int, loss float64,
	trajs []trajectory.Trajectory) error {
	reward, length := 0.0, 0.0
	for _, traj := range trajs {
		reward += traj.Return()
		length += float64(traj.Len())
	}
	reward /= float64(len(trajs))
	length /= float64(len(trajs))

	scalars := []struct {
		name  string
		value float64
	}{
		{"loss", loss},
		{"reward", reward},
		{"episode_length", length},
		{"learning_rate", c.Solver.LearningRate()},
	}
	for _, s := range scalars {
		if err := c.Sink.Scalar(s.name, epoch, s.value); err != nil {
			return fmt.Errorf("record: %v", err)
		}
	}

	if c.Progress != nil {
		c.Progress.SetStatus("reward %.2f  loss %.4f", reward, loss)
		c.Progress.Increment()
		c.Progress.Display()
	}
	c.logf("epoch %d: reward %.3f, episode length %.1f, loss %.4f", epoch,
		reward, length, loss)
	return nil
}

// decay multiplies the learning rate by rate, for rates in (0, 1)
func (c *Context) decay(rate float64) error {
	if rate <= 0 || rate >= 1 || math.IsNaN(rate) {
		return nil
	}
	return c.Solver.Decay(rate)
}
