// Package returns converts per-step rewards into training targets:
// discounted returns, baselines, and advantages.
//
// All computations are done in float64, independent of the precision
// of the networks being trained.
package returns

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Epsilon is added to the standard deviation when normalizing
const Epsilon = 1e-8

// Discounted returns the discounted return from each step of an
// episode, computed backwards with G_T = r_T and
// G_t = r_t + γ G_{t+1}.
func Discounted(rewards []float64, gamma float64) []float64 {
	out := make([]float64, len(rewards))
	next := 0.0
	for t := len(rewards) - 1; t >= 0; t-- {
		next = rewards[t] + gamma*next
		out[t] = next
	}
	return out
}

// RewardToGo returns the targets of an episode when causality is
// respected: each step is credited only with rewards received from that
// step onwards.
func RewardToGo(rewards []float64, gamma float64) []float64 {
	return Discounted(rewards, gamma)
}

// FullEpisode returns the targets of an episode when causality is
// ignored: each step is credited with the return of the whole episode.
func FullEpisode(rewards []float64, gamma float64) []float64 {
	out := make([]float64, len(rewards))
	if len(rewards) == 0 {
		return out
	}
	total := Discounted(rewards, gamma)[0]
	for t := range out {
		out[t] = total
	}
	return out
}

// Targets returns RewardToGo targets if causality is true and
// FullEpisode targets otherwise
func Targets(rewards []float64, gamma float64, causality bool) []float64 {
	if causality {
		return RewardToGo(rewards, gamma)
	}
	return FullEpisode(rewards, gamma)
}

// Baseline tracks the running mean of episode returns
type Baseline struct {
	n    int
	mean float64
}

// Add adds the return of an episode to the running mean
func (b *Baseline) Add(episodeReturn float64) {
	b.n++
	b.mean += (episodeReturn - b.mean) / float64(b.n)
}

// Value returns the mean of all returns added so far, or 0 if no
// returns have been added
func (b *Baseline) Value() float64 {
	return b.mean
}

// Len returns the number of returns added
func (b *Baseline) Len() int {
	return b.n
}

// Subtract returns a copy of targets shifted by -baseline
func Subtract(targets []float64, baseline float64) []float64 {
	out := make([]float64, len(targets))
	copy(out, targets)
	floats.AddConst(-baseline, out)
	return out
}

// Advantages returns target_t - V(s_t) for each step of an episode
func Advantages(targets, values []float64) ([]float64, error) {
	if len(targets) != len(values) {
		return nil, fmt.Errorf("advantages: %v targets but %v values",
			len(targets), len(values))
	}
	adv := make([]float64, len(targets))
	floats.SubTo(adv, targets, values)
	return adv, nil
}

// MonteCarloAdvantages returns G_t - V(s_t) for each step of an
// episode
func MonteCarloAdvantages(rewards, values []float64,
	gamma float64) ([]float64, error) {
	adv, err := Advantages(Discounted(rewards, gamma), values)
	if err != nil {
		return nil, fmt.Errorf("monteCarloAdvantages: %v", err)
	}
	return adv, nil
}

// BootstrapTargets returns the one-step targets r_t + γ V(s_{t+1}) for
// each step of an episode. The value after the last step is 0.
func BootstrapTargets(rewards, values []float64,
	gamma float64) ([]float64, error) {
	if len(rewards) != len(values) {
		return nil, fmt.Errorf("bootstrapTargets: %v rewards but %v "+
			"values", len(rewards), len(values))
	}
	out := make([]float64, len(rewards))
	for t := range rewards {
		next := 0.0
		if t+1 < len(values) {
			next = values[t+1]
		}
		out[t] = rewards[t] + gamma*next
	}
	return out, nil
}

// BootstrapAdvantages returns r_t + γ V(s_{t+1}) - V(s_t) for each step
// of an episode. The value after the last step is 0.
func BootstrapAdvantages(rewards, values []float64,
	gamma float64) ([]float64, error) {
	targets, err := BootstrapTargets(rewards, values, gamma)
	if err != nil {
		return nil, fmt.Errorf("bootstrapAdvantages: %v", err)
	}
	return Advantages(targets, values)
}

// Normalize returns a copy of x shifted and scaled to have mean 0 and
// unit standard deviation. Slices with fewer than two elements have no
// spread and are returned as zeroes.
func Normalize(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) < 2 {
		return out
	}

	mean, std := stat.MeanStdDev(x, nil)
	if math.IsNaN(std) {
		std = 0
	}
	for i := range x {
		out[i] = (x[i] - mean) / (std + Epsilon)
	}
	return out
}
