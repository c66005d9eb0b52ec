// Package hyperparams implements the validated hyperparameter sets that
// agents are constructed from.
package hyperparams

import (
	"fmt"
)

// Architecture is the kind of policy network to build
type Architecture string

// Available architectures
const (
	FNN         Architecture = "FNN"
	CNN         Architecture = "CNN"
	ActorCritic Architecture = "actor_critic"
)

// ConnectionMode determines how hidden layer sizes are interpreted
type ConnectionMode string

const (
	// Exponentiative hidden sizes are exponents h, and the layer has
	// floor(input^h) units
	Exponentiative ConnectionMode = "exponentiative"

	// Literal hidden sizes are the number of units in the layer
	Literal ConnectionMode = "literal"
)

// Optimiser is the kind of gradient-based optimiser to train with
type Optimiser string

const (
	SGD  Optimiser = "SGD"
	Adam Optimiser = "Adam"
)

// Advantage determines how the actor-critic advantage is estimated
type Advantage string

const (
	// MonteCarlo advantages are G_t - v(s_t)
	MonteCarlo Advantage = "monte_carlo"

	// Bootstrap advantages are r_t + γv(s_{t+1}) - v(s_t)
	Bootstrap Advantage = "bootstrap"
)

// ConvLayers describes a stack of convolutional layers. Each index i
// describes a single layer with Channels[i] output channels, a square
// kernel of size KernelSizes[i], and stride Strides[i].
type ConvLayers struct {
	Channels    []int `mapstructure:"channels" json:"channels"`
	KernelSizes []int `mapstructure:"kernel_sizes" json:"kernel_sizes"`
	Strides     []int `mapstructure:"strides" json:"strides"`
}

// Len returns the number of convolutional layers
func (c *ConvLayers) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Channels)
}

func (c *ConvLayers) validate(key string) error {
	if c == nil {
		return nil
	}
	if len(c.Channels) == 0 {
		return missing("validate", key+".channels")
	}
	if len(c.KernelSizes) != len(c.Channels) {
		return invalid("validate", key+".kernel_sizes", c.KernelSizes)
	}
	if len(c.Strides) != len(c.Channels) {
		return invalid("validate", key+".strides", c.Strides)
	}
	for i := range c.Channels {
		if c.Channels[i] <= 0 {
			return invalid("validate", key+".channels", c.Channels)
		}
		if c.KernelSizes[i] <= 0 {
			return invalid("validate", key+".kernel_sizes", c.KernelSizes)
		}
		if c.Strides[i] <= 0 {
			return invalid("validate", key+".strides", c.Strides)
		}
	}
	return nil
}

func (c *ConvLayers) clone() *ConvLayers {
	if c == nil {
		return nil
	}
	return &ConvLayers{
		Channels:    append([]int(nil), c.Channels...),
		KernelSizes: append([]int(nil), c.KernelSizes...),
		Strides:     append([]int(nil), c.Strides...),
	}
}

// Block describes one sub-network of an actor-critic policy.
// CNNLayers may be nil for flat observations.
type Block struct {
	CNNLayers *ConvLayers `mapstructure:"CNN_layers" json:"CNN_layers,omitempty"`
	FNNLayers []float64   `mapstructure:"FNN_layers" json:"FNN_layers"`
}

func (b *Block) clone() *Block {
	if b == nil {
		return nil
	}
	return &Block{
		CNNLayers: b.CNNLayers.clone(),
		FNNLayers: copyFloats(b.FNNLayers),
	}
}

// Config is the raw, decoded set of hyperparameters. Key names follow
// the hyperparameter files that agents are trained from.
//
// Coefficients that may legitimately be zero are pointers so that a
// missing key can be told apart from a zero value.
type Config struct {
	LearningRate   float64        `mapstructure:"learning_rate" json:"learning_rate"`
	TrainEpochs    int            `mapstructure:"train_epochs" json:"train_epochs"`
	LRDecayRate    float64        `mapstructure:"lr_decay_rate" json:"lr_decay_rate"`
	Architecture   Architecture   `mapstructure:"architecture" json:"architecture"`
	ConnectionMode ConnectionMode `mapstructure:"connection_mode" json:"connection_mode"`
	Optimiser      Optimiser      `mapstructure:"optimiser" json:"optimiser,omitempty"`

	// FNN
	HiddenLayers []float64 `mapstructure:"hidden_layers" json:"hidden_layers,omitempty"`

	// CNN
	CNNHiddenLayers *ConvLayers `mapstructure:"CNN_hidden_layers" json:"CNN_hidden_layers,omitempty"`
	FNNHiddenLayers []float64   `mapstructure:"FNN_hidden_layers" json:"FNN_hidden_layers,omitempty"`

	// Actor-critic
	Actor             *Block   `mapstructure:"actor" json:"actor,omitempty"`
	Critic            *Block   `mapstructure:"critic" json:"critic,omitempty"`
	CriticCoeff       *float64 `mapstructure:"critic_coeff" json:"critic_coeff,omitempty"`
	EntropyCoeff      *float64 `mapstructure:"entropy_coeff" json:"entropy_coeff,omitempty"`
	Gamma             *float64 `mapstructure:"gamma" json:"gamma,omitempty"`
	RegularizeReturns *bool    `mapstructure:"regularize_returns" json:"regularize_returns,omitempty"`

	// Optional keys with defaults
	Precision  string    `mapstructure:"precision" json:"precision,omitempty"`
	Activation string    `mapstructure:"activation" json:"activation,omitempty"`
	Dropout    float64   `mapstructure:"dropout" json:"dropout,omitempty"`
	Init       string    `mapstructure:"init" json:"init,omitempty"`
	Advantage  Advantage `mapstructure:"advantage" json:"advantage,omitempty"`
	Seed       uint64    `mapstructure:"seed" json:"seed,omitempty"`
}

// Validate checks that all keys required by the configured
// architecture are present and legal. Validate only reports errors,
// it never fills in defaults.
func (c Config) Validate() error {
	if c.LearningRate <= 0 {
		if c.LearningRate == 0 {
			return missing("validate", "learning_rate")
		}
		return invalid("validate", "learning_rate", c.LearningRate)
	}
	if c.TrainEpochs <= 0 {
		if c.TrainEpochs == 0 {
			return missing("validate", "train_epochs")
		}
		return invalid("validate", "train_epochs", c.TrainEpochs)
	}
	if c.LRDecayRate == 0 {
		return missing("validate", "lr_decay_rate")
	} else if c.LRDecayRate < 0 || c.LRDecayRate > 1 {
		return invalid("validate", "lr_decay_rate", c.LRDecayRate)
	}

	switch c.ConnectionMode {
	case Exponentiative, Literal:
	case "":
		return missing("validate", "connection_mode")
	default:
		return invalid("validate", "connection_mode", c.ConnectionMode)
	}

	switch c.Optimiser {
	case "", SGD, Adam:
	default:
		return invalid("validate", "optimiser", c.Optimiser)
	}

	switch c.Precision {
	case "", "float64", "float32":
	default:
		return invalid("validate", "precision", c.Precision)
	}

	switch c.Activation {
	case "", "relu", "tanh":
	default:
		return invalid("validate", "activation", c.Activation)
	}

	switch c.Init {
	case "", "GlorotU", "GlorotN", "HeU", "HeN":
	default:
		return invalid("validate", "init", c.Init)
	}

	if c.Dropout < 0 || c.Dropout >= 1 {
		return invalid("validate", "dropout", c.Dropout)
	}

	if c.Gamma != nil && (*c.Gamma < 0 || *c.Gamma > 1) {
		return invalid("validate", "gamma", *c.Gamma)
	}

	switch c.Architecture {
	case FNN:
		if c.HiddenLayers == nil {
			return missing("validate", "hidden_layers")
		}
		return c.validateSizes("hidden_layers", c.HiddenLayers)

	case CNN:
		if c.CNNHiddenLayers == nil {
			return missing("validate", "CNN_hidden_layers")
		}
		if err := c.CNNHiddenLayers.validate("CNN_hidden_layers"); err != nil {
			return err
		}
		if c.FNNHiddenLayers == nil {
			return missing("validate", "FNN_hidden_layers")
		}
		return c.validateSizes("FNN_hidden_layers", c.FNNHiddenLayers)

	case ActorCritic:
		return c.validateActorCritic()

	case "":
		return missing("validate", "architecture")

	default:
		return invalid("validate", "architecture", c.Architecture)
	}
}

func (c Config) validateActorCritic() error {
	for _, b := range []struct {
		key   string
		block *Block
	}{{"actor", c.Actor}, {"critic", c.Critic}} {
		if b.block == nil {
			return missing("validate", b.key)
		}
		if err := b.block.CNNLayers.validate(b.key + ".CNN_layers"); err != nil {
			return err
		}
		if b.block.FNNLayers == nil {
			return missing("validate", b.key+".FNN_layers")
		}
		err := c.validateSizes(b.key+".FNN_layers", b.block.FNNLayers)
		if err != nil {
			return err
		}
	}

	if c.CriticCoeff == nil {
		return missing("validate", "critic_coeff")
	}
	if c.EntropyCoeff == nil {
		return missing("validate", "entropy_coeff")
	}
	if c.Gamma == nil {
		return missing("validate", "gamma")
	}
	if c.RegularizeReturns == nil {
		return missing("validate", "regularize_returns")
	}

	switch c.Advantage {
	case "", MonteCarlo, Bootstrap:
	default:
		return invalid("validate", "advantage", c.Advantage)
	}
	return nil
}

// validateSizes ensures all hidden sizes are positive
func (c Config) validateSizes(key string, sizes []float64) error {
	for _, h := range sizes {
		if h <= 0 {
			return invalid("validate", key, sizes)
		}
		if c.ConnectionMode == Literal && h != float64(int(h)) {
			return invalid("validate", key, fmt.Sprintf("%v (literal "+
				"sizes must be integers)", sizes))
		}
	}
	return nil
}

// clone returns a deep copy of the Config
func (c Config) clone() Config {
	out := c
	out.HiddenLayers = copyFloats(c.HiddenLayers)
	out.FNNHiddenLayers = copyFloats(c.FNNHiddenLayers)
	out.CNNHiddenLayers = c.CNNHiddenLayers.clone()
	out.Actor = c.Actor.clone()
	out.Critic = c.Critic.clone()
	out.CriticCoeff = cloneFloat(c.CriticCoeff)
	out.EntropyCoeff = cloneFloat(c.EntropyCoeff)
	out.Gamma = cloneFloat(c.Gamma)
	if c.RegularizeReturns != nil {
		r := *c.RegularizeReturns
		out.RegularizeReturns = &r
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// copyFloats copies a slice, keeping nil and empty slices distinct
func copyFloats(f []float64) []float64 {
	if f == nil {
		return nil
	}
	out := make([]float64, len(f))
	copy(out, f)
	return out
}
