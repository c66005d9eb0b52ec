package hyperparams

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gorgonia.org/tensor"
)

// Spec is a validated, immutable hyperparameter set. A Spec can only
// be obtained through New, Load, or FromMap, each of which validates
// the configuration once. Accessors return copies so a Spec is never
// mutated after construction.
type Spec struct {
	c Config
}

// New validates a Config and returns it as a Spec
func New(c Config) (Spec, error) {
	if err := c.Validate(); err != nil {
		return Spec{}, err
	}
	return Spec{c.clone()}, nil
}

// Load reads a hyperparameter file (JSON or YAML, determined from the
// file extension) and returns the validated Spec it describes.
func Load(path string) (Spec, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		ext = "json"
	}
	vp.SetConfigType(ext)

	if err := vp.ReadInConfig(); err != nil {
		return Spec{}, errors.Wrapf(ErrConfig, "load: could not read %v: %v",
			path, err)
	}
	return decode(vp)
}

// FromMap returns the validated Spec described by a map of key-value
// pairs, keyed the same way as hyperparameter files.
func FromMap(m map[string]interface{}) (Spec, error) {
	vp := viper.New()
	if err := vp.MergeConfigMap(m); err != nil {
		return Spec{}, errors.Wrapf(ErrConfig, "frommap: %v", err)
	}
	return decode(vp)
}

func decode(vp *viper.Viper) (Spec, error) {
	var c Config
	if err := vp.Unmarshal(&c); err != nil {
		return Spec{}, errors.Wrapf(ErrConfig, "decode: %v", err)
	}
	return New(c)
}

// Config returns a deep copy of the underlying configuration
func (s Spec) Config() Config {
	return s.c.clone()
}

// LearningRate returns the initial learning rate
func (s Spec) LearningRate() float64 { return s.c.LearningRate }

// TrainEpochs returns the number of training epochs
func (s Spec) TrainEpochs() int { return s.c.TrainEpochs }

// LRDecayRate returns the multiplicative per-epoch learning rate decay
func (s Spec) LRDecayRate() float64 { return s.c.LRDecayRate }

// Architecture returns the policy architecture kind
func (s Spec) Architecture() Architecture { return s.c.Architecture }

// ConnectionMode returns how hidden layer sizes should be interpreted
func (s Spec) ConnectionMode() ConnectionMode { return s.c.ConnectionMode }

// Optimiser returns the optimiser type, defaulting to Adam
func (s Spec) Optimiser() Optimiser {
	if s.c.Optimiser == "" {
		return Adam
	}
	return s.c.Optimiser
}

// Precision returns the floating point type of all network
// computations, defaulting to tensor.Float64.
func (s Spec) Precision() tensor.Dtype {
	if s.c.Precision == "float32" {
		return tensor.Float32
	}
	return tensor.Float64
}

// Activation returns the name of the hidden layer activation
func (s Spec) Activation() string {
	if s.c.Activation == "" {
		return "relu"
	}
	return s.c.Activation
}

// Init returns the name of the weight initialization algorithm
func (s Spec) Init() string {
	if s.c.Init == "" {
		return "GlorotU"
	}
	return s.c.Init
}

// Dropout returns the dropout probability used in training mode
func (s Spec) Dropout() float64 { return s.c.Dropout }

// Seed returns the seed for weight initialization and sampling
func (s Spec) Seed() uint64 { return s.c.Seed }

// Gamma returns the discount factor and whether it was set
func (s Spec) Gamma() (float64, bool) {
	if s.c.Gamma == nil {
		return 0, false
	}
	return *s.c.Gamma, true
}

// CriticCoeff returns the weight of the critic loss. Only valid for
// actor-critic architectures.
func (s Spec) CriticCoeff() float64 { return deref(s.c.CriticCoeff) }

// EntropyCoeff returns the weight of the entropy bonus. Only valid for
// actor-critic architectures.
func (s Spec) EntropyCoeff() float64 { return deref(s.c.EntropyCoeff) }

// RegularizeReturns returns whether returns are normalized before
// computing actor-critic losses.
func (s Spec) RegularizeReturns() bool {
	return s.c.RegularizeReturns != nil && *s.c.RegularizeReturns
}

// Advantage returns the advantage estimator, defaulting to MonteCarlo
func (s Spec) Advantage() Advantage {
	if s.c.Advantage == "" {
		return MonteCarlo
	}
	return s.c.Advantage
}

// Map returns the hyperparameters as a flat map of scalars and
// strings, suitable for logging. Nested layer descriptions are
// flattened with "." separated keys.
func (s Spec) Map() map[string]interface{} {
	c := s.c
	m := map[string]interface{}{
		"learning_rate":   c.LearningRate,
		"train_epochs":    c.TrainEpochs,
		"lr_decay_rate":   c.LRDecayRate,
		"architecture":    string(c.Architecture),
		"connection_mode": string(c.ConnectionMode),
		"optimiser":       string(s.Optimiser()),
		"precision":       s.Precision().String(),
		"activation":      s.Activation(),
		"init":            s.Init(),
		"dropout":         c.Dropout,
		"seed":            c.Seed,
	}

	switch c.Architecture {
	case FNN:
		m["hidden_layers"] = floatsString(c.HiddenLayers)

	case CNN:
		addConv(m, "CNN_hidden_layers", c.CNNHiddenLayers)
		m["FNN_hidden_layers"] = floatsString(c.FNNHiddenLayers)

	case ActorCritic:
		addConv(m, "actor.CNN_layers", c.Actor.CNNLayers)
		m["actor.FNN_layers"] = floatsString(c.Actor.FNNLayers)
		addConv(m, "critic.CNN_layers", c.Critic.CNNLayers)
		m["critic.FNN_layers"] = floatsString(c.Critic.FNNLayers)
		m["critic_coeff"] = s.CriticCoeff()
		m["entropy_coeff"] = s.EntropyCoeff()
		m["regularize_returns"] = s.RegularizeReturns()
		m["advantage"] = string(s.Advantage())
	}

	if gamma, ok := s.Gamma(); ok {
		m["gamma"] = gamma
	}
	return m
}

func addConv(m map[string]interface{}, key string, c *ConvLayers) {
	if c == nil {
		return
	}
	m[key+".channels"] = intsString(c.Channels)
	m[key+".kernel_sizes"] = intsString(c.KernelSizes)
	m[key+".strides"] = intsString(c.Strides)
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func floatsString(f []float64) string { return fmt.Sprint(f) }

func intsString(i []int) string { return fmt.Sprint(i) }
