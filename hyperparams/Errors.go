package hyperparams

import "github.com/pkg/errors"

// Sentinel errors returned (wrapped) when an agent cannot be built from
// a hyperparameter set or an environment.
var (
	// ErrConfig is returned when a required key is missing or invalid,
	// or when an operation is not allowed on the agent's mode.
	ErrConfig = errors.New("invalid hyperparameter configuration")

	// ErrShape is returned when observation or action spaces are
	// incompatible with the requested architecture.
	ErrShape = errors.New("incompatible shape")
)

// IsConfig returns whether err was caused by ErrConfig
func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}

// IsShape returns whether err was caused by ErrShape
func IsShape(err error) bool {
	return errors.Is(err, ErrShape)
}

// missing returns an ErrConfig describing a missing key
func missing(fn, key string) error {
	return errors.Wrapf(ErrConfig, "%v: missing key %q", fn, key)
}

// invalid returns an ErrConfig describing an invalid key
func invalid(fn, key string, value interface{}) error {
	return errors.Wrapf(ErrConfig, "%v: invalid value %v for key %q", fn,
		value, key)
}
