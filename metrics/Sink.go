// Package metrics implements sinks which record the scalars and
// hyperparameters logged while training agents
package metrics

import "fmt"

// Sink records named scalar values indexed by step, together with the
// hyperparameters of a run
type Sink interface {
	// Hyperparams records the hyperparameters of the run named tag
	Hyperparams(tag string, hp map[string]interface{}) error

	// Scalar records a single value of the series name at step
	Scalar(name string, step int, value float64) error

	// Close flushes all recorded data
	Close() error
}

// Point is a single recorded scalar
type Point struct {
	Step  int
	Value float64
}

// Nop is a Sink which discards everything
type Nop struct{}

func (Nop) Hyperparams(string, map[string]interface{}) error { return nil }
func (Nop) Scalar(string, int, float64) error                { return nil }
func (Nop) Close() error                                     { return nil }

// multi records everything to multiple sinks
type multi []Sink

// Multi returns a Sink which records everything to each of sinks
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Hyperparams(tag string, hp map[string]interface{}) error {
	for _, s := range m {
		if err := s.Hyperparams(tag, hp); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Scalar(name string, step int, value float64) error {
	for _, s := range m {
		if err := s.Scalar(name, step, value); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all sinks, returning the first error encountered after
// attempting to close every sink
func (m multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = fmt.Errorf("close: %v", err)
		}
	}
	return first
}
