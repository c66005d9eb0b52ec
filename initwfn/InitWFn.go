// Package initwfn wraps Gorgonia weight initializers so that they can
// be selected by name from hyperparameter files and recorded
// alongside trained networks.
package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available
type Type string

// Available InitWFn types
const (
	GlorotU Type = "GlorotU"
	GlorotN Type = "GlorotN"
	HeU     Type = "HeU"
	HeN     Type = "HeN"
)

// Config implements a Gorgonia InitWFn configuration and can be used to
// create the described Gorgonia InitWFn's.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}

// GainConfig configures the gain-scaled Glorot and He initializers
type GainConfig struct {
	Kind Type
	Gain float64
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GainConfig) Type() Type {
	return g.Kind
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GainConfig) Create() G.InitWFn {
	switch g.Kind {
	case GlorotN:
		return G.GlorotN(g.Gain)
	case HeU:
		return G.HeU(g.Gain)
	case HeN:
		return G.HeN(g.Gain)
	default:
		return G.GlorotU(g.Gain)
	}
}

// InitWFn wraps a Gorgonia InitWFn together with the configuration
// that created it
type InitWFn struct {
	initWFn G.InitWFn
	Config
}

// New returns the named weight initializer with the given gain
func New(t Type, gain float64) (*InitWFn, error) {
	switch t {
	case GlorotU, GlorotN, HeU, HeN:
	default:
		return nil, fmt.Errorf("new: unknown weight initializer %q", t)
	}
	if gain <= 0 {
		return nil, fmt.Errorf("new: gain must be positive, have %v", gain)
	}

	config := GainConfig{Kind: t, Gain: gain}
	return &InitWFn{initWFn: config.Create(), Config: config}, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (w *InitWFn) InitWFn() G.InitWFn {
	return w.initWFn
}

// String implements the fmt.Stringer interface
func (w *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", w.Type(), w.Config)
}
