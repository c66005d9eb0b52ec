package agent

import (
	"io"
	"log"
	"time"

	"github.com/samuelfneumann/pgrl/metrics"
)

// Option configures an Agent
type Option func(*Agent)

// WithGPU requests that networks be placed on the GPU. If no GPU is
// available, a warning is logged and the CPU is used.
func WithGPU(use bool) Option {
	return func(a *Agent) { a.useGPU = use }
}

// WithSink sets the sink that hyperparameters and training metrics are
// recorded to. A nil sink records nothing.
func WithSink(s metrics.Sink) Option {
	return func(a *Agent) { a.sink = s }
}

// WithLogger sets the logger of the Agent. A nil logger discards all
// output.
func WithLogger(l *log.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithRenderDelay sets the pause after rendering each step of a test
// episode
func WithRenderDelay(d time.Duration) Option {
	return func(a *Agent) { a.renderDelay = d }
}

// WithProgress displays a progress bar on out while training
func WithProgress(out io.Writer) Option {
	return func(a *Agent) { a.progress = out }
}

// WithSeed seeds the action sampling and tie breaking of the Agent.
// Agents for training default to the seed of their hyperparameters.
func WithSeed(seed uint64) Option {
	return func(a *Agent) {
		a.seed = seed
		a.seeded = true
	}
}
