package metrics

import (
	"log"
	"sort"

	"github.com/logrusorgru/aurora"
)

// Log is a Sink which prints everything recorded to a log.Logger
type Log struct {
	logger *log.Logger
	colors bool
}

// NewLog returns a new Log sink. If colors is true, series names are
// coloured with ANSI escape codes.
func NewLog(logger *log.Logger, colors bool) *Log {
	return &Log{logger, colors}
}

// Hyperparams prints the hyperparameters of the run, sorted by key
func (l *Log) Hyperparams(tag string, hp map[string]interface{}) error {
	keys := make([]string, 0, len(hp))
	for k := range hp {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	l.logger.Printf("%v hyperparameters:", l.color(tag))
	for _, k := range keys {
		l.logger.Printf("\t%v: %v", k, hp[k])
	}
	return nil
}

// Scalar prints a single value
func (l *Log) Scalar(name string, step int, value float64) error {
	l.logger.Printf("%v [%d]: %.4f", l.color(name), step, value)
	return nil
}

func (l *Log) Close() error { return nil }

func (l *Log) color(s string) string {
	if !l.colors {
		return s
	}
	return aurora.Cyan(s).String()
}
