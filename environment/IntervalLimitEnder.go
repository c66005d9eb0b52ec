package environment

import (
	"gonum.org/v1/gonum/spatial/r1"

	ts "github.com/samuelfneumann/pgrl/timestep"
)

// IntervalLimit implements the Ender interface to end episodes
// whenever a single feature in an observation leaves some interval
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
}

// NewIntervalLimit creates and returns a new interval limit, where
// feature obsIndices[i] must stay within limits[i].
func NewIntervalLimit(limits []r1.Interval, obsIndices []int) *IntervalLimit {
	if len(limits) != len(obsIndices) {
		panic("newIntervalLimit: limits should have same length as " +
			"observation indices")
	}

	return &IntervalLimit{limits, obsIndices}
}

// End ends the episode if any tracked feature is out of its interval
func (i *IntervalLimit) End(t *ts.TimeStep) bool {
	for index, featureIndex := range i.indices {
		interval := i.intervals[index]
		feature := t.Observation.AtVec(featureIndex)

		if feature > interval.Max || feature < interval.Min {
			t.StepType = ts.Last
			return true
		}
	}
	return false
}
