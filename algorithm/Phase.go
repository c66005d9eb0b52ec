// Package algorithm implements the REINFORCE and Advantage Actor-Critic
// policy gradient algorithms
package algorithm

// Phase is a phase of a training epoch. Each epoch moves through
// Collecting, Estimating, Updating, and optionally Testing. Training
// ends in Done.
type Phase int

const (
	Collecting Phase = iota
	Estimating
	Updating
	Testing
	Done
)

func (p Phase) String() string {
	switch p {
	case Collecting:
		return "collecting"
	case Estimating:
		return "estimating"
	case Updating:
		return "updating"
	case Testing:
		return "testing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}
