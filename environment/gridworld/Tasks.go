package gridworld

import "fmt"

// Goal represents the task of reaching goal cells in a GridWorld
type Goal struct {
	goals          []int // flattened indices of goal cells
	size           int
	timeStepReward float64
	goalReward     float64
}

// NewGoal creates and returns a new goal at positions (x[i], y[i]),
// given that the gridworld has size rows and columns. Each step that
// does not reach a goal is rewarded with timeStepReward and reaching a
// goal is rewarded with goalReward.
func NewGoal(x, y []int, size int, timeStepReward,
	goalReward float64) (*Goal, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("newGoal: x length (%d) != y length (%d)",
			len(x), len(y))
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("newGoal: at least one goal is required")
	}

	goals := make([]int, len(x))
	for i := range x {
		if x[i] < 0 || x[i] >= size {
			return nil, fmt.Errorf("newGoal: x[%d] = %d out of bounds "+
				"[0, %d)", i, x[i], size)
		} else if y[i] < 0 || y[i] >= size {
			return nil, fmt.Errorf("newGoal: y[%d] = %d out of bounds "+
				"[0, %d)", i, y[i], size)
		}
		goals[i] = cToInd(x[i], y[i], size)
	}

	return &Goal{goals, size, timeStepReward, goalReward}, nil
}

// isGoal returns whether (x, y) is a goal cell
func (g *Goal) isGoal(x, y int) bool {
	ind := cToInd(x, y, g.size)
	for _, goal := range g.goals {
		if goal == ind {
			return true
		}
	}
	return false
}

func (g *Goal) String() string {
	coords := make([][2]int, len(g.goals))
	for i, goal := range g.goals {
		coords[i] = [2]int{goal % g.size, goal / g.size}
	}
	return fmt.Sprint(coords)
}
