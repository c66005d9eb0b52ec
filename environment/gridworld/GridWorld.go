// Package gridworld implements square 2D gridworld environments with
// image observations
package gridworld

import (
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pgrl/environment"
	"github.com/samuelfneumann/pgrl/timestep"
)

// Actions
const (
	Left int = iota
	Right
	Up
	Down
)

// Observation channels
const (
	AgentChannel int = iota
	GoalChannel
	Channels
)

// GridWorld represents a square gridworld environment. Observations are
// images of shape [Channels, size, size]: channel AgentChannel is 1 at
// the agent's cell and channel GoalChannel is 1 at each goal cell.
//
// Actions are discrete:
//
//	Action	Meaning
//	  0		Move left
//	  1		Move right
//	  2		Move up
//	  3		Move down
//
// Moves into a wall leave the agent in place.
type GridWorld struct {
	environment.Starter
	*Goal
	size         int
	position     int
	episodeSteps int
	currentStep  timestep.TimeStep

	out      io.Writer // Terminal render target
	frameDir string    // Directory of PNG frames, "" if not saving frames
	frames   int
}

// New creates a new size x size gridworld whose starting positions
// are sampled from the Starter s. Starting states are (x, y)
// coordinates. Episodes are cut off after episodeSteps steps.
func New(size int, g *Goal, s environment.Starter,
	episodeSteps int) (*GridWorld, error) {
	if size <= 1 {
		return nil, fmt.Errorf("new: size must be > 1, have %v", size)
	}
	if g.size != size {
		return nil, fmt.Errorf("new: goal for gridworld of size %v "+
			"cannot be used in gridworld of size %v", g.size, size)
	}
	if episodeSteps <= 0 {
		return nil, fmt.Errorf("new: episode steps must be positive, "+
			"have %v", episodeSteps)
	}

	return &GridWorld{
		Starter:      s,
		Goal:         g,
		size:         size,
		episodeSteps: episodeSteps,
		out:          os.Stdout,
	}, nil
}

// NewRandomStart returns a gridworld with a single goal at (goalX,
// goalY) where episodes start uniformly at random in the grid. Every
// step is rewarded with -1 until the goal is reached.
func NewRandomStart(size, goalX, goalY, episodeSteps int,
	seed uint64) (*GridWorld, error) {
	goal, err := NewGoal([]int{goalX}, []int{goalY}, size, -1.0, 0.0)
	if err != nil {
		return nil, fmt.Errorf("newRandomStart: %v", err)
	}
	starter := environment.NewCategoricalStarter([]int{size, size}, seed)

	return New(size, goal, starter, episodeSteps)
}

// SetOutput sets the destination of terminal rendering
func (g *GridWorld) SetOutput(w io.Writer) {
	g.out = w
}

// Size returns the number of rows and columns of the GridWorld
func (g *GridWorld) Size() int {
	return g.size
}

// Reset starts a new episode at a starting position
func (g *GridWorld) Reset() (timestep.TimeStep, error) {
	start := g.Start()
	x, y := int(start.AtVec(0)), int(start.AtVec(1))
	if !g.inBounds(x, y) {
		return timestep.TimeStep{}, fmt.Errorf("reset: start (%v, %v) "+
			"out of bounds", x, y)
	}

	// Resample goal starts, a gridworld starting at the goal has no
	// steps to learn from
	for tries := 0; g.isGoal(x, y) && tries < 100; tries++ {
		start = g.Start()
		x, y = int(start.AtVec(0)), int(start.AtVec(1))
	}
	if g.isGoal(x, y) {
		return timestep.TimeStep{}, fmt.Errorf("reset: could not sample " +
			"a non-goal starting position")
	}

	g.position = g.cToInd(x, y)
	g.currentStep = timestep.New(timestep.First, 0, g.observation(), 0)
	return g.currentStep, nil
}

// Step moves the agent in the direction given by action
func (g *GridWorld) Step(action int) (timestep.TimeStep, bool, error) {
	if g.currentStep.Observation == nil || g.currentStep.Last() {
		return timestep.TimeStep{}, true, fmt.Errorf("step: environment " +
			"must be reset before stepping")
	}

	x, y := g.Coordinates()
	switch action {
	case Left:
		x--
	case Right:
		x++
	case Up:
		y++
	case Down:
		y--
	default:
		return timestep.TimeStep{}, true, fmt.Errorf("step: illegal "+
			"action %v ∉ (0, 1, 2, 3)", action)
	}

	if g.inBounds(x, y) {
		g.position = g.cToInd(x, y)
	}
	x, y = g.Coordinates()

	reward := g.timeStepReward
	stepType := timestep.Mid
	if g.isGoal(x, y) {
		reward = g.goalReward
		stepType = timestep.Last
	}

	step := timestep.New(stepType, reward, g.observation(),
		g.currentStep.Number+1)
	environment.NewStepLimit(g.episodeSteps).End(&step)
	g.currentStep = step

	return step, step.Last(), nil
}

// ObservationSpec returns the observation specification of the
// environment
func (g *GridWorld) ObservationSpec() environment.Spec {
	size := Channels * g.size * g.size
	upper := make([]float64, size)
	for i := range upper {
		upper[i] = 1.0
	}

	return environment.NewSpec([]int{Channels, g.size, g.size},
		environment.Observation, mat.NewVecDense(size, nil),
		mat.NewVecDense(size, upper), environment.Discrete)
}

// ActionSpec returns the action specification of the environment
func (g *GridWorld) ActionSpec() environment.Spec {
	return environment.NewSpec([]int{1}, environment.Action,
		mat.NewVecDense(1, []float64{float64(Left)}),
		mat.NewVecDense(1, []float64{float64(Down)}),
		environment.Discrete)
}

// Coordinates returns the (x, y) coordinates of the agent
func (g *GridWorld) Coordinates() (int, int) {
	y := g.position / g.size
	x := g.position - (y * g.size)
	return x, y
}

func (g *GridWorld) String() string {
	x, y := g.Coordinates()
	str := "GridWorld | At: (%d, %d)  |  Goal: %v  |  Size: %d"

	return fmt.Sprintf(str, x, y, g.Goal, g.size)
}

// observation returns the image observation of the current state
func (g *GridWorld) observation() *mat.VecDense {
	cells := g.size * g.size
	obs := mat.NewVecDense(Channels*cells, nil)
	obs.SetVec(AgentChannel*cells+g.position, 1.0)
	for _, goal := range g.goals {
		obs.SetVec(GoalChannel*cells+goal, 1.0)
	}
	return obs
}

func (g *GridWorld) inBounds(x, y int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size
}

func (g *GridWorld) cToInd(x, y int) int {
	return cToInd(x, y, g.size)
}

func cToInd(x, y, c int) int {
	return y*c + x
}
