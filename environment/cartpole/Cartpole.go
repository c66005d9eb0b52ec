// Package cartpole implements the Cartpole classic control environment
// with discrete actions
package cartpole

import (
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/pgrl/environment"
	ts "github.com/samuelfneumann/pgrl/timestep"
	"github.com/samuelfneumann/pgrl/utils/floatutils"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Bounds (+/-) on state variables
	PositionBounds        float64 = 2.4
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = math.Pi
	AngularVelocityBounds float64 = math.MaxFloat64

	// Episodes end when the pole falls past FailAngle radians
	FailAngle float64 = 12 * 2 * math.Pi / 360

	// Bounds on the uniform distribution of starting state features
	StartBounds float64 = 0.05

	// Discrete Actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
)

// Cartpole implements the classic control environment Cartpole with
// discrete actions. In this environment, a pole is attached to a cart,
// which can move horizontally. The agent must keep the pole balanced
// upright for as long as possible.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity.
//
// Actions are discrete and consist of the force applied to the cart:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Do nothing
//	  2		Accelerate right
//
// A reward of +1 is given on every step. Episodes end when the pole
// falls past FailAngle, the cart leaves the track, or the step limit
// is reached.
type Cartpole struct {
	env.Starter
	enders   []env.Ender
	lastStep ts.TimeStep

	positionBounds r1.Interval
	angleBounds    r1.Interval

	out io.Writer // Render target
}

// New constructs a new Cartpole environment whose episodes are cut
// off after episodeSteps steps.
func New(episodeSteps int, seed uint64) (*Cartpole, error) {
	if episodeSteps <= 0 {
		return nil, fmt.Errorf("new: episode steps must be positive, "+
			"have %v", episodeSteps)
	}

	startBounds := make([]r1.Interval, 4)
	for i := range startBounds {
		startBounds[i] = r1.Interval{Min: -StartBounds, Max: StartBounds}
	}

	positionBounds := r1.Interval{Min: -PositionBounds, Max: PositionBounds}
	failBounds := []r1.Interval{
		positionBounds,
		{Min: -FailAngle, Max: FailAngle},
	}

	return &Cartpole{
		Starter: env.NewUniformStarter(startBounds, seed),
		enders: []env.Ender{
			env.NewIntervalLimit(failBounds, []int{0, 2}),
			env.NewStepLimit(episodeSteps),
		},
		positionBounds: positionBounds,
		angleBounds:    r1.Interval{Min: -AngleBounds, Max: AngleBounds},
		out:            os.Stdout,
	}, nil
}

// SetOutput sets the destination of Render
func (c *Cartpole) SetOutput(w io.Writer) {
	c.out = w
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() (ts.TimeStep, error) {
	state := c.Start()
	c.lastStep = ts.New(ts.First, 0, state, 0)

	return c.lastStep, nil
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return env.NewSpec([]int{1}, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	lower := []float64{c.positionBounds.Min, -SpeedBounds,
		c.angleBounds.Min, -AngularVelocityBounds}
	upper := []float64{c.positionBounds.Max, SpeedBounds,
		c.angleBounds.Max, AngularVelocityBounds}

	return env.NewSpec([]int{4}, env.Observation,
		mat.NewVecDense(4, lower), mat.NewVecDense(4, upper),
		env.Continuous)
}

// Step takes one environmental step given action a and returns the
// next timestep and whether or not the episode has ended
func (c *Cartpole) Step(a int) (ts.TimeStep, bool, error) {
	if c.lastStep.Observation == nil || c.lastStep.Last() {
		return ts.TimeStep{}, true, fmt.Errorf("step: environment must " +
			"be reset before stepping")
	}
	if a < MinDiscreteAction || a > MaxDiscreteAction {
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action %v "+
			"∉ (0, 1, 2)", a)
	}

	// Convert action (0, 1, 2) to a direction (-1, 0, 1)
	force := float64(a-1) * ForceMag

	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	totalMass := PoleMass + CartMass
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / totalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/totalMass

	// Euler kinematic integration
	x += Dt * xDot
	xDot += Dt * xAcc
	th += Dt * thDot
	thDot += Dt * thAcc

	th = normalizeAngle(th, c.angleBounds)

	newState := mat.NewVecDense(4, []float64{x, xDot, th, thDot})
	nextStep := ts.New(ts.Mid, 1.0, newState, c.lastStep.Number+1)

	for _, ender := range c.enders {
		if ender.End(&nextStep) {
			break
		}
	}

	c.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

func (c *Cartpole) String() string {
	msg := "Cartpole  |  Position: %v  | Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	if state == nil {
		return "Cartpole  |  not started"
	}
	position, speed := state.AtVec(0), state.AtVec(1)
	angle, velocity := state.AtVec(2), state.AtVec(3)

	return fmt.Sprintf(msg, position, speed, angle, velocity)
}

// normalizeAngle normalizes the pole angle to (-π, π]
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	th = math.Mod(th+angleBounds.Max, 2*angleBounds.Max)
	if th <= 0 {
		th += 2 * angleBounds.Max
	}
	return floatutils.ClipInterval(th-angleBounds.Max, angleBounds)
}
