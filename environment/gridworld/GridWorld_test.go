package gridworld

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// fixedStart always starts at the same cell
type fixedStart struct{ x, y int }

func (f fixedStart) Start() *mat.VecDense {
	return mat.NewVecDense(2, []float64{float64(f.x), float64(f.y)})
}

func newTestGrid(t *testing.T, steps int) *GridWorld {
	goal, err := NewGoal([]int{2}, []int{2}, 3, -1, 0)
	if err != nil {
		t.Fatal(err)
	}
	g, err := New(3, goal, fixedStart{0, 0}, steps)
	if err != nil {
		t.Fatal(err)
	}
	g.SetOutput(&bytes.Buffer{})
	return g
}

func TestReachGoal(t *testing.T) {
	g := newTestGrid(t, 100)
	if _, err := g.Reset(); err != nil {
		t.Fatal(err)
	}

	actions := []int{Right, Right, Up, Up}
	for i, a := range actions {
		step, done, err := g.Step(a)
		if err != nil {
			t.Fatal(err)
		}

		last := i == len(actions)-1
		if done != last {
			t.Errorf("step %v: done = %v", i, done)
		}
		if last && step.Reward != 0 {
			t.Errorf("goal reward: want(0) have(%v)", step.Reward)
		} else if !last && step.Reward != -1 {
			t.Errorf("step reward: want(-1) have(%v)", step.Reward)
		}
	}
}

func TestWallsAndObservation(t *testing.T) {
	g := newTestGrid(t, 100)
	start, _ := g.Reset()

	step, _, err := g.Step(Left)
	if err != nil {
		t.Fatal(err)
	}
	if x, y := g.Coordinates(); x != 0 || y != 0 {
		t.Errorf("moving into a wall should not move, at (%v, %v)", x, y)
	}
	if !mat.Equal(start.Observation, step.Observation) {
		t.Error("observation changed after moving into a wall")
	}

	obs := step.Data()
	if len(obs) != Channels*9 {
		t.Fatalf("observation size: want(%v) have(%v)", Channels*9, len(obs))
	}
	if obs[AgentChannel*9+0] != 1 {
		t.Error("agent channel not set at (0, 0)")
	}
	if obs[GoalChannel*9+8] != 1 {
		t.Error("goal channel not set at (2, 2)")
	}
}

func TestStepLimit(t *testing.T) {
	g := newTestGrid(t, 2)
	g.Reset()

	if _, done, _ := g.Step(Left); done {
		t.Error("episode ended early")
	}
	if _, done, _ := g.Step(Left); !done {
		t.Error("episode did not end at the step limit")
	}
}

func TestSpecs(t *testing.T) {
	g := newTestGrid(t, 2)
	shape := g.ObservationSpec().Shape
	if len(shape) != 3 || shape[0] != Channels || shape[1] != 3 ||
		shape[2] != 3 {
		t.Errorf("observation shape: have(%v)", shape)
	}
	if n := g.ActionSpec().NumActions(); n != 4 {
		t.Errorf("actions: want(4) have(%v)", n)
	}
}

func TestRender(t *testing.T) {
	g := newTestGrid(t, 10)
	var buf bytes.Buffer
	g.SetOutput(&buf)
	g.Reset()

	dir := filepath.Join(t.TempDir(), "frames")
	if err := g.SaveFrames(dir); err != nil {
		t.Fatal(err)
	}
	if err := g.Render(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "A") ||
		!strings.Contains(buf.String(), "G") {
		t.Errorf("render output missing agent or goal: %q", buf.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "frame00001.png")); err != nil {
		t.Errorf("frame not saved: %v", err)
	}
}

func TestNewGoalBounds(t *testing.T) {
	if _, err := NewGoal([]int{3}, []int{0}, 3, -1, 0); err == nil {
		t.Error("expected an out of bounds error")
	}
	if _, err := NewGoal([]int{0, 1}, []int{0}, 3, -1, 0); err == nil {
		t.Error("expected a length mismatch error")
	}
}
