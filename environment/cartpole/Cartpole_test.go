package cartpole

import (
	"bytes"
	"strings"
	"testing"
)

func TestEpisodeEnds(t *testing.T) {
	c, err := New(500, 7)
	if err != nil {
		t.Fatal(err)
	}

	step, err := c.Reset()
	if err != nil {
		t.Fatal(err)
	}
	if !step.First() {
		t.Fatalf("reset should return the first step, have %v", step)
	}

	// Always pushing right must topple the pole well before the limit
	var done bool
	for i := 0; i < 500 && !done; i++ {
		step, done, err = c.Step(MaxDiscreteAction)
		if err != nil {
			t.Fatal(err)
		}
		if step.Reward != 1 {
			t.Errorf("reward: want(1) have(%v)", step.Reward)
		}
	}

	if !done || !step.Last() {
		t.Fatal("episode did not end")
	}
	if step.Number >= 500 {
		t.Errorf("episode should end from failure, ended at step %v",
			step.Number)
	}

	if _, _, err := c.Step(0); err == nil {
		t.Error("stepping after the episode ended should fail")
	}
}

func TestStepLimit(t *testing.T) {
	c, err := New(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Reset(); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		step, done, err := c.Step(1)
		if err != nil {
			t.Fatal(err)
		}
		if done != (i == 3) {
			t.Errorf("step %v: done = %v", i, done)
		}
		if step.Number != i {
			t.Errorf("step number: want(%v) have(%v)", i, step.Number)
		}
	}
}

func TestIllegalAction(t *testing.T) {
	c, _ := New(10, 1)
	c.Reset()
	if _, _, err := c.Step(3); err == nil {
		t.Error("expected an error for an illegal action")
	}
}

func TestSpecs(t *testing.T) {
	c, _ := New(10, 1)
	if n := c.ActionSpec().NumActions(); n != 3 {
		t.Errorf("actions: want(3) have(%v)", n)
	}
	if s := c.ObservationSpec().Size(); s != 4 {
		t.Errorf("observation size: want(4) have(%v)", s)
	}
}

func TestRender(t *testing.T) {
	c, _ := New(10, 1)
	var buf bytes.Buffer
	c.SetOutput(&buf)

	if err := c.Render(); err == nil {
		t.Error("rendering before reset should fail")
	}

	c.Reset()
	if err := c.Render(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "step 0") {
		t.Errorf("render output missing step number: %q", buf.String())
	}
}
