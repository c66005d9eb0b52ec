package progressbar

import (
	"bytes"
	"strings"
	"testing"
)

func TestManualProgressBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewManualProgressBar(&buf, 10, 4)

	for i := 0; i < 6; i++ {
		p.Increment()
	}
	if p.Progress() != 1 {
		t.Errorf("progress should saturate at 1, have %v", p.Progress())
	}

	p.SetStatus("loss %.1f", 2.5)
	p.Display()
	out := buf.String()
	if !strings.Contains(out, "100.00%") {
		t.Errorf("display missing percentage: %q", out)
	}
	if !strings.Contains(out, "loss 2.5") {
		t.Errorf("display missing status: %q", out)
	}
}
