package cartpole

import (
	"fmt"
	"math"
	"strings"

	"github.com/logrusorgru/aurora"
)

// trackWidth is the number of characters used to draw the track
const trackWidth = 41

// Render draws the cart on its track on a single terminal line. The
// cart turns red once the pole leans past half of FailAngle.
func (c *Cartpole) Render() error {
	if c.lastStep.Observation == nil {
		return fmt.Errorf("render: environment must be reset before " +
			"rendering")
	}
	x := c.lastStep.Observation.AtVec(0)
	th := c.lastStep.Observation.AtVec(2)

	pos := int(math.Round((x - c.positionBounds.Min) /
		(c.positionBounds.Max - c.positionBounds.Min) *
		float64(trackWidth-1)))
	if pos < 0 {
		pos = 0
	} else if pos >= trackWidth {
		pos = trackWidth - 1
	}

	pole := "|"
	if th > FailAngle/4 {
		pole = "/"
	} else if th < -FailAngle/4 {
		pole = "\\"
	}

	cart := aurora.Green(pole)
	if math.Abs(th) > FailAngle/2 {
		cart = aurora.Red(pole)
	}

	var b strings.Builder
	b.WriteString(aurora.White("[").String())
	b.WriteString(strings.Repeat("-", pos))
	b.WriteString(cart.String())
	b.WriteString(strings.Repeat("-", trackWidth-pos-1))
	b.WriteString(aurora.White("]").String())

	_, err := fmt.Fprintf(c.out, "\r%v step %-5d", b.String(),
		c.lastStep.Number)
	return err
}
