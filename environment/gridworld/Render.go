package gridworld

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/logrusorgru/aurora"
)

// cellPixels is the width of a single cell in rendered frames
const cellPixels = 32

// SaveFrames causes each call to Render to also save the current state
// as a PNG image in dir. Frames are numbered consecutively.
func (g *GridWorld) SaveFrames(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("saveFrames: could not create frame "+
			"directory: %v", err)
	}
	g.frameDir = dir
	g.frames = 0
	return nil
}

// Render draws the grid to the terminal, with the agent shown as A and
// goals as G. If SaveFrames was called, the frame is also saved as a
// PNG image.
func (g *GridWorld) Render() error {
	if g.currentStep.Observation == nil {
		return fmt.Errorf("render: environment must be reset before " +
			"rendering")
	}

	x, y := g.Coordinates()
	var b strings.Builder
	for row := g.size - 1; row >= 0; row-- {
		for col := 0; col < g.size; col++ {
			switch {
			case col == x && row == y:
				b.WriteString(aurora.Green(" A ").String())
			case g.isGoal(col, row):
				b.WriteString(aurora.Blue(" G ").String())
			default:
				b.WriteString(" . ")
			}
			b.WriteString(aurora.White("|").String())
		}
		b.WriteString("\n")
	}
	if _, err := fmt.Fprintf(g.out, "%vstep %v\n", b.String(),
		g.currentStep.Number); err != nil {
		return fmt.Errorf("render: %v", err)
	}

	if g.frameDir == "" {
		return nil
	}
	return g.saveFrame()
}

// saveFrame draws the current state as a PNG image
func (g *GridWorld) saveFrame() error {
	width := g.size * cellPixels
	dc := gg.NewContext(width, width)

	dc.SetColor(color.White)
	dc.Clear()

	// Image rows grow downwards, gridworld rows grow upwards
	drawCell := func(x, y int, c color.Color) {
		dc.SetColor(c)
		dc.DrawRectangle(float64(x*cellPixels),
			float64((g.size-1-y)*cellPixels), cellPixels, cellPixels)
		dc.Fill()
	}

	for _, goal := range g.goals {
		drawCell(goal%g.size, goal/g.size, color.RGBA{0, 0, 200, 255})
	}
	x, y := g.Coordinates()
	drawCell(x, y, color.RGBA{0, 180, 0, 255})

	dc.SetColor(color.Black)
	dc.SetLineWidth(1)
	for i := 0; i <= g.size; i++ {
		p := float64(i * cellPixels)
		dc.DrawLine(p, 0, p, float64(width))
		dc.DrawLine(0, p, float64(width), p)
	}
	dc.Stroke()

	g.frames++
	name := filepath.Join(g.frameDir, fmt.Sprintf("frame%05d.png", g.frames))
	if err := dc.SavePNG(name); err != nil {
		return fmt.Errorf("render: could not save frame: %v", err)
	}
	return nil
}
