package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Chart is a Sink which renders one line chart per series to a single
// HTML page when closed
type Chart struct {
	filename string
	tag      string
	subtitle string
	*Tracker
}

// NewChart returns a new Chart which renders to filename
func NewChart(filename string) *Chart {
	return &Chart{
		filename: filename,
		Tracker:  NewTracker(""),
	}
}

// Hyperparams records the hyperparameters of the run, which are shown
// under the title of each chart
func (c *Chart) Hyperparams(tag string, hp map[string]interface{}) error {
	c.tag = tag

	keys := make([]string, 0, len(hp))
	for k := range hp {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%v=%v", k, hp[k])
	}
	c.subtitle = strings.Join(pairs, " ")
	return nil
}

// Close renders all recorded series
func (c *Chart) Close() error {
	page := components.NewPage()

	for _, name := range c.Names() {
		points := c.Series(name)

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    fmt.Sprintf("%v: %v", c.tag, name),
				Subtitle: c.subtitle,
			}),
			charts.WithInitializationOpts(opts.Initialization{
				Theme: "shine",
			}),
		)

		steps := make([]string, len(points))
		items := make([]opts.LineData, len(points))
		for i, p := range points {
			steps[i] = fmt.Sprintf("%d", p.Step)
			items[i] = opts.LineData{Value: p.Value}
		}
		line.SetXAxis(steps).AddSeries(name, items)
		page.AddCharts(line)
	}

	if dir := filepath.Dir(c.filename); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	f, err := os.Create(c.filename)
	if err != nil {
		return fmt.Errorf("close: could not create chart file: %v", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("close: could not render charts: %v", err)
	}
	return nil
}
