// Package diag renders refit diagnostics recorded by daf.StepRecorder.
package diag

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/muonreco/muonreco/internal/monitoring"
	"github.com/muonreco/muonreco/internal/track/daf"
)

// ErrNoSteps is returned when there is nothing to plot.
var ErrNoSteps = errors.New("no refit steps recorded")

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// Plotter writes weight and chi2 evolution plots for recorded refits.
type Plotter struct {
	outputDir string
}

// NewPlotter creates the output directory if needed.
func NewPlotter(outputDir string) (*Plotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}
	return &Plotter{outputDir: outputDir}, nil
}

// OutputDir returns the directory plots are written to.
func (p *Plotter) OutputDir() string { return p.outputDir }

// Plot writes <name>_weights.png and <name>_chi2.png and returns the paths.
func (p *Plotter) Plot(name string, steps []daf.Step) ([]string, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	weights, err := weightPlot(name, steps)
	if err != nil {
		return nil, err
	}
	chi2, err := chi2Plot(name, steps)
	if err != nil {
		return nil, err
	}

	var files []string
	for suffix, pl := range map[string]*plot.Plot{"weights": weights, "chi2": chi2} {
		path := filepath.Join(p.outputDir, fmt.Sprintf("%s_%s.png", name, suffix))
		if err := pl.Save(plotWidth, plotHeight, path); err != nil {
			return files, fmt.Errorf("failed to save %s: %w", path, err)
		}
		files = append(files, path)
	}
	monitoring.Diagf("diag: wrote %d plots for %s", len(files), name)
	return files, nil
}

// weightSeries returns one series per (measurement, component) that appears
// in any step, keyed in first-seen order. Steps where a series is absent are
// skipped.
func weightSeries(steps []daf.Step) (labels []string, series []plotter.XYs) {
	index := map[[2]int]int{}
	for s, step := range steps {
		for m, ws := range step.Weights {
			for c, w := range ws {
				key := [2]int{m, c}
				i, ok := index[key]
				if !ok {
					i = len(series)
					index[key] = i
					labels = append(labels, fmt.Sprintf("hit %d/%d", m, c))
					series = append(series, nil)
				}
				series[i] = append(series[i], plotter.XY{X: float64(s), Y: w})
			}
		}
	}
	return labels, series
}

func weightPlot(name string, steps []daf.Step) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - component weights", name)
	pl.X.Label.Text = "Step"
	pl.Y.Label.Text = "Weight"
	pl.Y.Min, pl.Y.Max = 0, 1

	labels, series := weightSeries(steps)
	colors := palette(len(series))
	for i, pts := range series {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("weight series %s: %w", labels[i], err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		pl.Add(line)
		pl.Legend.Add(labels[i], line)
	}
	pl.Legend.Top = true
	pl.Legend.XOffs = -10
	return pl, nil
}

func chi2Plot(name string, steps []daf.Step) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - chi2 per step", name)
	pl.X.Label.Text = "Step"
	pl.Y.Label.Text = "chi2"

	pts := make(plotter.XYs, len(steps))
	for i, s := range steps {
		pts[i] = plotter.XY{X: float64(i), Y: s.ChiSquared}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("chi2 series: %w", err)
	}
	pl.Add(line, points)
	return pl, nil
}

// palette spreads n colours evenly around the hue circle.
func palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	conv := func(t float64) uint8 {
		t -= math.Floor(t)
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 0.5:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return uint8(math.Round(v * 255))
	}
	return conv(h + 1.0/3), conv(h), conv(h - 1.0/3)
}
