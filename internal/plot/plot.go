// Package plot renders diel kernel density plots as PNG files.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/recording"
)

// Figure size in inches
const (
	Width  = 8 * vg.Inch
	Height = 6 * vg.Inch
)

var treatmentColors = map[recording.Treatment]color.Color{
	recording.Healthy:       color.RGBA{R: 0x00, G: 0x80, B: 0x00, A: 0xff}, // green
	recording.Degraded:      color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}, // red
	recording.Restored:      color.RGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff}, // blue
	recording.NewlyRestored: color.RGBA{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}, // orange
}

// TreatmentColor returns the plot colour of a treatment, grey when unknown
func TreatmentColor(t recording.Treatment) color.Color {
	if c, ok := treatmentColors[t]; ok {
		return c
	}
	return color.Gray{Y: 0x80}
}

var titleCaser = cases.Title(language.English)

// Title returns "Temporal Kernel for <sound> in <Country>"
func Title(sound, country string) string {
	return fmt.Sprintf("Temporal Kernel for %s in %s", sound, titleCaser.String(country))
}

// Series is one density curve. A series without points only adds a legend entry.
type Series struct {
	Label string
	Color color.Color
	X     []float64
	Y     []float64
}

// TreatmentSeries builds a series coloured by treatment
func TreatmentSeries(t recording.Treatment, x, y []float64) Series {
	return Series{Label: string(t), Color: TreatmentColor(t), X: x, Y: y}
}

// KernelPlot is a set of density curves over the hours of the day
type KernelPlot struct {
	Title  string
	Series []Series
}

// Save renders the plot to path. The format follows the file extension.
func (kp KernelPlot) Save(path string) error {
	p := gonumplot.New()
	p.Title.Text = kp.Title
	p.X.Label.Text = "Hour of Day"
	p.Y.Label.Text = "Density"
	p.X.Min = 0
	p.X.Max = 24
	p.Legend.Top = true

	for _, s := range kp.Series {
		line, err := newLine(s)
		if err != nil {
			return errors.New(err).
				Component("plot").
				Category(errors.CategoryProcessing).
				Context("series", s.Label).
				FileContext(path).
				Build()
		}
		if len(s.X) > 0 {
			p.Add(line)
		}
		p.Legend.Add(s.Label, line)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("plot").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	if err := p.Save(Width, Height, path); err != nil {
		return errors.New(err).
			Component("plot").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	GetLogger().Debug("Saved plot",
		logger.String("path", path),
		logger.Int("series", len(kp.Series)))
	return nil
}

func newLine(s Series) (*plotter.Line, error) {
	if len(s.X) != len(s.Y) {
		return nil, fmt.Errorf("series %q has %d x values and %d y values", s.Label, len(s.X), len(s.Y))
	}

	xys := make(plotter.XYs, len(s.X))
	for i := range s.X {
		xys[i].X = s.X[i]
		xys[i].Y = s.Y[i]
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.Color = s.Color
	line.Width = vg.Points(1.5)
	return line, nil
}
