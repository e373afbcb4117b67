package report

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// PlotSize is the width and height of saved plots.
const PlotSize = 5 * vg.Inch

// PredictedVsActual saves a scatter of yPred against yTrue with the y = x
// reference line. The image format follows the extension of path (.png,
// .svg, .pdf, ...).
func PredictedVsActual(path, title string, yTrue, yPred []float64) error {
	p, err := predictedVsActual(title, yTrue, yPred)
	if err != nil {
		return err
	}
	if err := p.Save(PlotSize, PlotSize, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}

func predictedVsActual(title string, yTrue, yPred []float64) (*plot.Plot, error) {
	if len(yTrue) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "plot")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("report.PredictedVsActual", len(yTrue), len(yPred), 0)
	}

	pts := make(plotter.XYs, len(yTrue))
	for i := range yTrue {
		pts[i].X = yTrue[i]
		pts[i].Y = yPred[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "scatter")
	}
	scatter.GlyphStyle.Radius = vg.Points(2)

	lo := floats.Min(yTrue)
	hi := floats.Max(yTrue)
	ref, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, errors.Wrap(err, "reference line")
	}
	ref.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(scatter, ref)
	p.Legend.Add(fmt.Sprintf("n = %d", len(yTrue)), scatter)
	p.Legend.Add("y = x", ref)
	return p, nil
}
