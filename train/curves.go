package train

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// SaveCurves renders the per-epoch train loss and dev F1 into one PNG.
func SaveCurves(path string, trainLoss, devF1 []float64) error {
	if len(trainLoss) == 0 {
		return errors.NewValueError("SaveCurves", "no epochs recorded")
	}

	p := plot.New()
	p.Title.Text = "Training curves"
	p.X.Label.Text = "epoch"

	lossLine, err := plotter.NewLine(epochPoints(trainLoss))
	if err != nil {
		return errors.Wrap(err, "loss line")
	}
	f1Line, err := plotter.NewLine(epochPoints(devF1))
	if err != nil {
		return errors.Wrap(err, "f1 line")
	}
	f1Line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(lossLine, f1Line)
	p.Legend.Add("train loss", lossLine)
	p.Legend.Add("dev F1", f1Line)
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

func epochPoints(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	return pts
}
