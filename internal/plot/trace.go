package plot

import (
	"fmt"
	"math"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ppiankov/dravlex/internal/model"
)

// Trace plots raw samples against their index with a vertical marker where
// burn-in ends.
func Trace(path string, s Series, burnIn int, fraction float64, o Options) error {
	p, err := tracePlot(s, burnIn, fraction)
	if err != nil {
		return err
	}
	return save(p, path, o)
}

func tracePlot(s Series, burnIn int, fraction float64) (*plot.Plot, error) {
	if len(s.Values) == 0 {
		return nil, fmt.Errorf("trace %s: %w", s.Label, ErrNoData)
	}
	p := newPlot("MCMC trace: "+s.Label, "Sample", s.Label)
	l, err := plotter.NewLine(indexed(s.Values, 0))
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", s.Label, err)
	}
	l.LineStyle.Color = seriesColor(s, 0)
	l.LineStyle.Width = vg.Points(0.5)
	p.Add(l)
	marker, err := vline(p, float64(burnIn), colornames.Red, true)
	if err != nil {
		return nil, err
	}
	p.Legend.Add(fmt.Sprintf("Burn-in (%.0f%%)", fraction*100), marker)
	p.Legend.Top = true
	return p, nil
}

// Histogram plots the post-burn-in distribution with its mean and credible
// interval bounds. A set reference adds the literature band.
func Histogram(path string, s Series, sum model.Summary, ref model.Reference, unit string, o Options) error {
	if len(s.Values) == 0 {
		return fmt.Errorf("histogram %s: %w", s.Label, ErrNoData)
	}
	if err := o.validate(); err != nil {
		return err
	}
	p := newPlot("Posterior distribution: "+s.Label, axisLabel(s.Label, unit), "Frequency")
	h, err := plotter.NewHist(plotter.Values(s.Values), o.Bins)
	if err != nil {
		return fmt.Errorf("histogram %s: %w", s.Label, err)
	}
	h.FillColor = withAlpha(seriesColor(s, 0), 0xb0)
	h.LineStyle.Color = colornames.Black
	h.LineStyle.Width = vg.Points(0.5)
	p.Add(h)

	mean, err := vline(p, sum.Mean, colornames.Red, false)
	if err != nil {
		return err
	}
	p.Legend.Add(fmt.Sprintf("Mean: %.2f", sum.Mean), mean)
	lower, err := vline(p, sum.HPDLower, colornames.Green, true)
	if err != nil {
		return err
	}
	if _, err := vline(p, sum.HPDUpper, colornames.Green, true); err != nil {
		return err
	}
	p.Legend.Add(fmt.Sprintf("95%% HPD: [%.2f, %.2f]", sum.HPDLower, sum.HPDUpper), lower)
	if ref.IsSet() {
		if err := referenceBand(p, ref); err != nil {
			return err
		}
	}
	p.Legend.Top = true
	return save(p, path, o)
}

// Comparison overlays the normalized distributions of several series with a
// reference value and its fixed interval band.
func Comparison(path, title string, series []Series, ref model.Reference, unit string, o Options) error {
	if len(series) == 0 {
		return fmt.Errorf("comparison: %w", ErrNoData)
	}
	if err := o.validate(); err != nil {
		return err
	}
	p := newPlot(title, axisLabel(series[0].Label, unit), "Density")
	for i, s := range series {
		if len(s.Values) == 0 {
			return fmt.Errorf("comparison %s: %w", s.Label, ErrNoData)
		}
		h, err := plotter.NewHist(plotter.Values(s.Values), o.Bins)
		if err != nil {
			return fmt.Errorf("comparison %s: %w", s.Label, err)
		}
		h.Normalize(1)
		c := seriesColor(s, i)
		h.FillColor = withAlpha(c, 0x80)
		h.LineStyle.Color = c
		h.LineStyle.Width = vg.Points(0.5)
		p.Add(h)
		p.Legend.Add(s.Label, h)
	}
	if ref.IsSet() {
		if err := referenceBand(p, ref); err != nil {
			return err
		}
	}
	p.Legend.Top = true
	return save(p, path, o)
}

// Dashboard draws one trace panel per series, two panels per row. Each panel
// keeps its burn-in marker.
func Dashboard(path string, series []Series, burnIn int, fraction float64, o Options) error {
	if len(series) == 0 {
		return fmt.Errorf("dashboard: %w", ErrNoData)
	}
	if err := o.validate(); err != nil {
		return err
	}
	cols := 2
	if len(series) == 1 {
		cols = 1
	}
	rows := int(math.Ceil(float64(len(series)) / float64(cols)))

	plots := make([]*plot.Plot, len(series))
	for i, s := range series {
		p, err := tracePlot(s, burnIn, fraction)
		if err != nil {
			return err
		}
		p.Title.Text = s.Label
		plots[i] = p
	}

	height := o.Height * vg.Length(rows) / 2
	if height < o.Height {
		height = o.Height
	}
	c := vgimg.NewWith(vgimg.UseWH(o.Width, height), vgimg.UseDPI(o.DPI))
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	for i, p := range plots {
		p.Draw(tiles.At(dc, i%cols, i/cols))
	}
	return writePNG(c, path)
}

func axisLabel(name, unit string) string {
	if unit == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, unit)
}
