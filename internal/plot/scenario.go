package plot

import (
	"fmt"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ppiankov/dravlex/internal/model"
)

// intervals pairs scenario means with their interval offsets for error bars.
type intervals struct {
	plotter.XYs
	plotter.YErrors
}

// ScenarioBoxes draws one box per scenario over the same parameter with the
// reference interval as a horizontal band.
func ScenarioBoxes(path string, series []Series, ref model.Reference, unit string, o Options) error {
	if len(series) == 0 {
		return fmt.Errorf("scenario boxes: %w", ErrNoData)
	}
	p := newPlot("Prior sensitivity", "Prior scenario", axisLabel(series[0].Label, unit))
	labels := make([]string, len(series))
	for i, s := range series {
		if len(s.Values) == 0 {
			return fmt.Errorf("scenario boxes %s: %w", s.Label, ErrNoData)
		}
		b, err := plotter.NewBoxPlot(vg.Points(40), float64(i), plotter.Values(s.Values))
		if err != nil {
			return fmt.Errorf("scenario boxes %s: %w", s.Label, err)
		}
		b.FillColor = withAlpha(seriesColor(s, i), 0xb0)
		p.Add(b)
		labels[i] = s.Label
	}
	p.NominalX(labels...)
	if err := referenceRows(p, ref, len(series)); err != nil {
		return err
	}
	return save(p, path, o)
}

// ScenarioIntervals draws each scenario mean with its credible interval as
// an error bar.
func ScenarioIntervals(path string, results []model.ScenarioResult, ref model.Reference, unit string, o Options) error {
	if len(results) == 0 {
		return fmt.Errorf("scenario intervals: %w", ErrNoData)
	}
	param := results[0].Summary.Parameter
	p := newPlot("Posterior mean and 95% HPD by prior", "Prior scenario", axisLabel(param, unit))
	labels := make([]string, len(results))
	for i, r := range results {
		pts := intervals{
			XYs:     plotter.XYs{{X: float64(i), Y: r.Summary.Mean}},
			YErrors: plotter.YErrors{{Low: r.Summary.Mean - r.Summary.HPDLower, High: r.Summary.HPDUpper - r.Summary.Mean}},
		}
		bars, err := plotter.NewYErrorBars(pts)
		if err != nil {
			return fmt.Errorf("scenario intervals %s: %w", r.Scenario.Label, err)
		}
		c := ScenarioColor(r.Scenario, i)
		bars.LineStyle.Color = c
		bars.LineStyle.Width = vg.Points(2)
		bars.CapWidth = vg.Points(10)
		dot, err := plotter.NewScatter(pts.XYs)
		if err != nil {
			return err
		}
		dot.GlyphStyle.Color = c
		dot.GlyphStyle.Radius = vg.Points(5)
		dot.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(bars, dot)
		labels[i] = r.Scenario.Label
	}
	p.NominalX(labels...)
	if err := referenceRows(p, ref, len(results)); err != nil {
		return err
	}
	return save(p, path, o)
}

// IntervalWidths draws the credible interval width of each scenario as a
// bar, with the reference interval width as a dashed line.
func IntervalWidths(path string, results []model.ScenarioResult, ref model.Reference, unit string, o Options) error {
	if len(results) == 0 {
		return fmt.Errorf("interval widths: %w", ErrNoData)
	}
	ylabel := "95% HPD width"
	if unit != "" {
		ylabel += " (" + unit + ")"
	}
	p := newPlot("Uncertainty by prior", "Prior scenario", ylabel)
	labels := make([]string, len(results))
	for i, r := range results {
		bar, err := plotter.NewBarChart(plotter.Values{r.Summary.HPDWidth}, vg.Points(40))
		if err != nil {
			return fmt.Errorf("interval widths %s: %w", r.Scenario.Label, err)
		}
		bar.XMin = float64(i)
		bar.Color = withAlpha(ScenarioColor(r.Scenario, i), 0xb0)
		bar.LineStyle.Color = colornames.Black
		p.Add(bar)
		labels[i] = r.Scenario.Label
	}
	p.NominalX(labels...)
	if ref.IsSet() {
		l, err := hline(p, ref.Width(), -0.5, float64(len(results))-0.5, colornames.Black)
		if err != nil {
			return err
		}
		p.Legend.Add(fmt.Sprintf("%s width: %.2f", ref.Label, ref.Width()), l)
		p.Legend.Top = true
	}
	return save(p, path, o)
}

// ScenarioTraces overlays the post-burn-in traces of every scenario.
func ScenarioTraces(path string, series []Series, unit string, o Options) error {
	if len(series) == 0 {
		return fmt.Errorf("scenario traces: %w", ErrNoData)
	}
	p := newPlot("Post-burn-in traces by prior", "Sample (post burn-in)", axisLabel(series[0].Label, unit))
	for i, s := range series {
		if len(s.Values) == 0 {
			return fmt.Errorf("scenario traces %s: %w", s.Label, ErrNoData)
		}
		l, err := plotter.NewLine(indexed(s.Values, 0))
		if err != nil {
			return fmt.Errorf("scenario traces %s: %w", s.Label, err)
		}
		l.LineStyle.Color = withAlpha(seriesColor(s, i), 0xc0)
		l.LineStyle.Width = vg.Points(0.5)
		p.Add(l)
		p.Legend.Add(s.Label, l)
	}
	p.Legend.Top = true
	return save(p, path, o)
}

// referenceRows shades the reference interval across n nominal categories
// and marks its point estimate.
func referenceRows(p *plot.Plot, ref model.Reference, n int) error {
	if !ref.IsSet() {
		return nil
	}
	x0, x1 := -0.5, float64(n)-0.5
	poly, err := band(p, x0, x1, ref.Lower, ref.Upper, colornames.Gray)
	if err != nil {
		return err
	}
	l, err := hline(p, ref.Mean, x0, x1, colornames.Black)
	if err != nil {
		return err
	}
	p.Legend.Add(fmt.Sprintf("%s: %.2f", ref.Label, ref.Mean), l)
	p.Legend.Add(fmt.Sprintf("%s interval", ref.Label), poly)
	p.Legend.Top = true
	return nil
}
