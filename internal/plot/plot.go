// Package plot renders posterior diagnostics as PNG figures.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ppiankov/dravlex/internal/model"
	"github.com/ppiankov/dravlex/internal/table"
)

// ErrNoData is returned when a figure has nothing to draw.
var ErrNoData = errors.New("no data to plot")

// Options sets figure geometry.
type Options struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
	Bins   int
}

// OptionsFrom converts the configured sizes (inches) to plot options.
func OptionsFrom(cfg model.PlotConfig) Options {
	return Options{
		Width:  vg.Length(cfg.Width) * vg.Inch,
		Height: vg.Length(cfg.Height) * vg.Inch,
		DPI:    cfg.DPI,
		Bins:   cfg.Bins,
	}
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("plot size must be positive, got %vx%v", o.Width, o.Height)
	}
	if o.DPI <= 0 {
		return fmt.Errorf("plot dpi must be positive, got %d", o.DPI)
	}
	if o.Bins <= 0 {
		return fmt.Errorf("histogram bins must be positive, got %d", o.Bins)
	}
	return nil
}

// Series is one labelled sequence of samples.
type Series struct {
	Label  string
	Values []float64
	Color  color.Color
}

// ParseColor accepts "#rrggbb" or an SVG color name such as "coral".
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("color %q: %w", s, err)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown color %q", s)
}

// ScenarioColor returns the configured color of scenario i, falling back to
// the default palette when unset or invalid.
func ScenarioColor(sc model.Scenario, i int) color.Color {
	if sc.Color != "" {
		if c, err := ParseColor(sc.Color); err == nil {
			return c
		}
	}
	return plotutil.Color(i)
}

func seriesColor(s Series, i int) color.Color {
	if s.Color != nil {
		return s.Color
	}
	return plotutil.Color(i)
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: a}
}

var dashed = []vg.Length{vg.Points(6), vg.Points(4)}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// vline draws a vertical line spanning the current Y range.
func vline(p *plot.Plot, x float64, c color.Color, dash bool) (*plotter.Line, error) {
	l, err := plotter.NewLine(plotter.XYs{{X: x, Y: p.Y.Min}, {X: x, Y: p.Y.Max}})
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(2)
	if dash {
		l.LineStyle.Dashes = dashed
	}
	p.Add(l)
	return l, nil
}

// hline draws a horizontal line across [xmin, xmax].
func hline(p *plot.Plot, y, xmin, xmax float64, c color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: y}, {X: xmax, Y: y}})
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(2)
	l.LineStyle.Dashes = dashed
	p.Add(l)
	return l, nil
}

// band shades the rectangle [x0, x1] x [y0, y1].
func band(p *plot.Plot, x0, x1, y0, y1 float64, c color.Color) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}})
	if err != nil {
		return nil, err
	}
	poly.Color = withAlpha(c, 0x40)
	poly.LineStyle.Width = 0
	p.Add(poly)
	return poly, nil
}

// referenceBand shades a reference interval across the X axis (vertical
// band) and marks its point estimate.
func referenceBand(p *plot.Plot, ref model.Reference) error {
	ymin, ymax := p.Y.Min, p.Y.Max
	poly, err := band(p, ref.Lower, ref.Upper, ymin, ymax, colornames.Gray)
	if err != nil {
		return err
	}
	l, err := vline(p, ref.Mean, colornames.Black, true)
	if err != nil {
		return err
	}
	p.Legend.Add(fmt.Sprintf("%s: %.2f", ref.Label, ref.Mean), l)
	p.Legend.Add(fmt.Sprintf("%s interval [%.1f, %.1f]", ref.Label, ref.Lower, ref.Upper), poly)
	return nil
}

// save draws p at the configured size and writes it as PNG.
func save(p *plot.Plot, path string, o Options) error {
	if err := o.validate(); err != nil {
		return err
	}
	c := vgimg.NewWith(vgimg.UseWH(o.Width, o.Height), vgimg.UseDPI(o.DPI))
	p.Draw(draw.New(c))
	return writePNG(c, path)
}

// writePNG writes a rendered canvas, creating the output directory.
func writePNG(c *vgimg.Canvas, path string) (err error) {
	if err := table.EnsureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func indexed(values []float64, offset int) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i].X = float64(i + offset)
		xys[i].Y = v
	}
	return xys
}
