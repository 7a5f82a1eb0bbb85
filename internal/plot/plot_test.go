package plot

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/ppiankov/dravlex/internal/model"
)

var smallFigure = Options{Width: 4 * vg.Inch, Height: 3 * vg.Inch, DPI: 40, Bins: 10}

var reference = model.Reference{Label: "Kolipakam et al. (2018)", Mean: 4.65, Lower: 3.0, Upper: 6.5}

func samples(n int, base float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + float64(i%7)*0.25
	}
	return out
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")), "%s is not a PNG", path)
}

func scenarioResults() []model.ScenarioResult {
	mk := func(label, c string, mean float64) model.ScenarioResult {
		return model.ScenarioResult{
			Scenario: model.Scenario{Label: label, Color: c},
			Summary: model.Summary{
				Parameter: "Tree.height", Mean: mean,
				HPDLower: mean - 1, HPDUpper: mean + 1.5, HPDWidth: 2.5,
			},
		}
	}
	return []model.ScenarioResult{
		mk("Loose (σ=1.5)", "lightcoral", 4.6),
		mk("Medium (σ=1.0)", "coral", 4.4),
		mk("Tight (σ=0.5)", "#ff8c00", 4.3),
	}
}

func TestTrace_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "figures", "trace.png")

	err := Trace(path, Series{Label: "Tree.height", Values: samples(100, 4)}, 10, 0.1, smallFigure)

	require.NoError(t, err)
	assertPNG(t, path)
}

func TestTrace_Empty(t *testing.T) {
	err := Trace(filepath.Join(t.TempDir(), "t.png"), Series{Label: "x"}, 0, 0.1, smallFigure)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.png")
	sum := model.Summary{Parameter: "Tree.height", Mean: 4.7, HPDLower: 4.0, HPDUpper: 5.5}

	err := Histogram(path, Series{Label: "Tree.height", Values: samples(90, 4)}, sum, reference, "kya", smallFigure)

	require.NoError(t, err)
	assertPNG(t, path)
}

func TestHistogram_ConstantSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.png")
	values := []float64{5, 5, 5}
	sum := model.Summary{Mean: 5, HPDLower: 5, HPDUpper: 5}

	require.NoError(t, Histogram(path, Series{Label: "x", Values: values}, sum, model.Reference{}, "", smallFigure))
	assertPNG(t, path)
}

func TestHistogram_InvalidOptions(t *testing.T) {
	o := smallFigure
	o.Bins = 0
	sum := model.Summary{Mean: 1}

	err := Histogram(filepath.Join(t.TempDir(), "h.png"), Series{Label: "x", Values: []float64{1}}, sum, model.Reference{}, "", o)

	assert.Error(t, err)
}

func TestComparison(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comparison.png")
	series := []Series{
		{Label: "Loose", Values: samples(50, 4.5)},
		{Label: "Tight", Values: samples(50, 4.0), Color: color.RGBA{R: 255, A: 255}},
	}

	require.NoError(t, Comparison(path, "Root age", series, reference, "kya", smallFigure))
	assertPNG(t, path)
}

func TestDashboard_OddPanelCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.png")
	series := []Series{
		{Label: "posterior", Values: samples(40, -1200)},
		{Label: "likelihood", Values: samples(40, -900)},
		{Label: "Tree.height", Values: samples(40, 4)},
	}

	require.NoError(t, Dashboard(path, series, 4, 0.1, smallFigure))
	assertPNG(t, path)
}

func TestScenarioFigures(t *testing.T) {
	dir := t.TempDir()
	results := scenarioResults()
	series := make([]Series, len(results))
	for i, r := range results {
		series[i] = Series{Label: r.Scenario.Label, Values: samples(30, r.Summary.Mean), Color: ScenarioColor(r.Scenario, i)}
	}

	require.NoError(t, ScenarioBoxes(filepath.Join(dir, "boxes.png"), series, reference, "kya", smallFigure))
	require.NoError(t, ScenarioIntervals(filepath.Join(dir, "intervals.png"), results, reference, "kya", smallFigure))
	require.NoError(t, IntervalWidths(filepath.Join(dir, "widths.png"), results, reference, "kya", smallFigure))
	require.NoError(t, ScenarioTraces(filepath.Join(dir, "traces.png"), series, "kya", smallFigure))

	for _, name := range []string{"boxes.png", "intervals.png", "widths.png", "traces.png"} {
		assertPNG(t, filepath.Join(dir, name))
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, c)

	c, err = ParseColor(" Coral ")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x7f, B: 0x50, A: 0xff}, c)

	_, err = ParseColor("not-a-color")
	assert.Error(t, err)
	_, err = ParseColor("#zzzzzz")
	assert.Error(t, err)
}

func TestScenarioColor_FallsBackToPalette(t *testing.T) {
	c := ScenarioColor(model.Scenario{Color: "bogus"}, 0)
	assert.NotNil(t, c)
}

func TestOptionsFrom(t *testing.T) {
	o := OptionsFrom(model.PlotConfig{Width: 10, Height: 6, DPI: 150, Bins: 50})

	assert.Equal(t, 10*vg.Inch, o.Width)
	assert.Equal(t, 6*vg.Inch, o.Height)
	assert.NoError(t, o.validate())
}
