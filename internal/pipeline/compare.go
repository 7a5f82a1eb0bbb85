package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/dravlex/internal/cache"
	"github.com/ppiankov/dravlex/internal/model"
	"github.com/ppiankov/dravlex/internal/plot"
	"github.com/ppiankov/dravlex/internal/sensitivity"
	"github.com/ppiankov/dravlex/internal/stats"
	"github.com/ppiankov/dravlex/internal/trace"
)

// CompareScenarios summarizes the focal parameter of every scenario log and
// compares them. Scenarios keep their declared order.
func (p *Pipeline) CompareScenarios(scenarios []model.Scenario, plots bool) (*model.SensitivityReport, error) {
	if len(scenarios) == 0 {
		return nil, sensitivity.ErrNoScenarios
	}
	cfg := p.config
	results := make([]model.ScenarioResult, 0, len(scenarios))
	series := make([]plot.Series, 0, len(scenarios))
	for i, sc := range scenarios {
		res, kept, err := p.summarizeScenario(sc, plots)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Label, err)
		}
		results = append(results, res)
		series = append(series, plot.Series{Label: sc.Label, Values: kept, Color: plot.ScenarioColor(sc, i)})
		p.logger.Info("scenario summarized",
			zap.String("scenario", sc.Label),
			zap.Float64("mean", res.Summary.Mean),
			zap.Float64("hpd_lower", res.Summary.HPDLower),
			zap.Float64("hpd_upper", res.Summary.HPDUpper))
	}

	analyzer := sensitivity.NewAnalyzer(cfg.Sensitivity.Policy, cfg.Trace.Reference)
	rep, err := analyzer.Compare(results, cfg.Sensitivity.Recommend)
	if err != nil {
		return nil, err
	}
	rep.RunID = uuid.NewString()
	rep.GeneratedAt = p.now().UTC()
	rep.Unit = cfg.Trace.Unit

	if plots {
		figs, err := p.scenarioFigures(series, rep)
		if err != nil {
			return nil, fmt.Errorf("plots: %w", err)
		}
		rep.Figures = figs
	}
	return rep, nil
}

// summarizeScenario returns the scenario summary and, when plots are wanted,
// its post-burn-in values.
func (p *Pipeline) summarizeScenario(sc model.Scenario, plots bool) (model.ScenarioResult, []float64, error) {
	param := p.config.Trace.Parameter
	res := model.ScenarioResult{Scenario: sc}

	if !plots && p.cache != nil {
		if key, err := p.cacheKey(sc.Path, "summary", param); err == nil {
			if cs, ok := cache.GetJSON[columnStats](p.cache, key); ok {
				res.Summary, res.BurnIn = cs.Summary, cs.BurnIn
				return res, nil, nil
			}
		}
	}

	tr, err := trace.ReadFile(sc.Path)
	if err != nil {
		return res, nil, err
	}
	post, discarded, err := tr.Discard(p.config.Trace.BurnIn)
	if err != nil {
		return res, nil, err
	}
	kept, err := post.Column(param)
	if err != nil {
		return res, nil, err
	}
	sum, err := stats.Summarize(param, kept)
	if err != nil {
		return res, nil, err
	}
	res.Summary = sum
	res.BurnIn = model.BurnIn{
		Fraction:  p.config.Trace.BurnIn,
		Total:     tr.Len(),
		Discarded: discarded,
		Retained:  post.Len(),
	}
	p.store(sc.Path, columnStats{Summary: sum, BurnIn: res.BurnIn}, "summary", param)
	return res, kept, nil
}

func (p *Pipeline) scenarioFigures(series []plot.Series, rep *model.SensitivityReport) ([]string, error) {
	dir := p.config.Plot.OutputDir
	stem := fileStem(p.config.Sensitivity.Output)
	ref := p.config.Trace.Reference
	unit := rep.Unit
	name := func(kind string) string { return filepath.Join(dir, stem+"_"+kind+".png") }

	title := fmt.Sprintf("%s: sensitivity to prior", rep.Parameter)
	figs := []string{name("distributions"), name("boxes"), name("intervals"), name("widths"), name("traces")}
	steps := []func() error{
		func() error { return plot.Comparison(figs[0], title, series, ref, unit, p.plots) },
		func() error { return plot.ScenarioBoxes(figs[1], series, ref, unit, p.plots) },
		func() error { return plot.ScenarioIntervals(figs[2], rep.Scenarios, ref, unit, p.plots) },
		func() error { return plot.IntervalWidths(figs[3], rep.Scenarios, ref, unit, p.plots) },
		func() error { return plot.ScenarioTraces(figs[4], series, unit, p.plots) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
		p.logger.Info("figure written", zap.String("path", figs[i]))
	}
	return figs, nil
}
