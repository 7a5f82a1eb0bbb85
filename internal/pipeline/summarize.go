package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/dravlex/internal/cache"
	"github.com/ppiankov/dravlex/internal/model"
	"github.com/ppiankov/dravlex/internal/plot"
	"github.com/ppiankov/dravlex/internal/stats"
	"github.com/ppiankov/dravlex/internal/trace"
)

// columnStats is the cached result of summarizing one column of one log.
type columnStats struct {
	Summary model.Summary `json:"summary"`
	BurnIn  model.BurnIn  `json:"burnin"`
}

// traceStats is the cached result of summarizing a whole log for one set of
// summary and diagnostic columns.
type traceStats struct {
	BurnIn      model.BurnIn       `json:"burnin"`
	Summaries   []model.Summary    `json:"summaries"`
	Diagnostics []model.Diagnostic `json:"diagnostics"`
}

// SummarizeTrace reads a trace log, discards burn-in and summarizes the
// focal parameter plus the configured extra columns. Extra columns missing
// from the log are skipped with a warning; a missing focal column is an
// error. With plots disabled, a cached summary of the same log for the same
// column set is reused.
func (p *Pipeline) SummarizeTrace(path string, plots bool) (*model.Report, error) {
	cfg := p.config.Trace
	rep := &model.Report{
		RunID:       uuid.NewString(),
		Source:      path,
		GeneratedAt: p.now().UTC(),
		Parameter:   cfg.Parameter,
		Unit:        cfg.Unit,
	}

	if !plots && p.fromCache(path, rep) {
		p.logger.Debug("summaries served from cache", zap.String("trace", path))
		p.compareReference(rep)
		return rep, nil
	}

	tr, err := trace.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	post, discarded, err := tr.Discard(cfg.BurnIn)
	if err != nil {
		return nil, err
	}
	rep.BurnIn = model.BurnIn{
		Fraction:  cfg.BurnIn,
		Total:     tr.Len(),
		Discarded: discarded,
		Retained:  post.Len(),
	}
	p.logger.Info("trace loaded",
		zap.String("trace", path),
		zap.Int("samples", tr.Len()),
		zap.Int("burnin", discarded))

	for i, col := range summaryColumns(cfg) {
		if i > 0 && !post.Has(col) {
			p.logger.Warn("column not in trace, skipped", zap.String("column", col), zap.String("trace", path))
			continue
		}
		values, err := post.Column(col)
		if err != nil {
			return nil, err
		}
		sum, err := stats.Summarize(col, values)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			rep.Focal = sum
		}
		rep.Summaries = append(rep.Summaries, sum)
		if i == 0 {
			p.store(path, columnStats{Summary: sum, BurnIn: rep.BurnIn}, "summary", col)
		}
	}

	for _, col := range []string{cfg.PosteriorColumn, cfg.LikelihoodColumn} {
		if col == "" || !tr.Has(col) {
			continue
		}
		d, err := diagnose(tr, post, col)
		if err != nil {
			return nil, err
		}
		rep.Diagnostics = append(rep.Diagnostics, d)
	}
	p.store(path, traceStats{BurnIn: rep.BurnIn, Summaries: rep.Summaries, Diagnostics: rep.Diagnostics}, reportKeyParts(cfg)...)
	p.compareReference(rep)

	if plots {
		figs, err := p.traceFigures(tr, post, rep)
		if err != nil {
			return nil, fmt.Errorf("plots: %w", err)
		}
		rep.Figures = figs
	}
	return rep, nil
}

// summaryColumns returns the focal parameter followed by the unique extra
// columns.
func summaryColumns(cfg model.TraceConfig) []string {
	cols := []string{cfg.Parameter}
	seen := map[string]bool{cfg.Parameter: true}
	for _, c := range cfg.Columns {
		if c != "" && !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	return cols
}

func diagnose(raw, post *trace.Trace, col string) (model.Diagnostic, error) {
	all, err := raw.Column(col)
	if err != nil {
		return model.Diagnostic{}, err
	}
	kept, err := post.Column(col)
	if err != nil {
		return model.Diagnostic{}, err
	}
	mean, err := stats.Mean(kept)
	if err != nil {
		return model.Diagnostic{}, fmt.Errorf("diagnostic %s: %w", col, err)
	}
	return model.Diagnostic{Column: col, First: all[0], Last: all[len(all)-1], Mean: mean}, nil
}

func (p *Pipeline) compareReference(rep *model.Report) {
	ref := p.config.Trace.Reference
	if !ref.IsSet() {
		return
	}
	overlap := rep.Focal.Overlaps(ref)
	rep.Reference = &ref
	rep.Overlap = &overlap
}

func (p *Pipeline) cacheKey(path string, parts ...string) (string, error) {
	burnIn := strconv.FormatFloat(p.config.Trace.BurnIn, 'g', -1, 64)
	return cache.FileKey(path, append([]string{burnIn}, parts...)...)
}

// store writes one cache entry. Cache failures only cost a recomputation, so
// they are logged and ignored.
func (p *Pipeline) store(path string, v any, parts ...string) {
	if p.cache == nil {
		return
	}
	key, err := p.cacheKey(path, parts...)
	if err == nil {
		err = cache.SetJSON(p.cache, key, v)
	}
	if err != nil {
		p.logger.Warn("cache write failed", zap.String("trace", path), zap.Error(err))
	}
}

// reportKeyParts identifies a whole-log summary by every column it covers,
// so a changed column list misses the cache.
func reportKeyParts(cfg model.TraceConfig) []string {
	return []string{
		"report",
		strings.Join(summaryColumns(cfg), "\x1f"),
		cfg.PosteriorColumn,
		cfg.LikelihoodColumn,
	}
}

// fromCache fills rep from the cached whole-log summary. Per-column entries
// written by scenario comparisons never satisfy it.
func (p *Pipeline) fromCache(path string, rep *model.Report) bool {
	if p.cache == nil {
		return false
	}
	key, err := p.cacheKey(path, reportKeyParts(p.config.Trace)...)
	if err != nil {
		return false
	}
	ts, ok := cache.GetJSON[traceStats](p.cache, key)
	if !ok || len(ts.Summaries) == 0 {
		return false
	}
	rep.BurnIn = ts.BurnIn
	rep.Focal = ts.Summaries[0]
	rep.Summaries = ts.Summaries
	rep.Diagnostics = ts.Diagnostics
	return true
}

// traceFigures renders the trace, posterior, comparison and dashboard
// figures of one log.
func (p *Pipeline) traceFigures(raw, post *trace.Trace, rep *model.Report) ([]string, error) {
	cfg := p.config.Trace
	stem := fileStem(rep.Source)
	dir := p.config.Plot.OutputDir
	var figs []string

	all, err := raw.Column(cfg.Parameter)
	if err != nil {
		return nil, err
	}
	kept, err := post.Column(cfg.Parameter)
	if err != nil {
		return nil, err
	}
	focal := plot.Series{Label: cfg.Parameter, Values: all}

	path := filepath.Join(dir, stem+"_trace.png")
	if err := plot.Trace(path, focal, rep.BurnIn.Discarded, cfg.BurnIn, p.plots); err != nil {
		return nil, err
	}
	figs = append(figs, path)

	path = filepath.Join(dir, stem+"_posterior.png")
	if err := plot.Histogram(path, plot.Series{Label: cfg.Parameter, Values: kept}, rep.Focal, cfg.Reference, cfg.Unit, p.plots); err != nil {
		return nil, err
	}
	figs = append(figs, path)

	if cfg.Reference.IsSet() {
		path = filepath.Join(dir, stem+"_comparison.png")
		title := fmt.Sprintf("%s: comparison with %s", cfg.Parameter, cfg.Reference.Label)
		series := []plot.Series{{Label: "This study", Values: kept}}
		if err := plot.Comparison(path, title, series, cfg.Reference, cfg.Unit, p.plots); err != nil {
			return nil, err
		}
		figs = append(figs, path)
	}

	var panels []plot.Series
	for _, col := range cfg.PanelColumns {
		if !raw.Has(col) {
			continue
		}
		values, err := raw.Column(col)
		if err != nil {
			return nil, err
		}
		panels = append(panels, plot.Series{Label: col, Values: values})
	}
	if len(panels) > 0 {
		path = filepath.Join(dir, stem+"_dashboard.png")
		if err := plot.Dashboard(path, panels, rep.BurnIn.Discarded, cfg.BurnIn, p.plots); err != nil {
			return nil, err
		}
		figs = append(figs, path)
	}

	for _, f := range figs {
		p.logger.Info("figure written", zap.String("path", f))
	}
	return figs, nil
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
