package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/dravlex/internal/model"
	"github.com/ppiankov/dravlex/internal/table"
)

const rule = "═══════════════════════════════════════════════════════════"

// Renderer writes reports as JSON, Markdown and terminal summaries.
type Renderer struct {
	unit string
}

// NewRenderer creates a renderer quoting values in unit.
func NewRenderer(unit string) *Renderer {
	return &Renderer{unit: unit}
}

// RenderJSON writes any report as indented JSON.
func (r *Renderer) RenderJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeText(path, string(data)+"\n")
}

// ReadReport loads a posterior report written by RenderJSON.
func ReadReport(path string) (*model.Report, error) {
	f, err := table.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var rep model.Report
	if err := json.NewDecoder(f).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &rep, nil
}

// RenderMarkdown writes a posterior report as Markdown.
func (r *Renderer) RenderMarkdown(rep *model.Report, path string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Posterior summary: %s\n\n", rep.Parameter)
	fmt.Fprintf(&b, "- Source: `%s`\n", rep.Source)
	fmt.Fprintf(&b, "- Run: `%s`\n", rep.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Burn-in: %.0f%% (%d of %d samples discarded, %d retained)\n\n",
		rep.BurnIn.Fraction*100, rep.BurnIn.Discarded, rep.BurnIn.Total, rep.BurnIn.Retained)

	b.WriteString("## Estimates\n\n")
	b.WriteString("| Parameter | Mean | Median | Std | 95% HPD | Width |\n")
	b.WriteString("|---|---:|---:|---:|---|---:|\n")
	for _, s := range rep.Summaries {
		fmt.Fprintf(&b, "| %s | %.3f | %.3f | %.3f | [%.3f, %.3f] | %.3f |\n",
			s.Parameter, s.Mean, s.Median, s.StdDev, s.HPDLower, s.HPDUpper, s.HPDWidth)
	}
	b.WriteString("\nThe 95% HPD columns hold the 2.5th and 97.5th percentiles of the post-burn-in samples.\n")

	if rep.Reference != nil && rep.Overlap != nil {
		b.WriteString("\n## Reference\n\n")
		fmt.Fprintf(&b, "%s: %.2f %s [%.1f, %.1f]. ", rep.Reference.Label, rep.Reference.Mean, r.unit,
			rep.Reference.Lower, rep.Reference.Upper)
		if *rep.Overlap {
			b.WriteString("The interval of this run overlaps it.\n")
		} else {
			b.WriteString("The interval of this run does not overlap it.\n")
		}
	}

	if len(rep.Diagnostics) > 0 {
		b.WriteString("\n## Convergence\n\n")
		b.WriteString("| Column | First | Last | Post-burn-in mean |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, d := range rep.Diagnostics {
			fmt.Fprintf(&b, "| %s | %.2f | %.2f | %.2f |\n", d.Column, d.First, d.Last, d.Mean)
		}
	}

	writeFigures(&b, rep.Figures)
	return writeText(path, b.String())
}

// RenderSensitivityMarkdown writes a sensitivity report as Markdown.
func (r *Renderer) RenderSensitivityMarkdown(rep *model.SensitivityReport, path string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Prior sensitivity: %s\n\n", rep.Parameter)
	fmt.Fprintf(&b, "- Run: `%s`\n", rep.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("| Scenario | Prior σ | Mean | Median | 95% HPD | Width | Overlap |\n")
	b.WriteString("|---|---:|---:|---:|---|---:|---|\n")
	for _, s := range rep.Scenarios {
		fmt.Fprintf(&b, "| %s | %.1f | %.2f | %.2f | [%.2f, %.2f] | %.2f | %s |\n",
			s.Scenario.Label, s.Scenario.PriorSigma, s.Summary.Mean, s.Summary.Median,
			s.Summary.HPDLower, s.Summary.HPDUpper, s.Summary.HPDWidth, mark(s.Overlap))
	}
	if rep.Reference != nil {
		fmt.Fprintf(&b, "| %s | N/A | %.2f | N/A | [%.1f, %.1f] | %.2f | |\n",
			rep.Reference.Label, rep.Reference.Mean, rep.Reference.Lower, rep.Reference.Upper, rep.Reference.Width())
	}

	fmt.Fprintf(&b, "\nRange of mean estimates: %.2f %s, **%s data signal** (strong below %.2g, moderate below %.2g).\n",
		rep.Spread, r.unit, rep.Strength, rep.Policy.StrongBelow, rep.Policy.ModerateBelow)

	if len(rep.Signals) > 0 {
		b.WriteString("\n## Signals\n\n")
		for _, sig := range rep.Signals {
			fmt.Fprintf(&b, "- **%s** (%s): %s", sig.Type, sig.Severity, sig.Description)
			if f, ok := sig.Data["formula"]; ok {
				fmt.Fprintf(&b, " `%v`", f)
			}
			b.WriteString("\n")
		}
	}

	if rec := rep.Recommendation; rec != nil {
		b.WriteString("\n## Recommendation\n\n")
		fmt.Fprintf(&b, "%s: %.2f %s, 95%% interval [%.2f, %.2f] %s.\n",
			rec.Scenario.Label, rec.Summary.Mean, r.unit, rec.Summary.HPDLower, rec.Summary.HPDUpper, r.unit)
	}

	writeFigures(&b, rep.Figures)
	return writeText(path, b.String())
}

// RenderSummary prints a posterior report to w.
func (r *Renderer) RenderSummary(w io.Writer, rep *model.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Posterior Summary: %s\n", rep.Parameter)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Source:    %s\n", rep.Source)
	fmt.Fprintf(w, "  Samples:   %d total, %d burn-in, %d retained\n", rep.BurnIn.Total, rep.BurnIn.Discarded, rep.BurnIn.Retained)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  PARAMETER\tMEAN\tMEDIAN\tSTD\t95% HPD\tWIDTH")
	for _, s := range rep.Summaries {
		fmt.Fprintf(tw, "  %s\t%.3f\t%.3f\t%.3f\t[%.3f, %.3f]\t%.3f\n",
			s.Parameter, s.Mean, s.Median, s.StdDev, s.HPDLower, s.HPDUpper, s.HPDWidth)
	}
	_ = tw.Flush()

	if rep.Reference != nil && rep.Overlap != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s %s: %.2f %s [%.1f, %.1f]\n", mark(*rep.Overlap), rep.Reference.Label,
			rep.Reference.Mean, r.unit, rep.Reference.Lower, rep.Reference.Upper)
	}
	if len(rep.Diagnostics) > 0 {
		fmt.Fprintln(w)
		for _, d := range rep.Diagnostics {
			fmt.Fprintf(w, "  %-12s start %.2f  final %.2f  mean %.2f\n", d.Column+":", d.First, d.Last, d.Mean)
		}
	}
	fmt.Fprintln(w)
}

// RenderSensitivitySummary prints a sensitivity report to w.
func (r *Renderer) RenderSensitivitySummary(w io.Writer, rep *model.SensitivityReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Sensitivity Analysis: %s\n", rep.Parameter)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  SCENARIO\tPRIOR σ\tMEAN\tMEDIAN\t95% HPD\tWIDTH\tOVERLAP")
	for _, s := range rep.Scenarios {
		fmt.Fprintf(tw, "  %s\t%.1f\t%.2f\t%.2f\t[%.2f, %.2f]\t%.2f\t%s\n",
			s.Scenario.Label, s.Scenario.PriorSigma, s.Summary.Mean, s.Summary.Median,
			s.Summary.HPDLower, s.Summary.HPDUpper, s.Summary.HPDWidth, mark(s.Overlap))
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Range of means: %.2f %s\n", rep.Spread, r.unit)
	fmt.Fprintf(w, "  %s %s data signal\n", strengthMark(rep.Strength), strings.ToUpper(string(rep.Strength)))
	if rec := rep.Recommendation; rec != nil {
		fmt.Fprintf(w, "  Recommended: %s, %.2f %s [%.2f, %.2f]\n",
			rec.Scenario.Label, rec.Summary.Mean, r.unit, rec.Summary.HPDLower, rec.Summary.HPDUpper)
	}
	fmt.Fprintln(w)
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func strengthMark(s model.Strength) string {
	switch s {
	case model.StrengthStrong:
		return "✓"
	case model.StrengthModerate:
		return "⚠"
	default:
		return "✗"
	}
}

func writeFigures(b *strings.Builder, figs []string) {
	if len(figs) == 0 {
		return
	}
	b.WriteString("\n## Figures\n\n")
	for _, f := range figs {
		fmt.Fprintf(b, "- `%s`\n", f)
	}
}

func writeText(path, text string) error {
	if err := table.EnsureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
