package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dravlex/internal/model"
)

var (
	burnIn     float64
	column     string
	plotDir    string
	noPlots    bool
	noCache    bool
	outJSON    string
	outMD      string
	recommend  string
	reportsDir string
)

// traceCmd groups the posterior commands
var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Summarize BEAST trace logs",
}

var traceSummarizeCmd = &cobra.Command{
	Use:   "summarize <log>",
	Short: "Summarize the posterior of one trace log",
	Long: `Summarize discards burn-in, computes mean, median, standard deviation and
the 95% interval of the focal parameter (and configured extra columns), checks
the interval against the reference study and draws the trace, posterior,
comparison and dashboard figures.

Example:
  dravlex trace summarize results/beast/dravidian_4lang.log
  dravlex trace summarize run.log --burnin 0.25 --column Tree.height --no-plots`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceSummarize,
}

var traceCompareCmd = &cobra.Command{
	Use:   "compare [log...]",
	Short: "Compare prior sensitivity scenarios",
	Long: `Compare summarizes the focal parameter of each sensitivity scenario and
reports the spread of the posterior means. A spread below policy.strong_below
means the data dominate the prior.

Scenarios come from sensitivity.scenarios in the config. Positional log paths
replace the configured paths in order.

Example:
  dravlex trace compare
  dravlex trace compare loose.log medium.log tight.log --recommend "Medium (σ=1.0)"`,
	RunE: runTraceCompare,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceSummarizeCmd)
	traceCmd.AddCommand(traceCompareCmd)

	for _, c := range []*cobra.Command{traceSummarizeCmd, traceCompareCmd} {
		f := c.Flags()
		f.Float64Var(&burnIn, "burnin", 0.1, "fraction of leading samples to discard, in [0,1)")
		f.StringVar(&column, "column", "", "focal parameter column (default from config)")
		f.StringVar(&plotDir, "out-dir", "", "figure directory (default from config)")
		f.BoolVar(&noPlots, "no-plots", false, "skip figures")
		f.BoolVar(&noCache, "no-cache", false, "disable the summary cache")
		f.StringVar(&outJSON, "json", "", "output JSON path (default: <reports>/<log>_summary.json)")
		f.StringVar(&outMD, "md", "", "output Markdown path (optional)")
		f.StringVar(&reportsDir, "reports", "", "report directory (default from config)")
	}
	traceCompareCmd.Flags().StringVar(&recommend, "recommend", "", "scenario label quoted in the recommendation")
}

// applyTraceFlags overrides config values with the flags the user set.
func applyTraceFlags(cmd *cobra.Command, cfg *model.Config) error {
	flags := cmd.Flags()
	if flags.Changed("burnin") {
		cfg.Trace.BurnIn = burnIn
	}
	if cfg.Trace.BurnIn < 0 || cfg.Trace.BurnIn >= 1 {
		return fmt.Errorf("burn-in fraction %v not in [0,1)", cfg.Trace.BurnIn)
	}
	if flags.Changed("column") {
		cfg.Trace.Parameter = column
	}
	if flags.Changed("out-dir") {
		cfg.Plot.OutputDir = plotDir
	}
	if flags.Changed("reports") {
		cfg.Output.Reports = reportsDir
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("recommend") {
		cfg.Sensitivity.Recommend = recommend
	}
	return nil
}

// reportPaths returns the JSON and Markdown paths for a report stem. The
// Markdown path is empty when none was asked for.
func reportPaths(cfg *model.Config, stem string) (string, string) {
	jsonPath := outJSON
	if jsonPath == "" {
		jsonPath = filepath.Join(cfg.Output.Reports, stem+".json")
	}
	mdPath := outMD
	if mdPath == "" && cfg.Output.Markdown {
		mdPath = strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".md"
	}
	return jsonPath, mdPath
}

func runTraceSummarize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyTraceFlags(cmd, cfg); err != nil {
		return err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	logPath := args[0]
	if verbose {
		fmt.Fprintf(os.Stderr, "Summarizing: %s\n", logPath)
		fmt.Fprintf(os.Stderr, "Parameter: %s\n", cfg.Trace.Parameter)
		fmt.Fprintf(os.Stderr, "Burn-in: %.0f%%\n", cfg.Trace.BurnIn*100)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	rep, err := p.SummarizeTrace(logPath, !noPlots)
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(logPath), filepath.Ext(logPath)) + "_summary"
	jsonPath, mdPath := reportPaths(cfg, stem)
	r := p.Renderer()
	if err := r.RenderJSON(rep, jsonPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if mdPath != "" {
		if err := r.RenderMarkdown(rep, mdPath); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	r.RenderSummary(os.Stdout, rep)
	fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", jsonPath)
	if mdPath != "" {
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", mdPath)
	}
	for _, fig := range rep.Figures {
		fmt.Fprintf(os.Stderr, "✓ Figure: %s\n", fig)
	}
	return nil
}

// scenariosFor returns the configured scenarios with positional log paths
// substituted in order. More paths than scenarios is an error.
func scenariosFor(configured []model.Scenario, logs []string) ([]model.Scenario, error) {
	if len(logs) > len(configured) {
		return nil, fmt.Errorf("%d logs given for %d configured scenarios", len(logs), len(configured))
	}
	out := make([]model.Scenario, len(configured))
	copy(out, configured)
	for i, path := range logs {
		out[i].Path = path
	}
	return out, nil
}

func runTraceCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyTraceFlags(cmd, cfg); err != nil {
		return err
	}
	scenarios, err := scenariosFor(cfg.Sensitivity.Scenarios, args)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	banner("dravlex Prior Sensitivity")
	for _, sc := range scenarios {
		fmt.Fprintf(os.Stderr, "  %-20s %s\n", sc.Label, sc.Path)
	}
	fmt.Fprintf(os.Stderr, "\n")

	rep, err := p.CompareScenarios(scenarios, !noPlots)
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}

	jsonPath, mdPath := outJSON, outMD
	if jsonPath == "" {
		jsonPath = cfg.Sensitivity.Output + ".json"
	}
	if mdPath == "" && cfg.Output.Markdown {
		mdPath = strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".md"
	}
	r := p.Renderer()
	if err := r.RenderJSON(rep, jsonPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if mdPath != "" {
		if err := r.RenderSensitivityMarkdown(rep, mdPath); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	r.RenderSensitivitySummary(os.Stdout, rep)
	fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", jsonPath)
	if mdPath != "" {
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", mdPath)
	}
	for _, fig := range rep.Figures {
		fmt.Fprintf(os.Stderr, "✓ Figure: %s\n", fig)
	}
	return nil
}
