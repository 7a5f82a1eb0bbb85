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
	targets        []string
	cognateOutDir  string
	cognatePrefix  string
	delimiter      string
	languageColumn string
	conceptColumn  string
	cognateColumn  string
	strict         bool
	nexusOut       string
)

// cognatesCmd groups the matrix commands
var cognatesCmd = &cobra.Command{
	Use:   "cognates",
	Short: "Build binary cognate matrices from a lexicon",
}

var cognatesBuildCmd = &cobra.Command{
	Use:   "build <lexicon>",
	Short: "Code a cognate-annotated lexicon into a binary matrix",
	Long: `Build reads a delimited lexicon (one row per language/concept/word),
keeps the target languages and codes every (concept, cognate class) pair as a
binary feature. It writes:

  <out-dir>/<prefix>_records.csv   records of the target languages
  <out-dir>/<prefix>_long.csv      Language,Feature,Value rows
  <out-dir>/<prefix>_wide.csv      one row per language (BEASTling input)
  <out-dir>/<prefix>.nex           NEXUS alignment (BEAUti input)

Example:
  dravlex cognates build data/raw/dravlex/dravlex-cognates.tsv
  dravlex cognates build lexicon.csv --targets Telugu,Tamil,Kannada,Malayalam --strict`,
	Args: cobra.ExactArgs(1),
	RunE: runCognatesBuild,
}

var cognatesNexusCmd = &cobra.Command{
	Use:   "nexus <wide.csv>",
	Short: "Convert an existing wide matrix to NEXUS",
	Args:  cobra.ExactArgs(1),
	RunE:  runCognatesNexus,
}

func init() {
	rootCmd.AddCommand(cognatesCmd)
	cognatesCmd.AddCommand(cognatesBuildCmd)
	cognatesCmd.AddCommand(cognatesNexusCmd)

	f := cognatesBuildCmd.Flags()
	f.StringSliceVar(&targets, "targets", nil, "target languages, in matrix row order")
	f.StringVar(&cognateOutDir, "out-dir", "", "output directory (default from config)")
	f.StringVar(&cognatePrefix, "prefix", "", "output file prefix (default from config)")
	f.StringVar(&delimiter, "delimiter", "", "field delimiter: tab or comma (default by extension)")
	f.StringVar(&languageColumn, "language-column", "", "language column name")
	f.StringVar(&conceptColumn, "concept-column", "", "concept column name")
	f.StringVar(&cognateColumn, "cognate-column", "", "cognate class column name")
	f.BoolVar(&strict, "strict", false, "fail when a target language has no records")

	cognatesNexusCmd.Flags().StringVarP(&nexusOut, "output", "o", "", "NEXUS path (default: input with .nex extension)")
}

// applyCognateFlags overrides config values with the flags the user set.
func applyCognateFlags(cmd *cobra.Command, cfg *model.CognateConfig) {
	flags := cmd.Flags()
	if flags.Changed("targets") {
		cfg.Targets = targets
	}
	if flags.Changed("out-dir") {
		cfg.OutputDir = cognateOutDir
	}
	if flags.Changed("prefix") {
		cfg.Prefix = cognatePrefix
	}
	if flags.Changed("delimiter") {
		cfg.Delimiter = delimiter
	}
	if flags.Changed("language-column") {
		cfg.LanguageColumn = languageColumn
	}
	if flags.Changed("concept-column") {
		cfg.ConceptColumn = conceptColumn
	}
	if flags.Changed("cognate-column") {
		cfg.CognateColumn = cognateColumn
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
}

func runCognatesBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCognateFlags(cmd, &cfg.Cognates)

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	banner("dravlex Cognate Matrix")
	fmt.Fprintf(os.Stderr, "  Lexicon:      %s\n", args[0])
	fmt.Fprintf(os.Stderr, "  Targets:      %s\n", strings.Join(cfg.Cognates.Targets, ", "))
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Cognates.OutputDir)
	fmt.Fprintf(os.Stderr, "\n")

	res, err := p.BuildCognates(args[0])
	if err != nil {
		return fmt.Errorf("cognates build failed: %w", err)
	}

	m := res.Result.Matrix
	fmt.Fprintf(os.Stderr, "✓ %d records, %d concepts\n", res.Records, res.Concepts)
	fmt.Fprintf(os.Stderr, "✓ Matrix: %d languages × %d binary features\n", len(m.Languages), len(m.Features))
	for _, l := range res.Result.Absent {
		fmt.Fprintf(os.Stderr, "⚠ %s has no records (all-zero row)\n", l)
	}
	for _, out := range res.Outputs {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", out)
	}
	return nil
}

func runCognatesNexus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	src := args[0]
	dst := nexusOut
	if dst == "" {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + ".nex"
	}
	m, err := p.ConvertNexus(src, dst)
	if err != nil {
		return fmt.Errorf("nexus conversion failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s (NTAX=%d NCHAR=%d)\n", dst, len(m.Languages), len(m.Features))
	return nil
}
