package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dravlex/internal/beastxml"
)

var beastOutDir string

// beastCmd groups the BEAST job file commands
var beastCmd = &cobra.Command{
	Use:   "beast",
	Short: "Prepare BEAST 2 job files",
}

var beastPatchCmd = &cobra.Command{
	Use:   "patch [xml...]",
	Short: "Rewrite BEAST 2.0 class names for BEAST 2.7",
	Long: `Patch replaces the BEAST 2.0 namespace declaration, distribution and
parameter class paths and the short spec="MCMC" with their BEAST 2.7 names.
Extra literal replacements from beast.extra run afterwards.

Without arguments the files listed in beast.files are patched. Missing files
are skipped.

Example:
  dravlex beast patch results/xml/dravidian_4lang.xml
  dravlex beast patch --out-dir results/xml/patched`,
	RunE: runBeastPatch,
}

func init() {
	rootCmd.AddCommand(beastCmd)
	beastCmd.AddCommand(beastPatchCmd)

	beastPatchCmd.Flags().StringVar(&beastOutDir, "out-dir", "", "write patched copies here instead of in place")
}

func runBeastPatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bc := cfg.Beast
	if cmd.Flags().Changed("out-dir") {
		bc.OutDir = beastOutDir
	}
	files := args
	if len(files) == 0 {
		files = bc.Files
	}
	if len(files) == 0 {
		return fmt.Errorf("no BEAST XML files given or configured")
	}

	p, err := beastxml.NewPatcher(bc, logger)
	if err != nil {
		return err
	}

	banner("Fixing BEAST XML files for version 2.7+ compatibility")
	results, err := p.PatchFiles(files)
	for _, res := range results {
		switch {
		case res.Skipped:
			fmt.Fprintf(os.Stderr, "⚠ Skipping %s (not found)\n", res.Path)
		case res.Output == "":
			fmt.Fprintf(os.Stderr, "✓ %s already uses BEAST 2.7 names\n", res.Path)
		default:
			fmt.Fprintf(os.Stderr, "✓ Fixed %s: %d replacements → %s\n", res.Path, res.Replaced, res.Output)
			if verbose {
				for _, c := range res.Changes {
					fmt.Fprintf(os.Stderr, "    %4d × %s\n", c.Count, c.Old)
				}
			}
			if res.MCMC {
				fmt.Fprintf(os.Stderr, "  ✓ MCMC spec updated\n")
			}
			if res.Namespace {
				fmt.Fprintf(os.Stderr, "  ✓ Namespace declaration updated\n")
			}
		}
	}
	if err != nil {
		return fmt.Errorf("beast patch failed: %w", err)
	}
	return nil
}
