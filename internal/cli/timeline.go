package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/dravlex/internal/pipeline"
	"github.com/ppiankov/dravlex/internal/timeline"
)

var (
	timelineEvents string
	timelineOut    string
	timelineWidth  int
	timelineReport string
)

// timelineCmd represents the timeline command
var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Draw the language evolution timeline as SVG",
	Long: `Timeline reads dated events from a YAML file and draws them top-down with
one node and box per event, a legend and the method notes.

With --report, the proto event takes its estimate from a posterior summary
written by 'dravlex trace summarize'.

Example:
  dravlex timeline
  dravlex timeline --events timeline.yaml --report results/dravidian_4lang_summary.json`,
	Args: cobra.NoArgs,
	RunE: runTimeline,
}

func init() {
	rootCmd.AddCommand(timelineCmd)

	timelineCmd.Flags().StringVar(&timelineEvents, "events", "", "timeline events YAML (default from config)")
	timelineCmd.Flags().StringVarP(&timelineOut, "output", "o", "", "SVG output path (default from config)")
	timelineCmd.Flags().IntVar(&timelineWidth, "width", 0, "canvas width (default from config)")
	timelineCmd.Flags().StringVar(&timelineReport, "report", "", "posterior JSON report overriding the proto estimate")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tc := cfg.Timeline
	if cmd.Flags().Changed("events") {
		tc.Events = timelineEvents
	}
	if cmd.Flags().Changed("output") {
		tc.Output = timelineOut
	}
	if cmd.Flags().Changed("width") {
		tc.Width = timelineWidth
	}

	doc, err := timeline.Load(tc.Events)
	if err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	if timelineReport != "" {
		rep, err := pipeline.ReadReport(timelineReport)
		if err != nil {
			return fmt.Errorf("timeline: %w", err)
		}
		if err := doc.ApplyReport(rep); err != nil {
			return fmt.Errorf("timeline: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Proto estimate from %s: %.2f %s [%.2f-%.2f]\n",
			timelineReport, rep.Focal.Mean, rep.Unit, rep.Focal.HPDLower, rep.Focal.HPDUpper)
	}

	if err := doc.WriteFile(tc.Output, tc.Width); err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	logger.Debug("timeline written", zap.String("path", tc.Output), zap.Int("events", len(doc.Events)))
	fmt.Fprintf(os.Stderr, "✓ Generated: %s\n", tc.Output)
	fmt.Fprintf(os.Stderr, "  Total events: %d\n", len(doc.Events))
	return nil
}
