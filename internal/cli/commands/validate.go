package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/effect-patterns/rulebook/internal/build"
	"github.com/effect-patterns/rulebook/internal/cli/ui"
	"github.com/effect-patterns/rulebook/internal/pattern"
)

// NewValidateCommand creates the validate command
func NewValidateCommand(g *Globals) *cobra.Command {
	var (
		all    bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "validate [input]",
		Short: "Check pattern files without writing output",
		Long: `Load, classify and aggregate every pattern file and report problems.

By default validation stops at the first problem, exactly like generate.
With --all every invalid file, unknown tier and duplicate title is reported.
--json prints the collected errors as a JSON array and implies --all.

Examples:
  rulebook validate
  rulebook validate content/published --all
  rulebook validate --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd.Flags(), args)
			if err != nil {
				return err
			}
			opts := cfg.BuildOptions(g.Logger)
			out := cmd.OutOrStdout()

			if !all && !asJSON {
				doc, err := build.Assemble(cmd.Context(), opts)
				if err != nil {
					return err
				}
				ui.WriteSuccess(out, fmt.Sprintf("%d patterns are valid", doc.GeneratedCount), g.NoColor)
				ui.Header(out, "Patterns by tier", g.NoColor)
				counts := make(map[pattern.Tier]int)
				for _, tier := range pattern.Tiers {
					counts[tier] = len(doc.Section(tier).Records)
				}
				ui.TierCounts(out, counts, g.NoColor)
				return nil
			}

			report, err := build.Validate(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if asJSON {
				out, err := report.Errors.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				if !report.OK() {
					return &reportedError{err: report.Errors}
				}
				return nil
			}
			if err := report.Errors.Err(); err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.ValidationFailed(report.Errors, g.NoColor))
				return &reportedError{err: err}
			}

			ui.WriteSuccess(out, fmt.Sprintf("%d patterns are valid", len(report.Records)), g.NoColor)
			ui.Header(out, "Patterns by tier", g.NoColor)
			ui.TierCounts(out, report.Counts, g.NoColor)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Report every problem instead of stopping at the first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print errors as JSON")
	cmd.Flags().String("guidance", "", "Companion guidance file that must be readable")
	addPipelineFlags(cmd)

	return cmd
}
