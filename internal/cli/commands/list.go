package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/effect-patterns/rulebook/internal/build"
	"github.com/effect-patterns/rulebook/internal/cli/ui"
	"github.com/effect-patterns/rulebook/internal/pattern"
)

// NewListCommand creates the list command
func NewListCommand(g *Globals) *cobra.Command {
	var tierName string

	cmd := &cobra.Command{
		Use:   "list [input]",
		Short: "List patterns in document order",
		Long: `List every pattern with its tier, title and source file, in the order the
rules document renders them.

Examples:
  rulebook list
  rulebook list --tier advanced`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := pattern.TierUnknown
			if tierName != "" {
				t, ok := pattern.ParseTier(tierName)
				if !ok {
					return fmt.Errorf("unknown tier %q (expected one of: beginner, intermediate, advanced)", tierName)
				}
				filter = t
			}

			cfg, err := g.loadConfig(cmd.Flags(), args)
			if err != nil {
				return err
			}

			doc, err := build.Assemble(cmd.Context(), cfg.BuildOptions(g.Logger))
			if err != nil {
				return err
			}

			var records []*pattern.Record
			for _, s := range doc.Sections {
				if filter != pattern.TierUnknown && s.Tier != filter {
					continue
				}
				records = append(records, s.Records...)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprint(out, ui.Warning("No patterns found.", g.NoColor))
				return nil
			}
			ui.PatternTable(out, records, g.NoColor)
			return nil
		},
	}

	cmd.Flags().StringVar(&tierName, "tier", "", "Only list patterns in this tier")
	addPipelineFlags(cmd)

	return cmd
}
