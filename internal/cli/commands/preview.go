package commands

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/effect-patterns/rulebook/internal/build"
	"github.com/effect-patterns/rulebook/internal/rules"
)

// NewPreviewCommand creates the preview command
func NewPreviewCommand(g *Globals) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "preview [input]",
		Short: "Render the rules document in the terminal",
		Long: `Build the rules document and display it styled for the terminal.
Nothing is written to disk.

Examples:
  rulebook preview
  rulebook preview --guidance docs/PROJECT_NOTES.md --width 120`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd.Flags(), args)
			if err != nil {
				return err
			}

			doc, err := build.Assemble(cmd.Context(), cfg.BuildOptions(g.Logger))
			if err != nil {
				return err
			}

			styled, err := renderTerminal(rules.RenderMarkdown(doc), width, g.NoColor)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), styled)
			return err
		},
	}

	cmd.Flags().String("guidance", "", "Companion guidance file appended verbatim")
	cmd.Flags().IntVar(&width, "width", 100, "Word-wrap width")
	addPipelineFlags(cmd)

	return cmd
}

// renderTerminal styles markdown with glamour; plain styling is used when
// colors are disabled
func renderTerminal(markdown string, width int, noColor bool) (string, error) {
	style := glamour.WithAutoStyle()
	if noColor {
		style = glamour.WithStandardStyle("notty")
	}

	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}
	return out, nil
}
