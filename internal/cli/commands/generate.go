package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/effect-patterns/rulebook/internal/build"
	"github.com/effect-patterns/rulebook/internal/cli/ui"
	"github.com/effect-patterns/rulebook/internal/watch"
)

// stdoutOutput sends the document to standard output instead of a file
const stdoutOutput = "-"

// NewGenerateCommand creates the generate command
func NewGenerateCommand(g *Globals) *cobra.Command {
	var (
		dryRun     bool
		watchFiles bool
	)

	cmd := &cobra.Command{
		Use:   "generate [input]",
		Short: "Generate the rules document",
		Long: `Load every pattern file under the input directory and write one rules
document grouped by tier and ordered by title.

Nothing is written if any pattern file is invalid.

Examples:
  rulebook generate
  rulebook generate content/published -o rules/rules.md
  rulebook generate --guidance docs/PROJECT_NOTES.md
  rulebook generate --format html -o site/rules.html
  rulebook generate --dry-run
  rulebook generate --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd.Flags(), args)
			if err != nil {
				return err
			}

			opts := cfg.BuildOptions(g.Logger)
			opts.DryRun = dryRun
			if opts.Output == stdoutOutput {
				opts.Output = ""
			}

			if err := generateOnce(cmd.Context(), cmd, opts, g.NoColor); err != nil {
				// Bad pattern content can be fixed while watching; anything else cannot
				if !watchFiles || !build.IsPatternError(err) {
					return err
				}
				reportError(cmd.ErrOrStderr(), err)
			}
			if !watchFiles {
				return nil
			}

			return watchAndRegenerate(cmd, opts, []string{cfg.GuidanceFile, cfg.File}, g)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file, or - for stdout (default rules/rules.md)")
	cmd.Flags().String("format", "", "Output format: markdown, html or json")
	cmd.Flags().String("guidance", "", "Companion guidance file appended verbatim")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the document instead of writing it")
	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "Regenerate when pattern files change")
	addPipelineFlags(cmd)

	return cmd
}

// generateOnce runs the pipeline and reports the outcome
func generateOnce(ctx context.Context, cmd *cobra.Command, opts build.Options, noColor bool) error {
	res, err := build.Run(ctx, opts)
	if err != nil {
		return err
	}

	if res.Output == "" {
		_, err := cmd.OutOrStdout().Write(res.Content)
		return err
	}

	writeGenerated(cmd.ErrOrStderr(), res, noColor)
	return nil
}

func writeGenerated(w io.Writer, res *build.Result, noColor bool) {
	n := res.Document.GeneratedCount
	if res.Unchanged {
		ui.WriteSuccess(w, fmt.Sprintf("%s is up to date (%d patterns)", res.Output, n), noColor)
		return
	}
	ui.WriteSuccess(w, fmt.Sprintf("Generated %s (%d patterns)", res.Output, n), noColor)
}

// watchAndRegenerate blocks, regenerating after each debounced batch of
// pattern changes until the command context is cancelled
func watchAndRegenerate(cmd *cobra.Command, opts build.Options, extra []string, g *Globals) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	lopts := opts.LoaderOptions()
	fw, err := watch.NewFileWatcher(watch.Options{
		Root:    opts.Input,
		Include: lopts.Include,
		Exclude: lopts.Exclude,
		Files:   extra,
		Logger:  g.Logger,
	}, func(files []string) error {
		g.logger().Info("regenerating", zap.Strings("changed", files))
		if err := generateOnce(ctx, cmd, opts, g.NoColor); err != nil {
			reportError(cmd.ErrOrStderr(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	info := color.New(color.FgCyan)
	if g.NoColor {
		info.DisableColor()
	}
	info.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes. Press Ctrl+C to stop.\n", opts.Input)

	return fw.Run(ctx)
}
