package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/effect-patterns/rulebook/internal/cli/config"
	"github.com/effect-patterns/rulebook/internal/cli/ui"
	rberrors "github.com/effect-patterns/rulebook/internal/errors"
	"github.com/effect-patterns/rulebook/internal/logging"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// Globals carries the persistent flags and the logger built from them
type Globals struct {
	Verbose    bool
	NoColor    bool
	ConfigFile string

	Logger *zap.Logger
}

// reportedError marks an error whose details were already printed
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// configError marks a configuration failure for friendlier output
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	g := &Globals{}

	rootCmd := &cobra.Command{
		Use:   "rulebook",
		Short: "Aggregate coding-pattern files into one rules document",
		Long: color.CyanString(`Rulebook - coding rules for AI assistants

Rulebook loads a directory of pattern files, sorts them into
Beginner, Intermediate and Advanced tiers, and renders a single
rules document followed by project-specific guidance.

Each pattern file carries:
  • A title and a one-line rule
  • Use cases and a tier tag
  • Rationale prose
  • A Good Example code block (required)
  • An Anti-Pattern code block (optional)`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.NoColor {
				color.NoColor = true
			}
			logger, err := logging.New(logging.Options{Verbose: g.Verbose, Output: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			g.Logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.Logger != nil {
				_ = g.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "Show debug output")
	rootCmd.PersistentFlags().BoolVar(&g.NoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&g.ConfigFile, "config", "", "Config file (default ./rulebook.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewGenerateCommand(g))
	rootCmd.AddCommand(NewValidateCommand(g))
	rootCmd.AddCommand(NewListCommand(g))
	rootCmd.AddCommand(NewPreviewCommand(g))
	rootCmd.AddCommand(NewNewCommand(g))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the rulebook version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "Rulebook version: ")
			fmt.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
		return err
	}
	return nil
}

// reportError prints err unless a command already did
func reportError(w io.Writer, err error) {
	var reported *reportedError
	if errors.As(err, &reported) {
		return
	}

	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		fmt.Fprint(w, ui.ConfigError(cfgErr.err.Error(), color.NoColor))
		return
	}

	if _, ok := rberrors.As(err); ok {
		ui.WritePatternError(w, err, color.NoColor)
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	errorColor.Fprintf(w, "Error: %v\n", err)
}

// loadConfig reads configuration with flags bound over file values, letting a
// positional input argument override the configured input directory. A nil
// flag set reads the file and environment only.
func (g *Globals) loadConfig(flags *pflag.FlagSet, args []string) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: g.ConfigFile, Flags: flags})
	if err != nil {
		return nil, &configError{err: err}
	}
	if len(args) > 0 && args[0] != "" {
		cfg.Input = args[0]
	}
	if cfg.File != "" {
		g.logger().Debug("loaded config", zap.String("file", cfg.File))
	}
	return cfg, nil
}

func (g *Globals) logger() *zap.Logger {
	return logging.OrNop(g.Logger)
}

// addPipelineFlags registers the flags shared by commands that load patterns
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Document title")
	cmd.Flags().StringSlice("include", nil, "Glob(s) selecting pattern files")
	cmd.Flags().StringSlice("exclude", nil, "Glob(s) excluding pattern files")
	cmd.Flags().Bool("tier-from-directory", false, "Infer missing tier tags from directory names")
	cmd.Flags().Int("workers", 0, "Parallel parse workers (default: number of CPUs)")
}
