package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	rberrors "github.com/effect-patterns/rulebook/internal/errors"
	"github.com/effect-patterns/rulebook/internal/pattern"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ UNCLASSIFIED PATTERN: beginner/use-pipe.md
//	   unknown tier "begginer"
//
//	   Did you mean: beginner?
//
//	   → Check every pattern: rulebook validate --all
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	// Determine colors and symbol based on level
	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case ErrorLevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	case ErrorLevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "ℹ️"
	default:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "❌"
	}

	// Disable colors if requested
	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Context)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Context != "" && opts.Problem != "" {
		bodyColor.Fprintf(&b, "   %s\n", opts.Problem)
	}
	for _, d := range opts.Details {
		bodyColor.Fprintf(&b, "   %s\n", d)
	}

	// Suggestions
	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	// Help commands
	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// PatternError renders a pipeline error. Errors outside the rulebook
// taxonomy are shown as a plain failure.
func PatternError(err error, noColor bool) string {
	e, ok := rberrors.As(err)
	if !ok {
		return FormatError(ErrorOptions{
			Level:   ErrorLevelError,
			Context: "GENERATION FAILED",
			Problem: err.Error(),
			NoColor: noColor,
		})
	}

	opts := ErrorOptions{
		Level:       ErrorLevelError,
		Context:     contextFor(e),
		Problem:     problemFor(e),
		Suggestions: e.Suggestions,
		NoColor:     noColor,
	}
	if e.Code != "" {
		opts.Details = append(opts.Details, fmt.Sprintf("Code: %s", e.Code))
	}

	switch e.Category {
	case rberrors.CategoryParse:
		opts.HelpCommands = []string{
			"Check every pattern: rulebook validate --all",
			"Start from a skeleton: rulebook new",
		}
	case rberrors.CategoryClassification:
		opts.HelpCommands = []string{
			fmt.Sprintf("Tag the pattern with one of: %s", strings.Join(pattern.TierNames(), ", ")),
			"Check every pattern: rulebook validate --all",
		}
	case rberrors.CategoryDuplicate:
		opts.HelpCommands = []string{
			"Rename one of the patterns so titles are unique",
			"See all titles: rulebook list",
		}
	}
	return FormatError(opts)
}

// WritePatternError writes a formatted pipeline error to the writer
func WritePatternError(w io.Writer, err error, noColor bool) {
	fmt.Fprint(w, PatternError(err, noColor))
}

// ValidationFailed renders every collected error followed by a summary line
func ValidationFailed(errs rberrors.List, noColor bool) string {
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(PatternError(e, noColor))
	}

	red := color.New(color.FgRed, color.Bold)
	if noColor {
		red.DisableColor()
	}
	b.WriteString("\n")
	red.Fprintf(&b, "Validation failed with %d error(s)\n", len(errs))
	return b.String()
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	opts := ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"View config: cat rulebook.yaml",
			"Get help: rulebook --help",
		},
		NoColor: noColor,
	}
	return FormatError(opts)
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	})
}

func contextFor(e *rberrors.Error) string {
	var label string
	switch e.Category {
	case rberrors.CategoryParse:
		label = "INVALID PATTERN"
	case rberrors.CategoryClassification:
		label = "UNCLASSIFIED PATTERN"
	case rberrors.CategoryDuplicate:
		label = "DUPLICATE TITLE"
	case rberrors.CategoryIO:
		label = "FILE ERROR"
	default:
		label = "ERROR"
	}

	switch {
	case len(e.Files) > 0:
		return fmt.Sprintf("%s: %s", label, strings.Join(e.Files, ", "))
	case e.File != "":
		return fmt.Sprintf("%s: %s", label, e.File)
	}
	return label
}

func problemFor(e *rberrors.Error) string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}
