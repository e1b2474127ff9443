package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	rberrors "github.com/effect-patterns/rulebook/internal/errors"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "INVALID PATTERN: a.md",
				Problem: `missing required section "rule"`,
			},
			contains: []string{"❌", "INVALID PATTERN: a.md", `missing required section "rule"`},
		},
		{
			name: "error with suggestions",
			opts: ErrorOptions{
				Level:       ErrorLevelError,
				Context:     "UNCLASSIFIED PATTERN",
				Problem:     `unknown tier "begginer"`,
				Suggestions: []string{"beginner"},
			},
			contains: []string{"Did you mean: beginner?"},
		},
		{
			name: "error with help commands",
			opts: ErrorOptions{
				Level:        ErrorLevelError,
				Problem:      "boom",
				HelpCommands: []string{"Check every pattern: rulebook validate --all"},
			},
			contains: []string{"❌ boom", "→ Check every pattern: rulebook validate --all"},
		},
		{
			name:     "warning",
			opts:     ErrorOptions{Level: ErrorLevelWarning, Problem: "careful"},
			contains: []string{"⚠️", "careful"},
		},
		{
			name:     "info",
			opts:     ErrorOptions{Level: ErrorLevelInfo, Problem: "fyi", Details: []string{"more"}},
			contains: []string{"ℹ️", "fyi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.NoColor = true
			out := FormatError(tt.opts)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestFormatError_ContextKeepsPathCase(t *testing.T) {
	out := FormatError(ErrorOptions{Context: "FILE ERROR: Patterns/Use-Pipe.md", Problem: "x", NoColor: true})
	assert.Contains(t, out, "Patterns/Use-Pipe.md")
}

func TestPatternError_Parse(t *testing.T) {
	err := rberrors.NewMalformedFence("beginner/a.md", "Good Example", "empty code block").WithLine(12)
	out := PatternError(err, true)

	assert.Contains(t, out, "INVALID PATTERN: beginner/a.md")
	assert.Contains(t, out, "line 12:")
	assert.Contains(t, out, "empty code block")
	assert.Contains(t, out, "Code: PAR002")
	assert.Contains(t, out, "rulebook validate --all")
}

func TestPatternError_UnknownTier(t *testing.T) {
	err := rberrors.NewUnknownTier("a.md", "begginer").WithSuggestions("beginner")
	out := PatternError(err, true)

	assert.Contains(t, out, "UNCLASSIFIED PATTERN: a.md")
	assert.Contains(t, out, "Did you mean: beginner?")
	assert.Contains(t, out, "beginner, intermediate, advanced")
}

func TestPatternError_Duplicate(t *testing.T) {
	out := PatternError(rberrors.NewDuplicateTitle("Use X Pattern", "a/x.md", "b/x.md"), true)
	assert.Contains(t, out, "DUPLICATE TITLE: a/x.md, b/x.md")
	assert.Contains(t, out, "rulebook list")
}

func TestPatternError_Foreign(t *testing.T) {
	out := PatternError(errors.New("context canceled"), true)
	assert.Contains(t, out, "GENERATION FAILED")
	assert.Contains(t, out, "context canceled")
}

func TestValidationFailed(t *testing.T) {
	errs := rberrors.List{
		rberrors.NewMissingSection("a.md", "rule"),
		rberrors.NewUnclassified("b.md"),
	}
	out := ValidationFailed(errs, true)

	assert.Contains(t, out, "a.md")
	assert.Contains(t, out, "b.md")
	assert.True(t, strings.HasSuffix(out, "Validation failed with 2 error(s)\n"))
}

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	WriteSuccess(&buf, "Generated rules.md", true)
	assert.Equal(t, "✓ Generated rules.md\n", buf.String())
}

func TestConfigErrorAndWarning(t *testing.T) {
	assert.Contains(t, ConfigError("workers must be positive", true), "CONFIGURATION ERROR")
	assert.Contains(t, Warning("no patterns found", true), "no patterns found")
}
