package errors

import (
	"fmt"
	"strings"
)

// FormatError returns a multi-line message for terminal output
func FormatError(e *Error) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s in %s\n", severityIcon, categoryDisplayName(e.Category), displayFile(e))

	if len(e.Files) > 1 {
		b.WriteString("Files:\n")
		for _, f := range e.Files {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}

	if e.Line > 0 {
		fmt.Fprintf(&b, "Line %d:\n", e.Line)
	}
	fmt.Fprintf(&b, "  %s\n", e.Message)

	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, "\n💡 Did you mean: %s?\n", strings.Join(e.Suggestions, ", "))
	}

	fmt.Fprintf(&b, "\nCode: %s\n", e.Code)

	return b.String()
}

// FormatList returns a formatted string of all errors
func FormatList(errs List) string {
	if len(errs) == 0 {
		return "no errors"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Validation failed with %d error(s)\n\n", len(errs))

	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
		}
		b.WriteString(err.Format())
	}

	return b.String()
}

// FormatCompact returns a one-line error format
func FormatCompact(e *Error) string {
	loc := displayFile(e)
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	if len(e.Files) > 1 {
		loc = strings.Join(e.Files, ", ")
	}
	return fmt.Sprintf("%s: %s [%s]", loc, e.Message, e.Code)
}

const severityIcon = "❌"

func displayFile(e *Error) string {
	if e.File == "" {
		return "<input>"
	}
	return e.File
}

// categoryDisplayName returns a human-readable category name
func categoryDisplayName(category ErrorCategory) string {
	switch category {
	case CategoryParse:
		return "Parse Error"
	case CategoryClassification:
		return "Unclassified Pattern"
	case CategoryDuplicate:
		return "Duplicate Title"
	case CategoryIO:
		return "I/O Error"
	default:
		return "Error"
	}
}
