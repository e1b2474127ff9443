package rules

import "strings"

const (
	// GuidanceHeading opens the trailing project-specific section
	GuidanceHeading = "# Part 2: Project-Specific Guidance"

	// GuidancePlaceholder is emitted when no guidance content exists
	GuidancePlaceholder = "No repository-specific guidance was found."
)

// AppendGuidance appends exactly one guidance section to rendered text.
// Guidance is copied verbatim; only a missing final newline is added.
// A nil or blank guidance produces the placeholder sentence.
func AppendGuidance(rendered string, guidance *string) string {
	var buf strings.Builder

	buf.WriteString(strings.TrimRight(rendered, "\n"))
	buf.WriteString("\n\n")
	buf.WriteString(GuidanceHeading)
	buf.WriteString("\n\n")

	if !HasGuidance(guidance) {
		buf.WriteString(GuidancePlaceholder + "\n")
		return buf.String()
	}

	buf.WriteString(*guidance)
	if !strings.HasSuffix(*guidance, "\n") {
		buf.WriteString("\n")
	}
	return buf.String()
}

// HasGuidance reports whether guidance carries any content
func HasGuidance(guidance *string) bool {
	return guidance != nil && strings.TrimSpace(*guidance) != ""
}
