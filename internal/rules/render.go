package rules

import (
	"fmt"
	"strings"

	"github.com/effect-patterns/rulebook/internal/pattern"
)

const (
	// EmptyTierText stands in for a tier without records
	EmptyTierText = "_No patterns in this tier._"

	recordSeparator = "---"

	// rationale headings are pushed below the record heading level
	recordHeadingLevel = 3
)

// Render writes the markdown body of the document: title, summary line and one
// section per tier. It does not include the guidance section.
func Render(doc *Document) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("# %s\n\n", doc.Title))
	buf.WriteString(fmt.Sprintf("%s\n\n", summaryLine(doc.GeneratedCount)))

	for i, section := range doc.Sections {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(fmt.Sprintf("## %s Patterns\n\n", section.Tier))

		if len(section.Records) == 0 {
			buf.WriteString(EmptyTierText + "\n")
			continue
		}

		for j, rec := range section.Records {
			if j > 0 {
				buf.WriteString("\n" + recordSeparator + "\n\n")
			}
			renderRecord(&buf, rec)
		}
	}

	return buf.String()
}

// RenderMarkdown is the complete markdown artifact: Render followed by the
// guidance section.
func RenderMarkdown(doc *Document) string {
	return AppendGuidance(Render(doc), doc.Guidance)
}

func summaryLine(n int) string {
	return fmt.Sprintf("Generated from %d published patterns. "+
		"Each entry states a rule and shows a working example; "+
		"entries are grouped by skill level and ordered by title.", n)
}

func renderRecord(buf *strings.Builder, rec *pattern.Record) {
	buf.WriteString(fmt.Sprintf("### %s\n\n", rec.Title))
	buf.WriteString(fmt.Sprintf("**Rule:** %s\n\n", rec.Rule))

	if rationale := demoteHeadings(rec.Rationale); rationale != "" {
		buf.WriteString(rationale + "\n\n")
	}

	buf.WriteString("**Good Example:**\n\n")
	renderExample(buf, &rec.GoodExample)

	if rec.HasAntiPattern() {
		buf.WriteString("\n**Anti-Pattern:**\n\n")
		renderExample(buf, rec.AntiPattern)
	}
}

func renderExample(buf *strings.Builder, ex *pattern.Example) {
	if intro := demoteHeadings(ex.Intro); intro != "" {
		buf.WriteString(intro + "\n\n")
	}

	code := ex.Block.Code
	if code != "" && !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	fence := fenceFor(code)
	buf.WriteString(fmt.Sprintf("%s%s\n%s%s\n", fence, ex.Block.Language, code, fence))

	if notes := demoteHeadings(ex.Notes); notes != "" {
		buf.WriteString("\n" + notes + "\n")
	}
}

// fenceFor returns a backtick fence longer than any backtick run that could
// close it. A closing fence may be indented by up to three spaces.
func fenceFor(code string) string {
	longest := 0
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if len(line)-len(trimmed) > 3 {
			continue
		}
		n := len(trimmed) - len(strings.TrimLeft(trimmed, "`"))
		longest = max(longest, n)
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

// demoteHeadings shifts headings outside code fences so that the shallowest
// possible heading sits one level below a record heading. Setext headings are
// rewritten as ATX headings. Levels are capped at six.
func demoteHeadings(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var (
		out  []string
		open string
		// para is the index in out of the first line of the open paragraph, or -1
		para = -1
		// lazy marks lines continuing a list item or block quote
		lazy bool
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)

		if open != "" {
			if indent <= 3 && closesFence(trimmed, open) {
				open = ""
			}
			out = append(out, line)
			continue
		}

		switch {
		case strings.TrimSpace(line) == "":
			para, lazy = -1, false
		case indent > 3:
			// indented code, or a continuation of the open paragraph
		case isFenceLine(trimmed):
			open = fenceMarker(trimmed)
			para, lazy = -1, false
		case headingLevel(trimmed) > 0:
			level := headingLevel(trimmed)
			line = demotedMarker(level) + strings.TrimLeft(trimmed, "#")
			para, lazy = -1, false
		case para >= 0 && setextLevel(trimmed) > 0:
			heading := demotedMarker(setextLevel(trimmed)) + " " + joinParagraph(out[para:])
			out = append(out[:para], heading)
			para = -1
			continue
		case isThematicBreak(trimmed):
			para, lazy = -1, false
		case startsContainer(trimmed):
			para, lazy = -1, true
		case para < 0 && !lazy:
			para = len(out)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func demotedMarker(level int) string {
	return strings.Repeat("#", min(level+recordHeadingLevel, 6))
}

func closesFence(s, open string) bool {
	return isFenceLine(s) && strings.HasPrefix(s, open) &&
		strings.TrimSpace(strings.TrimLeft(s, open[:1])) == ""
}

// setextLevel returns 1 for an === underline, 2 for a --- underline, else 0
func setextLevel(s string) int {
	s = strings.TrimRight(s, " \t")
	switch {
	case s == "":
		return 0
	case strings.Trim(s, "=") == "":
		return 1
	case strings.Trim(s, "-") == "":
		return 2
	}
	return 0
}

func isThematicBreak(s string) bool {
	compact := strings.NewReplacer(" ", "", "\t", "").Replace(s)
	if len(compact) < 3 || !strings.ContainsRune("-*_", rune(compact[0])) {
		return false
	}
	return strings.Trim(compact, compact[:1]) == ""
}

func joinParagraph(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, strings.TrimSpace(l))
	}
	return strings.Join(parts, " ")
}

// startsContainer reports whether s opens a list item or block quote, whose
// following lines a setext underline cannot turn into a heading
func startsContainer(s string) bool {
	if strings.HasPrefix(s, ">") {
		return true
	}
	if len(s) >= 2 && strings.ContainsRune("-*+", rune(s[0])) && (s[1] == ' ' || s[1] == '\t') {
		return true
	}
	digits := len(s) - len(strings.TrimLeft(s, "0123456789"))
	if digits == 0 || digits > 9 || digits+1 >= len(s) {
		return false
	}
	return (s[digits] == '.' || s[digits] == ')') && (s[digits+1] == ' ' || s[digits+1] == '\t')
}

func isFenceLine(s string) bool {
	return strings.HasPrefix(s, "```") || strings.HasPrefix(s, "~~~")
}

func fenceMarker(s string) string {
	ch := s[0]
	n := 0
	for n < len(s) && s[n] == ch {
		n++
	}
	return s[:n]
}

func headingLevel(s string) int {
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0
	}
	if n < len(s) && s[n] != ' ' && s[n] != '\t' {
		return 0
	}
	return n
}
