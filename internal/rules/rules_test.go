package rules

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	rberrors "github.com/effect-patterns/rulebook/internal/errors"
	"github.com/effect-patterns/rulebook/internal/pattern"
)

func record(title string, tier pattern.Tier) *pattern.Record {
	return &pattern.Record{
		Title:     title,
		Rule:      "Do the " + title + " thing.",
		UseCases:  []string{"core"},
		Rationale: title + " keeps programs honest.",
		GoodExample: pattern.Example{
			Block: pattern.CodeBlock{Language: "typescript", Code: "const " + strings.ToLower(title) + " = 1\n"},
		},
		Tier:   tier,
		Source: strings.ToLower(title) + ".md",
	}
}

func titles(s *Section) []string {
	out := make([]string, 0, len(s.Records))
	for _, r := range s.Records {
		out = append(out, r.Title)
	}
	return out
}

func TestAggregate_GroupsAndOrders(t *testing.T) {
	records := []*pattern.Record{
		record("mango", pattern.TierAdvanced),
		record("Zebra", pattern.TierBeginner),
		record("apple", pattern.TierBeginner),
		record("Banana", pattern.TierBeginner),
	}

	doc, err := Aggregate("", records)
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, doc.Title)
	assert.Equal(t, 4, doc.GeneratedCount)
	require.Len(t, doc.Sections, 3)
	assert.Equal(t, pattern.TierBeginner, doc.Sections[0].Tier)
	assert.Equal(t, pattern.TierIntermediate, doc.Sections[1].Tier)
	assert.Equal(t, pattern.TierAdvanced, doc.Sections[2].Tier)

	if diff := cmp.Diff([]string{"apple", "Banana", "Zebra"}, titles(&doc.Sections[0])); diff != "" {
		t.Errorf("beginner order mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, doc.Sections[1].Records)
	assert.Equal(t, []string{"mango"}, titles(doc.Section(pattern.TierAdvanced)))

	assert.Equal(t, "mango", records[0].Title, "input order is untouched")
}

func TestAggregate_DuplicateTitle(t *testing.T) {
	first := record("Use Pipe", pattern.TierBeginner)
	first.Source = "a/use-pipe.md"
	second := record("use pipe", pattern.TierAdvanced)
	second.Source = "b/use-pipe.md"

	doc, err := Aggregate("Rules", []*pattern.Record{first, second})
	assert.Nil(t, doc)
	require.Error(t, err)
	assert.True(t, rberrors.IsDuplicate(err))

	e, _ := rberrors.As(err)
	assert.Equal(t, []string{"a/use-pipe.md", "b/use-pipe.md"}, e.Files)
	assert.Contains(t, err.Error(), "a/use-pipe.md")
	assert.Contains(t, err.Error(), "b/use-pipe.md")
}

func TestAggregate_RejectsUnclassified(t *testing.T) {
	_, err := Aggregate("Rules", []*pattern.Record{record("Loose", pattern.TierUnknown)})
	assert.True(t, rberrors.IsClassification(err))
}

func TestCount(t *testing.T) {
	doc := &Document{Sections: []Section{
		{Tier: pattern.TierBeginner, Records: []*pattern.Record{record("a", pattern.TierBeginner)}},
		{Tier: pattern.TierIntermediate},
		{Tier: pattern.TierAdvanced, Records: []*pattern.Record{
			record("b", pattern.TierAdvanced), record("c", pattern.TierAdvanced),
		}},
	}}
	assert.Equal(t, 3, Count(doc))
	assert.Equal(t, 0, Count(&Document{}))
}

func TestRender_Layout(t *testing.T) {
	good := record("Zebra", pattern.TierBeginner)
	anti := record("Apple", pattern.TierIntermediate)
	anti.AntiPattern = &pattern.Example{
		Block: pattern.CodeBlock{Language: "typescript", Code: "let apple = 1\n"},
		Notes: "Mutable bindings drift.",
	}

	doc, err := Aggregate("Rules", []*pattern.Record{good, anti})
	require.NoError(t, err)

	want := "# Rules\n" +
		"\n" +
		summaryLine(2) + "\n" +
		"\n" +
		"## Beginner Patterns\n" +
		"\n" +
		"### Zebra\n" +
		"\n" +
		"**Rule:** Do the Zebra thing.\n" +
		"\n" +
		"Zebra keeps programs honest.\n" +
		"\n" +
		"**Good Example:**\n" +
		"\n" +
		"```typescript\n" +
		"const zebra = 1\n" +
		"```\n" +
		"\n" +
		"## Intermediate Patterns\n" +
		"\n" +
		"### Apple\n" +
		"\n" +
		"**Rule:** Do the Apple thing.\n" +
		"\n" +
		"Apple keeps programs honest.\n" +
		"\n" +
		"**Good Example:**\n" +
		"\n" +
		"```typescript\n" +
		"const apple = 1\n" +
		"```\n" +
		"\n" +
		"**Anti-Pattern:**\n" +
		"\n" +
		"```typescript\n" +
		"let apple = 1\n" +
		"```\n" +
		"\n" +
		"Mutable bindings drift.\n" +
		"\n" +
		"## Advanced Patterns\n" +
		"\n" +
		EmptyTierText + "\n"

	if diff := cmp.Diff(want, Render(doc)); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_SeparatesRecords(t *testing.T) {
	doc, err := Aggregate("Rules", []*pattern.Record{
		record("One", pattern.TierBeginner),
		record("Two", pattern.TierBeginner),
		record("Three", pattern.TierBeginner),
	})
	require.NoError(t, err)

	out := Render(doc)
	assert.Equal(t, 2, strings.Count(out, "\n---\n"))
	assert.Less(t, strings.Index(out, "### One"), strings.Index(out, "### Three"))
	assert.Less(t, strings.Index(out, "### Three"), strings.Index(out, "### Two"))
}

func TestRender_CountMatchesSubsections(t *testing.T) {
	rec := record("Nested", pattern.TierAdvanced)
	rec.Rationale = "## Background\n\nDetails.\n\n# Deep dive\n\n```md\n### not a heading\n```"

	doc, err := Aggregate("Rules", []*pattern.Record{rec, record("Other", pattern.TierBeginner)})
	require.NoError(t, err)

	out := Render(doc)
	headings := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "### ") {
			headings++
		}
	}
	// the fenced line is inside a code block and is not a heading
	assert.Equal(t, doc.GeneratedCount+1, headings)
	assert.Contains(t, out, "\n##### Background\n")
	assert.Contains(t, out, "\n#### Deep dive\n")
	assert.Contains(t, out, "\n### not a heading\n")
}

func TestDemoteHeadings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  \n", ""},
		{"h1", "# Top", "#### Top"},
		{"capped", "#### Four\n###### Six", "###### Four\n###### Six"},
		{"not a heading", "#hashtag and #1", "#hashtag and #1"},
		{"indented code", "para\n    # comment", "para\n    # comment"},
		{"fenced", "~~~\n# shell comment\n~~~\n## After", "~~~\n# shell comment\n~~~\n##### After"},
		{"setext h2", "Why it matters\n---\nBecause.", "##### Why it matters\nBecause."},
		{"setext h1 spanning lines", "Line one\nline two\n===", "#### Line one line two"},
		{"thematic break", "para\n\n---\n\nmore", "para\n\n---\n\nmore"},
		{"rule after list item", "- item\n---", "- item\n---"},
		{"indented fence opener", "para\n\n    ```\n# After", "para\n\n    ```\n#### After"},
		{"indented closing fence", "```\n# in\n   ```\n# out", "```\n# in\n   ```\n#### out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, demoteHeadings(tt.in))
		})
	}
}

func TestFenceFor(t *testing.T) {
	assert.Equal(t, "```", fenceFor("const a = `x`\n"))
	assert.Equal(t, "````", fenceFor("```ts\ncode\n```\n"))
	assert.Equal(t, "`````", fenceFor("Some docs:\n  ````\n### Not A Pattern\n````\n"))
	assert.Equal(t, "```", fenceFor("    ````\n"), "four spaces of indent cannot close a fence")
}

// headingLevels parses rendered markdown and counts headings per level
func headingLevels(t *testing.T, src string) map[int]int {
	t.Helper()
	doc := markdown.Parser().Parse(text.NewReader([]byte(src)))
	levels := make(map[int]int)
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			levels[h.Level]++
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return levels
}

func TestRender_StructureSurvivesTrickyContent(t *testing.T) {
	nested := record("Docs", pattern.TierBeginner)
	nested.GoodExample.Block = pattern.CodeBlock{
		Language: "markdown",
		Code:     "Some docs:\n  ```\n### Not A Pattern\n```\n",
	}
	setext := record("Errors", pattern.TierBeginner)
	setext.Rationale = "Why it matters\n---\nTyped errors stay visible.\n\nDetails\n==="

	doc, err := Aggregate("", []*pattern.Record{nested, setext, record("Layers", pattern.TierAdvanced)})
	require.NoError(t, err)

	levels := headingLevels(t, RenderMarkdown(doc))
	assert.Equal(t, 2, levels[1], "title and guidance part")
	assert.Equal(t, 3, levels[2], "one per tier")
	assert.Equal(t, doc.GeneratedCount, levels[3], "one per pattern")
	assert.Equal(t, 1, levels[4])
	assert.Equal(t, 1, levels[5])
}

func TestAppendGuidance(t *testing.T) {
	notes := "Team conventions: use 2-space indent."

	out := AppendGuidance("# Rules\n\nbody\n", &notes)
	assert.Equal(t, "# Rules\n\nbody\n\n"+GuidanceHeading+"\n\n"+notes+"\n", out)
	assert.NotContains(t, out, GuidancePlaceholder)

	out = AppendGuidance("# Rules\n", nil)
	assert.Equal(t, "# Rules\n\n"+GuidanceHeading+"\n\n"+GuidancePlaceholder+"\n", out)

	blank := " \n\n"
	out = AppendGuidance("# Rules\n", &blank)
	assert.Contains(t, out, GuidancePlaceholder)
	assert.Equal(t, 1, strings.Count(out, GuidanceHeading))
}

func TestAppendGuidance_Verbatim(t *testing.T) {
	notes := "## Local\n\n  - keep   spacing\n"
	out := AppendGuidance("x", &notes)
	assert.True(t, strings.HasSuffix(out, GuidanceHeading+"\n\n"+notes))
}

func TestRenderMarkdown_Idempotent(t *testing.T) {
	records := []*pattern.Record{
		record("Zebra", pattern.TierBeginner),
		record("Apple", pattern.TierIntermediate),
		record("Mango", pattern.TierAdvanced),
	}
	first, err := Aggregate("Rules", records)
	require.NoError(t, err)
	second, err := Aggregate("Rules", []*pattern.Record{records[2], records[0], records[1]})
	require.NoError(t, err)

	assert.Equal(t, RenderMarkdown(first), RenderMarkdown(second))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatMarkdown, "MD": FormatMarkdown, "html": FormatHTML, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)

	assert.Equal(t, ".md", FormatMarkdown.Extension())
	assert.Equal(t, ".html", FormatHTML.Extension())
	assert.Equal(t, ".json", FormatJSON.Extension())
}

func TestRenderHTML(t *testing.T) {
	doc, err := Aggregate("Rules & <Tips>", []*pattern.Record{record("Zebra", pattern.TierBeginner)})
	require.NoError(t, err)

	out, err := Encode(doc, FormatHTML)
	require.NoError(t, err)
	page := string(out)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>Rules &amp; &lt;Tips&gt;</title>")
	assert.Contains(t, page, `<h3 id="zebra">Zebra</h3>`)
	assert.Contains(t, page, `<code class="language-typescript">`)
	assert.Contains(t, page, GuidancePlaceholder)
}

func TestRenderJSON(t *testing.T) {
	notes := "Keep it small."
	doc, err := Aggregate("Rules", []*pattern.Record{record("Zebra", pattern.TierBeginner)})
	require.NoError(t, err)
	doc = doc.WithGuidance(&notes)

	out, err := Encode(doc, FormatJSON)
	require.NoError(t, err)

	var decoded struct {
		Title          string  `json:"title"`
		GeneratedCount int     `json:"generatedCount"`
		Fingerprint    string  `json:"fingerprint"`
		Guidance       *string `json:"guidance"`
		Sections       []struct {
			Tier     string `json:"tier"`
			Patterns []struct {
				Title  string `json:"title"`
				Tier   string `json:"tier"`
				Source string `json:"source"`
			} `json:"patterns"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, "Rules", decoded.Title)
	assert.Equal(t, 1, decoded.GeneratedCount)
	assert.Equal(t, Fingerprint([]byte(RenderMarkdown(doc))), decoded.Fingerprint)
	require.NotNil(t, decoded.Guidance)
	assert.Equal(t, notes, *decoded.Guidance)
	require.Len(t, decoded.Sections, 3)
	assert.Equal(t, "beginner", decoded.Sections[0].Tier)
	require.Len(t, decoded.Sections[0].Patterns, 1)
	assert.Equal(t, "zebra.md", decoded.Sections[0].Patterns[0].Source)
	assert.Empty(t, decoded.Sections[2].Patterns)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("same"))
	assert.Len(t, a, 16)
	assert.Equal(t, a, Fingerprint([]byte("same")))
	assert.NotEqual(t, a, Fingerprint([]byte("other")))
}

func TestDuplicates_ReportsEvery(t *testing.T) {
	a := record("Pipe", pattern.TierBeginner)
	b := record("PIPE", pattern.TierBeginner)
	b.Source = "b.md"
	c := record("pipe ", pattern.TierAdvanced)
	c.Source = "c.md"

	errs := Duplicates([]*pattern.Record{a, b, c, record("Other", pattern.TierBeginner)})
	require.Len(t, errs, 2)
	assert.Equal(t, []string{"pipe.md", "b.md"}, errs[0].Files)
	assert.Equal(t, []string{"pipe.md", "c.md"}, errs[1].Files)
}
