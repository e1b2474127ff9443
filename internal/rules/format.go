package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/effect-patterns/rulebook/internal/pattern"
)

// Format is an output encoding of the rules document
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats
var Formats = []Format{FormatMarkdown, FormatHTML, FormatJSON}

// ParseFormat resolves a format name. Empty selects markdown.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (expected markdown, html or json)", s)
}

// Extension is the conventional file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatJSON:
		return ".json"
	default:
		return ".md"
	}
}

// Encode renders the complete document, guidance included, in the given format
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatMarkdown, "":
		return []byte(RenderMarkdown(doc)), nil
	case FormatHTML:
		return RenderHTML(doc)
	case FormatJSON:
		return RenderJSON(doc)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// Fingerprint is the hex xxhash of data
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { max-width: 52rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.5; }
pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; }
hr { border: 0; border-top: 1px solid #d0d7de; margin: 2rem 0; }
</style>
</head>
<body>
<main>
%s</main>
</body>
</html>
`

// RenderHTML converts the markdown artifact into a standalone page
func RenderHTML(doc *Document) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(RenderMarkdown(doc)), &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to html: %w", err)
	}
	return []byte(fmt.Sprintf(pageTemplate, html.EscapeString(doc.Title), body.String())), nil
}

type jsonDocument struct {
	Title          string        `json:"title"`
	GeneratedCount int           `json:"generatedCount"`
	Fingerprint    string        `json:"fingerprint"`
	Sections       []jsonSection `json:"sections"`
	Guidance       *string       `json:"guidance"`
}

type jsonSection struct {
	Tier     pattern.Tier      `json:"tier"`
	Patterns []*pattern.Record `json:"patterns"`
}

// RenderJSON encodes the document as an indented index. The fingerprint is
// taken over the markdown artifact.
func RenderJSON(doc *Document) ([]byte, error) {
	out := jsonDocument{
		Title:          doc.Title,
		GeneratedCount: doc.GeneratedCount,
		Fingerprint:    Fingerprint([]byte(RenderMarkdown(doc))),
		Sections:       make([]jsonSection, 0, len(doc.Sections)),
	}
	if HasGuidance(doc.Guidance) {
		out.Guidance = doc.Guidance
	}
	for _, s := range doc.Sections {
		out.Sections = append(out.Sections, jsonSection{Tier: s.Tier, Patterns: s.Records})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rules document: %w", err)
	}
	return append(data, '\n'), nil
}
