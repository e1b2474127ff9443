// Package scaffold writes skeleton pattern files for authors to fill in.
//
// A fresh skeleton deliberately fails validation: its example blocks are
// empty until the author writes the code.
package scaffold

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/effect-patterns/rulebook/internal/pattern"
	rbstrings "github.com/effect-patterns/rulebook/internal/util/strings"
)

//go:embed pattern.md.tmpl
var patternTemplate string

const (
	DefaultLanguage = "typescript"
	DefaultRule     = "State the rule in one sentence."
)

// Skeleton holds the answers used to render a new pattern file
type Skeleton struct {
	Title    string
	Tier     pattern.Tier
	UseCases []string
	Rule     string
	Language string
}

// Validate checks the fields a skeleton cannot be rendered without
func (s Skeleton) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("title is required")
	}
	if rbstrings.Slugify(s.Title) == "" {
		return fmt.Errorf("title %q has no letters or digits", s.Title)
	}
	if !s.Tier.Valid() {
		return fmt.Errorf("tier must be one of: %s", strings.Join(pattern.TierNames(), ", "))
	}
	if len(s.UseCases) == 0 {
		return errors.New("at least one use case is required")
	}
	return nil
}

// FileName is the slugified file name for the skeleton
func (s Skeleton) FileName() string {
	return rbstrings.Slugify(s.Title) + ".md"
}

// Engine renders skeletons
type Engine struct {
	tmpl *template.Template
}

// NewEngine parses the embedded pattern template
func NewEngine() *Engine {
	funcs := template.FuncMap{
		"yaml": yamlScalar,
	}
	return &Engine{
		tmpl: template.Must(template.New("pattern").Funcs(funcs).Parse(patternTemplate)),
	}
}

// Render returns the skeleton file content
func (e *Engine) Render(s Skeleton) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	s.Title = strings.TrimSpace(s.Title)
	if strings.TrimSpace(s.Rule) == "" {
		s.Rule = DefaultRule
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("failed to render pattern skeleton: %w", err)
	}
	return buf.Bytes(), nil
}

// Create writes the skeleton to <root>/<tier>/<slug>.md and returns the path.
// It refuses to overwrite an existing file.
func (e *Engine) Create(root string, s Skeleton) (string, error) {
	content, err := e.Render(s)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(root, s.Tier.Slug())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, s.FileName())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("pattern file already exists: %s", path)
		}
		return "", fmt.Errorf("failed to create pattern file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write pattern file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write pattern file: %w", err)
	}
	return path, nil
}

// yamlScalar encodes s as a single-line YAML scalar
func yamlScalar(s string) (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}
