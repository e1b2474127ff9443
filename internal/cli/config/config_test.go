package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effect-patterns/rulebook/internal/loader"
	"github.com/effect-patterns/rulebook/internal/rules"
)

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	cfg, err := Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, DefaultInput, cfg.Input)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, "markdown", cfg.Format)
	assert.Equal(t, rules.DefaultTitle, cfg.Title)
	assert.Empty(t, cfg.GuidanceFile)
	assert.Equal(t, loader.DefaultInclude, cfg.Include)
	assert.Equal(t, loader.DefaultExclude, cfg.Exclude)
	assert.False(t, cfg.TierFromDirectory)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Empty(t, cfg.File)
}

func TestLoadWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	configContent := `
input: patterns
output: dist/rules.html
format: html
title: Team Rules
guidance_file: NOTES.md
include:
  - "**/*.md"
exclude:
  - "**/drafts/**"
tier_from_directory: true
workers: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rulebook.yml"), []byte(configContent), 0644))

	cfg, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, "patterns", cfg.Input)
	assert.Equal(t, "dist/rules.html", cfg.Output)
	assert.Equal(t, "html", cfg.Format)
	assert.Equal(t, "Team Rules", cfg.Title)
	assert.Equal(t, "NOTES.md", cfg.GuidanceFile)
	assert.Equal(t, []string{"**/*.md"}, cfg.Include)
	assert.Equal(t, []string{"**/drafts/**"}, cfg.Exclude)
	assert.True(t, cfg.TierFromDirectory)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "rulebook.yml", filepath.Base(cfg.File))
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: Custom\n"), 0644))

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "Custom", cfg.Title)
	assert.Equal(t, path, cfg.File)

	_, err = Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rulebook.yaml"), []byte("output: from-file.md\n"), 0644))
	t.Setenv("RULEBOOK_OUTPUT", "from-env.md")
	t.Setenv("RULEBOOK_TIER_FROM_DIRECTORY", "true")

	cfg, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "from-env.md", cfg.Output)
	assert.True(t, cfg.TierFromDirectory)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rulebook.yaml"), []byte("output: from-file.md\ntitle: File Title\n"), 0644))
	t.Setenv("RULEBOOK_OUTPUT", "from-env.md")

	flags := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	flags.StringP("output", "o", "", "")
	flags.String("title", "", "")
	flags.String("guidance", "", "")
	flags.Int("workers", 0, "")
	require.NoError(t, flags.Parse([]string{"-o", "from-flag.md", "--guidance", "NOTES.md"}))

	cfg, err := Load(LoadOptions{Dir: dir, Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "from-flag.md", cfg.Output)
	assert.Equal(t, "NOTES.md", cfg.GuidanceFile)
	assert.Equal(t, "File Title", cfg.Title, "unset flags do not mask file values")
	assert.Equal(t, runtime.NumCPU(), cfg.Workers, "unset flags do not mask defaults")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown format", "format: pdf\n"},
		{"zero workers", "workers: 0\n"},
		{"empty input", "input: \"\"\n"},
		{"bad glob", "include: [\"[\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "rulebook.yaml"), []byte(tt.content), 0644))
			_, err := Load(LoadOptions{Dir: dir})
			assert.Error(t, err)
		})
	}
}

func TestBuildOptions(t *testing.T) {
	cfg := &Config{Input: "in", Output: "out.json", Format: "json", Title: "T", Workers: 3}
	opts := cfg.BuildOptions(nil)

	assert.Equal(t, "in", opts.Input)
	assert.Equal(t, "out.json", opts.Output)
	assert.Equal(t, rules.FormatJSON, opts.Format)
	assert.Equal(t, 3, opts.Workers)
}

func TestBuildOptions_DefaultOutputFollowsFormat(t *testing.T) {
	cfg := &Config{Input: "in", Output: DefaultOutput, Format: "html"}
	assert.Equal(t, "rules/rules.html", cfg.BuildOptions(nil).Output)

	cfg.Format = "markdown"
	assert.Equal(t, DefaultOutput, cfg.BuildOptions(nil).Output)
}
