// Package build runs the rules pipeline end to end:
// load, classify, aggregate, render, append guidance and write.
//
// Any failure aborts the run before the output path is touched.
package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/effect-patterns/rulebook/internal/classify"
	rberrors "github.com/effect-patterns/rulebook/internal/errors"
	"github.com/effect-patterns/rulebook/internal/loader"
	"github.com/effect-patterns/rulebook/internal/logging"
	"github.com/effect-patterns/rulebook/internal/pattern"
	"github.com/effect-patterns/rulebook/internal/rules"
)

// Options configures one pipeline run
type Options struct {
	// Input is the pattern root directory
	Input string

	// Output is the artifact path. Empty leaves writing to the caller.
	Output string

	Format rules.Format
	Title  string

	// GuidanceFile is an optional companion file appended verbatim.
	// When set, the file must exist.
	GuidanceFile string

	Include           []string
	Exclude           []string
	TierFromDirectory bool
	Workers           int

	// DryRun renders without writing
	DryRun bool

	Logger *zap.Logger
}

// Result describes a finished run
type Result struct {
	Document *rules.Document

	// Content is the encoded artifact
	Content []byte

	// Fingerprint is the xxhash of Content
	Fingerprint string

	// Output is the path written, empty when nothing was written
	Output string

	// Unchanged is set when Output already held identical bytes
	Unchanged bool
}

// Run executes the pipeline. Nothing is written unless every stage succeeds.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := logging.OrNop(opts.Logger)

	doc, err := Assemble(ctx, opts)
	if err != nil {
		log.Debug("generation failed", zap.String("stage", failedStage(err)), zap.Error(err))
		return nil, err
	}

	content, err := rules.Encode(doc, opts.Format)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Document:    doc,
		Content:     content,
		Fingerprint: rules.Fingerprint(content),
	}

	if opts.DryRun || opts.Output == "" {
		log.Debug("rules document rendered", zap.Int("patterns", doc.GeneratedCount), zap.Bool("dry_run", opts.DryRun))
		return res, nil
	}

	unchanged, err := WriteFile(opts.Output, content)
	if err != nil {
		return nil, err
	}
	res.Output = opts.Output
	res.Unchanged = unchanged

	log.Info("rules document written",
		zap.String("output", opts.Output),
		zap.Int("patterns", doc.GeneratedCount),
		zap.String("fingerprint", res.Fingerprint),
		zap.Bool("unchanged", unchanged),
	)
	return res, nil
}

// Assemble loads, classifies and aggregates the corpus and attaches guidance.
// It stops at the first failure.
func Assemble(ctx context.Context, opts Options) (*rules.Document, error) {
	log := logging.OrNop(opts.Logger)

	guidance, err := ReadGuidance(opts.GuidanceFile)
	if err != nil {
		return nil, err
	}

	records, err := loader.LoadAll(ctx, opts.Input, opts.LoaderOptions())
	if err != nil {
		return nil, err
	}

	classified, err := classify.Classifier{FromDirectory: opts.TierFromDirectory}.All(records)
	if err != nil {
		return nil, err
	}

	doc, err := rules.Aggregate(opts.Title, classified)
	if err != nil {
		return nil, err
	}

	for _, s := range doc.Sections {
		log.Debug("tier aggregated", zap.Stringer("tier", s.Tier), zap.Int("patterns", len(s.Records)))
	}
	return doc.WithGuidance(guidance), nil
}

// ReadGuidance returns the guidance file content. An empty path means no
// guidance; a missing file at an explicit path is an error.
func ReadGuidance(path string) (*string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rberrors.NewIOError(path, err)
	}
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &content, nil
}

func loaderCheck(ctx context.Context, opts Options) ([]*pattern.Record, rberrors.List, error) {
	return loader.Check(ctx, opts.Input, opts.LoaderOptions())
}

// LoaderOptions applies the default globs and keeps the guidance file and
// the output artifact out of discovery when they live under the input root.
func (o Options) LoaderOptions() loader.Options {
	include := o.Include
	if len(include) == 0 {
		include = loader.DefaultInclude
	}
	exclude := o.Exclude
	if len(exclude) == 0 {
		exclude = loader.DefaultExclude
	}
	exclude = append([]string(nil), exclude...)

	for _, p := range []string{o.GuidanceFile, o.Output} {
		if rel, ok := relativeTo(o.Input, p); ok {
			exclude = append(exclude, escapeGlob(rel))
		}
	}

	return loader.Options{
		Include: include,
		Exclude: exclude,
		Workers: o.Workers,
		Logger:  o.Logger,
	}
}

func relativeTo(root, path string) (string, bool) {
	if root == "" || path == "" {
		return "", false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Counts tallies records per tier
func Counts(records []*pattern.Record) map[pattern.Tier]int {
	counts := make(map[pattern.Tier]int, len(pattern.Tiers))
	for _, rec := range records {
		counts[rec.Tier]++
	}
	return counts
}

// failedStage names the pipeline stage an error came from
func failedStage(err error) string {
	switch {
	case rberrors.IsIO(err):
		return "io"
	case rberrors.IsParse(err):
		return "load"
	case rberrors.IsClassification(err):
		return "classify"
	case rberrors.IsDuplicate(err):
		return "aggregate"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "unknown"
}

// IsPatternError reports whether err came from pattern content rather than
// the environment
func IsPatternError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	_, ok := rberrors.As(err)
	return ok && !rberrors.IsIO(err)
}
