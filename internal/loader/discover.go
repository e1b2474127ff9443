package loader

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	rberrors "github.com/effect-patterns/rulebook/internal/errors"
)

var (
	// DefaultInclude matches markdown and MDX pattern files at any depth
	DefaultInclude = []string{"**/*.md", "**/*.mdx"}

	// DefaultExclude skips READMEs and underscore-prefixed drafts
	DefaultExclude = []string{"**/README.md", "**/_*"}
)

// ValidatePatterns checks that every glob is well formed
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern: %q", p)
		}
	}
	return nil
}

// Discover recursively finds pattern files under root.
// Paths are returned slash separated, relative to root, in lexical order.
// Hidden directories are never descended into.
func Discover(root string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}

	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return rberrors.NewIOError(path, err)
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return rberrors.NewIOError(path, relErr)
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			if !d.IsDir() {
				return rberrors.NewIOError(path, fmt.Errorf("input root is not a directory"))
			}
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || matchAny(exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchAny(include, rel) && !matchAny(exclude, rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		if e, ok := rberrors.As(err); ok {
			return nil, e
		}
		return nil, rberrors.NewIOError(root, err)
	}

	return files, nil
}

// Matches reports whether a root-relative path is selected by the globs.
// The watcher uses it to filter change events.
func Matches(rel string, include, exclude []string) bool {
	if len(include) == 0 {
		include = DefaultInclude
	}
	rel = filepath.ToSlash(rel)
	return matchAny(include, rel) && !matchAny(exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
