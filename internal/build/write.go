package build

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	rberrors "github.com/effect-patterns/rulebook/internal/errors"
)

// WriteFile atomically replaces path with content through a temp file in the
// same directory. It reports unchanged, and writes nothing, when path already
// holds the same bytes.
func WriteFile(path string, content []byte) (unchanged bool, err error) {
	if existing, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existing, content) {
			return true, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, rberrors.NewIOError(path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, rberrors.NewIOError(dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".rulebook-*.tmp")
	if err != nil {
		return false, rberrors.NewIOError(path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()
		return false, rberrors.NewIOError(path, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return false, rberrors.NewIOError(path, err)
	}
	if err = tmp.Close(); err != nil {
		return false, rberrors.NewIOError(path, err)
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return false, rberrors.NewIOError(path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return false, rberrors.NewIOError(path, err)
	}
	return false, nil
}
