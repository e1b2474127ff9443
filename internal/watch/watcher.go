// Package watch regenerates the rules document when pattern files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/effect-patterns/rulebook/internal/loader"
	"github.com/effect-patterns/rulebook/internal/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of edits to settle
const DefaultDebounce = 200 * time.Millisecond

// Options configures a FileWatcher
type Options struct {
	// Root is the pattern directory, watched recursively
	Root string

	// Include and Exclude filter root-relative paths like discovery does
	Include []string
	Exclude []string

	// Files are extra individual files to watch, such as the guidance file
	Files []string

	Debounce time.Duration
	Logger   *zap.Logger
}

// FileWatcher monitors the pattern tree and triggers a callback per
// debounced batch of changes. Callbacks never run concurrently.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	root      string
	include   []string
	exclude   []string
	files     map[string]struct{}
	onChange  func([]string) error
	log       *zap.Logger
	stopChan  chan struct{}
	wg        sync.WaitGroup
	runMu     sync.Mutex
}

// NewFileWatcher creates a new file watcher instance
func NewFileWatcher(opts Options, onChange func([]string) error) (*FileWatcher, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(debounce),
		root:      root,
		include:   opts.Include,
		exclude:   opts.Exclude,
		files:     make(map[string]struct{}),
		onChange:  onChange,
		log:       logging.OrNop(opts.Logger),
		stopChan:  make(chan struct{}),
	}
	for _, f := range opts.Files {
		if f == "" {
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			fw.files[abs] = struct{}{}
		}
	}

	// Set debouncer callback
	fw.debouncer.SetCallback(func(files []string) {
		fw.runMu.Lock()
		defer fw.runMu.Unlock()
		if err := fw.onChange(files); err != nil {
			fw.log.Warn("regeneration failed", zap.Error(err))
		}
	})

	return fw, nil
}

// Start begins watching the file system
func (fw *FileWatcher) Start() error {
	if err := fw.addTree(fw.root); err != nil {
		return err
	}

	for f := range fw.files {
		dir := filepath.Dir(f)
		if dir == fw.root || strings.HasPrefix(dir, fw.root+string(filepath.Separator)) {
			continue
		}
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	// Start watching in background
	fw.wg.Add(1)
	go fw.watch()

	return nil
}

// Run starts the watcher and blocks until ctx is done
func (fw *FileWatcher) Run(ctx context.Context) error {
	if err := fw.Start(); err != nil {
		_ = fw.Stop()
		return err
	}
	<-ctx.Done()
	return fw.Stop()
}

// Stop stops the file watcher and waits for an in-flight callback
func (fw *FileWatcher) Stop() error {
	// Check if already stopped
	select {
	case <-fw.stopChan:
		return nil
	default:
		close(fw.stopChan)
	}

	fw.wg.Wait()
	fw.debouncer.Stop()
	return fw.watcher.Close()
}

// watch is the main event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

func (fw *FileWatcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// New directories under the root join the watch set
	if event.Op&fsnotify.Create != 0 && !fw.hidden(event.Name) {
		if err := fw.addTree(event.Name); err != nil {
			fw.log.Debug("could not watch new path", zap.String("path", event.Name), zap.Error(err))
		}
	}

	if !fw.Relevant(event.Name) {
		return
	}
	fw.log.Debug("file changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
	fw.debouncer.Add(event.Name)
}

// Relevant reports whether a change to path should trigger regeneration
func (fw *FileWatcher) Relevant(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if _, ok := fw.files[abs]; ok {
		return true
	}

	rel, err := filepath.Rel(fw.root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	if fw.hidden(abs) {
		return false
	}
	return loader.Matches(rel, fw.include, fw.exclude)
}

// hidden reports whether any segment below the root starts with a dot
func (fw *FileWatcher) hidden(path string) bool {
	rel, err := filepath.Rel(fw.root, path)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

// addTree watches dir and every non-hidden directory below it.
// Paths that are not directories are ignored.
func (fw *FileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to walk %s: %w", path, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != fw.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		fw.log.Debug("watching directory", zap.String("dir", path))
		return nil
	})
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopped  bool
	inflight sync.WaitGroup
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

// Add adds a file to the debouncer and restarts the delay
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush triggers the callback with the accumulated files, sorted
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if d.stopped || len(d.files) == 0 || d.callback == nil {
		d.mutex.Unlock()
		return
	}

	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	slices.Sort(files)
	d.files = make(map[string]struct{})

	callback := d.callback
	d.inflight.Add(1)
	d.mutex.Unlock()

	defer d.inflight.Done()
	callback(files)
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop cancels any pending flush and waits for a running callback to return
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mutex.Unlock()

	d.inflight.Wait()
}
