package loader

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	rberrors "github.com/effect-patterns/rulebook/internal/errors"
	"github.com/effect-patterns/rulebook/internal/logging"
	"github.com/effect-patterns/rulebook/internal/pattern"
)

// Options configures discovery and parsing
type Options struct {
	// Include and Exclude are doublestar globs over root-relative paths
	Include []string
	Exclude []string

	// Workers bounds concurrent parsing; <= 0 means GOMAXPROCS
	Workers int

	// Logger receives debug output; nil disables logging
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	return logging.OrNop(o.Logger)
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// LoadAll discovers and parses every pattern file under root.
// It fails on the first malformed or unreadable file in discovery order,
// returning no records.
func LoadAll(ctx context.Context, root string, opts Options) ([]*pattern.Record, error) {
	records, errs, err := load(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errs.First()
	}
	return records, nil
}

// Check is LoadAll that reports every failure instead of the first.
// Records that parsed are returned alongside the failures.
func Check(ctx context.Context, root string, opts Options) ([]*pattern.Record, rberrors.List, error) {
	return load(ctx, root, opts)
}

func load(ctx context.Context, root string, opts Options) ([]*pattern.Record, rberrors.List, error) {
	log := opts.logger()

	files, err := Discover(root, opts.Include, opts.Exclude)
	if err != nil {
		if e, ok := rberrors.As(err); ok {
			return nil, rberrors.List{e}, nil
		}
		return nil, nil, err
	}
	log.Debug("discovered pattern files", zap.String("root", root), zap.Int("count", len(files)))

	results := make([]Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				results[i] = failure(rberrors.NewIOError(rel, err))
				return nil
			}
			results[i] = Parse(rel, content)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	records := make([]*pattern.Record, 0, len(results))
	var errs rberrors.List
	for _, r := range results {
		if !r.OK() {
			log.Debug("pattern rejected", zap.String("file", r.Err.File), zap.String("code", string(r.Err.Code)))
			errs = append(errs, r.Err)
			continue
		}
		log.Debug("pattern parsed", zap.String("file", r.Record.Source), zap.String("title", r.Record.Title))
		records = append(records, r.Record)
	}

	return records, errs, nil
}
