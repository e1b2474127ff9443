package build

import (
	"context"

	"go.uber.org/zap"

	"github.com/effect-patterns/rulebook/internal/classify"
	rberrors "github.com/effect-patterns/rulebook/internal/errors"
	"github.com/effect-patterns/rulebook/internal/logging"
	"github.com/effect-patterns/rulebook/internal/pattern"
	"github.com/effect-patterns/rulebook/internal/rules"
)

// Report is the outcome of validating a corpus without writing output
type Report struct {
	// Records are the patterns that loaded and classified cleanly
	Records []*pattern.Record

	// Counts tallies Records per tier
	Counts map[pattern.Tier]int

	// Errors holds every pattern failure in discovery order, by stage
	Errors rberrors.List
}

// OK reports whether the corpus would generate
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks the guidance file and every pattern file and collects all
// failures: unreadable guidance, parse errors, classification errors and
// duplicate titles. The returned error is
// reserved for failures that stop validation itself, such as a missing root
// or cancellation.
func Validate(ctx context.Context, opts Options) (*Report, error) {
	log := logging.OrNop(opts.Logger)

	var errs rberrors.List
	if _, err := ReadGuidance(opts.GuidanceFile); err != nil {
		e, ok := rberrors.As(err)
		if !ok {
			return nil, err
		}
		errs = append(errs, e)
	}

	records, loadErrs, err := loaderCheck(ctx, opts)
	if err != nil {
		return nil, err
	}
	errs = append(errs, loadErrs...)

	classified, classErrs := classify.Classifier{FromDirectory: opts.TierFromDirectory}.Check(records)
	errs = append(errs, classErrs...)
	errs = append(errs, rules.Duplicates(classified)...)

	report := &Report{
		Records: classified,
		Counts:  Counts(classified),
		Errors:  errs,
	}
	log.Debug("validation finished",
		zap.Int("valid", len(classified)),
		zap.Int("errors", len(errs)),
	)
	return report, nil
}
