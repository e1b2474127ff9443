// Package classify assigns a difficulty tier to every loaded pattern record.
//
// The authored tier tag is the source of truth. Inferring a tier from the
// directory a file lives in is available but must be switched on explicitly.
package classify

import (
	"strings"

	rberrors "github.com/effect-patterns/rulebook/internal/errors"
	"github.com/effect-patterns/rulebook/internal/pattern"
	rbstrings "github.com/effect-patterns/rulebook/internal/util/strings"
)

// Classifier maps records to tiers. The zero value uses tags only.
type Classifier struct {
	// FromDirectory allows untagged records to take their tier from the first
	// path segment of Source that names a tier
	FromDirectory bool
}

// Classify returns the tier for a record. It is deterministic and never
// falls back to a default tier.
func (c Classifier) Classify(rec *pattern.Record) (pattern.Tier, error) {
	tag := strings.TrimSpace(rec.TierTag)

	if tag != "" {
		if tier, ok := pattern.ParseTier(tag); ok {
			return tier, nil
		}
		err := rberrors.NewUnknownTier(rec.Source, tag)
		if suggestions := rbstrings.FindSimilar(tag, pattern.TierNames(), nil); len(suggestions) > 0 {
			err = err.WithSuggestions(suggestions...)
		}
		return pattern.TierUnknown, err
	}

	if c.FromDirectory {
		if tier, ok := tierFromPath(rec.Source); ok {
			return tier, nil
		}
	}

	return pattern.TierUnknown, rberrors.NewUnclassified(rec.Source)
}

// All classifies records in order, returning classified copies.
// It stops at the first record that cannot be classified.
func (c Classifier) All(records []*pattern.Record) ([]*pattern.Record, error) {
	out := make([]*pattern.Record, 0, len(records))
	for _, rec := range records {
		tier, err := c.Classify(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, rec.WithTier(tier))
	}
	return out, nil
}

// Check classifies every record and collects all failures
func (c Classifier) Check(records []*pattern.Record) ([]*pattern.Record, rberrors.List) {
	out := make([]*pattern.Record, 0, len(records))
	var errs rberrors.List
	for _, rec := range records {
		tier, err := c.Classify(rec)
		if err != nil {
			if e, ok := rberrors.As(err); ok {
				errs = append(errs, e)
			}
			continue
		}
		out = append(out, rec.WithTier(tier))
	}
	return out, errs
}

// tierFromPath looks at directory segments only, never the file name
func tierFromPath(source string) (pattern.Tier, bool) {
	segments := strings.Split(source, "/")
	for _, seg := range segments[:len(segments)-1] {
		if tier, ok := pattern.ParseTier(seg); ok {
			return tier, true
		}
	}
	return pattern.TierUnknown, false
}
