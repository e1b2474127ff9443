// Package rules turns classified pattern records into the rules document.
//
// Aggregate groups and orders the records, Render writes the markdown body and
// AppendGuidance adds the trailing project-specific section. The html and json
// encodings are derived from the same markdown so every format agrees.
package rules

import (
	"cmp"
	"slices"

	rberrors "github.com/effect-patterns/rulebook/internal/errors"
	"github.com/effect-patterns/rulebook/internal/pattern"
	rbstrings "github.com/effect-patterns/rulebook/internal/util/strings"
)

// DefaultTitle is used when no title is configured
const DefaultTitle = "Effect Coding Rules for AI"

// Section holds the records of one tier in output order
type Section struct {
	Tier    pattern.Tier
	Records []*pattern.Record
}

// Document is the aggregated, ordered view of a corpus
type Document struct {
	Title string

	// GeneratedCount always equals Count(doc)
	GeneratedCount int

	// Sections has exactly one entry per tier, Beginner first
	Sections []Section

	// Guidance is the repository guidance text; nil when none was found
	Guidance *string
}

// Aggregate validates title uniqueness and builds the ordered document.
// Records must already be classified. The input slice is not modified.
func Aggregate(title string, records []*pattern.Record) (*Document, error) {
	if title == "" {
		title = DefaultTitle
	}

	for _, rec := range records {
		if !rec.Tier.Valid() {
			return nil, rberrors.NewUnclassified(rec.Source)
		}
	}
	if dups := Duplicates(records); len(dups) > 0 {
		return nil, dups.First()
	}

	doc := &Document{Title: title}
	for _, tier := range pattern.Tiers {
		section := Section{Tier: tier, Records: []*pattern.Record{}}
		for _, rec := range records {
			if rec.Tier == tier {
				section.Records = append(section.Records, rec)
			}
		}
		slices.SortStableFunc(section.Records, compareTitles)
		doc.Sections = append(doc.Sections, section)
	}
	doc.GeneratedCount = Count(doc)

	return doc, nil
}

// Duplicates reports every record whose title folds to the title of an
// earlier record. Each error names the earlier source first.
func Duplicates(records []*pattern.Record) rberrors.List {
	var errs rberrors.List
	seen := make(map[string]*pattern.Record, len(records))
	for _, rec := range records {
		key := rbstrings.FoldKey(rec.Title)
		if first, ok := seen[key]; ok {
			errs = append(errs, rberrors.NewDuplicateTitle(rec.Title, first.Source, rec.Source))
			continue
		}
		seen[key] = rec
	}
	return errs
}

// Count is the number of records across all sections
func Count(doc *Document) int {
	n := 0
	for _, s := range doc.Sections {
		n += len(s.Records)
	}
	return n
}

// Section returns the section for a tier, or nil
func (d *Document) Section(tier pattern.Tier) *Section {
	for i := range d.Sections {
		if d.Sections[i].Tier == tier {
			return &d.Sections[i]
		}
	}
	return nil
}

// WithGuidance returns a shallow copy of the document carrying guidance
func (d *Document) WithGuidance(guidance *string) *Document {
	clone := *d
	clone.Guidance = guidance
	return &clone
}

func compareTitles(a, b *pattern.Record) int {
	if c := cmp.Compare(rbstrings.FoldKey(a.Title), rbstrings.FoldKey(b.Title)); c != 0 {
		return c
	}
	return cmp.Compare(a.Title, b.Title)
}
