// Package pattern defines the records that make up a rules corpus.
// A Record is built once by the loader and is read-only afterwards.
package pattern

// CodeBlock is a fenced code block lifted from a pattern file
type CodeBlock struct {
	// Language is the fence info string (e.g. "typescript"); may be empty
	Language string `json:"language,omitempty"`

	// Code is the block body without the fences, newline-terminated
	Code string `json:"code"`
}

// Example is a code block plus the prose around it in its section
type Example struct {
	// Intro is prose that preceded the block
	Intro string `json:"intro,omitempty"`

	Block CodeBlock `json:"block"`

	// Notes is prose that followed the block
	Notes string `json:"notes,omitempty"`
}

// Record is one coding-pattern document
type Record struct {
	// Title is the human-readable name, unique within a corpus
	Title string `json:"title"`

	// Rule is the one-line prescriptive rule
	Rule string `json:"rule"`

	// UseCases classifies where the pattern applies
	UseCases []string `json:"useCases"`

	// Rationale explains why the rule matters
	Rationale string `json:"rationale"`

	// GoodExample is always present on a loaded record
	GoodExample Example `json:"goodExample"`

	// AntiPattern is optional
	AntiPattern *Example `json:"antiPattern,omitempty"`

	// Tier is set by the classifier; TierUnknown until then
	Tier Tier `json:"tier"`

	// TierTag is the raw tier metadata as authored
	TierTag string `json:"-"`

	// Source is the originating file, slash separated and relative to the input root
	Source string `json:"source"`
}

// HasAntiPattern reports whether the record carries an anti-pattern example
func (r *Record) HasAntiPattern() bool {
	return r.AntiPattern != nil
}

// WithTier returns a copy of the record assigned to the given tier.
// The receiver is left untouched.
func (r *Record) WithTier(t Tier) *Record {
	clone := *r
	clone.UseCases = append([]string(nil), r.UseCases...)
	clone.Tier = t
	return &clone
}
