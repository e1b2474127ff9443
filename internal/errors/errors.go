// Package errors provides structured error handling for the rulebook pipeline.
// Every failure that aborts a run is an *Error carrying a code, a category and
// the offending input path, so the CLI can report it uniformly and exit non-zero.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode string

// ErrorCategory groups error codes by pipeline stage
type ErrorCategory string

const (
	// CategoryParse covers pattern files that do not match the template (PAR001-099)
	CategoryParse ErrorCategory = "parse"
	// CategoryClassification covers records with no determinable tier (CLS001-099)
	CategoryClassification ErrorCategory = "classification"
	// CategoryDuplicate covers title collisions across files (AGG001-099)
	CategoryDuplicate ErrorCategory = "duplicate"
	// CategoryIO covers file-system failures (IO001-099)
	CategoryIO ErrorCategory = "io"
)

// Error codes
const (
	// ErrMissingSection indicates a required template section is absent
	ErrMissingSection ErrorCode = "PAR001"
	// ErrMalformedFence indicates a code fence is unterminated or missing from its section
	ErrMalformedFence ErrorCode = "PAR002"
	// ErrMalformedFrontMatter indicates the YAML front matter could not be read
	ErrMalformedFrontMatter ErrorCode = "PAR003"
	// ErrUnclassified indicates a record carries no tier metadata
	ErrUnclassified ErrorCode = "CLS001"
	// ErrUnknownTier indicates tier metadata that names no tier
	ErrUnknownTier ErrorCode = "CLS002"
	// ErrDuplicateTitle indicates two records share a title
	ErrDuplicateTitle ErrorCode = "AGG001"
	// ErrIO indicates an underlying file-system failure
	ErrIO ErrorCode = "IO001"
)

// Error is a structured pipeline error
type Error struct {
	// Code is the unique error code (e.g. "PAR001")
	Code ErrorCode `json:"code"`
	// Category is the pipeline stage that failed
	Category ErrorCategory `json:"category"`
	// Message is the primary error message
	Message string `json:"message"`
	// File is the offending input path
	File string `json:"file,omitempty"`
	// Files lists every path involved when more than one file is at fault
	Files []string `json:"files,omitempty"`
	// Field names the missing or malformed template section
	Field string `json:"field,omitempty"`
	// Line is the 1-based line the problem was detected on, 0 when unknown
	Line int `json:"line,omitempty"`
	// Suggestions offers likely intended values
	Suggestions []string `json:"suggestions,omitempty"`
	// Err is the wrapped cause, if any
	Err error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return FormatCompact(e)
}

// Unwrap exposes the wrapped cause to errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

// Format returns a multi-line human-readable message
func (e *Error) Format() string {
	return FormatError(e)
}

// ToJSON returns the errors as an indented JSON array
func (l List) ToJSON() (string, error) {
	if l == nil {
		l = List{}
	}
	bytes, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// WithLine sets the source line for the error
func (e *Error) WithLine(line int) *Error {
	e.Line = line
	return e
}

// WithSuggestions sets suggestions for the error
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = suggestions
	return e
}

// List is a collection of pipeline errors
type List []*Error

// Error implements the error interface
func (l List) Error() string {
	if len(l) == 0 {
		return "no errors"
	}
	return FormatList(l)
}

// First returns the first error or nil
func (l List) First() *Error {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

// Err returns nil for an empty list so callers can return it directly
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// NewMissingSection creates a PAR001 error
func NewMissingSection(file, field string) *Error {
	return &Error{
		Code:     ErrMissingSection,
		Category: CategoryParse,
		Message:  fmt.Sprintf("missing required section %q", field),
		File:     file,
		Field:    field,
	}
}

// NewMalformedFence creates a PAR002 error
func NewMalformedFence(file, field, detail string) *Error {
	return &Error{
		Code:     ErrMalformedFence,
		Category: CategoryParse,
		Message:  fmt.Sprintf("malformed code fence in %q: %s", field, detail),
		File:     file,
		Field:    field,
	}
}

// NewMalformedFrontMatter creates a PAR003 error
func NewMalformedFrontMatter(file string, cause error) *Error {
	return &Error{
		Code:     ErrMalformedFrontMatter,
		Category: CategoryParse,
		Message:  fmt.Sprintf("malformed front matter: %v", cause),
		File:     file,
		Field:    "front matter",
		Err:      cause,
	}
}

// NewUnclassified creates a CLS001 error
func NewUnclassified(file string) *Error {
	return &Error{
		Code:     ErrUnclassified,
		Category: CategoryClassification,
		Message:  "pattern has no tier; add `tier: beginner|intermediate|advanced` to its front matter",
		File:     file,
		Field:    "tier",
	}
}

// NewUnknownTier creates a CLS002 error
func NewUnknownTier(file, tag string) *Error {
	return &Error{
		Code:     ErrUnknownTier,
		Category: CategoryClassification,
		Message:  fmt.Sprintf("unknown tier %q", tag),
		File:     file,
		Field:    "tier",
	}
}

// NewDuplicateTitle creates an AGG001 error naming both files
func NewDuplicateTitle(title, first, second string) *Error {
	return &Error{
		Code:     ErrDuplicateTitle,
		Category: CategoryDuplicate,
		Message:  fmt.Sprintf("duplicate title %q", title),
		File:     second,
		Files:    []string{first, second},
		Field:    "title",
	}
}

// NewIOError creates an IO001 error wrapping the cause verbatim
func NewIOError(path string, cause error) *Error {
	return &Error{
		Code:     ErrIO,
		Category: CategoryIO,
		Message:  cause.Error(),
		File:     path,
		Err:      cause,
	}
}

// As returns the first *Error in err's chain
func As(err error) (*Error, bool) {
	var target *Error
	if stderrors.As(err, &target) {
		return target, true
	}
	var list List
	if stderrors.As(err, &list) && len(list) > 0 {
		return list[0], true
	}
	return nil, false
}

func isCategory(err error, category ErrorCategory) bool {
	e, ok := As(err)
	return ok && e.Category == category
}

// IsParse reports whether err is a parse error
func IsParse(err error) bool { return isCategory(err, CategoryParse) }

// IsClassification reports whether err is an unclassified-pattern error
func IsClassification(err error) bool { return isCategory(err, CategoryClassification) }

// IsDuplicate reports whether err is a duplicate-title error
func IsDuplicate(err error) bool { return isCategory(err, CategoryDuplicate) }

// IsIO reports whether err is a file-system error
func IsIO(err error) bool { return isCategory(err, CategoryIO) }
