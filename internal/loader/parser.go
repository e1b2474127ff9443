// Package loader discovers pattern files under a root directory and parses them
// into pattern records.
//
// A pattern file looks like:
//
//	---
//	tier: beginner
//	---
//	# Use X Pattern
//
//	**Rule:** Always prefer X.
//	**Use Cases:** error-management, testing
//
//	Why X matters...
//
//	## Good Example
//
//	```typescript
//	...
//	```
//
//	## Anti-Pattern
//
//	```typescript
//	...
//	```
//
// Front matter keys (title, tier, useCases, rule) take precedence over the
// equivalent body labels.
package loader

import (
	"regexp"
	"strings"

	rberrors "github.com/effect-patterns/rulebook/internal/errors"
	"github.com/effect-patterns/rulebook/internal/pattern"
)

// Section names used in parse errors
const (
	FieldTitle       = "title"
	FieldRule        = "rule"
	FieldUseCases    = "use cases"
	FieldRationale   = "rationale"
	FieldGoodExample = "Good Example"
	FieldAntiPattern = "Anti-Pattern"
)

// Result is the outcome of parsing one file: exactly one of Record or Err is set
type Result struct {
	Record *pattern.Record
	Err    *rberrors.Error
}

// OK reports whether parsing succeeded
func (r Result) OK() bool {
	return r.Err == nil && r.Record != nil
}

func success(rec *pattern.Record) Result { return Result{Record: rec} }

func failure(err *rberrors.Error) Result { return Result{Err: err} }

var (
	headingRe       = regexp.MustCompile(`^(#{1,6})[ \t]+(.*)$`)
	closingHashesRe = regexp.MustCompile(`[ \t]+#+[ \t]*$`)
	labelRe         = regexp.MustCompile(`(?i)^\*\*\s*(rule|use\s*cases?|tier|skill\s*level)\s*(?::\s*\*\*|\*\*\s*:)\s*(.*)$`)
	nonLetterRe     = regexp.MustCompile(`[^a-z]`)
)

type sectionKind int

const (
	sectionProse sectionKind = iota
	sectionGood
	sectionAnti
)

type line struct {
	text string
	num  int
}

type fence struct {
	char  byte
	size  int
	start int
}

// parser holds the state of a single-file parse
type parser struct {
	path string

	title    string
	rule     string
	useCases []string
	tierTag  string

	prose []string
	good  []line
	anti  []line

	sawGood bool
	sawAnti bool
}

// Parse parses one pattern file. path is used in error messages and as the
// record's Source. Parse never panics on malformed input.
func Parse(path string, content []byte) Result {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	header, body, bodyLine, _, err := splitFrontMatter(text)
	if err != nil {
		return failure(rberrors.NewMalformedFrontMatter(path, err).WithLine(1))
	}
	fm, err := decodeFrontMatter(header)
	if err != nil {
		return failure(rberrors.NewMalformedFrontMatter(path, err).WithLine(1))
	}

	p := &parser{path: path}
	if perr := p.scan(body, bodyLine); perr != nil {
		return failure(perr)
	}

	return p.build(fm)
}

// scan walks the body line by line, routing lines into sections.
// Lines inside code fences are never interpreted as headings or labels.
func (p *parser) scan(body string, firstLine int) *rberrors.Error {
	kind := sectionProse
	var open *fence

	lines := strings.Split(body, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	for i, raw := range lines {
		num := firstLine + i

		if open != nil {
			p.add(kind, raw, num)
			if closesFence(raw, open) {
				open = nil
			}
			continue
		}

		if f, ok := opensFence(raw); ok {
			f.start = num
			open = &f
			p.add(kind, raw, num)
			continue
		}

		if m := headingRe.FindStringSubmatch(raw); m != nil {
			level := len(m[1])
			text := strings.TrimSpace(closingHashesRe.ReplaceAllString(m[2], ""))

			if level == 1 && p.title == "" {
				p.title = text
				continue
			}
			if level >= 2 {
				switch sectionName(text) {
				case "goodexample", "example", "goodexamples", "examples":
					kind = sectionGood
					p.sawGood = true
					continue
				case "antipattern", "antipatterns", "badexample":
					kind = sectionAnti
					p.sawAnti = true
					continue
				case "rationale", "explanation", "why":
					kind = sectionProse
					continue
				default:
					kind = sectionProse
				}
			}
			p.add(kind, raw, num)
			continue
		}

		if kind == sectionProse && p.consumeLabel(raw) {
			continue
		}

		p.add(kind, raw, num)
	}

	if open != nil {
		field := FieldRationale
		switch kind {
		case sectionGood:
			field = FieldGoodExample
		case sectionAnti:
			field = FieldAntiPattern
		}
		return rberrors.NewMalformedFence(p.path, field, "unterminated code fence").WithLine(open.start)
	}
	return nil
}

func (p *parser) add(kind sectionKind, text string, num int) {
	switch kind {
	case sectionGood:
		p.good = append(p.good, line{text, num})
	case sectionAnti:
		p.anti = append(p.anti, line{text, num})
	default:
		p.prose = append(p.prose, text)
	}
}

// consumeLabel records a **Label:** line the first time each label is seen
func (p *parser) consumeLabel(raw string) bool {
	m := labelRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return false
	}
	value := strings.TrimSpace(m[2])

	switch nonLetterRe.ReplaceAllString(strings.ToLower(m[1]), "") {
	case "rule":
		if p.rule != "" {
			return false
		}
		p.rule = value
	case "usecases", "usecase":
		if p.useCases != nil {
			return false
		}
		p.useCases = splitList(value)
	case "tier", "skilllevel":
		if p.tierTag != "" {
			return false
		}
		p.tierTag = value
	default:
		return false
	}
	return true
}

// build applies front matter precedence and checks required sections
func (p *parser) build(fm *frontMatter) Result {
	rec := &pattern.Record{
		Title:   firstNonEmpty(fm.Title, p.title),
		Rule:    firstNonEmpty(string(fm.Rule), p.rule),
		TierTag: firstNonEmpty(fm.tier(), p.tierTag),
		Source:  p.path,
	}

	if useCases := dedupe(fm.useCases()); len(useCases) > 0 {
		rec.UseCases = useCases
	} else {
		rec.UseCases = p.useCases
	}

	rec.Rationale = trimBlankLines(strings.Join(p.prose, "\n"))

	switch {
	case rec.Title == "":
		return failure(rberrors.NewMissingSection(p.path, FieldTitle))
	case rec.Rule == "":
		return failure(rberrors.NewMissingSection(p.path, FieldRule))
	case len(rec.UseCases) == 0:
		return failure(rberrors.NewMissingSection(p.path, FieldUseCases))
	case rec.Rationale == "":
		return failure(rberrors.NewMissingSection(p.path, FieldRationale))
	case !p.sawGood:
		return failure(rberrors.NewMissingSection(p.path, FieldGoodExample))
	}

	good, err := p.example(FieldGoodExample, p.good)
	if err != nil {
		return failure(err)
	}
	rec.GoodExample = *good

	if p.sawAnti {
		anti, err := p.example(FieldAntiPattern, p.anti)
		if err != nil {
			return failure(err)
		}
		rec.AntiPattern = anti
	}

	return success(rec)
}

// example extracts the first fenced block of a section. Prose before it becomes
// the intro; everything after it, including any further fences, the notes.
func (p *parser) example(field string, lines []line) (*pattern.Example, *rberrors.Error) {
	var (
		intro []string
		notes []string
		code  []string
		lang  string
		found bool
		open  *fence
		start int
	)

	for _, l := range lines {
		switch {
		case open != nil:
			if closesFence(l.text, open) {
				open = nil
				found = true
				continue
			}
			code = append(code, l.text)
		case !found:
			if f, ok := opensFence(l.text); ok {
				open = &f
				start = l.num
				lang = fenceLanguage(l.text)
				continue
			}
			intro = append(intro, l.text)
		default:
			notes = append(notes, l.text)
		}
	}

	if !found {
		return nil, rberrors.NewMalformedFence(p.path, field, "no fenced code block")
	}
	body := strings.Join(code, "\n")
	if strings.TrimSpace(body) == "" {
		return nil, rberrors.NewMalformedFence(p.path, field, "empty code block").WithLine(start)
	}

	return &pattern.Example{
		Intro: trimBlankLines(strings.Join(intro, "\n")),
		Block: pattern.CodeBlock{
			Language: lang,
			Code:     body + "\n",
		},
		Notes: trimBlankLines(strings.Join(notes, "\n")),
	}, nil
}

// opensFence reports whether s opens a ``` or ~~~ fence
func opensFence(s string) (fence, bool) {
	t := strings.TrimLeft(s, " ")
	if len(s)-len(t) > 3 || len(t) < 3 {
		return fence{}, false
	}
	c := t[0]
	if c != '`' && c != '~' {
		return fence{}, false
	}
	n := 0
	for n < len(t) && t[n] == c {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	if c == '`' && strings.Contains(t[n:], "`") {
		return fence{}, false
	}
	return fence{char: c, size: n}, true
}

// closesFence reports whether s closes the given open fence
func closesFence(s string, f *fence) bool {
	t := strings.TrimLeft(s, " ")
	if len(s)-len(t) > 3 {
		return false
	}
	t = strings.TrimRight(t, " \t")
	if len(t) < f.size {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] != f.char {
			return false
		}
	}
	return true
}

func fenceLanguage(s string) string {
	info := strings.TrimLeft(strings.TrimSpace(s), "`~")
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func sectionName(heading string) string {
	return nonLetterRe.ReplaceAllString(strings.ToLower(heading), "")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// trimBlankLines drops leading and trailing blank lines, keeping the rest verbatim
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
