package loader

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatter is the optional YAML header of a pattern file.
// Aliases cover the key names used across existing pattern corpora.
type frontMatter struct {
	Title      string     `yaml:"title"`
	Tier       string     `yaml:"tier"`
	SkillLevel string     `yaml:"skillLevel"`
	Level      string     `yaml:"level"`
	UseCases   stringList `yaml:"useCases"`
	UseCase    stringList `yaml:"useCase"`
	Rule       ruleField  `yaml:"rule"`
}

func (fm *frontMatter) tier() string {
	for _, v := range []string{fm.Tier, fm.SkillLevel, fm.Level} {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (fm *frontMatter) useCases() []string {
	return append(append([]string(nil), fm.UseCases...), fm.UseCase...)
}

// stringList accepts either a YAML sequence or a comma-separated scalar
type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = splitList(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a list of strings", value.Line)
	}
}

// ruleField accepts `rule: text` or `rule: {description: text}`
type ruleField string

func (r *ruleField) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*r = ruleField(value.Value)
		return nil
	case yaml.MappingNode:
		var m struct {
			Description string `yaml:"description"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		*r = ruleField(m.Description)
		return nil
	default:
		return fmt.Errorf("line %d: rule must be a string or a mapping with a description", value.Line)
	}
}

// splitFrontMatter separates a leading `---` block from the body.
// bodyLine is the 1-based line number on which the body starts.
// A document without an opening delimiter has no front matter.
func splitFrontMatter(content string) (header string, body string, bodyLine int, found bool, err error) {
	const delimiter = "---"

	if !strings.HasPrefix(content, delimiter+"\n") {
		return "", content, 1, false, nil
	}

	start := len(delimiter) + 1
	rest := content[start:]

	var closeIdx int
	switch {
	case strings.HasPrefix(rest, delimiter+"\n") || rest == delimiter:
		closeIdx = 0
	default:
		idx := strings.Index(rest, "\n"+delimiter+"\n")
		if idx == -1 {
			if strings.HasSuffix(rest, "\n"+delimiter) {
				idx = len(rest) - len(delimiter) - 1
			} else {
				return "", content, 1, false, fmt.Errorf("no closing front matter delimiter")
			}
		}
		closeIdx = idx + 1
	}

	header = rest[:closeIdx]
	bodyStart := start + closeIdx + len(delimiter)
	if bodyStart < len(content) && content[bodyStart] == '\n' {
		bodyStart++
	}
	body = content[bodyStart:]
	bodyLine = strings.Count(content[:bodyStart], "\n") + 1

	return header, body, bodyLine, true, nil
}

func decodeFrontMatter(header string) (*frontMatter, error) {
	fm := &frontMatter{}
	if strings.TrimSpace(header) == "" {
		return fm, nil
	}
	if err := yaml.Unmarshal([]byte(header), fm); err != nil {
		return nil, err
	}
	return fm, nil
}

// splitList splits a comma-separated value, dropping blanks and duplicates
func splitList(s string) []string {
	return dedupe(strings.Split(s, ","))
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
