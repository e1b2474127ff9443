package commands

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/effect-patterns/rulebook/internal/cli/ui"
	"github.com/effect-patterns/rulebook/internal/pattern"
	"github.com/effect-patterns/rulebook/internal/scaffold"
)

// NewNewCommand creates the new command
func NewNewCommand(g *Globals) *cobra.Command {
	var (
		title    string
		tierName string
		useCases []string
		rule     string
		language string
		dir      string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a skeleton pattern file",
		Long: `Create a new pattern file under <dir>/<tier>/<slug>.md.

Missing values are prompted for. The skeleton fails validation until its
Good Example block contains code.

Examples:
  rulebook new
  rulebook new --title "Use Pipe for Composition" --tier beginner --use-cases composition`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				// --title names the pattern, not the document, so flags stay unbound
				cfg, err := g.loadConfig(nil, nil)
				if err != nil {
					return err
				}
				dir = cfg.Input
			}

			if title == "" {
				prompt := &survey.Input{
					Message: "Pattern title:",
				}
				if err := survey.AskOne(prompt, &title, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
			}

			tier := pattern.TierUnknown
			if tierName != "" {
				t, ok := pattern.ParseTier(tierName)
				if !ok {
					return fmt.Errorf("unknown tier %q (expected one of: %s)", tierName, strings.Join(pattern.TierNames(), ", "))
				}
				tier = t
			} else {
				var selectedIdx int
				prompt := &survey.Select{
					Message: "Skill level:",
					Options: pattern.TierNames(),
				}
				if err := survey.AskOne(prompt, &selectedIdx); err != nil {
					return err
				}
				tier = pattern.Tiers[selectedIdx]
			}

			if len(useCases) == 0 {
				var answer string
				prompt := &survey.Input{
					Message: "Use cases (comma separated):",
				}
				if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
				useCases = splitList(answer)
			}

			if rule == "" && !cmd.Flags().Changed("rule") {
				prompt := &survey.Input{
					Message: "Rule (one sentence):",
					Default: scaffold.DefaultRule,
				}
				if err := survey.AskOne(prompt, &rule); err != nil {
					return err
				}
			}

			path, err := scaffold.NewEngine().Create(dir, scaffold.Skeleton{
				Title:    title,
				Tier:     tier,
				UseCases: useCases,
				Rule:     rule,
				Language: language,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ui.WriteSuccess(out, fmt.Sprintf("Created %s", path), g.NoColor)
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "  1. Fill in the rationale and the Good Example code block")
			fmt.Fprintln(out, "  2. rulebook validate --all")
			fmt.Fprintln(out, "  3. rulebook generate")
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Pattern title")
	cmd.Flags().StringVar(&tierName, "tier", "", "Skill level: beginner, intermediate or advanced")
	cmd.Flags().StringSliceVar(&useCases, "use-cases", nil, "Use cases (comma separated)")
	cmd.Flags().StringVar(&rule, "rule", "", "One-sentence rule")
	cmd.Flags().StringVar(&language, "language", scaffold.DefaultLanguage, "Language of the example code blocks")
	cmd.Flags().StringVar(&dir, "dir", "", "Pattern directory (default: configured input)")

	return cmd
}

// splitList splits a comma separated answer, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
