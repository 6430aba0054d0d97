package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yukaa358-a11y/codex/internal/execpolicy"
)

var rulesDir string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and amend a rules directory",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules loaded from the rules directory",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesAllowCmd = &cobra.Command{
	Use:   "allow -- PREFIX [TOKENS...]",
	Short: "Append an allow rule for a command prefix",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRulesAllow,
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesDir, "dir", "", "Rules directory (default: ~/.codex/rules)")
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAllowCmd)
	rootCmd.AddCommand(rulesCmd)
}

func resolveRulesDir() (string, error) {
	if rulesDir != "" {
		return rulesDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve rules directory: %w", err)
	}
	return filepath.Join(home, ".codex", "rules"), nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	dir, err := resolveRulesDir()
	if err != nil {
		return err
	}
	manager, err := execpolicy.LoadDir(dir)
	if err != nil {
		return err
	}

	policy := manager.Policy()
	for _, program := range policy.Programs() {
		for _, rule := range policy.Rules(program) {
			fmt.Printf("%-20s %-10s %s\n", rule.ID, rule.Decision, renderPattern(rule.Pattern))
		}
	}
	return nil
}

func runRulesAllow(cmd *cobra.Command, args []string) error {
	dir, err := resolveRulesDir()
	if err != nil {
		return err
	}
	manager, err := execpolicy.LoadDir(dir)
	if err != nil {
		return err
	}
	if err := manager.AppendAndReload(dir, args); err != nil {
		return err
	}
	fmt.Printf("allowed prefix: %s\n", strings.Join(args, " "))
	return nil
}

// renderPattern renders a pattern the way the policy script would spell it.
func renderPattern(pattern execpolicy.PrefixPattern) string {
	tokens := []string{fmt.Sprintf("%q", pattern.First)}
	for _, token := range pattern.Tail {
		switch token.Kind {
		case execpolicy.PatternSingle:
			tokens = append(tokens, fmt.Sprintf("%q", token.Single))
		case execpolicy.PatternAlts:
			alts := make([]string, len(token.Alts))
			for i, alt := range token.Alts {
				alts[i] = fmt.Sprintf("%q", alt)
			}
			tokens = append(tokens, "["+strings.Join(alts, ", ")+"]")
		}
	}
	return "[" + strings.Join(tokens, ", ") + "]"
}
