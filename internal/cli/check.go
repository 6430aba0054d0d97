package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yukaa358-a11y/codex/internal/execpolicy"
)

var checkPolicyPath string

var checkCmd = &cobra.Command{
	Use:   "check [flags] -- COMMAND [ARGS...]",
	Short: "Evaluate a command against a policy and print the verdict as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkPolicyPath, "policy", "", "Path to a policy file (default: embedded bundle)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	policy, err := loadPolicy(checkPolicyPath)
	if err != nil {
		return err
	}

	eval := policy.Evaluate(args)

	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(verdictLine(DefaultStyles(), eval))
	}

	out, err := json.MarshalIndent(eval, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// loadPolicy reads and parses the policy at path, or the embedded default
// bundle when path is empty.
func loadPolicy(path string) (*execpolicy.Policy, error) {
	if path == "" {
		return execpolicy.LoadDefaultPolicy()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy at %s: %w", path, err)
	}
	return execpolicy.ParsePolicy(path, string(data))
}

// verdictLine renders a one-line human summary of an evaluation.
func verdictLine(styles Styles, eval execpolicy.Evaluation) string {
	if !eval.Matched() {
		return styles.NoMatch.Render("no match") + styles.Dim.Render(" (policy takes no position)")
	}
	ids := make([]string, 0, len(eval.Match.MatchedRules))
	for _, m := range eval.Match.MatchedRules {
		ids = append(ids, m.RuleID)
	}
	return styles.Decision(eval.Match.Decision).Render(eval.Match.Decision.String()) +
		styles.Dim.Render(" via "+strings.Join(ids, ", "))
}
