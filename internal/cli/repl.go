package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	replPolicyPath string
	replNoColor    bool
)

var replCmd = &cobra.Command{
	Use:   "repl [flags]",
	Short: "Interactively evaluate commands against a policy",
	Args:  cobra.NoArgs,
	RunE:  runRepl,
}

func init() {
	replCmd.Flags().StringVar(&replPolicyPath, "policy", "", "Path to a policy file (default: embedded bundle)")
	replCmd.Flags().BoolVar(&replNoColor, "no-color", false, "Disable colored output")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	policy, err := loadPolicy(replPolicyPath)
	if err != nil {
		return err
	}

	source := replPolicyPath
	if source == "" {
		source = "default.policy (embedded)"
	}

	styles := DefaultStyles()
	if replNoColor {
		styles = PlainStyles()
	}

	program := tea.NewProgram(NewModel(policy, source, styles))
	_, err = program.Run()
	return err
}
