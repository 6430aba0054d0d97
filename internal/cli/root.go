// Package cli implements the execpolicy command-line tool: a host surface
// around the policy engine with check, repl, and rules subcommands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/yukaa358-a11y/codex/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "execpolicy",
	Short: "Evaluate shell commands against an exec policy",
	Long: `execpolicy decides whether a shell command should be allowed, prompted
for, or forbidden. Policies are Starlark scripts built from prefix_rule
declarations; commands are supplied as already-tokenized argument lists.`,
	Version:       version.GitCommit,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
