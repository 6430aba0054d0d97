// execpolicy evaluates shell commands against a Starlark exec policy.
//
// Usage:
//
//	execpolicy check -- git status           Evaluate against the embedded bundle
//	execpolicy check --policy team.policy -- rm -rf /
//	execpolicy repl                          Interactive policy tester
//	execpolicy rules list                    Show rules from ~/.codex/rules
//	execpolicy rules allow -- make test      Allow a command prefix
package main

import (
	"fmt"
	"os"

	"github.com/yukaa358-a11y/codex/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
