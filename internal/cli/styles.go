package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/yukaa358-a11y/codex/internal/execpolicy"
)

// Styles holds the lipgloss styles shared by the check verdict line and the
// repl.
type Styles struct {
	// Allow / Prompt / Forbidden verdicts
	Allow     lipgloss.Style
	Prompt    lipgloss.Style
	Forbidden lipgloss.Style
	// NoMatch verdict
	NoMatch lipgloss.Style
	// Entered command echo
	Command lipgloss.Style
	// Matched rule ids
	RuleID lipgloss.Style
	// Dimmed detail text
	Dim lipgloss.Style
}

// DefaultStyles returns styles with colors enabled.
func DefaultStyles() Styles {
	return Styles{
		Allow:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true), // green
		Prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true), // yellow
		Forbidden: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true), // red
		NoMatch:   lipgloss.NewStyle().Faint(true),
		Command:   lipgloss.NewStyle().Bold(true),
		RuleID:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")), // cyan
		Dim:       lipgloss.NewStyle().Faint(true),
	}
}

// PlainStyles returns styles with no colors, for non-TTY output.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Allow:     plain,
		Prompt:    plain,
		Forbidden: plain,
		NoMatch:   plain,
		Command:   plain,
		RuleID:    plain,
		Dim:       plain,
	}
}

// Decision returns the style for a decision verdict.
func (s Styles) Decision(d execpolicy.Decision) lipgloss.Style {
	switch d {
	case execpolicy.DecisionAllow:
		return s.Allow
	case execpolicy.DecisionPrompt:
		return s.Prompt
	case execpolicy.DecisionForbidden:
		return s.Forbidden
	default:
		return s.NoMatch
	}
}
