package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yukaa358-a11y/codex/internal/execpolicy"
)

// historyLimit caps how many past evaluations the repl keeps on screen.
const historyLimit = 20

// replEntry is one evaluated command with its verdict.
type replEntry struct {
	cmd  []string
	eval execpolicy.Evaluation
}

// Model is the bubbletea model for the interactive policy tester. Each
// entered line is whitespace-tokenized and evaluated against the loaded
// policy; the verdict and its evidence are appended to the history.
type Model struct {
	policy *execpolicy.Policy
	source string
	styles Styles

	input   textinput.Model
	history []replEntry

	width int
}

// NewModel creates a repl model around a loaded policy. The source name is
// shown in the header.
func NewModel(policy *execpolicy.Policy, source string, styles Styles) Model {
	input := textinput.New()
	input.Placeholder = "git status --short"
	input.Prompt = "> "
	input.Focus()

	return Model{
		policy: policy,
		source: source,
		styles: styles,
		input:  input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			cmd := strings.Fields(line)
			m.history = append(m.history, replEntry{cmd: cmd, eval: m.policy.Evaluate(cmd)})
			if len(m.history) > historyLimit {
				m.history = m.history[len(m.history)-historyLimit:]
			}
			m.input.Reset()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Dim.Render(fmt.Sprintf("policy: %s", m.source)))
	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render("type a command to evaluate it; esc quits"))
	b.WriteString("\n\n")

	for _, entry := range m.history {
		b.WriteString(m.styles.Command.Render("> " + strings.Join(entry.cmd, " ")))
		b.WriteString("\n")
		b.WriteString(renderEvaluation(m.styles, entry.eval))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

// renderEvaluation renders a verdict with one evidence line per matched rule.
func renderEvaluation(styles Styles, eval execpolicy.Evaluation) string {
	if !eval.Matched() {
		return "  " + styles.NoMatch.Render("no match") + "\n"
	}

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(styles.Decision(eval.Match.Decision).Render(eval.Match.Decision.String()))
	b.WriteString("\n")
	for _, m := range eval.Match.MatchedRules {
		b.WriteString("    ")
		b.WriteString(styles.RuleID.Render(m.RuleID))
		b.WriteString(styles.Dim.Render(fmt.Sprintf(" %s → %s", strings.Join(m.MatchedPrefix, " "), m.Decision)))
		b.WriteString("\n")
	}
	return b.String()
}
