package execpolicy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager holds a live policy loaded from a rules directory. The policy
// itself stays immutable; AppendAndReload swaps in a freshly parsed
// replacement under the lock.
type Manager struct {
	mu     sync.RWMutex
	policy *Policy
}

// NewManager creates a manager around a pre-built policy.
func NewManager(policy *Policy) *Manager {
	return &Manager{policy: policy}
}

// LoadDir reads all *.rules files from dir, in lexical filename order, and
// merges them into one policy. A missing directory yields an empty policy.
// Auto-generated rule ids restart per file; duplicate ids across files are
// permitted, as within a single policy.
func LoadDir(dir string) (*Manager, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManager(Merge()), nil
		}
		return nil, err
	}

	policies := make([]*Policy, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rules") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		p, err := ParsePolicy(path, string(data))
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}

	return NewManager(Merge(policies...)), nil
}

// Policy returns the current policy.
func (m *Manager) Policy() *Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policy
}

// Evaluate runs a command against the current policy.
func (m *Manager) Evaluate(cmd []string) Evaluation {
	return m.Policy().Evaluate(cmd)
}

// AppendAndReload appends an allow rule for the given prefix to
// dir/default.rules and swaps in the re-parsed policy.
func (m *Manager) AppendAndReload(dir string, prefix []string) error {
	rulesFile := filepath.Join(dir, "default.rules")
	if err := AppendAllowRule(rulesFile, prefix); err != nil {
		return err
	}

	reloaded, err := LoadDir(dir)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = reloaded.policy
	return nil
}

// AppendAllowRule appends a prefix_rule with decision="allow" to the given
// rules file. Creates the file and parent directories if needed; an exact
// duplicate of the rendered line is skipped.
func AppendAllowRule(rulesFile string, prefix []string) error {
	if len(prefix) == 0 {
		return &InvalidPatternError{Reason: "pattern cannot be empty"}
	}

	line := renderAllowRule(prefix)

	if err := os.MkdirAll(filepath.Dir(rulesFile), 0o755); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}

	existing, err := os.ReadFile(rulesFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read rules file: %w", err)
	}
	if strings.Contains(string(existing), line) {
		return nil
	}

	f, err := os.OpenFile(rulesFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open rules file: %w", err)
	}
	defer f.Close()

	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("failed to write newline: %w", err)
		}
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write rule: %w", err)
	}
	return nil
}

// renderAllowRule builds the prefix_rule call appended by AppendAllowRule.
func renderAllowRule(prefix []string) string {
	parts := make([]string, len(prefix))
	for i, p := range prefix {
		parts[i] = fmt.Sprintf("%q", p)
	}
	return fmt.Sprintf("prefix_rule(pattern = [%s], decision = \"allow\")", strings.Join(parts, ", "))
}
