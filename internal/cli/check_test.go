package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukaa358-a11y/codex/internal/execpolicy"
)

func TestLoadPolicy_DefaultBundle(t *testing.T) {
	p, err := loadPolicy("")
	require.NoError(t, err)
	assert.True(t, p.Evaluate([]string{"git", "status"}).Matched())
}

func TestLoadPolicy_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.policy")
	require.NoError(t, os.WriteFile(path, []byte(`prefix_rule(id = "echo", pattern = ["echo"])`), 0o644))

	p, err := loadPolicy(path)
	require.NoError(t, err)

	eval := p.Evaluate([]string{"echo", "hi"})
	require.True(t, eval.Matched())
	assert.Equal(t, "echo", eval.Match.MatchedRules[0].RuleID)
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	_, err := loadPolicy(filepath.Join(t.TempDir(), "nope.policy"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.policy")
}

func TestLoadPolicy_BadPolicySurfacesSourceName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.policy")
	require.NoError(t, os.WriteFile(path, []byte(`prefix_rule(`), 0o644))

	_, err := loadPolicy(path)
	var cfgErr *execpolicy.ConfigLanguageError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "broken.policy")
}

func TestVerdictLine(t *testing.T) {
	styles := PlainStyles()

	assert.Contains(t, verdictLine(styles, execpolicy.Evaluation{}), "no match")

	p, err := execpolicy.ParsePolicy("test.policy", `
prefix_rule(id = "prompt_git", pattern = ["git"], decision = "prompt")
prefix_rule(id = "allow_git_status", pattern = ["git", "status"])
`)
	require.NoError(t, err)

	line := verdictLine(styles, p.Evaluate([]string{"git", "status"}))
	assert.Contains(t, line, "prompt")
	assert.Contains(t, line, "prompt_git, allow_git_status")
}

func TestRenderPattern(t *testing.T) {
	p, err := execpolicy.ParsePolicy("test.policy", `prefix_rule(pattern = ["npm", ["i", "install"], "--save"])`)
	require.NoError(t, err)

	rules := p.Rules("npm")
	require.Len(t, rules, 1)
	assert.Equal(t, `["npm", ["i", "install"], "--save"]`, renderPattern(rules[0].Pattern))
}
