package execpolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultPolicy(t *testing.T) {
	p, err := LoadDefaultPolicy()
	require.NoError(t, err)

	tests := []struct {
		name     string
		cmd      []string
		decision Decision
	}{
		{"git status", []string{"git", "status"}, DecisionAllow},
		{"git diff", []string{"git", "diff", "--stat"}, DecisionAllow},
		{"ls", []string{"ls", "-la"}, DecisionAllow},
		{"git push", []string{"git", "push", "origin", "main"}, DecisionPrompt},
		{"npm install", []string{"npm", "install", "leftpad"}, DecisionPrompt},
		{"yarn add", []string{"yarn", "add", "leftpad"}, DecisionPrompt},
		{"rm -rf", []string{"rm", "-rf", "/tmp/scratch"}, DecisionForbidden},
		{"sudo", []string{"sudo", "ls"}, DecisionForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := p.Evaluate(tt.cmd)
			require.True(t, eval.Matched())
			assert.Equal(t, tt.decision, eval.Match.Decision)
		})
	}

	// The bundle takes no position on unknown programs.
	assert.False(t, p.Evaluate([]string{"terraform", "apply"}).Matched())
}
