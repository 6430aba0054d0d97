package execpolicy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestPolicy(t *testing.T, rules ...Rule) *Policy {
	t.Helper()
	b := newPolicyBuilder()
	for _, r := range rules {
		b.addRule(r)
	}
	return b.build()
}

func TestPolicy_Evaluate_EmptyCommand(t *testing.T) {
	p := buildTestPolicy(t, Rule{ID: "echo", Pattern: PrefixPattern{First: "echo"}})
	assert.False(t, p.Evaluate(nil).Matched())
	assert.False(t, p.Evaluate([]string{}).Matched())
}

func TestPolicy_Evaluate_UnknownFirstToken(t *testing.T) {
	p := buildTestPolicy(t, Rule{ID: "echo", Pattern: PrefixPattern{First: "echo"}})
	assert.False(t, p.Evaluate([]string{"ls"}).Matched())
}

func TestPolicy_Evaluate_StrictestWins(t *testing.T) {
	p := buildTestPolicy(t,
		Rule{ID: "a", Pattern: PrefixPattern{First: "git"}, Decision: DecisionAllow},
		Rule{ID: "b", Pattern: PrefixPattern{First: "git"}, Decision: DecisionForbidden},
		Rule{ID: "c", Pattern: PrefixPattern{First: "git"}, Decision: DecisionPrompt},
	)

	eval := p.Evaluate([]string{"git", "status"})
	require.True(t, eval.Matched())
	assert.Equal(t, DecisionForbidden, eval.Match.Decision)

	// Evidence keeps load order, not decision order.
	ids := make([]string, 0, len(eval.Match.MatchedRules))
	for _, m := range eval.Match.MatchedRules {
		ids = append(ids, m.RuleID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestPolicy_Evaluate_OnlyMatchingRulesReported(t *testing.T) {
	p := buildTestPolicy(t,
		Rule{ID: "status", Pattern: PrefixPattern{First: "git", Tail: []PatternToken{NewSingleToken("status")}}, Decision: DecisionAllow},
		Rule{ID: "commit", Pattern: PrefixPattern{First: "git", Tail: []PatternToken{NewSingleToken("commit")}}, Decision: DecisionForbidden},
	)

	eval := p.Evaluate([]string{"git", "status"})
	require.True(t, eval.Matched())
	assert.Equal(t, DecisionAllow, eval.Match.Decision)
	require.Len(t, eval.Match.MatchedRules, 1)
	assert.Equal(t, "status", eval.Match.MatchedRules[0].RuleID)
}

func TestPolicy_Evaluate_Deterministic(t *testing.T) {
	p := buildTestPolicy(t,
		Rule{ID: "a", Pattern: PrefixPattern{First: "git"}, Decision: DecisionPrompt},
		Rule{ID: "b", Pattern: PrefixPattern{First: "git", Tail: []PatternToken{NewSingleToken("status")}}, Decision: DecisionAllow},
	)

	cmd := []string{"git", "status"}
	first := p.Evaluate(cmd)
	second := p.Evaluate(cmd)
	assert.Equal(t, first, second)
}

func TestPolicy_Rules_ReturnsCopy(t *testing.T) {
	p := buildTestPolicy(t, Rule{ID: "echo", Pattern: PrefixPattern{First: "echo"}})

	rules := p.Rules("echo")
	require.Len(t, rules, 1)
	rules[0].ID = "mutated"

	assert.Equal(t, "echo", p.Rules("echo")[0].ID)
	assert.Nil(t, p.Rules("ls"))
}

func TestPolicy_Programs(t *testing.T) {
	p := buildTestPolicy(t,
		Rule{ID: "a", Pattern: PrefixPattern{First: "git"}},
		Rule{ID: "b", Pattern: PrefixPattern{First: "echo"}},
		Rule{ID: "c", Pattern: PrefixPattern{First: "git"}},
	)
	assert.Equal(t, []string{"echo", "git"}, p.Programs())
}

func TestMerge(t *testing.T) {
	p1 := buildTestPolicy(t, Rule{ID: "first", Pattern: PrefixPattern{First: "git"}, Decision: DecisionAllow})
	p2 := buildTestPolicy(t, Rule{ID: "second", Pattern: PrefixPattern{First: "git"}, Decision: DecisionPrompt})

	merged := Merge(p1, p2)
	eval := merged.Evaluate([]string{"git", "status"})
	require.True(t, eval.Matched())
	assert.Equal(t, DecisionPrompt, eval.Match.Decision)
	require.Len(t, eval.Match.MatchedRules, 2)
	assert.Equal(t, "first", eval.Match.MatchedRules[0].RuleID)
	assert.Equal(t, "second", eval.Match.MatchedRules[1].RuleID)

	// Inputs stay usable on their own.
	assert.Len(t, p1.Rules("git"), 1)
}

func TestEvaluation_JSON_NoMatch(t *testing.T) {
	data, err := json.Marshal(Evaluation{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"noMatch":{}}`, string(data))

	var back Evaluation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.False(t, back.Matched())
}

func TestEvaluation_JSON_Match(t *testing.T) {
	eval := Evaluation{Match: &MatchEvaluation{
		Decision: DecisionPrompt,
		MatchedRules: []RuleMatch{
			{RuleID: "git_status", MatchedPrefix: []string{"git", "status"}, Decision: DecisionAllow},
			{RuleID: "prompt_git", MatchedPrefix: []string{"git"}, Decision: DecisionPrompt},
		},
	}}

	data, err := json.Marshal(eval)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"match": {
			"decision": "prompt",
			"matchedRules": [
				{"ruleId": "git_status", "matchedPrefix": ["git", "status"], "decision": "allow"},
				{"ruleId": "prompt_git", "matchedPrefix": ["git"], "decision": "prompt"}
			]
		}
	}`, string(data))

	var back Evaluation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, eval, back)
}
