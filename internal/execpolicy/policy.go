package execpolicy

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Policy holds rules keyed by their first pattern token for fast lookup.
// Within a bucket, rules keep the order in which the configuration script
// registered them. A Policy is immutable once built and safe to share across
// goroutines by read-only reference.
type Policy struct {
	rulesByProgram map[string][]Rule
}

// MatchEvaluation is the Match variant of an Evaluation: the strictest
// decision observed plus every rule match, in load order.
type MatchEvaluation struct {
	Decision     Decision    `json:"decision"`
	MatchedRules []RuleMatch `json:"matchedRules"`
}

// Evaluation is the verdict for one command: either NoMatch (Match is nil)
// or Match. NoMatch is not an error; it means the policy takes no position.
type Evaluation struct {
	Match *MatchEvaluation
}

// Matched reports whether any rule matched.
func (e Evaluation) Matched() bool {
	return e.Match != nil
}

type evaluationJSON struct {
	NoMatch *struct{}        `json:"noMatch,omitempty"`
	Match   *MatchEvaluation `json:"match,omitempty"`
}

// MarshalJSON serializes the verdict externally tagged:
// {"noMatch":{}} or {"match":{"decision":...,"matchedRules":[...]}}.
func (e Evaluation) MarshalJSON() ([]byte, error) {
	if e.Match == nil {
		return json.Marshal(evaluationJSON{NoMatch: &struct{}{}})
	}
	return json.Marshal(evaluationJSON{Match: e.Match})
}

// UnmarshalJSON parses the externally tagged form.
func (e *Evaluation) UnmarshalJSON(data []byte) error {
	var raw evaluationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Match != nil && raw.NoMatch != nil {
		return fmt.Errorf("evaluation cannot be both match and noMatch")
	}
	e.Match = raw.Match
	return nil
}

// Evaluate runs the command against every candidate rule and folds their
// decisions, strictest wins. Evaluation is a pure function: it never fails,
// and matched rules are reported in load order regardless of decision.
func (p *Policy) Evaluate(cmd []string) Evaluation {
	if len(cmd) == 0 {
		return Evaluation{}
	}
	var matched []RuleMatch
	strictest := DecisionAllow
	bucket := p.rulesByProgram[cmd[0]]
	for i := range bucket {
		if m, ok := bucket[i].Matches(cmd); ok {
			matched = append(matched, m)
			strictest = strictest.Max(m.Decision)
		}
	}
	if len(matched) == 0 {
		return Evaluation{}
	}
	return Evaluation{Match: &MatchEvaluation{
		Decision:     strictest,
		MatchedRules: matched,
	}}
}

// Rules returns the rules registered under the given first token, in load
// order. The returned slice is a copy.
func (p *Policy) Rules(program string) []Rule {
	bucket := p.rulesByProgram[program]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]Rule, len(bucket))
	copy(out, bucket)
	return out
}

// Programs returns the sorted set of first tokens with at least one rule.
func (p *Policy) Programs() []string {
	programs := make([]string, 0, len(p.rulesByProgram))
	for program := range p.rulesByProgram {
		programs = append(programs, program)
	}
	sort.Strings(programs)
	return programs
}

// Merge combines several policies into a new one. Buckets are concatenated
// in argument order, so earlier policies' rules keep precedence in the
// reported evidence order. The inputs are not modified.
func Merge(policies ...*Policy) *Policy {
	merged := make(map[string][]Rule)
	for _, p := range policies {
		for program, rules := range p.rulesByProgram {
			merged[program] = append(merged[program], rules...)
		}
	}
	return &Policy{rulesByProgram: merged}
}

// policyBuilder accumulates rules while the configuration script runs. It is
// owned by a single loader invocation and never escapes; build hands the rule
// map to the immutable Policy.
type policyBuilder struct {
	rulesByProgram map[string][]Rule
	nextAutoID     int
}

func newPolicyBuilder() *policyBuilder {
	return &policyBuilder{rulesByProgram: make(map[string][]Rule)}
}

// allocID returns the next auto-generated rule id. Called once per
// prefix_rule invocation, so rules produced by fan-out share one id.
func (b *policyBuilder) allocID() string {
	id := fmt.Sprintf("rule_%d", b.nextAutoID)
	b.nextAutoID++
	return id
}

func (b *policyBuilder) addRule(r Rule) {
	b.rulesByProgram[r.Pattern.First] = append(b.rulesByProgram[r.Pattern.First], r)
}

func (b *policyBuilder) build() *Policy {
	return &Policy{rulesByProgram: b.rulesByProgram}
}
