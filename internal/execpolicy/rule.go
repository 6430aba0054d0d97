package execpolicy

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// PatternTokenKind distinguishes single-value tokens from alternative sets.
type PatternTokenKind int

const (
	// PatternSingle matches exactly one string value.
	PatternSingle PatternTokenKind = iota
	// PatternAlts matches any of a set of alternative strings.
	PatternAlts
)

// PatternToken is a single element in a prefix pattern. It matches either
// exactly one string or any of a set of alternative strings.
type PatternToken struct {
	Kind   PatternTokenKind
	Single string   // used when Kind == PatternSingle
	Alts   []string // used when Kind == PatternAlts
}

// NewSingleToken returns a token matching exactly the given string.
// Empty strings are legal tokens.
func NewSingleToken(s string) PatternToken {
	return PatternToken{Kind: PatternSingle, Single: s}
}

// NewAltsToken returns a token matching any of the given alternatives.
// A single-element set is canonicalized to a PatternSingle so that
// len(alts) == 1 is never a separate case downstream.
func NewAltsToken(alts []string) (PatternToken, error) {
	if len(alts) == 0 {
		return PatternToken{}, &InvalidPatternError{Reason: "pattern alternatives cannot be empty"}
	}
	if len(alts) == 1 {
		return NewSingleToken(alts[0]), nil
	}
	return PatternToken{Kind: PatternAlts, Alts: alts}, nil
}

// Matches returns true if the token matches the given string.
// Comparison is byte-exact: no case folding, no trimming.
func (pt *PatternToken) Matches(s string) bool {
	switch pt.Kind {
	case PatternSingle:
		return pt.Single == s
	case PatternAlts:
		for _, alt := range pt.Alts {
			if alt == s {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// PrefixPattern matches a command prefix. The first token is always a fixed
// string because the policy indexes rules by it; alternatives in the first
// position are fanned out into separate rules at load time. Tail tokens may
// be either variant.
type PrefixPattern struct {
	First string
	Tail  []PatternToken
}

// Len returns the number of command tokens the pattern consumes.
func (pp PrefixPattern) Len() int {
	return len(pp.Tail) + 1
}

// MatchPrefix tests the pattern against the front of cmd. On success it
// returns a copy of the matched tokens; tokens beyond the pattern length are
// ignored, so a prefix pattern accepts any suffix.
func (pp PrefixPattern) MatchPrefix(cmd []string) ([]string, bool) {
	if len(cmd) < pp.Len() || cmd[0] != pp.First {
		return nil, false
	}
	for i, token := range pp.Tail {
		if !token.Matches(cmd[i+1]) {
			return nil, false
		}
	}
	matched := make([]string, pp.Len())
	copy(matched, cmd[:pp.Len()])
	return matched, true
}

// Rule is an identified prefix pattern plus a decision. Ids are not required
// to be unique; rules produced by first-token fan-out share one id.
type Rule struct {
	ID       string
	Pattern  PrefixPattern
	Decision Decision
}

// RuleMatch is the evidence produced when a rule matches a command.
type RuleMatch struct {
	RuleID        string   `json:"ruleId"`
	MatchedPrefix []string `json:"matchedPrefix"`
	Decision      Decision `json:"decision"`
}

// Matches tests the rule against a command and, on success, packages the
// rule's id and decision with the matched prefix.
func (r *Rule) Matches(cmd []string) (RuleMatch, bool) {
	prefix, ok := r.Pattern.MatchPrefix(cmd)
	if !ok {
		return RuleMatch{}, false
	}
	return RuleMatch{
		RuleID:        r.ID,
		MatchedPrefix: prefix,
		Decision:      r.Decision,
	}, true
}

// ValidateExamples checks the rule against its declared examples: every
// positive example must match, every negative must not. The first violation
// is returned. Runs at load time only.
func (r *Rule) ValidateExamples(positive, negative [][]string) error {
	for _, example := range positive {
		if _, ok := r.Matches(example); !ok {
			return &ExampleDidNotMatchError{RuleID: r.ID, Example: joinCommand(example)}
		}
	}
	for _, example := range negative {
		if _, ok := r.Matches(example); ok {
			return &ExampleDidMatchError{RuleID: r.ID, Example: joinCommand(example)}
		}
	}
	return nil
}

// joinCommand renders command tokens in a shell-safe joined form for error
// messages.
func joinCommand(cmd []string) string {
	quoted := make([]string, len(cmd))
	for i, token := range cmd {
		q, err := syntax.Quote(token, syntax.LangBash)
		if err != nil {
			q = token
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
