package execpolicy

import (
	"errors"
	"fmt"

	"go.starlark.net/starlark"
)

// ParsePolicy evaluates a policy script and returns the resulting Policy.
// The script runs in a sandboxed Starlark environment whose only predeclared
// name is the prefix_rule builtin; the default dialect has no while loops and
// no recursion, so evaluation always terminates. The name is used only in
// error messages.
//
// Any failure aborts the load: partial rules are discarded and no Policy is
// returned. Interpreter failures (syntax, name, and type errors) are wrapped
// in ConfigLanguageError; the loader's own validation failures surface as
// their typed errors (reachable with errors.As), prefixed with the name.
func ParsePolicy(name, source string) (*Policy, error) {
	builder := newPolicyBuilder()

	predeclared := starlark.StringDict{
		"prefix_rule": starlark.NewBuiltin("prefix_rule", builder.prefixRule),
	}

	thread := &starlark.Thread{Name: name}
	if _, err := starlark.ExecFile(thread, name, source, predeclared); err != nil {
		return nil, classifyLoadError(name, err)
	}

	return builder.build(), nil
}

// classifyLoadError surfaces the loader's own typed errors out of the
// interpreter's backtrace wrapper, prefixed with the source name, and wraps
// everything else.
func classifyLoadError(name string, err error) error {
	var (
		invalidDecision *InvalidDecisionError
		invalidPattern  *InvalidPatternError
		invalidExample  *InvalidExampleError
		didNotMatch     *ExampleDidNotMatchError
		didMatch        *ExampleDidMatchError
	)
	switch {
	case errors.As(err, &invalidDecision):
		return fmt.Errorf("%s: %w", name, invalidDecision)
	case errors.As(err, &invalidPattern):
		return fmt.Errorf("%s: %w", name, invalidPattern)
	case errors.As(err, &invalidExample):
		return fmt.Errorf("%s: %w", name, invalidExample)
	case errors.As(err, &didNotMatch):
		return fmt.Errorf("%s: %w", name, didNotMatch)
	case errors.As(err, &didMatch):
		return fmt.Errorf("%s: %w", name, didMatch)
	default:
		return &ConfigLanguageError{Source: name, Err: err}
	}
}

// prefixRule implements the prefix_rule builtin. It validates its arguments,
// fans out first-token alternatives into one rule per alternative, checks the
// inline examples against each emitted rule, and registers the rules with the
// builder.
func (b *policyBuilder) prefixRule(
	thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var (
		patternList  *starlark.List
		decisionVal  starlark.Value
		matchList    *starlark.List
		notMatchList *starlark.List
		idVal        starlark.Value
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs,
		"pattern", &patternList,
		"decision?", &decisionVal,
		"match?", &matchList,
		"not_match?", &notMatchList,
		"id?", &idVal,
	); err != nil {
		return nil, err
	}

	decision := DecisionAllow
	if decisionVal != nil && decisionVal != starlark.None {
		raw, ok := starlark.AsString(decisionVal)
		if !ok {
			return nil, &InvalidDecisionError{Raw: decisionVal.String()}
		}
		var err error
		if decision, err = ParseDecision(raw); err != nil {
			return nil, err
		}
	}

	heads, tail, err := parsePattern(patternList)
	if err != nil {
		return nil, err
	}

	positive, err := parseExamples(matchList)
	if err != nil {
		return nil, err
	}
	negative, err := parseExamples(notMatchList)
	if err != nil {
		return nil, err
	}

	var id string
	if idVal != nil && idVal != starlark.None {
		s, ok := starlark.AsString(idVal)
		if !ok {
			return nil, fmt.Errorf("%s: id must be a string, got %s", fn.Name(), idVal.Type())
		}
		id = s
	} else {
		id = b.allocID()
	}

	for _, head := range heads {
		rule := Rule{
			ID:       id,
			Pattern:  PrefixPattern{First: head, Tail: tail},
			Decision: decision,
		}
		if err := rule.ValidateExamples(positive, negative); err != nil {
			return nil, err
		}
		b.addRule(rule)
	}

	return starlark.None, nil
}

// parsePattern splits a pattern list into the first-token alternatives (the
// fan-out heads) and the tail tokens.
func parsePattern(list *starlark.List) (heads []string, tail []PatternToken, err error) {
	if list == nil || list.Len() == 0 {
		return nil, nil, &InvalidPatternError{Reason: "pattern cannot be empty"}
	}

	heads, err = patternAlternatives(list.Index(0))
	if err != nil {
		return nil, nil, err
	}

	tail = make([]PatternToken, 0, list.Len()-1)
	for i := 1; i < list.Len(); i++ {
		token, err := parseTailToken(list.Index(i))
		if err != nil {
			return nil, nil, err
		}
		tail = append(tail, token)
	}
	return heads, tail, nil
}

// patternAlternatives normalizes a pattern element to its list of accepted
// strings: one for a string literal, each member for a list.
func patternAlternatives(v starlark.Value) ([]string, error) {
	if s, ok := starlark.AsString(v); ok {
		return []string{s}, nil
	}
	list, ok := v.(*starlark.List)
	if !ok {
		return nil, &InvalidPatternError{Reason: "pattern element must be a string or list of strings"}
	}
	if list.Len() == 0 {
		return nil, &InvalidPatternError{Reason: "pattern alternatives cannot be empty"}
	}
	alts := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		s, ok := starlark.AsString(list.Index(i))
		if !ok {
			return nil, &InvalidPatternError{Reason: "pattern alternative must be a string"}
		}
		alts = append(alts, s)
	}
	return alts, nil
}

func parseTailToken(v starlark.Value) (PatternToken, error) {
	alts, err := patternAlternatives(v)
	if err != nil {
		return PatternToken{}, err
	}
	return NewAltsToken(alts)
}

// parseExamples converts a match/not_match argument into command token lists.
func parseExamples(list *starlark.List) ([][]string, error) {
	if list == nil {
		return nil, nil
	}
	examples := make([][]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		inner, ok := list.Index(i).(*starlark.List)
		if !ok {
			return nil, &InvalidExampleError{Reason: "example must be a list of strings"}
		}
		if inner.Len() == 0 {
			return nil, &InvalidExampleError{Reason: "example cannot be an empty list"}
		}
		tokens := make([]string, 0, inner.Len())
		for j := 0; j < inner.Len(); j++ {
			s, ok := starlark.AsString(inner.Index(j))
			if !ok {
				return nil, &InvalidExampleError{Reason: "example tokens must be strings"}
			}
			tokens = append(tokens, s)
		}
		examples = append(examples, tokens)
	}
	return examples, nil
}
