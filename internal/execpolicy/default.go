package execpolicy

import _ "embed"

//go:embed default.policy
var defaultPolicySource string

// LoadDefaultPolicy parses the policy bundle embedded at build time. Loading
// it is identical to loading any other script.
func LoadDefaultPolicy() (*Policy, error) {
	return ParsePolicy("default.policy", defaultPolicySource)
}
