package execpolicy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allow", DecisionAllow.String())
	assert.Equal(t, "prompt", DecisionPrompt.String())
	assert.Equal(t, "forbidden", DecisionForbidden.String())
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		input    string
		expected Decision
		wantErr  bool
	}{
		{"allow", DecisionAllow, false},
		{"prompt", DecisionPrompt, false},
		{"forbidden", DecisionForbidden, false},
		{"Allow", DecisionAllow, true},
		{"FORBIDDEN", DecisionAllow, true},
		{"deny", DecisionAllow, true},
		{"", DecisionAllow, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDecision(tt.input)
			if tt.wantErr {
				var invalid *InvalidDecisionError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.input, invalid.Raw)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, d)
			}
		})
	}
}

func TestDecision_Max(t *testing.T) {
	assert.Equal(t, DecisionAllow, DecisionAllow.Max(DecisionAllow))
	assert.Equal(t, DecisionPrompt, DecisionAllow.Max(DecisionPrompt))
	assert.Equal(t, DecisionForbidden, DecisionAllow.Max(DecisionForbidden))
	assert.Equal(t, DecisionPrompt, DecisionPrompt.Max(DecisionAllow))
	assert.Equal(t, DecisionForbidden, DecisionPrompt.Max(DecisionForbidden))
	assert.Equal(t, DecisionForbidden, DecisionForbidden.Max(DecisionAllow))
	assert.Equal(t, DecisionForbidden, DecisionForbidden.Max(DecisionForbidden))
}

func TestDecision_Ordering(t *testing.T) {
	assert.True(t, DecisionAllow < DecisionPrompt)
	assert.True(t, DecisionPrompt < DecisionForbidden)
}

func TestDecision_JSONRoundTrip(t *testing.T) {
	for _, d := range []Decision{DecisionAllow, DecisionPrompt, DecisionForbidden} {
		data, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, `"`+d.String()+`"`, string(data))

		var back Decision
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, d, back)
	}

	var d Decision
	err := json.Unmarshal([]byte(`"deny"`), &d)
	var invalid *InvalidDecisionError
	require.ErrorAs(t, err, &invalid)
}
