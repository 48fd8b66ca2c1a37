package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripFences(tt.in))
	}
}

func TestExtractJSON_SlicesPastProse(t *testing.T) {
	in := `Here are the results you asked for:
[{"code": "ME21N", "confidence": 0.95}]
Let me know if you need anything else.`

	out := ExtractJSON(in)

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	require.Len(t, parsed, 1)
	assert.Equal(t, "ME21N", parsed[0]["code"])
}

func TestExtractJSON_HandlesBracesInStrings(t *testing.T) {
	in := `{"explanation": "use {curly} braces and ]brackets["}`
	out := ExtractJSON(in)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Contains(t, parsed["explanation"], "{curly}")
}

func TestExtractJSON_NoPayloadReturnsInput(t *testing.T) {
	assert.Equal(t, "no structured output here", ExtractJSON("no structured output here"))
}

func TestExtractJSON_UnterminatedReturnsTail(t *testing.T) {
	in := `prose {"a": 1`
	assert.Equal(t, `{"a": 1`, ExtractJSON(in))
}
