package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```json{\"a\":1}```":     `{"a":1}`,
		"  \n{\"a\":1}\n ":        `{"a":1}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, StripCodeFence(in), "input %q", in)
	}
}

func TestDecodeObject(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	require.NoError(t, DecodeObject("```json\n{\"a\":7}\n```", &out))
	assert.Equal(t, 7, out.A)

	for _, bad := range []string{"", "sure! {\"a\":1}", `[{"a":1}]`, `{"a":1} {"a":2}`, `{"a":`} {
		assert.ErrorIs(t, DecodeObject(bad, &out), ErrMalformedJSON, "input %q", bad)
	}
}
