package resume

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructuredPartialFillsEmpty(t *testing.T) {
	got, err := ParseStructured(`{"personalInfo":{"name":"Jane Doe"}}`)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.PersonalInfo.Name)
	assert.Equal(t, "", got.PersonalInfo.Email)
	assert.NotNil(t, got.Experience)
	assert.NotNil(t, got.Education)
	assert.NotNil(t, got.Skills)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"personalInfo":{"name":"Jane Doe","email":"","phone":"","location":"","summary":""},
		"experience":[],"education":[],"skills":[]
	}`, string(b))
}

func TestParseStructuredNullsBecomeEmpty(t *testing.T) {
	got, err := ParseStructured(`{"experience":null,"education":null,"skills":null}`)
	require.NoError(t, err)
	assert.Empty(t, got.Experience)
	assert.NotNil(t, got.Experience)
	assert.NotNil(t, got.Skills)
}

func TestParseStructuredStripsCodeFence(t *testing.T) {
	tests := map[string]string{
		"json fence":   "```json\n{\"skills\":[\"Go\"]}\n```",
		"bare fence":   "```\n{\"skills\":[\"Go\"]}\n```",
		"inline fence": "```json{\"skills\":[\"Go\"]}```",
		"no fence":     "  {\"skills\":[\"Go\"]}  ",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseStructured(raw)
			require.NoError(t, err)
			assert.Equal(t, []string{"Go"}, got.Skills)
		})
	}
}

func TestParseStructuredSkillsDeduped(t *testing.T) {
	got, err := ParseStructured(`{"skills":["Go"," go ","Rust","","C++","C#"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Rust", "C++", "C#"}, got.Skills)
}

func TestParseStructuredMalformed(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"prose":         "Here is the resume you asked for",
		"array":         `[{"skills":[]}]`,
		"null":          "null",
		"broken":        `{"skills":["Go"`,
		"wrong type":    `{"skills":"Go"}`,
		"trailing data": `{"skills":[]} {"skills":[]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStructured(raw)
			assert.ErrorIs(t, err, ErrMalformedExtraction)
		})
	}
}
