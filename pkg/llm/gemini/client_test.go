package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/resumeflow/pkg/llm"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Config{APIKey: "key", Model: "test-model", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestAskSendsJSONConfig(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent"), r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"skills\":[]}"}]}}]}`))
	})

	out, err := c.Ask(context.Background(), "sys", "user", llm.WithJSON(), llm.WithMaxTokens(300))
	require.NoError(t, err)
	assert.Equal(t, `{"skills":[]}`, out)

	gen, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing: %v", body)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.EqualValues(t, 300, gen["maxOutputTokens"])
	assert.InDelta(t, 0.2, gen["temperature"], 1e-6)
	assert.Contains(t, body["systemInstruction"], "parts")
}

func TestAskWithoutJSONLeavesMIMETypeUnset(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Dear team"}]}}]}`))
	})

	out, err := c.Ask(context.Background(), "sys", "user", llm.WithTemperature(0.7))
	require.NoError(t, err)
	assert.Equal(t, "Dear team", out)
	gen, _ := body["generationConfig"].(map[string]any)
	assert.NotContains(t, gen, "responseMimeType")
	assert.InDelta(t, 0.7, gen["temperature"], 1e-6)
}

func TestAskMapsFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "no candidates",
			status: http.StatusOK,
			body:   `{"candidates":[]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
			},
		},
		{
			name:   "blank text",
			status: http.StatusOK,
			body:   `{"candidates":[{"content":{"parts":[{"text":"  \n"}]}}]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
			},
		},
		{
			name:   "server error",
			status: http.StatusServiceUnavailable,
			body:   `{"error":{"code":503,"message":"model overloaded","status":"UNAVAILABLE"}}`,
			check: func(t *testing.T, err error) {
				var se *llm.StatusError
				require.True(t, errors.As(err, &se), "got %v", err)
				assert.Equal(t, "gemini", se.Provider)
				assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
				assert.Equal(t, "model overloaded", se.Body)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Ask(context.Background(), "sys", "user")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
