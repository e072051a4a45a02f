package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedJSON is returned when a completion is not exactly one JSON object.
var ErrMalformedJSON = errors.New("llm: malformed json completion")

// DecodeObject strictly decodes a completion that must hold a single JSON object.
// An optional markdown code fence around the payload is removed first.
func DecodeObject(raw string, v any) error {
	payload := StripCodeFence(raw)
	if !strings.HasPrefix(payload, "{") {
		return fmt.Errorf("%w: payload is not a JSON object", ErrMalformedJSON)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after object", ErrMalformedJSON)
	}
	return nil
}

// StripCodeFence removes a surrounding ``` or ```json fence, if any.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// language tag, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
