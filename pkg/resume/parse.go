package resume

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artem13815/resumeflow/pkg/llm"
	"github.com/artem13815/resumeflow/pkg/nlp"
)

// ErrMalformedExtraction is returned when the completion is not a JSON object of the expected shape.
var ErrMalformedExtraction = errors.New("malformed extraction")

// ParseStructured strictly parses a completion into StructuredResume.
// An optional markdown code fence around the payload is removed first.
func ParseStructured(raw string) (StructuredResume, error) {
	var out StructuredResume
	if err := llm.DecodeObject(raw, &out); err != nil {
		return StructuredResume{}, fmt.Errorf("%w: %w", ErrMalformedExtraction, err)
	}
	return out.normalized(), nil
}

func (r StructuredResume) normalized() StructuredResume {
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	skills := make([]string, 0, len(r.Skills))
	seen := make(map[string]struct{}, len(r.Skills))
	for _, s := range r.Skills {
		s = strings.TrimSpace(s)
		key := nlp.NormalizeSkill(s)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, s)
	}
	r.Skills = skills
	return r
}
