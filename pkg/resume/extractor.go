package resume

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artem13815/resumeflow/pkg/llm"
)

var (
	// ErrExtractionService covers transport failures, error statuses and timeouts of the completion service.
	ErrExtractionService = errors.New("extraction service error")
	// ErrEmptyCompletion is returned when the completion service answered without content.
	ErrEmptyCompletion = errors.New("empty completion")
)

const (
	defaultExtractTimeout = 45 * time.Second
	defaultMaxInputChars  = 16000
)

const extractSystemPrompt = "You are a resume parser. Extract structured data from the resume text. " +
	"Respond with a single JSON object only, no markdown and no commentary. " +
	"Use empty strings for unknown values and [] for empty lists, never null. Do not invent facts."

const extractSchema = `{
  "personalInfo": {"name": string, "email": string, "phone": string, "location": string, "summary": string},
  "experience": [{"company": string, "title": string, "startDate": string, "endDate": string, "description": string}],
  "education": [{"school": string, "degree": string, "field": string, "graduationDate": string}],
  "skills": string[]
}`

// Extractor получает структурированное резюме из текста через LLM.
type Extractor struct {
	llm      llm.ChatModel
	timeout  time.Duration
	maxChars int
}

func NewExtractor(model llm.ChatModel, timeout time.Duration, maxChars int) *Extractor {
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	if maxChars <= 0 {
		maxChars = defaultMaxInputChars
	}
	return &Extractor{llm: model, timeout: timeout, maxChars: maxChars}
}

// Extract makes one completion call and one parse attempt.
func (e *Extractor) Extract(ctx context.Context, text string) (StructuredResume, error) {
	if e.llm == nil {
		return StructuredResume{}, fmt.Errorf("%w: completion service is not configured", ErrExtractionService)
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.llm.Ask(ctx, extractSystemPrompt, buildExtractPrompt(truncateRunes(text, e.maxChars)), llm.WithJSON(), llm.WithTemperature(0))
	if err != nil {
		if errors.Is(err, llm.ErrEmptyCompletion) {
			return StructuredResume{}, fmt.Errorf("%w: %w", ErrEmptyCompletion, err)
		}
		return StructuredResume{}, fmt.Errorf("%w: %w", ErrExtractionService, err)
	}
	if strings.TrimSpace(raw) == "" {
		return StructuredResume{}, ErrEmptyCompletion
	}
	return ParseStructured(raw)
}

func buildExtractPrompt(text string) string {
	return fmt.Sprintf("Resume text between markers:\n<<<\n%s\n>>>\n\nReturn exactly one JSON object with this shape:\n%s\n", text, extractSchema)
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
