package llm

import (
	"context"
	"errors"
	"fmt"
)

// ChatModel is a minimal abstraction for chat-based LLMs used by the domain.
// It hides concrete providers to preserve dependency direction.
type ChatModel interface {
	Ask(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (string, error)
}

// ErrEmptyCompletion is returned when the provider answered successfully but without content.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// StatusError reports a non-2xx answer from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Options tune a single completion call.
type Options struct {
	JSON        bool
	Temperature *float32
	MaxTokens   int
}

type Option func(*Options)

// WithJSON asks the provider to return a JSON document.
func WithJSON() Option { return func(o *Options) { o.JSON = true } }

func WithTemperature(t float32) Option { return func(o *Options) { o.Temperature = &t } }

func WithMaxTokens(n int) Option { return func(o *Options) { o.MaxTokens = n } }

// Apply folds opts into Options.
func Apply(opts []Option) Options {
	var o Options
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
