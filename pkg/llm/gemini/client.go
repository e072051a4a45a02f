package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/artem13815/resumeflow/pkg/llm"
)

const defaultModel = "gemini-2.5-flash"

// Client adapts the Gemini API to llm.ChatModel.
type Client struct {
	Model  string
	models *genai.Models
}

type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API endpoint, e.g. for a proxy. Empty keeps the SDK default.
	BaseURL string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Client{Model: cfg.Model, models: c.Models}, nil
}

func (c *Client) Ask(ctx context.Context, systemPrompt, userPrompt string, opts ...llm.Option) (string, error) {
	o := llm.Apply(opts)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	}
	if o.Temperature != nil {
		cfg.Temperature = genai.Ptr(*o.Temperature)
	}
	if o.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(o.MaxTokens)
	}
	if o.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	resp, err := c.models.GenerateContent(ctx, c.Model, genai.Text(userPrompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &llm.StatusError{Provider: "gemini", StatusCode: apiErr.Code, Body: apiErr.Message}
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyCompletion
	}
	return text, nil
}
