package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/medspagpt/backend/logging"
	"github.com/medspagpt/backend/places"
)

// ErrMissingAPIKey is returned before any network call when no OpenAI key
// is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not configured")

// Website is a generated replacement site. The model emits a single HTML
// document with inline CSS/JS, so CSS and JS stay empty and Preview mirrors
// HTML for the client-side iframe.
type Website struct {
	HTML    string `json:"html"`
	CSS     string `json:"css"`
	JS      string `json:"js"`
	Preview string `json:"preview"`
	Type    string `json:"type"`
}

// Client wraps the OpenAI chat completion API for website generation and
// report writing. The remote model is treated as an opaque service.
type Client struct {
	api    *openai.Client
	model  string
	logger *logging.Logger
}

// NewClient creates a generator Client. A nil api is returned when the key
// is missing; calls then fail fast with ErrMissingAPIKey.
func NewClient(apiKey string, logger *logging.Logger) *Client {
	c := &Client{
		model:  openai.GPT4oMini,
		logger: logger,
	}
	if apiKey != "" {
		c.api = openai.NewClient(apiKey)
	}
	return c
}

// GenerateWebsite asks the model for a full replacement website.
func (c *Client) GenerateWebsite(ctx context.Context, userPrompt string, medSpa *places.PlaceDetails, services []string) (*Website, error) {
	if c.api == nil {
		return nil, ErrMissingAPIKey
	}

	prompt := BuildWebsitePrompt(userPrompt, medSpa, services)
	content, err := c.complete(ctx, prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("website generation failed: %w", err)
	}

	html := StripCodeFences(content)
	return &Website{
		HTML:    html,
		Preview: html,
		Type:    "html",
	}, nil
}

// GenerateSEOReport turns the aggregated analysis JSON into a plain-English
// report.
func (c *Client) GenerateSEOReport(ctx context.Context, seoData json.RawMessage) (string, error) {
	if c.api == nil {
		return "", ErrMissingAPIKey
	}

	report, err := c.complete(ctx, BuildReportPrompt(seoData), 0.5)
	if err != nil {
		return "", fmt.Errorf("report generation failed: %w", err)
	}
	return report, nil
}

func (c *Client) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
