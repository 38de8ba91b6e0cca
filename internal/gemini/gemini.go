package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/ahmetzturk/yt-summarizer/internal/apperrors"
	"github.com/ahmetzturk/yt-summarizer/internal/breaker"
)

const DefaultModel = "gemini-2.5-flash"

// Options configures a Gemini client
type Options struct {
	APIKey          string
	Model           string
	BaseURL         string // overrides the API endpoint, empty for the default
	Timeout         time.Duration
	MaxOutputTokens int
	HTTPClient      *http.Client
	Breaker         *breaker.CircuitBreaker
}

// Client handles Gemini API operations
type Client struct {
	genai   *genai.Client
	model   string
	config  *genai.GenerateContentConfig
	breaker *breaker.CircuitBreaker
}

// NewClient creates a new Gemini API client
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, apperrors.E(apperrors.Configuration, "gemini.NewClient", nil, "Gemini API key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cc.HTTPOptions.Timeout = genai.Ptr(opts.Timeout)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	generation := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.3),
		TopP:        genai.Ptr[float32](0.8),
	}
	if opts.MaxOutputTokens > 0 {
		generation.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}

	return &Client{
		genai:   client,
		model:   opts.Model,
		config:  generation,
		breaker: opts.Breaker,
	}, nil
}

// Model returns the default model identifier
func (c *Client) Model() string {
	return c.model
}

// Summarize sends the prompt to the default model and returns the trimmed summary
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	return c.SummarizeWithModel(ctx, c.model, prompt)
}

// SummarizeWithModel sends the prompt to the given model; an empty model uses the default
func (c *Client) SummarizeWithModel(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = c.model
	}

	if c.breaker == nil {
		return c.generate(ctx, model, prompt)
	}

	result, err := c.breaker.ExecuteContext(ctx, func() (interface{}, error) {
		return c.generate(ctx, model, prompt)
	})
	if err != nil {
		if breaker.IsRejection(err) {
			return "", apperrors.E(apperrors.SummarizationFailed, "gemini.Summarize", err,
				"Gemini call failed: service temporarily unavailable")
		}
		return "", err
	}
	return result.(string), nil
}

func (c *Client) generate(ctx context.Context, model, prompt string) (string, error) {
	const op = "gemini.Summarize"

	resp, err := c.genai.Models.GenerateContent(ctx, model, genai.Text(prompt), c.config)
	if err != nil {
		return "", apperrors.E(apperrors.SummarizationFailed, op, err, "Gemini call failed")
	}
	if resp == nil {
		return "", apperrors.E(apperrors.SummarizationFailed, op, nil, "Gemini call failed: empty response")
	}

	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return "", apperrors.E(apperrors.SummarizationFailed, op, nil, "Gemini call failed: empty response")
	}

	return summary, nil
}

// StatusCode extracts the provider HTTP status from err, or 0
func StatusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// IsProviderFailure reports whether err should count against the Gemini breaker.
// Client-side errors (4xx other than 429) do not indicate an unhealthy provider.
func IsProviderFailure(err error) bool {
	if !apperrors.Is(err, apperrors.SummarizationFailed) || errors.Is(err, context.Canceled) {
		return false
	}
	code := StatusCode(err)
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return false
	}
	return true
}
