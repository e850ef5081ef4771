package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"lectern/internal/services"
)

// DefaultModel is used when configuration does not name one.
const DefaultModel = "gemini-2.5-pro"

// Config captures runtime settings for the Gemini client.
type Config struct {
	// APIKey authenticates against the Gemini API.
	APIKey string
	// Model is the Gemini model name.
	Model string
	// MaxOutputTokens bounds the response length. Zero means the API default.
	MaxOutputTokens int
	// Timeout bounds a single generation call. Zero disables the bound.
	Timeout time.Duration
}

// Client calls the Gemini API to produce study notes. It is safe for
// concurrent use; the underlying SDK client multiplexes requests.
type Client struct {
	cfg    Config
	model  string
	invoke func(ctx context.Context, model string, contents []*genai.Content, gc *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewClient validates the configuration and constructs the SDK client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "create client",
			"api key is required", nil)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "create client", "", err)
	}

	return &Client{
		cfg:    cfg,
		model:  model,
		invoke: sdk.Models.GenerateContent,
	}, nil
}

// Model returns the model name in use.
func (c *Client) Model() string { return c.model }

// Generate sends the instruction prompt and source text to the model and
// returns the generated markdown. Rate limits and deadline overruns come back
// as transient errors so the caller's retry loop can distinguish them.
func (c *Client) Generate(ctx context.Context, prompt, source string) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	var gc *genai.GenerateContentConfig
	if c.cfg.MaxOutputTokens > 0 {
		gc = &genai.GenerateContentConfig{MaxOutputTokens: int32(c.cfg.MaxOutputTokens)}
	}

	contents := genai.Text(prompt + "\n\n---\n\n" + source)
	result, err := c.invoke(ctx, c.model, contents, gc)
	if err != nil {
		return "", classify(err)
	}

	text := extractText(result)
	if text == "" {
		return "", services.Wrap(services.ErrGeneration, "gemini", "call model",
			"empty response", nil)
	}
	return text, nil
}

// classify maps an SDK error to the pipeline's error taxonomy.
func classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return services.Wrap(services.ErrRateLimited, "gemini", "call model", "", err)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "gemini", "call model", "", err)
	default:
		return services.Wrap(services.ErrGeneration, "gemini", "call model", "", err)
	}
}

// extractText concatenates the text parts of the first candidate.
func extractText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
