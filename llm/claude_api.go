package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
	defaultModel        = "claude-haiku-4-5-20251001"
	defaultMaxTokens    = 4000
)

// ClaudeAPI implements Provider using the Anthropic API directly.
type ClaudeAPI struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClaudeAPI creates a new Claude API provider.
// If apiKey is empty, it reads from ANTHROPIC_API_KEY environment variable.
func NewClaudeAPI(apiKey string) *ClaudeAPI {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return &ClaudeAPI{
		apiKey: apiKey,
		model:  defaultModel,
		client: &http.Client{},
	}
}

// WithModel sets a specific model to use.
func (c *ClaudeAPI) WithModel(model string) *ClaudeAPI {
	c.model = model
	return c
}

// Name returns the provider name.
func (c *ClaudeAPI) Name() string {
	return "claude-api"
}

// Available checks if an API key is configured.
func (c *ClaudeAPI) Available() bool {
	return c.apiKey != ""
}

// Complete sends a request to the Anthropic API.
func (c *ClaudeAPI) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", wrapf(KindMissingCredential, 0,
			"no API key configured; set ANTHROPIC_API_KEY or add a key to the config file")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  []apiMessage{{Role: "user", Content: req.Prompt}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", wrapf(KindUnknown, 0, "marshaling request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", anthropicAPIURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", wrapf(KindUnknown, 0, "creating request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", wrapf(KindTimeout, 0, "request timed out, please try again")
		}
		return "", wrapf(KindNetworkError, 0, "network error, please check your connection")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapf(KindNetworkError, 0, "reading response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, body)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", wrapf(KindUnknown, 0, "parsing response: %v", err)
	}

	var result strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	return result.String(), nil
}

// CheckKey verifies the configured key with a minimal completion.
func (c *ClaudeAPI) CheckKey(ctx context.Context) bool {
	if c.apiKey == "" {
		return false
	}
	_, err := c.Complete(ctx, Request{Prompt: "Hi", MaxTokens: 10})
	if err == nil {
		return true
	}
	// Rate limiting or outages say nothing about the key itself.
	switch Classify(err) {
	case KindUnauthorized, KindForbidden, KindMissingCredential:
		return false
	}
	return true
}

// classifyStatus converts an API error status to a user-facing error.
func classifyStatus(status int, body []byte) *GenerateError {
	var apiErr apiErrorResponse
	_ = json.Unmarshal(body, &apiErr)
	message := apiErr.Error.Message
	if message == "" {
		message = string(body)
	}

	switch status {
	case http.StatusUnauthorized:
		return wrapf(KindUnauthorized, status, "invalid API key, please check your settings")
	case http.StatusForbidden:
		return wrapf(KindForbidden, status, "API access forbidden, your key may not have permission")
	case http.StatusTooManyRequests:
		if strings.Contains(message, "rate") {
			return wrapf(KindRateLimited, status, "rate limited, please wait a moment and try again")
		}
		return wrapf(KindRateLimited, status, "too many requests, please wait a moment")
	case 500, 502, 503:
		return wrapf(KindUpstreamUnavailable, status, "AI service temporarily unavailable, please try again")
	case 529:
		return wrapf(KindUpstreamUnavailable, status, "AI service overloaded, please try again in a few seconds")
	}
	if apiErr.Error.Type == "overloaded_error" {
		return wrapf(KindUpstreamUnavailable, status, "AI is busy, please try again in a moment")
	}
	// The upstream body is never shown to the user; it rides along in
	// Detail for logs.
	ge := wrapf(KindUnknown, status, "generation failed (%d), please try again", status)
	ge.Detail = message
	return ge
}

// API request/response types

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []apiContentBlock `json:"content"`
	Usage   apiUsage          `json:"usage"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
