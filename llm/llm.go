// Package llm provides an abstraction layer for the language model backends
// that turn page analysis into stylesheets.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoProvider is returned when no LLM provider is configured or available.
var ErrNoProvider = errors.New("no LLM provider available")

// Request is one completion call. MaxTokens bounds the response; fast paths
// such as element hiding use a much smaller budget than full generation.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Provider defines the interface for language model backends.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// Available checks if this provider is ready to use.
	Available() bool

	// Complete sends a request and returns the response text.
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrorKind classifies a generation failure for user-facing reporting.
type ErrorKind string

const (
	KindMissingCredential   ErrorKind = "missing-credential"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindForbidden           ErrorKind = "forbidden"
	KindRateLimited         ErrorKind = "rate-limited"
	KindUpstreamUnavailable ErrorKind = "upstream-unavailable"
	KindNetworkError        ErrorKind = "network-error"
	KindTimeout             ErrorKind = "timeout"
	KindUnknown             ErrorKind = "unknown"
)

// GenerateError carries a classified failure with a message suitable to show
// to the user as-is.
type GenerateError struct {
	Kind    ErrorKind
	Status  int    // HTTP status when the API answered, 0 otherwise
	Message string // short, non-technical, safe to show the user
	Detail  string // raw upstream context, for logs only
}

func (e *GenerateError) Error() string {
	return e.Message
}

// Classify extracts the error kind, KindUnknown for unclassified errors.
func Classify(err error) ErrorKind {
	var ge *GenerateError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// Client selects the first available provider for each call.
type Client struct {
	providers []Provider
	preferred Provider
}

// NewClient creates a new LLM client with the given providers, tried in
// order of preference.
func NewClient(providers ...Provider) *Client {
	return &Client{providers: providers}
}

// SetPreferred sets a specific provider to use, bypassing auto-selection.
func (c *Client) SetPreferred(name string) bool {
	for _, p := range c.providers {
		if p.Name() == name && p.Available() {
			c.preferred = p
			return true
		}
	}
	return false
}

// Provider returns the currently active provider, or nil if none available.
func (c *Client) Provider() Provider {
	if c.preferred != nil && c.preferred.Available() {
		return c.preferred
	}
	for _, p := range c.providers {
		if p.Available() {
			return p
		}
	}
	return nil
}

// Available returns true if any provider is available.
func (c *Client) Available() bool {
	return c.Provider() != nil
}

// Complete sends a request to the best available provider.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	p := c.Provider()
	if p == nil {
		return "", &GenerateError{
			Kind:    KindMissingCredential,
			Message: "no API key configured; set ANTHROPIC_API_KEY or add a key to the config file",
		}
	}
	return p.Complete(ctx, req)
}

// ListProviders returns info about all configured providers.
func (c *Client) ListProviders() []ProviderInfo {
	var infos []ProviderInfo
	for _, p := range c.providers {
		infos = append(infos, ProviderInfo{Name: p.Name(), Available: p.Available()})
	}
	return infos
}

// ProviderInfo describes a provider's status.
type ProviderInfo struct {
	Name      string
	Available bool
}

func wrapf(kind ErrorKind, status int, format string, args ...any) *GenerateError {
	return &GenerateError{Kind: kind, Status: status, Message: fmt.Sprintf(format, args...)}
}
