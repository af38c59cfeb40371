// Package generate turns a user's styling request and a page analysis into a
// validated stylesheet via an LLM provider.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"paintbrush/analyzer"
	"paintbrush/css"
	"paintbrush/llm"
	"paintbrush/prompt"
)

const (
	themeMaxTokens = 4000
	hideMaxTokens  = 1000
)

// Result is a finished generation.
type Result struct {
	CSS     string
	Summary string
}

// Generator drives theme generation through an llm.Client.
type Generator struct {
	client *llm.Client
	log    *slog.Logger
}

func New(client *llm.Client, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{client: client, log: log}
}

// Theme generates a complete stylesheet for the request. When existing is
// non-nil the refinement prompt is used so the model returns the full updated
// stylesheet rather than a fragment.
func (g *Generator) Theme(ctx context.Context, request string, s *analyzer.Snapshot, existing *prompt.ExistingTheme, corrections []prompt.Correction) (*Result, error) {
	var system, user string
	if existing != nil && existing.CSS != "" {
		system, user = prompt.BuildRefinement(request, s, *existing, corrections)
	} else {
		system, user = prompt.Build(request, s, existing, corrections)
	}

	raw, err := g.client.Complete(ctx, llm.Request{
		System:    system,
		Prompt:    user,
		MaxTokens: themeMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	out := css.Repair(css.Clean(raw))
	if strings.TrimSpace(out) == "" {
		return nil, fmt.Errorf("empty generation response for %q", request)
	}
	// Validation is advisory: a suspicious stylesheet still gets applied,
	// the browser drops whatever it cannot parse.
	if !css.Validate(out) {
		g.log.Warn("generated stylesheet failed validation",
			"hostname", s.Hostname, "length", len(out))
	}

	g.log.Info("theme generated",
		"hostname", s.Hostname, "length", len(out), "refinement", existing != nil)
	return &Result{CSS: out, Summary: prompt.SummarizeCSS(out)}, nil
}

// Hide generates display:none rules only. It skips page analysis entirely so
// hide requests resolve in a fraction of a full generation.
func (g *Generator) Hide(ctx context.Context, request, hostname string) (string, error) {
	raw, err := g.client.Complete(ctx, llm.Request{
		System:    prompt.HideSystem(),
		Prompt:    prompt.HideUser(request, hostname),
		MaxTokens: hideMaxTokens,
	})
	if err != nil {
		return "", err
	}

	out := strings.TrimSpace(css.Clean(raw))
	if out == "" {
		return "", fmt.Errorf("empty hide response for %q", request)
	}
	if !strings.Contains(out, "display") {
		g.log.Warn("hide response missing display rules", "hostname", hostname)
	}
	g.log.Info("hide rules generated", "hostname", hostname, "length", len(out))
	return out, nil
}
