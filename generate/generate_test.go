package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"paintbrush/analyzer"
	"paintbrush/llm"
	"paintbrush/prompt"
)

type fakeProvider struct {
	response string
	err      error
	lastReq  llm.Request
}

func (f *fakeProvider) Name() string    { return "fake" }
func (f *fakeProvider) Available() bool { return true }

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

const validTheme = "```css\n" + `body { background: #0d1117; color: #e6edf3; }
a { color: #58a6ff; }
header { background: #161b22; border-bottom: 1px solid #30363d; }
.card { background: #161b22; border-radius: 8px; }
` + "```"

func newGenerator(p llm.Provider) *Generator {
	return New(llm.NewClient(p), nil)
}

func TestThemeCleansAndValidates(t *testing.T) {
	p := &fakeProvider{response: validTheme}
	g := newGenerator(p)

	s := &analyzer.Snapshot{Hostname: "example.com"}
	res, err := g.Theme(context.Background(), "dark github style", s, nil, nil)
	if err != nil {
		t.Fatalf("Theme: %v", err)
	}
	if strings.Contains(res.CSS, "```") {
		t.Errorf("fences not stripped: %q", res.CSS)
	}
	if !strings.Contains(res.CSS, "#0d1117") {
		t.Errorf("generated CSS lost content: %q", res.CSS)
	}
	if res.Summary == "" {
		t.Errorf("expected a summary")
	}
	if p.lastReq.MaxTokens != themeMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", p.lastReq.MaxTokens, themeMaxTokens)
	}
	if !strings.Contains(p.lastReq.Prompt, "example.com") {
		t.Errorf("user prompt missing hostname")
	}
}

func TestThemeUsesRefinementPrompt(t *testing.T) {
	p := &fakeProvider{response: validTheme}
	g := newGenerator(p)

	existing := &prompt.ExistingTheme{Prompt: "dark", CSS: "body { background: #000; }"}
	_, err := g.Theme(context.Background(), "bluer links", &analyzer.Snapshot{Hostname: "example.com"}, existing, nil)
	if err != nil {
		t.Fatalf("Theme: %v", err)
	}
	if !strings.Contains(p.lastReq.Prompt, "EXISTING CSS") {
		t.Errorf("refinement request should embed the current CSS")
	}
	if !strings.Contains(p.lastReq.System, "refinements") {
		t.Errorf("refinement request should use the refinement system prompt")
	}
}

func TestThemeValidationIsAdvisory(t *testing.T) {
	// Short output fails validation but is still returned; the browser
	// drops anything unparseable on its own.
	p := &fakeProvider{response: "body { background: #000; }"}
	g := newGenerator(p)

	res, err := g.Theme(context.Background(), "dark", &analyzer.Snapshot{Hostname: "x.com"}, nil, nil)
	if err != nil {
		t.Fatalf("Theme: %v", err)
	}
	if res.CSS != "body { background: #000; }" {
		t.Errorf("CSS = %q", res.CSS)
	}
}

func TestThemeRejectsEmptyOutput(t *testing.T) {
	p := &fakeProvider{response: "   \n"}
	g := newGenerator(p)

	if _, err := g.Theme(context.Background(), "dark", &analyzer.Snapshot{Hostname: "x.com"}, nil, nil); err == nil {
		t.Fatalf("expected error for empty output")
	}
}

func TestThemePropagatesProviderError(t *testing.T) {
	want := &llm.GenerateError{Kind: llm.KindRateLimited, Status: 429, Message: "rate limited"}
	p := &fakeProvider{err: want}
	g := newGenerator(p)

	_, err := g.Theme(context.Background(), "dark", &analyzer.Snapshot{Hostname: "x.com"}, nil, nil)
	if llm.Classify(err) != llm.KindRateLimited {
		t.Fatalf("error kind = %v, want rate-limited", llm.Classify(err))
	}
}

func TestHide(t *testing.T) {
	p := &fakeProvider{response: "```css\n[class*=\"cookie\"] { display: none !important; }\n```"}
	g := newGenerator(p)

	out, err := g.Hide(context.Background(), "hide cookie banners", "example.com")
	if err != nil {
		t.Fatalf("Hide: %v", err)
	}
	if !strings.Contains(out, "display: none !important") {
		t.Errorf("hide output = %q", out)
	}
	if p.lastReq.MaxTokens != hideMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", p.lastReq.MaxTokens, hideMaxTokens)
	}
	if !strings.Contains(p.lastReq.Prompt, "example.com") {
		t.Errorf("hide prompt missing hostname")
	}
}

func TestHideEmptyResponse(t *testing.T) {
	p := &fakeProvider{response: "   "}
	g := newGenerator(p)
	if _, err := g.Hide(context.Background(), "hide ads", "example.com"); err == nil {
		t.Fatalf("expected error for empty hide response")
	}
}

func TestHideNetworkError(t *testing.T) {
	p := &fakeProvider{err: errors.New("dial tcp: connection refused")}
	g := newGenerator(p)
	if _, err := g.Hide(context.Background(), "hide ads", "example.com"); err == nil {
		t.Fatalf("expected provider error to propagate")
	}
}
