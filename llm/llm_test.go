package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubProvider struct {
	name      string
	available bool
	response  string
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }
func (s *stubProvider) Complete(_ context.Context, _ Request) (string, error) {
	return s.response, nil
}

func TestClientPicksFirstAvailable(t *testing.T) {
	down := &stubProvider{name: "down"}
	up := &stubProvider{name: "up", available: true, response: "ok"}
	c := NewClient(down, up)

	if got := c.Provider(); got != up {
		t.Fatalf("Provider() = %v", got)
	}
	out, err := c.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil || out != "ok" {
		t.Fatalf("Complete = %q, %v", out, err)
	}
}

func TestClientNoProvider(t *testing.T) {
	c := NewClient(&stubProvider{name: "down"})

	if c.Available() {
		t.Fatal("Available() = true with no usable provider")
	}
	_, err := c.Complete(context.Background(), Request{Prompt: "x"})
	if Classify(err) != KindMissingCredential {
		t.Errorf("Classify = %v, want missing-credential", Classify(err))
	}
}

func TestSetPreferred(t *testing.T) {
	a := &stubProvider{name: "a", available: true, response: "a"}
	b := &stubProvider{name: "b", available: true, response: "b"}
	c := NewClient(a, b)

	if !c.SetPreferred("b") {
		t.Fatal("SetPreferred(b) = false")
	}
	if got := c.Provider(); got != b {
		t.Errorf("Provider() = %v, want b", got)
	}
	if c.SetPreferred("missing") {
		t.Errorf("SetPreferred(missing) = true")
	}
}

func TestClassifyStatusHidesUpstreamBody(t *testing.T) {
	body := []byte(`{"error":{"type":"invalid_request_error","message":"internal trace id 8f3a: selector exceeded"}}`)
	ge := classifyStatus(418, body)

	if ge.Kind != KindUnknown {
		t.Errorf("Kind = %v", ge.Kind)
	}
	if strings.Contains(ge.Message, "internal trace") {
		t.Errorf("upstream body leaked into user message: %q", ge.Message)
	}
	if ge.Message != "generation failed (418), please try again" {
		t.Errorf("Message = %q", ge.Message)
	}
	if !strings.Contains(ge.Detail, "internal trace id 8f3a") {
		t.Errorf("Detail should carry the upstream message for logs, got %q", ge.Detail)
	}
}

func TestClassifyStatusKnownStatuses(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
	}{
		{401, KindUnauthorized},
		{403, KindForbidden},
		{429, KindRateLimited},
		{503, KindUpstreamUnavailable},
		{529, KindUpstreamUnavailable},
	}
	for _, tc := range cases {
		ge := classifyStatus(tc.status, []byte(`{"error":{"message":"raw upstream text"}}`))
		if ge.Kind != tc.kind {
			t.Errorf("status %d: Kind = %v, want %v", tc.status, ge.Kind, tc.kind)
		}
		if strings.Contains(ge.Message, "raw upstream text") {
			t.Errorf("status %d: upstream body leaked: %q", tc.status, ge.Message)
		}
	}
}

func TestClassify(t *testing.T) {
	ge := &GenerateError{Kind: KindRateLimited, Status: 429, Message: "slow down"}
	if Classify(ge) != KindRateLimited {
		t.Errorf("Classify = %v", Classify(ge))
	}
	wrapped := errors.Join(errors.New("outer"), ge)
	if Classify(wrapped) != KindRateLimited {
		t.Errorf("Classify(wrapped) = %v", Classify(wrapped))
	}
	if Classify(errors.New("plain")) != KindUnknown {
		t.Errorf("Classify(plain) = %v", Classify(errors.New("plain")))
	}
}
