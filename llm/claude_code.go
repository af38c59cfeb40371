package llm

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// ClaudeCode implements Provider by shelling out to the claude CLI. No API
// key needed, which makes it the fallback when none is configured.
type ClaudeCode struct {
	cliPath string
}

// NewClaudeCode creates a new Claude Code provider.
func NewClaudeCode() *ClaudeCode {
	return &ClaudeCode{}
}

// Name returns the provider name.
func (c *ClaudeCode) Name() string {
	return "claude-code"
}

// Available checks if the claude CLI is installed and accessible.
func (c *ClaudeCode) Available() bool {
	path, err := exec.LookPath("claude")
	if err != nil {
		return false
	}
	c.cliPath = path
	return true
}

// Complete sends a request to the claude CLI and returns the response.
// MaxTokens is advisory here; the CLI manages its own budget.
func (c *ClaudeCode) Complete(ctx context.Context, req Request) (string, error) {
	args := []string{"--print"}
	if req.System != "" {
		args = append(args, "--system-prompt", req.System)
	}
	args = append(args, req.Prompt)

	cmd := exec.CommandContext(ctx, c.cliPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", wrapf(KindTimeout, 0, "request timed out, please try again")
		}
		if stderr.Len() > 0 {
			return "", &CLIError{Err: err, Stderr: stderr.String()}
		}
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

// CLIError wraps CLI execution errors with stderr output.
type CLIError struct {
	Err    error
	Stderr string
}

func (e *CLIError) Error() string {
	if e.Stderr != "" {
		return e.Err.Error() + ": " + e.Stderr
	}
	return e.Err.Error()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}
