// Package memoir - errors.go
// Defines session and model-boundary errors.

package memoir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

var (
	ErrSessionClosed = errors.New("session has been closed")
	ErrNoHistory     = errors.New("no history stored for session")
)

// ContextWindowExceededError reports that a request did not fit into the
// model's maximum context length. Replaying ever-growing histories into the
// prompt guarantees this eventually happens; callers are expected to shrink
// the window or compact the session and retry.
type ContextWindowExceededError struct {
	Model string
	Err   error
}

func (e *ContextWindowExceededError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("context window exceeded: %v", e.Err)
	}
	return fmt.Sprintf("context window exceeded for model %s: %v", e.Model, e.Err)
}

func (e *ContextWindowExceededError) Unwrap() error {
	return e.Err
}

// IsContextWindowExceeded reports whether err is a context-length overflow,
// either already classified or still raw from the API.
func IsContextWindowExceeded(err error) bool {
	var cwe *ContextWindowExceededError
	if errors.As(err, &cwe) {
		return true
	}
	return isAPIContextOverflow(err)
}

func isAPIContextOverflow(err error) bool {
	var apierr *openai.Error
	if !errors.As(err, &apierr) {
		return false
	}
	if apierr.Code == "context_length_exceeded" {
		return true
	}
	// Azure-hosted deployments return the same condition without the code.
	return strings.Contains(apierr.Message, "maximum context length")
}

// classifyModelError wraps known failure modes from the chat endpoint into
// typed errors so callers can react without string matching.
func classifyModelError(model string, err error) error {
	if err == nil {
		return nil
	}
	if isAPIContextOverflow(err) {
		return &ContextWindowExceededError{Model: model, Err: err}
	}
	return err
}
