package memoir

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/openai/openai-go"
)

func TestContextWindowExceededError(t *testing.T) {
	underlying := errors.New("request too large")
	err := &ContextWindowExceededError{Model: "gpt-4o-mini", Err: underlying}

	if !strings.Contains(err.Error(), "gpt-4o-mini") {
		t.Fatalf("Expected the message to name the model, but got '%s'", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("Expected Unwrap to expose the underlying error")
	}
}

func TestIsContextWindowExceeded(t *testing.T) {
	t.Run("TypedError", func(t *testing.T) {
		err := &ContextWindowExceededError{Model: "m", Err: errors.New("boom")}
		if !IsContextWindowExceeded(err) {
			t.Fatalf("Expected a typed overflow error to be recognized")
		}
	})

	t.Run("WrappedTypedError", func(t *testing.T) {
		err := fmt.Errorf("asking failed: %w", &ContextWindowExceededError{Err: errors.New("boom")})
		if !IsContextWindowExceeded(err) {
			t.Fatalf("Expected a wrapped overflow error to be recognized")
		}
	})

	t.Run("APIErrorWithCode", func(t *testing.T) {
		apierr := &openai.Error{Code: "context_length_exceeded", Message: "too many tokens"}
		if !IsContextWindowExceeded(apierr) {
			t.Fatalf("Expected the context_length_exceeded code to be recognized")
		}
	})

	t.Run("APIErrorWithMessageOnly", func(t *testing.T) {
		apierr := &openai.Error{Message: "This model's maximum context length is 128000 tokens."}
		if !IsContextWindowExceeded(apierr) {
			t.Fatalf("Expected the maximum-context-length message to be recognized")
		}
	})

	t.Run("OtherAPIError", func(t *testing.T) {
		apierr := &openai.Error{Code: "rate_limit_exceeded", Message: "slow down"}
		if IsContextWindowExceeded(apierr) {
			t.Fatalf("Expected a rate limit error not to be classified as overflow")
		}
	})

	t.Run("PlainError", func(t *testing.T) {
		if IsContextWindowExceeded(errors.New("connection refused")) {
			t.Fatalf("Expected a plain error not to be classified as overflow")
		}
	})

	t.Run("Nil", func(t *testing.T) {
		if IsContextWindowExceeded(nil) {
			t.Fatalf("Expected nil not to be classified as overflow")
		}
	})
}

func TestClassifyModelError(t *testing.T) {
	t.Run("WrapsOverflow", func(t *testing.T) {
		apierr := &openai.Error{Code: "context_length_exceeded", Message: "too many tokens"}
		classified := classifyModelError("gpt-4o", apierr)

		var cwe *ContextWindowExceededError
		if !errors.As(classified, &cwe) {
			t.Fatalf("Expected a ContextWindowExceededError, but got %T", classified)
		}
		if cwe.Model != "gpt-4o" {
			t.Fatalf("Expected the model to be recorded, but got '%s'", cwe.Model)
		}
		if !errors.Is(classified, apierr) {
			t.Fatalf("Expected the API error to remain reachable through Unwrap")
		}
	})

	t.Run("PassesOthersThrough", func(t *testing.T) {
		plain := errors.New("network down")
		if got := classifyModelError("gpt-4o", plain); got != plain {
			t.Fatalf("Expected the error to pass through unchanged, but got %v", got)
		}
	})

	t.Run("Nil", func(t *testing.T) {
		if got := classifyModelError("gpt-4o", nil); got != nil {
			t.Fatalf("Expected nil to stay nil, but got %v", got)
		}
	})
}
