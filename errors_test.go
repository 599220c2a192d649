package llmprovider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewProviderError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		kind          ErrorKind
		wantSentinel  error
		wantRetryable bool
	}{
		{name: "rate limited", status: 429, kind: ErrorKindRateLimited, wantSentinel: ErrRateLimited, wantRetryable: true},
		{name: "overloaded in stream", status: 0, kind: ErrorKindOverloaded, wantSentinel: ErrOverloaded, wantRetryable: true},
		{name: "unauthorized", status: 401, kind: ErrorKindProvider, wantSentinel: ErrInvalidAPIKey},
		{name: "bad request", status: 400, kind: ErrorKindProvider, wantSentinel: ErrInvalidRequest},
		{name: "server error", status: 502, kind: ErrorKindProvider, wantSentinel: ErrProviderUnavailable, wantRetryable: true},
		{name: "generic in stream", status: 0, kind: ErrorKindProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewProviderError("anthropic", tt.status, tt.kind, "some_error", "message")

			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("error does not wrap %v", tt.wantSentinel)
			}
			if tt.wantSentinel == nil && err.Unwrap() != nil {
				t.Errorf("unexpected wrapped error %v", err.Unwrap())
			}
			if err.Retryable != tt.wantRetryable || IsRetryable(err) != tt.wantRetryable {
				t.Errorf("retryable = %v, want %v", err.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestProviderError_Error(t *testing.T) {
	withStatus := NewProviderError("openrouter", 503, ErrorKindOverloaded, "", "busy")
	if msg := withStatus.Error(); !strings.Contains(msg, "status 503") || !strings.Contains(msg, "overloaded") {
		t.Errorf("Error() = %q", msg)
	}

	inStream := NewProviderError("anthropic", 0, "", "", "boom")
	if msg := inStream.Error(); strings.Contains(msg, "status") || !strings.Contains(msg, string(ErrorKindProvider)) {
		t.Errorf("Error() = %q", msg)
	}
}

func TestErrorClassifiers(t *testing.T) {
	overloaded := fmt.Errorf("step 2: %w", NewProviderError("anthropic", 0, ErrorKindOverloaded, "overloaded_error", "Overloaded"))
	rateLimited := NewProviderError("google", 429, ErrorKindRateLimited, "RESOURCE_EXHAUSTED", "quota")
	forbidden := NewProviderError("anthropic", 403, ErrorKindProvider, "permission_error", "no")
	invalidModel := &ModelError{Model: "gpt-4", Provider: "lorem", Reason: "unsupported", Err: ErrInvalidModel}
	validation := &ValidationError{Field: "top_p", Value: 2.0, Reason: "too big", Err: ErrInvalidRequest}

	if !IsOverloaded(overloaded) || IsRateLimited(overloaded) || !IsRetryable(overloaded) {
		t.Error("overloaded classification")
	}
	if !IsRateLimited(rateLimited) || IsOverloaded(rateLimited) {
		t.Error("rate limit classification")
	}
	if !IsAuthError(forbidden) || IsAuthError(rateLimited) || IsAuthError(nil) {
		t.Error("auth classification")
	}
	if !IsInvalidRequest(invalidModel) || !IsInvalidRequest(validation) || IsInvalidRequest(overloaded) || IsInvalidRequest(nil) {
		t.Error("invalid request classification")
	}
	if IsRetryable(nil) || IsRetryable(validation) {
		t.Error("retryable classification")
	}
}

func TestDecodeError(t *testing.T) {
	var target interface{}
	cause := json.Unmarshal([]byte(`{"a":`), &target)
	err := error(&DecodeError{Raw: `{"a":`, Err: cause})

	if !errors.Is(err, ErrDecode) || !IsDecodeError(err) {
		t.Error("DecodeError should match ErrDecode")
	}

	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Error("DecodeError should unwrap to the parse error")
	}
	if !strings.Contains(err.Error(), `{\"a\":`) {
		t.Errorf("Error() = %q, want the raw text quoted", err.Error())
	}

	long := &DecodeError{Raw: strings.Repeat("x", 500), Err: cause}
	if len(long.Error()) > 300 {
		t.Errorf("long raw text was not truncated: %d bytes", len(long.Error()))
	}
}

func TestToolErrors(t *testing.T) {
	unknown := &UnknownToolError{Name: "lookup"}
	if !errors.Is(unknown, ErrUnknownTool) {
		t.Error("UnknownToolError should wrap ErrUnknownTool")
	}

	invocation := error(&ToolInvocationError{ToolCallID: "call_1", ToolName: "lookup", Err: unknown})
	if !errors.Is(invocation, ErrToolInvocation) || !errors.Is(invocation, ErrUnknownTool) {
		t.Error("ToolInvocationError should match ErrToolInvocation and its cause")
	}
	if msg := invocation.Error(); !strings.Contains(msg, "lookup") || !strings.Contains(msg, "call_1") {
		t.Errorf("Error() = %q", msg)
	}
}
