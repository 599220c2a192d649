package llmprovider

import (
	"errors"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestValidateRequestParams(t *testing.T) {
	specific := "lookup"
	empty := ""

	tests := []struct {
		name      string
		params    *RequestParams
		wantField string // "" means valid
	}{
		{name: "nil params", params: nil},
		{name: "empty params", params: &RequestParams{}},
		{name: "temperature zero", params: &RequestParams{Temperature: ptr(0.0)}},
		{name: "temperature upper bound", params: &RequestParams{Temperature: ptr(2.0)}},
		{name: "temperature negative", params: &RequestParams{Temperature: ptr(-0.1)}, wantField: "temperature"},
		{name: "temperature too high", params: &RequestParams{Temperature: ptr(2.1)}, wantField: "temperature"},
		{name: "top_p in range", params: &RequestParams{TopP: ptr(0.9)}},
		{name: "top_p too high", params: &RequestParams{TopP: ptr(1.1)}, wantField: "top_p"},
		{name: "top_k zero", params: &RequestParams{TopK: ptr(0)}},
		{name: "top_k negative", params: &RequestParams{TopK: ptr(-1)}, wantField: "top_k"},
		{name: "max_tokens positive", params: &RequestParams{MaxTokens: ptr(1)}},
		{name: "max_tokens zero", params: &RequestParams{MaxTokens: ptr(0)}, wantField: "max_tokens"},
		{name: "thinking level", params: &RequestParams{ThinkingLevel: ptr("high")}},
		{name: "unknown thinking level", params: &RequestParams{ThinkingLevel: ptr("extreme")}, wantField: "thinking_level"},
		{name: "frequency penalty", params: &RequestParams{FrequencyPenalty: ptr(-2.0)}},
		{name: "frequency penalty out of range", params: &RequestParams{FrequencyPenalty: ptr(2.5)}, wantField: "frequency_penalty"},
		{name: "presence penalty out of range", params: &RequestParams{PresencePenalty: ptr(-3.0)}, wantField: "presence_penalty"},
		{name: "specific tool choice", params: &RequestParams{ToolChoice: &ToolChoice{Mode: ToolChoiceModeSpecific, ToolName: &specific}}},
		{name: "specific tool choice without name", params: &RequestParams{ToolChoice: &ToolChoice{Mode: ToolChoiceModeSpecific, ToolName: &empty}}, wantField: "tool_choice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequestParams(tt.params)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateRequestParams() error = %v", err)
				}
				return
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("ValidateRequestParams() error = %v, want *ValidationError", err)
			}
			if validationErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", validationErr.Field, tt.wantField)
			}
			if !IsInvalidRequest(err) {
				t.Error("validation error should be classified as invalid request")
			}
		})
	}
}

func TestRequestParams_Getters(t *testing.T) {
	var unset *RequestParams
	if unset.GetMaxTokens(1000) != 1000 || unset.GetSystem() != "" || unset.IsThinkingEnabled() || unset.GetThinkingLevel() != "medium" {
		t.Error("nil params should report defaults")
	}

	params := &RequestParams{
		MaxTokens:       ptr(0),
		System:          ptr("Be brief."),
		ThinkingEnabled: ptr(true),
		ThinkingLevel:   ptr("low"),
	}
	if got := params.GetMaxTokens(1000); got != 0 {
		t.Errorf("GetMaxTokens() = %d, want the explicit 0", got)
	}
	if got := params.GetSystem(); got != "Be brief." {
		t.Errorf("GetSystem() = %q", got)
	}
	if !params.IsThinkingEnabled() || params.GetThinkingLevel() != "low" {
		t.Errorf("thinking = %v/%q", params.IsThinkingEnabled(), params.GetThinkingLevel())
	}

	if (&RequestParams{ThinkingEnabled: ptr(false)}).IsThinkingEnabled() {
		t.Error("explicit false reports enabled")
	}
}
