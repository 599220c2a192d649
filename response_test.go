package llmprovider

import (
	"errors"
	"testing"
)

func TestResponseBuilder_ToResponse(t *testing.T) {
	b := NewResponseBuilder(false)

	first := Step{
		Text:         "Checking",
		FinishReason: FinishReasonToolCalls,
		ToolCalls:    []ToolCall{NewToolCall("toolu_1", "get_weather", `{"city":"Paris"}`)},
		ToolResults:  []ToolResult{{ToolCallID: "toolu_1", ToolName: "get_weather", Result: "sunny"}},
		Usage:        Usage{PromptTokens: Int(10), CompletionTokens: Int(5)},
		Meta:         Meta{ID: "msg_1", Model: "m"},
	}
	b.AddStep(first)

	// Later changes to the caller's slices must not reach the recorded step
	first.ToolCalls[0].ID = "changed"

	b.AddStep(Step{
		Text:         "Sunny.",
		FinishReason: FinishReasonStop,
		Usage:        Usage{PromptTokens: Int(20), CompletionTokens: Int(2)},
		Meta:         Meta{ID: "msg_2", Model: "m"},
	})

	resp, err := b.ToResponse()
	if err != nil {
		t.Fatalf("ToResponse() error = %v", err)
	}

	if len(resp.Steps) != 2 || b.Len() != 2 {
		t.Fatalf("steps = %d, want 2", len(resp.Steps))
	}
	if resp.Text != "Sunny." || resp.FinishReason != FinishReasonStop || resp.Meta.ID != "msg_2" {
		t.Errorf("final view = %q %s %+v", resp.Text, resp.FinishReason, resp.Meta)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].ID != "toolu_1" {
		t.Errorf("tool calls = %+v", resp.ToolCalls)
	}
	if len(resp.ToolResults) != 1 {
		t.Errorf("tool results = %+v", resp.ToolResults)
	}
	if *resp.Usage.PromptTokens != 30 || *resp.Usage.CompletionTokens != 7 {
		t.Errorf("usage = %v", resp.Usage.Fields())
	}
	if resp.BudgetExhausted {
		t.Error("budget exhausted without MarkBudgetExhausted")
	}
}

func TestResponseBuilder_Empty(t *testing.T) {
	b := NewResponseBuilder(true)
	b.MarkBudgetExhausted()

	resp, err := b.ToResponse()
	if err != nil {
		t.Fatalf("ToResponse() error = %v", err)
	}
	if len(resp.Steps) != 0 || resp.FinishReason != FinishReasonUnknown || !resp.BudgetExhausted {
		t.Errorf("response = %+v", resp)
	}
}

func TestResponseBuilder_Structured(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    float64
		wantErr bool
	}{
		{name: "plain", text: `{"a":1}`, want: 1},
		{name: "fenced with language", text: "```json\n{\"a\":1}\n```", want: 1},
		{name: "fenced without language", text: "```\n{\"a\":2}\n```", want: 2},
		{name: "surrounding whitespace", text: "\n  {\"a\":3}  \n", want: 3},
		{name: "invalid", text: "not json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewResponseBuilder(true)
			b.AddStep(Step{Text: tt.text, FinishReason: FinishReasonStop})

			resp, err := b.ToResponse()
			if tt.wantErr {
				var decodeErr *DecodeError
				if !errors.As(err, &decodeErr) || !errors.Is(err, ErrDecode) {
					t.Fatalf("expected *DecodeError, got %v", err)
				}
				if decodeErr.Raw != tt.text {
					t.Errorf("raw = %q, want %q", decodeErr.Raw, tt.text)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToResponse() error = %v", err)
			}
			structured, ok := resp.Structured.(map[string]interface{})
			if !ok || structured["a"] != tt.want {
				t.Errorf("structured = %#v", resp.Structured)
			}
		})
	}
}

func TestResponseBuilder_VendorStructuredWins(t *testing.T) {
	b := NewResponseBuilder(true)
	b.AddStep(Step{Text: "not json", Structured: map[string]interface{}{"ok": true}})

	resp, err := b.ToResponse()
	if err != nil {
		t.Fatalf("ToResponse() error = %v", err)
	}
	if structured, _ := resp.Structured.(map[string]interface{}); structured["ok"] != true {
		t.Errorf("structured = %#v", resp.Structured)
	}
}

func TestResponseBuilder_UnstructuredIgnoresText(t *testing.T) {
	b := NewResponseBuilder(false)
	b.AddStep(Step{Text: "not json"})

	resp, err := b.ToResponse()
	if err != nil || resp.Structured != nil {
		t.Errorf("ToResponse() = %#v, %v", resp.Structured, err)
	}
}
