package openrouter

import (
	"context"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/haowjy/meridian-llm-go"
)

func searchTools(t *testing.T) *llmprovider.ToolSet {
	t.Helper()

	tools, err := llmprovider.NewToolSet(llmprovider.ToolDefinition{
		Name:        "doc_search",
		Description: "Search documents",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
			},
			"required": []string{"query"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return []string{"chapter-1"}, nil
		},
	})
	if err != nil {
		t.Fatalf("NewToolSet() error = %v", err)
	}
	return tools
}

func TestConvertToOpenRouterMessages(t *testing.T) {
	step := llmprovider.Step{
		Thinking: "not replayed",
		Text:     "Searching.",
		ToolCalls: []llmprovider.ToolCall{
			llmprovider.NewToolCall("call_1", "doc_search", `{"query":"dragons"}`),
		},
	}
	messages := []llmprovider.Message{
		llmprovider.UserMessage("Find dragons"),
		llmprovider.AssistantMessage(step),
		llmprovider.ToolResultMessage([]llmprovider.ToolResult{
			{ToolCallID: "call_1", ToolName: "doc_search", Result: "chapter-1"},
		}),
	}

	result, err := convertToOpenRouterMessages("You are helpful.", messages)
	if err != nil {
		t.Fatalf("convertToOpenRouterMessages() error = %v", err)
	}

	if len(result) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(result))
	}

	wantRoles := []string{"system", "user", "assistant", "tool"}
	for i, want := range wantRoles {
		if result[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, result[i].Role, want)
		}
	}

	assistant := result[2]
	if assistant.Content != "Searching." {
		t.Errorf("assistant content = %q, want text only", assistant.Content)
	}
	if len(assistant.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(assistant.ToolCalls))
	}
	if got := assistant.ToolCalls[0].Function.Arguments; got != `{"query":"dragons"}` {
		t.Errorf("arguments = %s", got)
	}

	tool := result[3]
	if tool.ToolCallID != "call_1" || tool.Content != "chapter-1" {
		t.Errorf("tool message = %+v", tool)
	}
}

func TestConvertToOpenRouterMessages_Errors(t *testing.T) {
	tests := []struct {
		name     string
		messages []llmprovider.Message
	}{
		{
			name: "tool result without id",
			messages: []llmprovider.Message{
				llmprovider.ToolResultMessage([]llmprovider.ToolResult{{ToolName: "doc_search"}}),
			},
		},
		{
			name: "tool use in user message",
			messages: []llmprovider.Message{{
				Role: llmprovider.RoleUser,
				Blocks: []*llmprovider.Block{{
					BlockType: llmprovider.BlockTypeToolUse,
					Content:   map[string]interface{}{"tool_use_id": "call_1", "tool_name": "doc_search"},
				}},
			}},
		},
		{
			name:     "unsupported role",
			messages: []llmprovider.Message{{Role: "system"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := convertToOpenRouterMessages("", tt.messages); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEncodeRequest_Streaming(t *testing.T) {
	temperature := 0.0
	topK := 40
	enabled := true
	req := &llmprovider.GenerateRequest{
		Model:    "anthropic/claude-3.5-sonnet",
		Messages: []llmprovider.Message{llmprovider.UserMessage("hi")},
		Params: &llmprovider.RequestParams{
			Temperature:     &temperature,
			TopK:            &topK,
			ThinkingEnabled: &enabled,
		},
		Tools: searchTools(t),
	}

	body, err := EncodeRequest(req, true)
	if err != nil {
		t.Fatalf("EncodeRequest() error = %v", err)
	}

	checks := map[string]string{
		"model":                       "anthropic/claude-3.5-sonnet",
		"stream":                      "true",
		"stream_options.include_usage": "true",
		"temperature":                 "0",
		"top_k":                       "40",
		"reasoning.effort":            "medium",
		"tools.0.type":                "function",
		"tools.0.function.name":       "doc_search",
		"tools.0.function.parameters.required.0": "query",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(body, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestEncodeRequest_Blocking(t *testing.T) {
	req := &llmprovider.GenerateRequest{
		Model:    "openai/gpt-4o",
		Messages: []llmprovider.Message{llmprovider.UserMessage("hi")},
	}

	body, err := EncodeRequest(req, false)
	if err != nil {
		t.Fatalf("EncodeRequest() error = %v", err)
	}
	for _, path := range []string{"stream_options", "temperature", "reasoning", "tools"} {
		if gjson.GetBytes(body, path).Exists() {
			t.Errorf("%s should be omitted, body = %s", path, body)
		}
	}
}

func TestEncodeRequest_ToolChoice(t *testing.T) {
	required, err := llmprovider.NewToolChoice(llmprovider.ToolChoiceModeRequired)
	if err != nil {
		t.Fatalf("NewToolChoice() error = %v", err)
	}
	specific, err := llmprovider.NewSpecificToolChoice("doc_search")
	if err != nil {
		t.Fatalf("NewSpecificToolChoice() error = %v", err)
	}

	tests := []struct {
		name   string
		choice *llmprovider.ToolChoice
		path   string
		want   string
	}{
		{name: "required", choice: required, path: "tool_choice", want: "required"},
		{name: "specific", choice: specific, path: "tool_choice.function.name", want: "doc_search"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &llmprovider.GenerateRequest{
				Model:    "openai/gpt-4o",
				Messages: []llmprovider.Message{llmprovider.UserMessage("hi")},
				Params:   &llmprovider.RequestParams{ToolChoice: tt.choice},
				Tools:    searchTools(t),
			}

			body, err := EncodeRequest(req, false)
			if err != nil {
				t.Fatalf("EncodeRequest() error = %v", err)
			}
			if got := gjson.GetBytes(body, tt.path).String(); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestSupportsModel(t *testing.T) {
	if !SupportsModel("openrouter/auto") {
		t.Error("expected openrouter/auto to be supported")
	}
	if SupportsModel("gpt-4o") {
		t.Error("expected bare model name to be unsupported")
	}
}
