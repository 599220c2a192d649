package llmprovider

import "testing"

func TestBlock_ToolAccessors(t *testing.T) {
	tests := []struct {
		name      string
		block     *Block
		wantID    string
		wantName  string
		wantInput bool
		wantError bool
	}{
		{
			name: "tool_use block",
			block: &Block{
				BlockType: BlockTypeToolUse,
				Content: map[string]interface{}{
					"tool_use_id": "toolu_01",
					"tool_name":   "get_weather",
					"input":       map[string]interface{}{"city": "Paris"},
				},
			},
			wantID:    "toolu_01",
			wantName:  "get_weather",
			wantInput: true,
		},
		{
			name: "error tool_result block",
			block: &Block{
				BlockType:   BlockTypeToolResult,
				TextContent: ptr("station offline"),
				Content: map[string]interface{}{
					"tool_use_id": "toolu_01",
					"tool_name":   "get_weather",
					"is_error":    true,
				},
			},
			wantID:    "toolu_01",
			wantName:  "get_weather",
			wantError: true,
		},
		{
			name:  "text block",
			block: &Block{BlockType: BlockTypeText, TextContent: ptr("hi")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, _ := tt.block.GetToolUseID()
			if id != tt.wantID {
				t.Errorf("GetToolUseID() = %q, want %q", id, tt.wantID)
			}
			name, _ := tt.block.GetToolName()
			if name != tt.wantName {
				t.Errorf("GetToolName() = %q, want %q", name, tt.wantName)
			}
			if _, ok := tt.block.GetToolInput(); ok != tt.wantInput {
				t.Errorf("GetToolInput() ok = %v, want %v", ok, tt.wantInput)
			}
			if got := tt.block.IsErrorResult(); got != tt.wantError {
				t.Errorf("IsErrorResult() = %v, want %v", got, tt.wantError)
			}
		})
	}
}

func TestBlock_Text(t *testing.T) {
	if got := (&Block{BlockType: BlockTypeText}).Text(); got != "" {
		t.Errorf("Text() on empty block = %q", got)
	}
	if got := (&Block{BlockType: BlockTypeText, TextContent: ptr("Hello")}).Text(); got != "Hello" {
		t.Errorf("Text() = %q, want Hello", got)
	}
}

func TestMessage_Text(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Blocks: []*Block{
			{BlockType: BlockTypeThinking, TextContent: ptr("hidden")},
			{BlockType: BlockTypeText, TextContent: ptr("Hello, ")},
			{BlockType: BlockTypeToolUse, Content: map[string]interface{}{"tool_use_id": "t"}},
			{BlockType: BlockTypeText, TextContent: ptr("world")},
		},
	}

	if got := msg.Text(); got != "Hello, world" {
		t.Errorf("Text() = %q, want %q", got, "Hello, world")
	}
}

func TestBlockTypes_Constants(t *testing.T) {
	expected := map[string]string{
		BlockTypeText:       "text",
		BlockTypeThinking:   "thinking",
		BlockTypeToolUse:    "tool_use",
		BlockTypeToolResult: "tool_result",
	}

	for actual, want := range expected {
		if actual != want {
			t.Errorf("block type %q, want %q", actual, want)
		}
	}
}

func TestParseProviderID(t *testing.T) {
	tests := []struct {
		name    string
		want    ProviderID
		wantErr bool
	}{
		{"anthropic", ProviderAnthropic, false},
		{"claude", ProviderAnthropic, false},
		{"gemini", ProviderGoogle, false},
		{"openrouter", ProviderOpenRouter, false},
		{"lorem", ProviderLorem, false},
		{"openai", "", true},
	}

	for _, tt := range tests {
		got, err := ParseProviderID(tt.name)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseProviderID(%q) = %q, %v", tt.name, got, err)
		}
		if !tt.wantErr && !got.IsValid() {
			t.Errorf("%q is not valid", got)
		}
	}
}
