package llmprovider

// Message builders shared by the orchestrator and wire encoders.

// UserMessage builds a user message holding one text block.
func UserMessage(text string) Message {
	return Message{
		Role:   RoleUser,
		Blocks: []*Block{textBlock(0, text)},
	}
}

// AssistantMessage builds the assistant turn appended to the conversation
// before tool results: thinking, text, then one tool_use block per call. A
// thinking signature is kept in the thinking block's Content.
func AssistantMessage(step Step) Message {
	var blocks []*Block

	if step.Thinking != "" {
		block := &Block{
			BlockType:   BlockTypeThinking,
			TextContent: stringPointer(step.Thinking),
		}
		if sig, ok := step.AdditionalContent["thinking_signature"].(string); ok && sig != "" {
			block.Content = map[string]interface{}{"signature": sig}
		}
		blocks = append(blocks, block)
	}

	if step.Text != "" {
		blocks = append(blocks, textBlock(len(blocks), step.Text))
	}

	for _, call := range step.ToolCalls {
		input, err := call.ArgumentMap()
		if err != nil {
			input = map[string]interface{}{}
		}
		blocks = append(blocks, &Block{
			BlockType: BlockTypeToolUse,
			Sequence:  len(blocks),
			Content: map[string]interface{}{
				"tool_use_id": call.ID,
				"tool_name":   call.Name,
				"input":       input,
			},
		})
	}

	for i, block := range blocks {
		block.Sequence = i
	}

	return Message{Role: RoleAssistant, Blocks: blocks}
}

// ToolResultMessage builds the user message carrying tool results, one
// tool_result block per result in call order.
func ToolResultMessage(results []ToolResult) Message {
	blocks := make([]*Block, 0, len(results))
	for i, result := range results {
		blocks = append(blocks, &Block{
			BlockType:   BlockTypeToolResult,
			Sequence:    i,
			TextContent: stringPointer(FormatToolResult(result.Result)),
			Content: map[string]interface{}{
				"tool_use_id": result.ToolCallID,
				"tool_name":   result.ToolName,
				"is_error":    result.IsError,
			},
		})
	}
	return Message{Role: RoleUser, Blocks: blocks}
}

// HasToolResults reports whether m carries tool_result blocks.
func (m Message) HasToolResults() bool {
	for _, block := range m.Blocks {
		if block.IsToolResultBlock() {
			return true
		}
	}
	return false
}

func textBlock(sequence int, text string) *Block {
	return &Block{
		BlockType:   BlockTypeText,
		Sequence:    sequence,
		TextContent: stringPointer(text),
	}
}

func stringPointer(s string) *string {
	return &s
}
