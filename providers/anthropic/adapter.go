package anthropic

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/haowjy/meridian-llm-go"
)

// convertToAnthropicMessages converts library messages to Anthropic SDK format.
// Messages left with no replayable blocks are dropped; the API rejects empty content.
func convertToAnthropicMessages(messages []llmprovider.Message) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for i, msg := range messages {
		if msg.Role != llmprovider.RoleUser && msg.Role != llmprovider.RoleAssistant {
			return nil, fmt.Errorf("message %d: unsupported role '%s'", i, msg.Role)
		}

		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Blocks))
		for j, block := range msg.Blocks {
			param, ok, err := convertBlock(block)
			if err != nil {
				return nil, fmt.Errorf("message %d, block %d: %w", i, j, err)
			}
			if ok {
				blocks = append(blocks, param)
			}
		}
		if len(blocks) == 0 {
			continue
		}

		if msg.Role == llmprovider.RoleUser {
			result = append(result, anthropic.NewUserMessage(blocks...))
		} else {
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		}
	}

	return result, nil
}

// convertBlock maps one block. ok is false for blocks Anthropic cannot
// replay: unsigned thinking and media types.
func convertBlock(block *llmprovider.Block) (param anthropic.ContentBlockParamUnion, ok bool, err error) {
	switch block.BlockType {
	case llmprovider.BlockTypeText:
		if block.TextContent == nil {
			return param, false, fmt.Errorf("text block missing text_content")
		}
		return anthropic.NewTextBlock(*block.TextContent), true, nil

	case llmprovider.BlockTypeThinking:
		signature, _ := block.Content["signature"].(string)
		if signature == "" {
			return param, false, nil
		}
		return anthropic.NewThinkingBlock(signature, block.Text()), true, nil

	case llmprovider.BlockTypeToolUse:
		id, _ := block.GetToolUseID()
		name, _ := block.GetToolName()
		if id == "" || name == "" {
			return param, false, fmt.Errorf("tool_use block needs tool_use_id and tool_name")
		}
		input, _ := block.GetToolInput()
		if input == nil {
			input = map[string]interface{}{}
		}
		return anthropic.NewToolUseBlock(id, input, name), true, nil

	case llmprovider.BlockTypeToolResult:
		id, _ := block.GetToolUseID()
		if id == "" {
			return param, false, fmt.Errorf("tool_result block missing tool_use_id")
		}
		return anthropic.NewToolResultBlock(id, block.Text(), block.IsErrorResult()), true, nil
	}
	return param, false, nil
}
