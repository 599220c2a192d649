package openrouter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/haowjy/meridian-llm-go"
)

// convertToOpenRouterMessages converts library messages to OpenAI chat format.
// A non-empty system prompt becomes the leading system message.
func convertToOpenRouterMessages(system string, messages []llmprovider.Message) ([]openai.ChatCompletionMessage, error) {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for i, msg := range messages {
		converted, err := convertMessage(msg, i)
		if err != nil {
			return nil, err
		}
		result = append(result, converted...)
	}

	return result, nil
}

// convertMessage converts a single library message. Tool results become
// role "tool" messages, so one message may turn into several.
func convertMessage(msg llmprovider.Message, msgIndex int) ([]openai.ChatCompletionMessage, error) {
	var result []openai.ChatCompletionMessage
	var textParts []string
	var toolCalls []openai.ToolCall

	for j, block := range msg.Blocks {
		switch block.BlockType {
		case llmprovider.BlockTypeText:
			if block.TextContent != nil {
				textParts = append(textParts, *block.TextContent)
			}

		case llmprovider.BlockTypeToolResult:
			toolUseID, ok := block.GetToolUseID()
			if !ok || toolUseID == "" {
				return nil, fmt.Errorf("message %d, block %d: tool_result block missing tool_use_id", msgIndex, j)
			}
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    block.Text(),
				ToolCallID: toolUseID,
			})

		case llmprovider.BlockTypeToolUse:
			if msg.Role != llmprovider.RoleAssistant {
				return nil, fmt.Errorf("message %d, block %d: tool_use block in %s message", msgIndex, j, msg.Role)
			}
			call, err := convertToolUseToToolCall(block, msgIndex, j)
			if err != nil {
				return nil, err
			}
			toolCalls = append(toolCalls, call)

		default:
			// Thinking is not replayed: OpenRouter has no portable reasoning input
		}
	}

	switch msg.Role {
	case llmprovider.RoleUser, llmprovider.RoleAssistant:
	default:
		return nil, fmt.Errorf("message %d: unsupported role '%s'", msgIndex, msg.Role)
	}

	if len(textParts) > 0 || len(toolCalls) > 0 {
		result = append(result, openai.ChatCompletionMessage{
			Role:      msg.Role,
			Content:   strings.Join(textParts, "\n\n"),
			ToolCalls: toolCalls,
		})
	}

	return result, nil
}

// convertToolUseToToolCall converts a tool_use block to an OpenAI tool call.
func convertToolUseToToolCall(block *llmprovider.Block, msgIndex, blockIndex int) (openai.ToolCall, error) {
	toolUseID, ok := block.GetToolUseID()
	if !ok || toolUseID == "" {
		return openai.ToolCall{}, fmt.Errorf("message %d, block %d: tool_use block missing tool_use_id", msgIndex, blockIndex)
	}

	toolName, ok := block.GetToolName()
	if !ok || toolName == "" {
		return openai.ToolCall{}, fmt.Errorf("message %d, block %d: tool_use block missing tool_name", msgIndex, blockIndex)
	}

	input, ok := block.Content["input"]
	if !ok || input == nil {
		input = map[string]interface{}{}
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return openai.ToolCall{}, fmt.Errorf("message %d, block %d: failed to marshal tool input: %w", msgIndex, blockIndex, err)
	}

	return openai.ToolCall{
		ID:   toolUseID,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      toolName,
			Arguments: string(inputJSON),
		},
	}, nil
}
