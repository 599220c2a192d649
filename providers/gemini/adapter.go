package gemini

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/haowjy/meridian-llm-go"
)

// convertToGeminiContents converts library messages to Gemini contents.
// Assistant turns use the "model" role; tool results travel as
// functionResponse parts in a user turn.
func convertToGeminiContents(messages []llmprovider.Message) ([]*genai.Content, error) {
	result := make([]*genai.Content, 0, len(messages))

	for i, msg := range messages {
		var role string
		switch msg.Role {
		case llmprovider.RoleUser:
			role = genai.RoleUser
		case llmprovider.RoleAssistant:
			role = genai.RoleModel
		default:
			return nil, fmt.Errorf("message %d: unsupported role '%s'", i, msg.Role)
		}

		parts := make([]*genai.Part, 0, len(msg.Blocks))
		for j, block := range msg.Blocks {
			part, err := convertBlock(block, i, j)
			if err != nil {
				return nil, err
			}
			if part != nil {
				parts = append(parts, part)
			}
		}

		if len(parts) > 0 {
			result = append(result, &genai.Content{Role: role, Parts: parts})
		}
	}

	return result, nil
}

// convertBlock converts one block. Thinking returns nil: Gemini does not
// accept replayed thoughts.
func convertBlock(block *llmprovider.Block, msgIndex, blockIndex int) (*genai.Part, error) {
	switch block.BlockType {
	case llmprovider.BlockTypeText:
		if block.TextContent == nil {
			return nil, fmt.Errorf("message %d, block %d: text block missing text_content", msgIndex, blockIndex)
		}
		return &genai.Part{Text: *block.TextContent}, nil

	case llmprovider.BlockTypeToolUse:
		name, ok := block.GetToolName()
		if !ok || name == "" {
			return nil, fmt.Errorf("message %d, block %d: tool_use block missing tool_name", msgIndex, blockIndex)
		}
		args, _ := block.GetToolInput()
		return &genai.Part{FunctionCall: &genai.FunctionCall{Name: name, Args: args}}, nil

	case llmprovider.BlockTypeToolResult:
		name, ok := block.GetToolName()
		if !ok || name == "" {
			return nil, fmt.Errorf("message %d, block %d: tool_result block missing tool_name", msgIndex, blockIndex)
		}
		key := "output"
		if block.IsErrorResult() {
			key = "error"
		}
		return &genai.Part{FunctionResponse: &genai.FunctionResponse{
			Name:     name,
			Response: map[string]any{key: block.Text()},
		}}, nil
	}

	return nil, nil
}
