package openrouter

import (
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/haowjy/meridian-llm-go"
)

// convertTools converts library tools to OpenAI function tools.
func convertTools(tools []llmprovider.Tool) ([]openai.Tool, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	result := make([]openai.Tool, 0, len(tools))
	for i, tool := range tools {
		if err := tool.Validate(); err != nil {
			return nil, fmt.Errorf("tool %d (%s): %w", i, tool.Function.Name, err)
		}
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		})
	}
	return result, nil
}

// convertToolChoice converts library ToolChoice to the OpenAI tool_choice value.
// Returns nil if no tool choice specified (lets provider decide).
func convertToolChoice(choice *llmprovider.ToolChoice) (any, error) {
	if choice == nil {
		return nil, nil
	}

	if err := choice.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tool choice: %w", err)
	}

	switch choice.Mode {
	case llmprovider.ToolChoiceModeAuto, llmprovider.ToolChoiceModeNone, llmprovider.ToolChoiceModeRequired:
		return string(choice.Mode), nil
	case llmprovider.ToolChoiceModeSpecific:
		return openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: *choice.ToolName},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported tool choice mode: %s", choice.Mode)
	}
}
