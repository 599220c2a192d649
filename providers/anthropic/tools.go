package anthropic

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/haowjy/meridian-llm-go"
)

// convertToolsToAnthropicTools flattens OpenAI-shaped tools into Anthropic
// custom tools: the parameter schema becomes input_schema with properties and
// required lifted out and every other keyword kept as an extra field.
func convertToolsToAnthropicTools(tools []llmprovider.Tool) ([]anthropic.ToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for i := range tools {
		tool := &tools[i]
		if err := tool.Validate(); err != nil {
			return nil, fmt.Errorf("tool %d (%s): %w", i, tool.Function.Name, err)
		}

		schema := anthropic.ToolInputSchemaParam{
			Properties:  tool.Function.Parameters["properties"],
			Required:    tool.Required(),
			ExtraFields: map[string]any{},
		}
		for key, value := range tool.Function.Parameters {
			switch key {
			case "type", "properties", "required":
			default:
				schema.ExtraFields[key] = value
			}
		}

		param := anthropic.ToolUnionParamOfTool(schema, tool.Function.Name)
		if tool.Function.Description != "" && param.OfTool != nil {
			param.OfTool.Description = anthropic.String(tool.Function.Description)
		}
		result = append(result, param)
	}
	return result, nil
}

// convertToolChoice maps ToolChoice onto Anthropic's tool_choice union.
// A nil choice leaves the field unset. Required is Anthropic's "any".
func convertToolChoice(choice *llmprovider.ToolChoice) (*anthropic.ToolChoiceUnionParam, error) {
	if choice == nil {
		return nil, nil
	}
	if err := choice.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tool choice: %w", err)
	}

	var param anthropic.ToolChoiceUnionParam
	switch choice.Mode {
	case llmprovider.ToolChoiceModeAuto:
		param.OfAuto = &anthropic.ToolChoiceAutoParam{}
	case llmprovider.ToolChoiceModeRequired:
		param.OfAny = &anthropic.ToolChoiceAnyParam{}
	case llmprovider.ToolChoiceModeNone:
		none := anthropic.NewToolChoiceNoneParam()
		param.OfNone = &none
	case llmprovider.ToolChoiceModeSpecific:
		param = anthropic.ToolChoiceParamOfTool(*choice.ToolName)
	}
	return &param, nil
}
