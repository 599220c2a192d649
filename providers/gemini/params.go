package gemini

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/haowjy/meridian-llm-go"
)

// generateRequest is the generateContent request body. Streaming and blocking
// share it; the endpoint selects the mode.
type generateRequest struct {
	Contents          []*genai.Content  `json:"contents"`
	SystemInstruction *genai.Content    `json:"systemInstruction,omitempty"`
	Tools             []*genai.Tool     `json:"tools,omitempty"`
	ToolConfig        *genai.ToolConfig `json:"toolConfig,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// generationConfig carries only the fields RequestParams can set, so unset
// parameters are omitted rather than sent as zero.
type generationConfig struct {
	Temperature      *float64              `json:"temperature,omitempty"`
	TopP             *float64              `json:"topP,omitempty"`
	TopK             *int                  `json:"topK,omitempty"`
	MaxOutputTokens  *int                  `json:"maxOutputTokens,omitempty"`
	StopSequences    []string              `json:"stopSequences,omitempty"`
	Seed             *int                  `json:"seed,omitempty"`
	PresencePenalty  *float64              `json:"presencePenalty,omitempty"`
	FrequencyPenalty *float64              `json:"frequencyPenalty,omitempty"`
	ThinkingConfig   *genai.ThinkingConfig `json:"thinkingConfig,omitempty"`
}

func (c generationConfig) isZero() bool {
	return c.Temperature == nil && c.TopP == nil && c.TopK == nil && c.MaxOutputTokens == nil &&
		len(c.StopSequences) == 0 && c.Seed == nil && c.PresencePenalty == nil &&
		c.FrequencyPenalty == nil && c.ThinkingConfig == nil
}

// EncodeRequest builds the generateContent request body for req.
func EncodeRequest(req *llmprovider.GenerateRequest, stream bool) ([]byte, error) {
	profile, err := llmprovider.GetProfile(llmprovider.ProviderGoogle)
	if err != nil {
		return nil, err
	}

	body, err := buildGenerateRequest(req, profile)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}
	return data, nil
}

func buildGenerateRequest(req *llmprovider.GenerateRequest, profile *llmprovider.VendorProfile) (*generateRequest, error) {
	contents, err := convertToGeminiContents(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	params := req.Params
	if params == nil {
		params = &llmprovider.RequestParams{}
	}

	body := &generateRequest{Contents: contents}

	if system := params.GetSystem(); system != "" {
		body.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	config := generationConfig{
		Temperature:      params.Temperature,
		TopP:             params.TopP,
		TopK:             params.TopK,
		MaxOutputTokens:  params.MaxTokens,
		StopSequences:    params.Stop,
		Seed:             params.Seed,
		PresencePenalty:  params.PresencePenalty,
		FrequencyPenalty: params.FrequencyPenalty,
	}

	if params.IsThinkingEnabled() {
		level := params.GetThinkingLevel()
		budget, err := profile.ThinkingBudget(level)
		if err != nil {
			return nil, err
		}
		budget32 := int32(budget)
		config.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true, ThinkingBudget: &budget32}
	}

	if !config.isZero() {
		body.GenerationConfig = &config
	}

	tools, err := convertTools(req.Tools.Tools())
	if err != nil {
		return nil, fmt.Errorf("failed to convert tools: %w", err)
	}
	body.Tools = tools

	toolConfig, err := convertToolChoice(params.ToolChoice)
	if err != nil {
		return nil, err
	}
	body.ToolConfig = toolConfig

	return body, nil
}

// convertTools gathers every function into one Gemini tool.
func convertTools(tools []llmprovider.Tool) ([]*genai.Tool, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for i, tool := range tools {
		if err := tool.Validate(); err != nil {
			return nil, fmt.Errorf("tool %d (%s): %w", i, tool.Function.Name, err)
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:                 tool.Function.Name,
			Description:          tool.Function.Description,
			ParametersJsonSchema: tool.Function.Parameters,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}, nil
}

// convertToolChoice maps ToolChoice to a function calling config.
// Returns nil if no tool choice specified (lets provider decide).
func convertToolChoice(choice *llmprovider.ToolChoice) (*genai.ToolConfig, error) {
	if choice == nil {
		return nil, nil
	}

	if err := choice.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tool choice: %w", err)
	}

	config := &genai.FunctionCallingConfig{}
	switch choice.Mode {
	case llmprovider.ToolChoiceModeAuto:
		config.Mode = genai.FunctionCallingConfigModeAuto
	case llmprovider.ToolChoiceModeRequired:
		config.Mode = genai.FunctionCallingConfigModeAny
	case llmprovider.ToolChoiceModeNone:
		config.Mode = genai.FunctionCallingConfigModeNone
	case llmprovider.ToolChoiceModeSpecific:
		config.Mode = genai.FunctionCallingConfigModeAny
		config.AllowedFunctionNames = []string{*choice.ToolName}
	default:
		return nil, fmt.Errorf("unsupported tool choice mode: %s", choice.Mode)
	}
	return &genai.ToolConfig{FunctionCallingConfig: config}, nil
}
