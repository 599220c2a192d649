package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/sjson"

	"github.com/haowjy/meridian-llm-go"
)

// defaultMaxTokens is sent when the request sets no max_tokens; Anthropic requires one.
const defaultMaxTokens = 4096

// EncodeRequest builds the Messages API request body for req.
func EncodeRequest(req *llmprovider.GenerateRequest, stream bool) ([]byte, error) {
	profile, err := llmprovider.GetProfile(llmprovider.ProviderAnthropic)
	if err != nil {
		return nil, err
	}

	apiParams, err := buildMessageParams(req, profile)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(apiParams)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message params: %w", err)
	}

	if stream {
		body, err = sjson.SetBytes(body, "stream", true)
		if err != nil {
			return nil, fmt.Errorf("failed to set stream flag: %w", err)
		}
	}
	return body, nil
}

// buildMessageParams constructs Anthropic API parameters from a GenerateRequest.
func buildMessageParams(req *llmprovider.GenerateRequest, profile *llmprovider.VendorProfile) (anthropic.MessageNewParams, error) {
	messages, err := convertToAnthropicMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("failed to convert messages: %w", err)
	}

	params := req.Params
	if params == nil {
		params = &llmprovider.RequestParams{}
	}

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(params.GetMaxTokens(defaultMaxTokens)),
	}

	if params.Temperature != nil {
		apiParams.Temperature = anthropic.Float(*params.Temperature)
	}

	if params.TopP != nil {
		apiParams.TopP = anthropic.Float(*params.TopP)
	}

	if params.TopK != nil {
		apiParams.TopK = anthropic.Int(int64(*params.TopK))
	}

	if len(params.Stop) > 0 {
		apiParams.StopSequences = params.Stop
	}

	if system := params.GetSystem(); system != "" {
		apiParams.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: system,
			},
		}
	}

	// Thinking mode - convert user-friendly level to token budget
	if params.IsThinkingEnabled() {
		level := params.GetThinkingLevel()
		budgetTokens, err := profile.ThinkingBudget(level)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		apiParams.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(budgetTokens))

		// The budget must fit inside max_tokens
		if params.MaxTokens == nil && int64(budgetTokens) >= apiParams.MaxTokens {
			apiParams.MaxTokens = int64(budgetTokens + defaultMaxTokens)
		}
	}

	tools, err := convertToolsToAnthropicTools(req.Tools.Tools())
	if err != nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("failed to convert tools: %w", err)
	}
	if len(tools) > 0 {
		apiParams.Tools = tools
	}

	toolChoice, err := convertToolChoice(params.ToolChoice)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}
	if toolChoice != nil {
		apiParams.ToolChoice = *toolChoice
	}

	return apiParams, nil
}
