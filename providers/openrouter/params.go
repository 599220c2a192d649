package openrouter

import (
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/sjson"

	"github.com/haowjy/meridian-llm-go"
)

// EncodeRequest builds the chat completions request body for req.
func EncodeRequest(req *llmprovider.GenerateRequest, stream bool) ([]byte, error) {
	chatReq, err := buildChatRequest(req, stream)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	return applyExtensions(body, req.Params)
}

// buildChatRequest constructs the OpenAI-format request from a GenerateRequest.
func buildChatRequest(req *llmprovider.GenerateRequest, stream bool) (openai.ChatCompletionRequest, error) {
	params := req.Params
	if params == nil {
		params = &llmprovider.RequestParams{}
	}

	messages, err := convertToOpenRouterMessages(params.GetSystem(), req.Messages)
	if err != nil {
		return openai.ChatCompletionRequest{}, fmt.Errorf("failed to convert messages: %w", err)
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Stop:     params.Stop,
		Seed:     params.Seed,
	}

	if params.MaxTokens != nil {
		chatReq.MaxTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		chatReq.TopP = float32(*params.TopP)
	}
	if params.FrequencyPenalty != nil {
		chatReq.FrequencyPenalty = float32(*params.FrequencyPenalty)
	}
	if params.PresencePenalty != nil {
		chatReq.PresencePenalty = float32(*params.PresencePenalty)
	}

	if stream {
		chatReq.Stream = true
		// Usage arrives in a final chunk with no choices
		chatReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}

	tools, err := convertTools(req.Tools.Tools())
	if err != nil {
		return openai.ChatCompletionRequest{}, fmt.Errorf("failed to convert tools: %w", err)
	}
	chatReq.Tools = tools

	toolChoice, err := convertToolChoice(params.ToolChoice)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}
	chatReq.ToolChoice = toolChoice

	if params.ParallelToolCalls != nil && len(tools) > 0 {
		chatReq.ParallelToolCalls = *params.ParallelToolCalls
	}

	return chatReq, nil
}

// applyExtensions sets the fields go-openai cannot express: a temperature
// of exactly zero (dropped by omitempty), top_k, and OpenRouter's reasoning object.
func applyExtensions(body []byte, params *llmprovider.RequestParams) ([]byte, error) {
	if params == nil {
		return body, nil
	}

	var err error
	if params.Temperature != nil {
		if body, err = sjson.SetBytes(body, "temperature", *params.Temperature); err != nil {
			return nil, fmt.Errorf("failed to set temperature: %w", err)
		}
	}
	if params.TopK != nil {
		if body, err = sjson.SetBytes(body, "top_k", *params.TopK); err != nil {
			return nil, fmt.Errorf("failed to set top_k: %w", err)
		}
	}
	if params.IsThinkingEnabled() {
		level := params.GetThinkingLevel()
		if body, err = sjson.SetBytes(body, "reasoning.effort", level); err != nil {
			return nil, fmt.Errorf("failed to set reasoning: %w", err)
		}
	}
	return body, nil
}
