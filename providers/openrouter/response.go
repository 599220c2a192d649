package openrouter

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
)

// NormalizeResponse converts a blocking chat completion into the same records
// a stream of it would have produced.
func (n *Normalizer) NormalizeResponse(body []byte) ([]chunk.Record, error) {
	if n.profile.HasError(body) {
		return []chunk.Record{n.errorRecord(body)}, nil
	}

	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &llmprovider.DecodeError{Raw: string(body), Err: err}
	}

	records := []chunk.Record{
		chunk.TurnStart(resp.ID, resp.Model, n.profile.ExtractUsage(body)),
	}
	if len(resp.Choices) == 0 {
		return append(records, chunk.TurnStop("", llmprovider.Usage{})), nil
	}

	choice := resp.Choices[0]

	if reasoning := reasoningText(gjson.GetBytes(body, "choices.0.message")); reasoning != "" {
		records = append(records, chunk.ThinkingDelta(thinkingIndex, reasoning))
	}
	if choice.Message.Content != "" {
		records = append(records, chunk.TextDelta(textIndex, choice.Message.Content))
	}
	for i, call := range choice.Message.ToolCalls {
		index := toolIndexStart + i
		records = append(records,
			chunk.BlockStart(index, chunk.BlockToolUse, call.ID, call.Function.Name),
			chunk.ToolInputDelta(index, "", "", call.Function.Arguments),
			chunk.BlockStop(index),
		)
	}

	return append(records, chunk.TurnStop(string(choice.FinishReason), llmprovider.Usage{})), nil
}
