package openrouter

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
)

// Chat completions have no block boundaries, so each content kind gets a
// fixed block index and the engine opens and closes blocks as kinds change.
const (
	thinkingIndex  = 0
	textIndex      = 1
	toolIndexStart = 2
)

// Normalizer converts OpenRouter chat completion chunks into chunk records.
type Normalizer struct {
	profile *llmprovider.VendorProfile
	reasons llmprovider.ReasonTable
}

var _ chunk.Normalizer = (*Normalizer)(nil)

// NewNormalizer creates a Normalizer using the registered OpenRouter profile.
func NewNormalizer() (*Normalizer, error) {
	profile, err := llmprovider.GetProfile(llmprovider.ProviderOpenRouter)
	if err != nil {
		return nil, err
	}
	return &Normalizer{
		profile: profile,
		reasons: profile.ApplyReasons(finishReasons()),
	}, nil
}

// finishReasons maps OpenAI finish_reason values. OpenRouter adds "error"
// for upstream failures after the stream started.
func finishReasons() llmprovider.ReasonTable {
	return llmprovider.ReasonTable{
		string(openai.FinishReasonStop):          llmprovider.FinishReasonStop,
		string(openai.FinishReasonLength):        llmprovider.FinishReasonLength,
		string(openai.FinishReasonToolCalls):     llmprovider.FinishReasonToolCalls,
		string(openai.FinishReasonFunctionCall):  llmprovider.FinishReasonToolCalls,
		string(openai.FinishReasonContentFilter): llmprovider.FinishReasonContentFilter,
		"error":                                  llmprovider.FinishReasonError,
	}
}

func (n *Normalizer) Provider() llmprovider.ProviderID    { return llmprovider.ProviderOpenRouter }
func (n *Normalizer) Profile() *llmprovider.VendorProfile { return n.profile }
func (n *Normalizer) Reasons() llmprovider.ReasonTable    { return n.reasons }

// Normalize converts one streamed chunk. Every chunk starts with a turn-start
// record; the engine keeps the first id and merges usage from later ones.
func (n *Normalizer) Normalize(payload chunk.Payload) ([]chunk.Record, error) {
	if n.profile.HasError(payload.Data) {
		return []chunk.Record{n.errorRecord(payload.Data)}, nil
	}

	var resp openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(payload.Data, &resp); err != nil {
		return nil, &llmprovider.DecodeError{Raw: payload.Raw, Err: err}
	}

	records := []chunk.Record{
		chunk.TurnStart(resp.ID, resp.Model, n.profile.ExtractUsage(payload.Data)),
	}
	if len(resp.Choices) == 0 {
		return records, nil
	}

	choice := resp.Choices[0]
	delta := gjson.GetBytes(payload.Data, "choices.0.delta")

	if reasoning := reasoningText(delta); reasoning != "" {
		records = append(records, chunk.ThinkingDelta(thinkingIndex, reasoning))
	}
	if choice.Delta.Content != "" {
		records = append(records, chunk.TextDelta(textIndex, choice.Delta.Content))
	}
	for i, call := range choice.Delta.ToolCalls {
		slot := i
		if call.Index != nil {
			slot = *call.Index
		}
		records = append(records, chunk.ToolInputDelta(
			toolIndexStart+slot, call.ID, call.Function.Name, call.Function.Arguments,
		))
	}

	// The usage chunk follows the finish reason, so this is not a turn stop.
	// The done sentinel ends the turn.
	if choice.FinishReason != "" {
		records = append(records, chunk.TurnDelta(string(choice.FinishReason), llmprovider.Usage{}))
	}

	return records, nil
}

func (n *Normalizer) errorRecord(data []byte) chunk.Record {
	errType, message := n.profile.ExtractError(data)
	status := int(gjson.GetBytes(data, "error.code").Int())
	return chunk.ErrorRecord(chunk.ErrorInfo{
		Type:    errType,
		Message: message,
		Kind:    n.profile.ClassifyError(errType, status),
	})
}

// reasoningText reads OpenRouter's "reasoning" field, falling back to the
// "reasoning_content" spelling some upstreams use.
func reasoningText(r gjson.Result) string {
	if v := r.Get("reasoning"); v.Type == gjson.String {
		return v.String()
	}
	return r.Get("reasoning_content").String()
}
