package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
)

// Gemini parts carry no block boundaries. Text and thoughts use fixed block
// indexes the engine opens implicitly; function calls arrive whole and get
// explicit blocks after them.
const (
	thoughtIndex   = 0
	textIndex      = 1
	toolIndexStart = 2
)

// Normalizer converts Gemini GenerateContentResponse chunks into chunk records.
type Normalizer struct {
	profile *llmprovider.VendorProfile
	reasons llmprovider.ReasonTable
}

var _ chunk.Normalizer = (*Normalizer)(nil)

// NewNormalizer creates a Normalizer using the registered Google profile.
func NewNormalizer() (*Normalizer, error) {
	profile, err := llmprovider.GetProfile(llmprovider.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	return &Normalizer{
		profile: profile,
		reasons: profile.ApplyReasons(finishReasons()),
	}, nil
}

// finishReasons maps Gemini finishReason values. Gemini reports STOP for
// turns that end in function calls; the profile promotes those.
func finishReasons() llmprovider.ReasonTable {
	return llmprovider.ReasonTable{
		string(genai.FinishReasonStop):                  llmprovider.FinishReasonStop,
		string(genai.FinishReasonMaxTokens):             llmprovider.FinishReasonLength,
		string(genai.FinishReasonSafety):                llmprovider.FinishReasonContentFilter,
		string(genai.FinishReasonRecitation):            llmprovider.FinishReasonContentFilter,
		string(genai.FinishReasonOther):                 llmprovider.FinishReasonOther,
		string(genai.FinishReasonMalformedFunctionCall): llmprovider.FinishReasonError,
		string(genai.FinishReasonUnspecified):           llmprovider.FinishReasonUnknown,
	}
}

func (n *Normalizer) Provider() llmprovider.ProviderID    { return llmprovider.ProviderGoogle }
func (n *Normalizer) Profile() *llmprovider.VendorProfile { return n.profile }
func (n *Normalizer) Reasons() llmprovider.ReasonTable    { return n.reasons }

// Normalize converts one streamed chunk. The stream has no terminator; the
// engine ends the turn at end of body.
func (n *Normalizer) Normalize(payload chunk.Payload) ([]chunk.Record, error) {
	return n.normalize(payload.Data, payload.Raw)
}

// NormalizeResponse converts a blocking generateContent response.
func (n *Normalizer) NormalizeResponse(body []byte) ([]chunk.Record, error) {
	records, err := n.normalize(body, string(body))
	if err != nil {
		return nil, err
	}
	if len(records) == 1 && records[0].Kind == chunk.KindError {
		return records, nil
	}
	return append(records, chunk.TurnStop("", llmprovider.Usage{})), nil
}

func (n *Normalizer) normalize(data []byte, raw string) ([]chunk.Record, error) {
	if n.profile.HasError(data) {
		return []chunk.Record{n.errorRecord(data)}, nil
	}

	var resp genai.GenerateContentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &llmprovider.DecodeError{Raw: raw, Err: err}
	}

	records := []chunk.Record{
		chunk.TurnStart(resp.ResponseID, resp.ModelVersion, n.profile.ExtractUsage(data)),
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return append(records, chunk.TurnDelta(string(resp.PromptFeedback.BlockReason), llmprovider.Usage{})), nil
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return records, nil
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		calls := 0
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			switch {
			case part.FunctionCall != nil:
				callRecords, err := functionCallRecords(toolIndexStart+calls, part.FunctionCall)
				if err != nil {
					return nil, &llmprovider.DecodeError{Raw: raw, Err: err}
				}
				records = append(records, callRecords...)
				calls++
			case part.Text == "":
			case part.Thought:
				records = append(records, chunk.ThinkingDelta(thoughtIndex, part.Text))
			default:
				records = append(records, chunk.TextDelta(textIndex, part.Text))
			}
		}
	}

	if candidate.FinishReason != "" {
		records = append(records, chunk.TurnDelta(string(candidate.FinishReason), llmprovider.Usage{}))
	}

	return records, nil
}

// functionCallRecords wraps a complete function call in its own block. An
// empty call id is filled in by the engine.
func functionCallRecords(index int, call *genai.FunctionCall) ([]chunk.Record, error) {
	args := []byte("{}")
	if call.Args != nil {
		var err error
		if args, err = json.Marshal(call.Args); err != nil {
			return nil, fmt.Errorf("function call %s: %w", call.Name, err)
		}
	}
	return []chunk.Record{
		chunk.BlockStart(index, chunk.BlockToolUse, call.ID, call.Name),
		chunk.ToolInputDelta(index, "", "", string(args)),
		chunk.BlockStop(index),
	}, nil
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
