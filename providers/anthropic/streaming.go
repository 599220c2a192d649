package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"

	"github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
)

// Normalizer converts Anthropic Messages API events into chunk records.
type Normalizer struct {
	profile *llmprovider.VendorProfile
	reasons llmprovider.ReasonTable
}

var _ chunk.Normalizer = (*Normalizer)(nil)

// NewNormalizer creates a Normalizer using the registered Anthropic profile.
func NewNormalizer() (*Normalizer, error) {
	profile, err := llmprovider.GetProfile(llmprovider.ProviderAnthropic)
	if err != nil {
		return nil, err
	}
	return &Normalizer{
		profile: profile,
		reasons: profile.ApplyReasons(stopReasons()),
	}, nil
}

// stopReasons maps Anthropic stop_reason values.
func stopReasons() llmprovider.ReasonTable {
	return llmprovider.ReasonTable{
		string(anthropic.StopReasonEndTurn):      llmprovider.FinishReasonStop,
		string(anthropic.StopReasonStopSequence): llmprovider.FinishReasonStop,
		string(anthropic.StopReasonMaxTokens):    llmprovider.FinishReasonLength,
		string(anthropic.StopReasonToolUse):      llmprovider.FinishReasonToolCalls,
	}
}

func (n *Normalizer) Provider() llmprovider.ProviderID    { return llmprovider.ProviderAnthropic }
func (n *Normalizer) Profile() *llmprovider.VendorProfile { return n.profile }
func (n *Normalizer) Reasons() llmprovider.ReasonTable    { return n.reasons }

// Normalize converts one streamed event.
func (n *Normalizer) Normalize(payload chunk.Payload) ([]chunk.Record, error) {
	switch payload.Type {
	case "", "ping":
		return nil, nil
	case "error":
		return []chunk.Record{n.errorRecord(payload.Data)}, nil
	}

	var event anthropic.MessageStreamEventUnion
	if err := json.Unmarshal(payload.Data, &event); err != nil {
		return nil, &llmprovider.DecodeError{Raw: payload.Raw, Err: err}
	}

	switch e := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		return []chunk.Record{
			chunk.TurnStart(e.Message.ID, string(e.Message.Model), n.profile.ExtractUsage(payload.Data)),
		}, nil

	case anthropic.ContentBlockStartEvent:
		index := int(e.Index)
		kind := blockKind(e.ContentBlock.Type)
		records := []chunk.Record{chunk.BlockStart(index, kind, e.ContentBlock.ID, e.ContentBlock.Name)}
		if text := gjson.GetBytes(payload.Data, "content_block.text").String(); kind == chunk.BlockText && text != "" {
			records = append(records, chunk.TextDelta(index, text))
		}
		return records, nil

	case anthropic.ContentBlockDeltaEvent:
		index := int(e.Index)
		switch e.Delta.Type {
		case "text_delta":
			return []chunk.Record{chunk.TextDelta(index, e.Delta.Text)}, nil
		case "thinking_delta":
			return []chunk.Record{chunk.ThinkingDelta(index, e.Delta.Thinking)}, nil
		case "signature_delta":
			return []chunk.Record{chunk.SignatureDelta(index, e.Delta.Signature)}, nil
		case "input_json_delta":
			return []chunk.Record{chunk.ToolInputDelta(index, "", "", e.Delta.PartialJSON)}, nil
		case "citations_delta":
			citation := parseCitation(gjson.GetBytes(payload.Data, "delta.citation"))
			return []chunk.Record{chunk.CitationDelta(index, citation)}, nil
		}
		return nil, nil

	case anthropic.ContentBlockStopEvent:
		return []chunk.Record{chunk.BlockStop(int(e.Index))}, nil

	case anthropic.MessageDeltaEvent:
		return []chunk.Record{
			chunk.TurnDelta(string(e.Delta.StopReason), n.profile.ExtractUsage(payload.Data)),
		}, nil

	case anthropic.MessageStopEvent:
		return []chunk.Record{chunk.TurnStop("", llmprovider.Usage{})}, nil
	}

	return nil, nil
}

func (n *Normalizer) errorRecord(data []byte) chunk.Record {
	errType, message := n.profile.ExtractError(data)
	return chunk.ErrorRecord(chunk.ErrorInfo{
		Type:    errType,
		Message: message,
		Kind:    n.profile.ClassifyError(errType, 0),
	})
}

func blockKind(blockType string) chunk.BlockKind {
	switch blockType {
	case "text":
		return chunk.BlockText
	case "thinking":
		return chunk.BlockThinking
	case "tool_use":
		return chunk.BlockToolUse
	default:
		// server_tool_use, web_search_tool_result, redacted_thinking
		return chunk.BlockOther
	}
}

// parseCitation reads any of Anthropic's citation location shapes.
func parseCitation(c gjson.Result) *llmprovider.Citation {
	citation := &llmprovider.Citation{
		Type:  c.Get("type").String(),
		Text:  c.Get("cited_text").String(),
		URL:   c.Get("url").String(),
		Title: c.Get("title").String(),
	}
	if citation.Title == "" {
		citation.Title = c.Get("document_title").String()
	}

	intField := func(path string) *int {
		if v := c.Get(path); v.Exists() {
			n := int(v.Int())
			return &n
		}
		return nil
	}
	citation.StartIndex = intField("start_char_index")
	citation.EndIndex = intField("end_char_index")
	citation.DocumentIndex = intField("document_index")

	if v := c.Get("encrypted_index"); v.Exists() {
		citation.ProviderData = json.RawMessage(`{"encrypted_index":` + v.Raw + `}`)
	}
	return citation
}
