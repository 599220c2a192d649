package anthropic

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
)

const toolUseStream = `event: message_start
data: {"type":"message_start","message":{"id":"msg_01","type":"message","role":"assistant","model":"claude-haiku-4-5","content":[],"stop_reason":null,"usage":{"input_tokens":25,"output_tokens":1}}}

event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}

event: ping
data: {"type":"ping"}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Checking"}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: content_block_start
data: {"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_01","name":"get_weather","input":{}}}

event: content_block_delta
data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"city\":"}}

event: content_block_delta
data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"Paris\"}"}}

event: content_block_stop
data: {"type":"content_block_stop","index":1}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":30}}

event: message_stop
data: {"type":"message_stop"}
`

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer()
	if err != nil {
		t.Fatalf("NewNormalizer() error = %v", err)
	}
	return n
}

// normalizeStream decodes a full SSE body through the Anthropic framing.
func normalizeStream(t *testing.T, n *Normalizer, body string) []chunk.Record {
	t.Helper()

	framing, err := chunk.ParseFraming(n.Profile().Framing)
	if err != nil {
		t.Fatalf("ParseFraming() error = %v", err)
	}
	decoder := chunk.NewDecoder(strings.NewReader(body), framing, n.Profile().DoneSentinel)

	var records []chunk.Record
	for {
		result, err := decoder.Next()
		if err == io.EOF {
			return records
		}
		if err != nil {
			t.Fatalf("decoder.Next() error = %v", err)
		}
		if result.Status != chunk.StatusPayload {
			continue
		}
		normalized, err := n.Normalize(result.Payload)
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		records = append(records, normalized...)
	}
}

func TestNormalize_ToolUseStream(t *testing.T) {
	n := newTestNormalizer(t)
	records := normalizeStream(t, n, toolUseStream)

	wantKinds := []chunk.Kind{
		chunk.KindTurnStart,
		chunk.KindBlockStart,
		chunk.KindBlockDelta,
		chunk.KindBlockStop,
		chunk.KindBlockStart,
		chunk.KindBlockDelta,
		chunk.KindBlockDelta,
		chunk.KindBlockStop,
		chunk.KindTurnDelta,
		chunk.KindTurnStop,
	}
	if len(records) != len(wantKinds) {
		t.Fatalf("got %d records, want %d: %+v", len(records), len(wantKinds), records)
	}
	for i, want := range wantKinds {
		if records[i].Kind != want {
			t.Errorf("records[%d].Kind = %v, want %v", i, records[i].Kind, want)
		}
	}

	start := records[0]
	if start.ID != "msg_01" || start.Model != "claude-haiku-4-5" {
		t.Errorf("turn start = %q/%q, want msg_01/claude-haiku-4-5", start.ID, start.Model)
	}
	if start.Usage.PromptTokens == nil || *start.Usage.PromptTokens != 25 {
		t.Errorf("turn start prompt tokens = %v, want 25", start.Usage.PromptTokens)
	}

	if got := records[2]; got.Delta != chunk.DeltaText || got.Text != "Checking" {
		t.Errorf("text delta = %+v", got)
	}

	tool := records[4]
	if tool.Block != chunk.BlockToolUse || tool.ID != "toolu_01" || tool.Name != "get_weather" || tool.Index != 1 {
		t.Errorf("tool block start = %+v", tool)
	}
	if got := records[5].Text + records[6].Text; got != `{"city":"Paris"}` {
		t.Errorf("tool input = %q", got)
	}

	delta := records[8]
	if delta.FinishReason != "tool_use" {
		t.Errorf("finish reason = %q, want tool_use", delta.FinishReason)
	}
	if n.Reasons().Lookup(delta.FinishReason) != llmprovider.FinishReasonToolCalls {
		t.Errorf("tool_use should map to tool_calls")
	}
	if delta.Usage.CompletionTokens == nil || *delta.Usage.CompletionTokens != 30 {
		t.Errorf("completion tokens = %v, want 30", delta.Usage.CompletionTokens)
	}
}

func TestNormalize_Deltas(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name  string
		data  string
		delta chunk.DeltaKind
		text  string
	}{
		{
			name:  "thinking",
			data:  `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"Let me see"}}`,
			delta: chunk.DeltaThinking,
			text:  "Let me see",
		},
		{
			name:  "signature",
			data:  `{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"EqQBCgIYAhIM"}}`,
			delta: chunk.DeltaSignature,
			text:  "EqQBCgIYAhIM",
		},
		{
			name:  "citation",
			data:  `{"type":"content_block_delta","index":0,"delta":{"type":"citations_delta","citation":{"type":"char_location","cited_text":"The sky is blue","document_index":0,"document_title":"Facts","start_char_index":4,"end_char_index":19}}}`,
			delta: chunk.DeltaCitation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := n.Normalize(chunk.Payload{Type: "content_block_delta", Data: []byte(tt.data), Raw: "data: " + tt.data})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("got %d records, want 1", len(records))
			}
			if records[0].Delta != tt.delta {
				t.Errorf("Delta = %q, want %q", records[0].Delta, tt.delta)
			}
			if records[0].Text != tt.text {
				t.Errorf("Text = %q, want %q", records[0].Text, tt.text)
			}
		})
	}
}

func TestNormalize_Citation(t *testing.T) {
	n := newTestNormalizer(t)
	data := `{"type":"content_block_delta","index":0,"delta":{"type":"citations_delta","citation":{"type":"char_location","cited_text":"The sky is blue","document_index":2,"document_title":"Facts","start_char_index":4,"end_char_index":19}}}`

	records, err := n.Normalize(chunk.Payload{Type: "content_block_delta", Data: []byte(data)})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	c := records[0].Citation
	if c == nil {
		t.Fatal("expected citation")
	}
	if c.Type != "char_location" || c.Text != "The sky is blue" || c.Title != "Facts" {
		t.Errorf("citation = %+v", c)
	}
	if c.StartIndex == nil || *c.StartIndex != 4 || c.EndIndex == nil || *c.EndIndex != 19 {
		t.Errorf("citation range = %v..%v, want 4..19", c.StartIndex, c.EndIndex)
	}
	if c.DocumentIndex == nil || *c.DocumentIndex != 2 {
		t.Errorf("document index = %v, want 2", c.DocumentIndex)
	}
}

func TestNormalize_Ignored(t *testing.T) {
	n := newTestNormalizer(t)

	for _, payload := range []chunk.Payload{
		{Type: "ping", Data: []byte(`{"type":"ping"}`)},
		{Type: "", Data: []byte(`{}`)},
		{Type: "content_block_start", Data: []byte(`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)},
	} {
		records, err := n.Normalize(payload)
		if err != nil {
			t.Fatalf("Normalize(%s) error = %v", payload.Type, err)
		}
		for _, r := range records {
			if r.Kind == chunk.KindBlockDelta {
				t.Errorf("Normalize(%s) produced a delta for empty text", payload.Type)
			}
		}
	}
}

func TestNormalize_ServerToolBlockIsOther(t *testing.T) {
	n := newTestNormalizer(t)
	data := `{"type":"content_block_start","index":0,"content_block":{"type":"server_tool_use","id":"srvtoolu_01","name":"web_search","input":{}}}`

	records, err := n.Normalize(chunk.Payload{Type: "content_block_start", Data: []byte(data)})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(records) != 1 || records[0].Block != chunk.BlockOther {
		t.Errorf("records = %+v, want one BlockOther start", records)
	}
}

func TestNormalize_ErrorEvent(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name string
		data string
		kind llmprovider.ErrorKind
	}{
		{
			name: "overloaded",
			data: `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
			kind: llmprovider.ErrorKindOverloaded,
		},
		{
			name: "rate limited",
			data: `{"type":"error","error":{"type":"rate_limit_error","message":"Slow down"}}`,
			kind: llmprovider.ErrorKindRateLimited,
		},
		{
			name: "api error",
			data: `{"type":"error","error":{"type":"api_error","message":"Internal"}}`,
			kind: llmprovider.ErrorKindProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := n.Normalize(chunk.Payload{Type: "error", Data: []byte(tt.data)})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if len(records) != 1 || records[0].Kind != chunk.KindError {
				t.Fatalf("records = %+v, want one error record", records)
			}
			if records[0].Error.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", records[0].Error.Kind, tt.kind)
			}
			if records[0].Error.Message == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestNormalize_MalformedEvent(t *testing.T) {
	n := newTestNormalizer(t)
	_, err := n.Normalize(chunk.Payload{
		Type: "content_block_delta",
		Data: []byte(`{"type":"content_block_delta",`),
		Raw:  `data: {"type":"content_block_delta",`,
	})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !errors.Is(err, llmprovider.ErrDecode) {
		t.Errorf("errors.Is(err, ErrDecode) = false for %v", err)
	}
}

func TestNormalizeResponse(t *testing.T) {
	n := newTestNormalizer(t)
	body := `{
		"id": "msg_02",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-5",
		"content": [
			{"type": "thinking", "thinking": "Plan", "signature": "sig"},
			{"type": "text", "text": "Calling the tool."},
			{"type": "tool_use", "id": "toolu_02", "name": "get_weather", "input": {"city": "Oslo"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 10, "output_tokens": 20}
	}`

	records, err := n.NormalizeResponse([]byte(body))
	if err != nil {
		t.Fatalf("NormalizeResponse() error = %v", err)
	}

	first, last := records[0], records[len(records)-1]
	if first.Kind != chunk.KindTurnStart || first.ID != "msg_02" {
		t.Errorf("first record = %+v, want turn start msg_02", first)
	}
	if first.Usage.CompletionTokens == nil || *first.Usage.CompletionTokens != 20 {
		t.Errorf("completion tokens = %v, want 20", first.Usage.CompletionTokens)
	}
	if last.Kind != chunk.KindTurnStop || last.FinishReason != "tool_use" {
		t.Errorf("last record = %+v, want turn stop tool_use", last)
	}

	var thinking, signature, text, input string
	var toolID string
	for _, r := range records {
		switch r.Delta {
		case chunk.DeltaThinking:
			thinking += r.Text
		case chunk.DeltaSignature:
			signature += r.Text
		case chunk.DeltaText:
			text += r.Text
		case chunk.DeltaToolInput:
			input += r.Text
		}
		if r.Kind == chunk.KindBlockStart && r.Block == chunk.BlockToolUse {
			toolID = r.ID
		}
	}
	if thinking != "Plan" || signature != "sig" || text != "Calling the tool." {
		t.Errorf("thinking/signature/text = %q/%q/%q", thinking, signature, text)
	}
	if toolID != "toolu_02" || !strings.Contains(input, `"Oslo"`) {
		t.Errorf("tool = %q %q", toolID, input)
	}
}

func TestNormalizeResponse_Error(t *testing.T) {
	n := newTestNormalizer(t)

	records, err := n.NormalizeResponse([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	if err != nil {
		t.Fatalf("NormalizeResponse() error = %v", err)
	}
	if len(records) != 1 || records[0].Error == nil || records[0].Error.Kind != llmprovider.ErrorKindOverloaded {
		t.Errorf("records = %+v, want one overloaded error", records)
	}

	if _, err := n.NormalizeResponse([]byte(`{not json`)); !errors.Is(err, llmprovider.ErrDecode) {
		t.Errorf("NormalizeResponse(invalid) error = %v, want ErrDecode", err)
	}
}
