package llmprovider

// EventType identifies the kind of a StreamEvent.
type EventType string

const (
	EventStreamStart      EventType = "stream_start"
	EventTextStart        EventType = "text_start"
	EventTextDelta        EventType = "text_delta"
	EventTextComplete     EventType = "text_complete"
	EventThinkingStart    EventType = "thinking_start"
	EventThinkingDelta    EventType = "thinking_delta"
	EventThinkingComplete EventType = "thinking_complete"
	EventToolCall         EventType = "tool_call"
	EventToolResult       EventType = "tool_result"
	EventError            EventType = "error"
	EventStreamEnd        EventType = "stream_end"
)

// StreamEvent is one vendor-neutral event of a generation.
// Which fields are set depends on Type:
//   - stream_start: ID, Model
//   - text_start, text_complete: BlockID
//   - text_delta: BlockID, Delta, Citations (citations seen since the previous text delta)
//   - thinking_start, thinking_complete: ReasoningID
//   - thinking_delta: ReasoningID, Delta
//   - tool_call: ToolCall
//   - tool_result: ToolResult
//   - error: Message, Err
//   - stream_end: FinishReason, Usage
//
// Step is the 0-based index of the step the event belongs to.
type StreamEvent struct {
	Type EventType `json:"type"`
	Step int       `json:"step"`

	ID    string `json:"id,omitempty"`
	Model string `json:"model,omitempty"`

	BlockID     string `json:"block_id,omitempty"`
	ReasoningID string `json:"reasoning_id,omitempty"`
	Delta       string `json:"delta,omitempty"`

	Citations []Citation `json:"citations,omitempty"`

	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`

	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`

	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Usage        *Usage       `json:"usage,omitempty"`
}

// ErrorEvent wraps err as an error event.
func ErrorEvent(err error) StreamEvent {
	return StreamEvent{Type: EventError, Message: err.Error(), Err: err}
}

// Fields returns the payload of the event as a flat map, keyed the same way
// for every vendor. Only the fields meaningful for the event's type are present.
func (e StreamEvent) Fields() map[string]any {
	fields := map[string]any{
		"type": string(e.Type),
		"step": e.Step,
	}

	switch e.Type {
	case EventStreamStart:
		fields["id"] = e.ID
		fields["model"] = e.Model
	case EventTextStart, EventTextComplete:
		fields["block_id"] = e.BlockID
	case EventTextDelta:
		fields["block_id"] = e.BlockID
		fields["delta"] = e.Delta
		if len(e.Citations) > 0 {
			fields["citations"] = e.Citations
		}
	case EventThinkingStart, EventThinkingComplete:
		fields["reasoning_id"] = e.ReasoningID
	case EventThinkingDelta:
		fields["reasoning_id"] = e.ReasoningID
		fields["delta"] = e.Delta
	case EventToolCall:
		if e.ToolCall != nil {
			fields["tool_id"] = e.ToolCall.ID
			fields["name"] = e.ToolCall.Name
			fields["arguments"] = e.ToolCall.Arguments
		}
	case EventToolResult:
		if e.ToolResult != nil {
			fields["tool_id"] = e.ToolResult.ToolCallID
			fields["name"] = e.ToolResult.ToolName
			fields["result"] = e.ToolResult.Result
			fields["is_error"] = e.ToolResult.IsError
		}
	case EventError:
		fields["message"] = e.Message
	case EventStreamEnd:
		fields["finish_reason"] = string(e.FinishReason)
		if e.Usage != nil {
			fields["usage"] = e.Usage.Fields()
		}
	}

	return fields
}
