package engine

import (
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
)

type blockContext struct {
	index int
	kind  chunk.BlockKind
	id    string
}

type toolCallInProgress struct {
	id    string
	name  string
	input strings.Builder
}

// State accumulates one turn. It is owned by a single EventStream and is
// reset between steps.
type State struct {
	messageID string
	model     string

	text      strings.Builder
	thinking  strings.Builder
	signature strings.Builder

	block    *blockContext
	blockSeq int

	toolCallsInProgress map[int]*toolCallInProgress
	toolCalls           []llmprovider.ToolCall

	citations        []llmprovider.Citation
	pendingCitations []llmprovider.Citation

	usage        llmprovider.Usage
	finishReason llmprovider.FinishReason

	started bool
	ended   bool
	err     error
}

// NewState creates an empty State.
func NewState() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset clears every field for a new turn.
func (s *State) Reset() {
	*s = State{toolCallsInProgress: make(map[int]*toolCallInProgress)}
}

// MessageID returns the turn id.
func (s *State) MessageID() string { return s.messageID }

// Model returns the model reported by the vendor.
func (s *State) Model() string { return s.model }

// Text returns the accumulated text.
func (s *State) Text() string { return s.text.String() }

// Thinking returns the accumulated reasoning text.
func (s *State) Thinking() string { return s.thinking.String() }

// Signature returns the accumulated thinking signature.
func (s *State) Signature() string { return s.signature.String() }

// ToolCalls returns the tool calls completed so far, in completion order.
func (s *State) ToolCalls() []llmprovider.ToolCall {
	return append([]llmprovider.ToolCall(nil), s.toolCalls...)
}

// Citations returns every citation seen this turn.
func (s *State) Citations() []llmprovider.Citation {
	return append([]llmprovider.Citation(nil), s.citations...)
}

// Usage returns the merged usage for the turn.
func (s *State) Usage() llmprovider.Usage { return s.usage }

// FinishReason returns the normalized finish reason, "" while none is known.
func (s *State) FinishReason() llmprovider.FinishReason { return s.finishReason }

// Ended reports whether the turn has stopped.
func (s *State) Ended() bool { return s.ended }

// Err returns the provider error reported inside the stream, if any.
func (s *State) Err() error { return s.err }

// Step snapshots the turn as a Step. Tool results and messages are filled in
// by the orchestrator.
func (s *State) Step() llmprovider.Step {
	reason := s.finishReason
	if reason == "" {
		reason = llmprovider.FinishReasonUnknown
	}

	step := llmprovider.Step{
		Text:         s.Text(),
		Thinking:     s.Thinking(),
		FinishReason: reason,
		ToolCalls:    s.ToolCalls(),
		Usage:        s.usage,
		Meta:         llmprovider.Meta{ID: s.messageID, Model: s.model},
		Citations:    s.Citations(),
	}
	if sig := s.Signature(); sig != "" {
		step.AdditionalContent = map[string]any{"thinking_signature": sig}
	}
	return step
}
