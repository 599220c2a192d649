package engine

import (
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
)

type handler func(p *Processor, rec chunk.Record, st *State) []llmprovider.StreamEvent

// Processor applies Records to a State and returns the StreamEvents each one
// produces. It holds no per-turn data, so one Processor serves every step.
type Processor struct {
	provider         llmprovider.ProviderID
	reasons          llmprovider.ReasonTable
	promoteToolCalls bool
	logger           *slog.Logger
	newID            func() string
	handlers         map[chunk.Kind]handler
}

// NewProcessor creates a Processor. profile may be nil; a nil logger discards.
func NewProcessor(reasons llmprovider.ReasonTable, profile *llmprovider.VendorProfile, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Processor{
		reasons: reasons,
		logger:  logger,
		newID:   uuid.NewString,
		handlers: map[chunk.Kind]handler{
			chunk.KindTurnStart:  (*Processor).handleTurnStart,
			chunk.KindBlockStart: (*Processor).handleBlockStart,
			chunk.KindBlockDelta: (*Processor).handleBlockDelta,
			chunk.KindBlockStop:  (*Processor).handleBlockStop,
			chunk.KindTurnDelta:  (*Processor).handleTurnDelta,
			chunk.KindTurnStop:   (*Processor).handleTurnStop,
			chunk.KindError:      (*Processor).handleError,
		},
	}
	if profile != nil {
		p.provider = llmprovider.ProviderID(profile.Provider)
		p.promoteToolCalls = profile.PromoteToolCalls
	}
	return p
}

// Process applies one record. Ignore records and kinds with no handler
// produce no events.
func (p *Processor) Process(rec chunk.Record, st *State) []llmprovider.StreamEvent {
	h, ok := p.handlers[rec.Kind]
	if !ok {
		return nil
	}
	return h(p, rec, st)
}

// Finish ends a turn whose stream stopped without a turn-stop record
// (done sentinel or end of body). It is a no-op for a turn already ended.
func (p *Processor) Finish(st *State) []llmprovider.StreamEvent {
	if st.ended {
		return nil
	}
	return p.endTurn(st)
}

func (p *Processor) handleTurnStart(rec chunk.Record, st *State) []llmprovider.StreamEvent {
	st.usage = st.usage.Merge(rec.Usage)
	return p.start(st, rec.ID, rec.Model)
}

func (p *Processor) handleBlockStart(rec chunk.Record, st *State) []llmprovider.StreamEvent {
	if p.finished(rec, st) {
		return nil
	}

	events := p.start(st, "", "")
	events = append(events, p.closeBlock(st)...)
	return append(events, p.openBlock(st, rec.Index, rec.Block, rec.ID, rec.Name)...)
}

func (p *Processor) handleBlockDelta(rec chunk.Record, st *State) []llmprovider.StreamEvent {
	if p.finished(rec, st) {
		return nil
	}

	events := p.start(st, "", "")

	if rec.Delta == chunk.DeltaCitation {
		if rec.Citation != nil {
			st.citations = append(st.citations, *rec.Citation)
			st.pendingCitations = append(st.pendingCitations, *rec.Citation)
		}
		return events
	}

	if st.block != nil && st.block.index == rec.Index && st.block.kind == chunk.BlockOther {
		return events
	}

	kind := rec.Block
	if kind == "" {
		kind = rec.Delta.BlockKind()
	}
	if st.block == nil || st.block.index != rec.Index || st.block.kind != kind {
		events = append(events, p.closeBlock(st)...)
		events = append(events, p.openBlock(st, rec.Index, kind, rec.ID, rec.Name)...)
	}

	block := st.block
	switch block.kind {
	case chunk.BlockText:
		st.text.WriteString(rec.Text)
		event := llmprovider.StreamEvent{
			Type:    llmprovider.EventTextDelta,
			BlockID: block.id,
			Delta:   rec.Text,
		}
		if len(st.pendingCitations) > 0 {
			event.Citations = st.pendingCitations
			st.pendingCitations = nil
		}
		events = append(events, event)

	case chunk.BlockThinking:
		if rec.Delta == chunk.DeltaSignature {
			st.signature.WriteString(rec.Text)
			return events
		}
		st.thinking.WriteString(rec.Text)
		events = append(events, llmprovider.StreamEvent{
			Type:        llmprovider.EventThinkingDelta,
			ReasoningID: block.id,
			Delta:       rec.Text,
		})

	case chunk.BlockToolUse:
		call := st.toolCallsInProgress[block.index]
		if rec.ID != "" && call.id == "" {
			call.id = rec.ID
		}
		if rec.Name != "" && call.name == "" {
			call.name = rec.Name
		}
		call.input.WriteString(rec.Text)
	}

	return events
}

func (p *Processor) handleBlockStop(rec chunk.Record, st *State) []llmprovider.StreamEvent {
	if p.finished(rec, st) {
		return nil
	}
	if st.block == nil || st.block.index != rec.Index {
		p.logger.Debug("ignoring stop for block that is not open", "index", rec.Index)
		return nil
	}
	return p.closeBlock(st)
}

func (p *Processor) handleTurnDelta(rec chunk.Record, st *State) []llmprovider.StreamEvent {
	st.usage = st.usage.Merge(rec.Usage)
	if rec.FinishReason != "" && !st.ended {
		st.finishReason = p.reasons.Lookup(rec.FinishReason)
	}
	return nil
}

func (p *Processor) handleTurnStop(rec chunk.Record, st *State) []llmprovider.StreamEvent {
	p.handleTurnDelta(rec, st)
	if st.ended {
		return nil
	}
	return p.endTurn(st)
}

func (p *Processor) handleError(rec chunk.Record, st *State) []llmprovider.StreamEvent {
	info := chunk.ErrorInfo{Kind: llmprovider.ErrorKindProvider}
	if rec.Error != nil {
		info = *rec.Error
	}

	err := llmprovider.NewProviderError(string(p.provider), 0, info.Kind, info.Type, info.Message)
	st.err = err
	st.finishReason = llmprovider.FinishReasonError
	st.ended = true
	st.block = nil

	p.logger.Warn("provider reported error in stream", "provider", p.provider, "kind", info.Kind, "type", info.Type)
	return []llmprovider.StreamEvent{llmprovider.ErrorEvent(err)}
}

// finished drops content records that arrive after the turn reached a
// terminal finish reason.
func (p *Processor) finished(rec chunk.Record, st *State) bool {
	if st.ended || st.finishReason.IsTerminal() {
		p.logger.Debug("dropping record after finish", "kind", rec.Kind, "finish_reason", st.finishReason)
		return true
	}
	return false
}

// start emits StreamStart once per turn. Later turn-start records only fill
// in a model that was unknown.
func (p *Processor) start(st *State, id, model string) []llmprovider.StreamEvent {
	if model != "" && st.model == "" {
		st.model = model
	}
	if st.started {
		return nil
	}

	st.started = true
	st.messageID = id
	if st.messageID == "" {
		st.messageID = p.newID()
	}
	return []llmprovider.StreamEvent{{
		Type:  llmprovider.EventStreamStart,
		ID:    st.messageID,
		Model: st.model,
	}}
}

func (p *Processor) openBlock(st *State, index int, kind chunk.BlockKind, id, name string) []llmprovider.StreamEvent {
	st.blockSeq++
	block := &blockContext{index: index, kind: kind, id: strconv.Itoa(st.blockSeq)}
	st.block = block

	switch kind {
	case chunk.BlockText:
		return []llmprovider.StreamEvent{{Type: llmprovider.EventTextStart, BlockID: block.id}}
	case chunk.BlockThinking:
		return []llmprovider.StreamEvent{{Type: llmprovider.EventThinkingStart, ReasoningID: block.id}}
	case chunk.BlockToolUse:
		st.toolCallsInProgress[index] = &toolCallInProgress{id: id, name: name}
	}
	return nil
}

func (p *Processor) closeBlock(st *State) []llmprovider.StreamEvent {
	block := st.block
	if block == nil {
		return nil
	}
	st.block = nil

	switch block.kind {
	case chunk.BlockText:
		return []llmprovider.StreamEvent{{Type: llmprovider.EventTextComplete, BlockID: block.id}}
	case chunk.BlockThinking:
		return []llmprovider.StreamEvent{{Type: llmprovider.EventThinkingComplete, ReasoningID: block.id}}
	case chunk.BlockToolUse:
		inProgress, ok := st.toolCallsInProgress[block.index]
		if !ok {
			return nil
		}
		delete(st.toolCallsInProgress, block.index)

		id := inProgress.id
		if id == "" {
			id = p.newID()
		}
		call := llmprovider.NewToolCall(id, inProgress.name, inProgress.input.String())
		st.toolCalls = append(st.toolCalls, call)
		return []llmprovider.StreamEvent{{Type: llmprovider.EventToolCall, ToolCall: &call}}
	}
	return nil
}

func (p *Processor) endTurn(st *State) []llmprovider.StreamEvent {
	events := p.start(st, "", "")
	events = append(events, p.closeBlock(st)...)

	reason := st.finishReason
	if reason == "" {
		reason = llmprovider.FinishReasonUnknown
	}
	if p.promoteToolCalls && len(st.toolCalls) > 0 &&
		(reason == llmprovider.FinishReasonStop || reason == llmprovider.FinishReasonUnknown) {
		reason = llmprovider.FinishReasonToolCalls
	}
	st.finishReason = reason
	st.ended = true

	usage := st.usage
	return append(events, llmprovider.StreamEvent{
		Type:         llmprovider.EventStreamEnd,
		FinishReason: reason,
		Usage:        &usage,
	})
}
