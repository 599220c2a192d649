package engine

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
)

type mode int

const (
	modeStreaming mode = iota
	modeBlocking
)

type phase int

const (
	phaseIdle phase = iota
	phaseSent
	phaseDraining
	phaseToolsPending
	phaseToolsExecuted
	phaseDone
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseSent:
		return "sent"
	case phaseDraining:
		return "draining"
	case phaseToolsPending:
		return "tools_pending"
	case phaseToolsExecuted:
		return "tools_executed"
	case phaseDone:
		return "done"
	default:
		return "failed"
	}
}

// recordSource yields the records of one step.
type recordSource interface {
	next() (records []chunk.Record, done bool, err error)
}

type streamSource struct {
	decoder    *chunk.Decoder
	normalizer chunk.Normalizer
}

func (s *streamSource) next() ([]chunk.Record, bool, error) {
	result, err := s.decoder.Next()
	if errors.Is(err, io.EOF) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	switch result.Status {
	case chunk.StatusTerminate:
		return nil, true, nil
	case chunk.StatusPayload:
		records, err := s.normalizer.Normalize(result.Payload)
		return records, false, err
	default:
		return nil, false, nil
	}
}

type responseSource struct {
	records []chunk.Record
}

func (s *responseSource) next() ([]chunk.Record, bool, error) {
	records := s.records
	s.records = nil
	return records, true, nil
}

// EventStream is the pull-based sequence of events for one generation.
//
// Each Next call advances the step loop only as far as needed to produce one
// event: reading the vendor stream, then executing one pending tool at a
// time, then sending the next step. An EventStream is not safe for
// concurrent use; use Channel to consume it from another goroutine.
type EventStream struct {
	ctx     context.Context
	engine  *Engine
	request *llmprovider.GenerateRequest
	mode    mode
	framing chunk.Framing
	logger  *slog.Logger

	phase    phase
	maxSteps int

	messages  []llmprovider.Message
	builder   *llmprovider.ResponseBuilder
	processor *Processor
	state     *State
	source    recordSource
	body      io.Closer

	pending []llmprovider.StreamEvent

	step         llmprovider.Step
	pendingCalls []llmprovider.ToolCall
	results      []llmprovider.ToolResult

	err         error
	errReturned bool
	consumed    bool
}

// Next returns the next event. After the last event it returns io.EOF. When
// the generation fails, the Error event comes first, the next call returns
// the typed error, and io.EOF follows.
func (s *EventStream) Next() (llmprovider.StreamEvent, error) {
	for {
		if len(s.pending) > 0 {
			event := s.pending[0]
			s.pending = s.pending[1:]
			return event, nil
		}

		switch s.phase {
		case phaseIdle:
			if err := s.send(); err != nil {
				s.fail(err, false)
			}
		case phaseSent:
			s.phase = phaseDraining
		case phaseDraining:
			s.drain()
		case phaseToolsPending:
			s.executeNextTool()
		case phaseToolsExecuted:
			s.finishToolStep()
		case phaseDone:
			return llmprovider.StreamEvent{}, io.EOF
		case phaseFailed:
			if !s.errReturned {
				s.errReturned = true
				return llmprovider.StreamEvent{}, s.err
			}
			return llmprovider.StreamEvent{}, io.EOF
		}
	}
}

// All returns the events as a range-over-func sequence. A terminal error is
// yielded once as the last pair. The sequence can be ranged only once; a
// second range yields ErrStreamConsumed.
func (s *EventStream) All() iter.Seq2[llmprovider.StreamEvent, error] {
	return func(yield func(llmprovider.StreamEvent, error) bool) {
		if s.consumed {
			yield(llmprovider.StreamEvent{}, llmprovider.ErrStreamConsumed)
			return
		}
		s.consumed = true

		for {
			event, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(event, err) || err != nil {
				return
			}
		}
	}
}

// Response assembles the Response from the steps recorded so far. After a
// completed stream it holds every step; after a failure it holds the steps
// up to and including the failed one.
func (s *EventStream) Response() (*llmprovider.Response, error) {
	return s.builder.ToResponse()
}

// Messages returns the conversation as the orchestrator has built it.
func (s *EventStream) Messages() []llmprovider.Message {
	return append([]llmprovider.Message(nil), s.messages...)
}

// Close releases the vendor body. Further calls to Next return io.EOF.
func (s *EventStream) Close() error {
	err := s.closeBody()
	if s.phase != phaseFailed {
		s.phase = phaseDone
	}
	s.pending = nil
	return err
}

func (s *EventStream) closeBody() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}

func (s *EventStream) emit(events ...llmprovider.StreamEvent) {
	index := s.builder.Len()
	for _, event := range events {
		event.Step = index
		s.pending = append(s.pending, event)
	}
}

func (s *EventStream) send() error {
	s.state.Reset()
	if err := s.ctx.Err(); err != nil {
		return err
	}

	req := s.request.WithMessages(append([]llmprovider.Message(nil), s.messages...))

	s.logger.Info("starting step",
		"step", s.builder.Len()+1,
		"max_steps", s.maxSteps,
		"messages", len(s.messages),
	)

	switch s.mode {
	case modeStreaming:
		body, err := s.engine.transport.Stream(s.ctx, req)
		if err != nil {
			return err
		}
		s.body = body
		profile := s.engine.normalizer.Profile()
		s.source = &streamSource{
			decoder:    chunk.NewDecoder(body, s.framing, profile.DoneSentinel),
			normalizer: s.engine.normalizer,
		}
	case modeBlocking:
		raw, err := s.engine.transport.Complete(s.ctx, req)
		if err != nil {
			return err
		}
		records, err := s.engine.normalizer.NormalizeResponse(raw)
		if err != nil {
			return err
		}
		s.source = &responseSource{records: records}
	}

	s.phase = phaseSent
	return nil
}

func (s *EventStream) drain() {
	if err := s.ctx.Err(); err != nil {
		s.fail(err, false)
		return
	}

	records, done, err := s.source.next()
	if err != nil {
		s.fail(err, false)
		return
	}

	for _, rec := range records {
		s.emit(s.processor.Process(rec, s.state)...)
		if s.state.Ended() {
			break
		}
	}

	if err := s.state.Err(); err != nil {
		s.fail(err, true)
		return
	}
	if done && !s.state.Ended() {
		s.emit(s.processor.Finish(s.state)...)
	}
	if s.state.Ended() {
		s.closeBody()
		s.completeTurn()
	}
}

func (s *EventStream) completeTurn() {
	step := s.state.Step()

	if step.FinishReason == llmprovider.FinishReasonToolCalls && len(step.ToolCalls) > 0 {
		s.messages = append(s.messages, llmprovider.AssistantMessage(step))
		s.step = step
		s.pendingCalls = step.ToolCalls
		s.results = nil
		s.phase = phaseToolsPending
		return
	}

	step.Messages = s.Messages()
	s.builder.AddStep(step)
	s.phase = phaseDone
	s.logger.Info("generation finished",
		"steps", s.builder.Len(),
		"finish_reason", step.FinishReason,
	)
}

func (s *EventStream) executeNextTool() {
	call := s.pendingCalls[0]
	s.pendingCalls = s.pendingCalls[1:]

	result, err := s.invoke(call)
	if err != nil {
		if !s.engine.options.ToolErrorsAsResults {
			s.fail(&llmprovider.ToolInvocationError{ToolCallID: call.ID, ToolName: call.Name, Err: err}, false)
			return
		}
		s.logger.Warn("tool failed", "name", call.Name, "id", call.ID, "error", err)
		result.Result = err.Error()
		result.IsError = true
	} else {
		s.logger.Info("tool completed", "name", call.Name, "id", call.ID)
	}

	s.results = append(s.results, result)
	s.emit(llmprovider.StreamEvent{Type: llmprovider.EventToolResult, ToolResult: &result})

	if len(s.pendingCalls) == 0 {
		s.phase = phaseToolsExecuted
	}
}

func (s *EventStream) invoke(call llmprovider.ToolCall) (llmprovider.ToolResult, error) {
	result := llmprovider.ToolResult{ToolCallID: call.ID, ToolName: call.Name}

	handler, err := s.request.Tools.Resolve(call.Name)
	if err != nil {
		return result, err
	}

	args, err := call.ArgumentMap()
	if err != nil {
		return result, err
	}
	result.Args = args

	s.logger.Info("executing tool", "name", call.Name, "id", call.ID)
	value, err := handler(s.ctx, args)
	if err != nil {
		return result, err
	}
	result.Result = value
	return result, nil
}

func (s *EventStream) finishToolStep() {
	s.messages = append(s.messages, llmprovider.ToolResultMessage(s.results))

	step := s.step
	step.ToolResults = s.results
	step.Messages = s.Messages()
	s.builder.AddStep(step)
	s.step = llmprovider.Step{}
	s.results = nil

	if s.builder.Len() < s.maxSteps {
		s.phase = phaseIdle
		return
	}

	s.builder.MarkBudgetExhausted()
	s.phase = phaseDone
	s.logger.Info("generation finished",
		"steps", s.builder.Len(),
		"finish_reason", step.FinishReason,
		"budget_exhausted", true,
	)
}

// fail records the partial step and moves to phaseFailed. reported is true
// when the processor already emitted the Error event.
func (s *EventStream) fail(err error, reported bool) {
	if s.phase == phaseFailed {
		return
	}

	var step llmprovider.Step
	switch s.phase {
	case phaseToolsPending, phaseToolsExecuted:
		step = s.step
		step.ToolResults = s.results
	default:
		step = s.state.Step()
	}
	step.FinishReason = llmprovider.FinishReasonError
	step.Messages = s.Messages()

	if !reported {
		s.emit(llmprovider.ErrorEvent(err))
	}
	s.builder.AddStep(step)

	s.err = err
	s.phase = phaseFailed
	s.closeBody()
	s.logger.Error("generation failed", "steps", s.builder.Len(), "error", err)
}
