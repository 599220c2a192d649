// Package engine drives a generation: it sends requests through a
// Transport, turns the vendor's bytes into StreamEvents and runs the tool
// loop between steps.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
)

// DefaultMaxSteps is the step budget when neither the request nor Options set one.
const DefaultMaxSteps = 1

// Options configures an Engine.
type Options struct {
	// MaxSteps caps model turns per generation (default 1)
	MaxSteps int

	// ToolErrorsAsResults feeds failing tool handlers back to the model as
	// error results instead of failing the generation
	ToolErrorsAsResults bool

	// Logger receives step and tool logs (nil discards)
	Logger *slog.Logger

	// IDGenerator creates ids for turns and tool calls the vendor left
	// unnamed (default uuid.NewString)
	IDGenerator func() string
}

// Engine runs generations against one vendor.
type Engine struct {
	transport  llmprovider.Transport
	normalizer chunk.Normalizer
	options    Options
	logger     *slog.Logger
}

// New creates an Engine.
func New(transport llmprovider.Transport, normalizer chunk.Normalizer, options Options) *Engine {
	if options.MaxSteps < 1 {
		options.MaxSteps = DefaultMaxSteps
	}
	if options.IDGenerator == nil {
		options.IDGenerator = uuid.NewString
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		transport:  transport,
		normalizer: normalizer,
		options:    options,
		logger:     logger.With("provider", normalizer.Provider()),
	}
}

// Stream starts a streaming generation. Nothing is sent until the first
// call to Next on the returned stream.
func (e *Engine) Stream(ctx context.Context, req *llmprovider.GenerateRequest) (*EventStream, error) {
	return e.newStream(ctx, req, modeStreaming)
}

// Generate runs a blocking generation through the same step loop and
// returns the final Response, or the error that stopped it.
func (e *Engine) Generate(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.Response, error) {
	stream, err := e.newStream(ctx, req, modeBlocking)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	for {
		_, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return stream.Response()
}

func (e *Engine) newStream(ctx context.Context, req *llmprovider.GenerateRequest, m mode) (*EventStream, error) {
	if req == nil {
		return nil, &llmprovider.ValidationError{Field: "request", Reason: "is required", Err: llmprovider.ErrInvalidRequest}
	}
	if len(req.Messages) == 0 {
		return nil, &llmprovider.ValidationError{Field: "messages", Reason: "at least one message is required", Err: llmprovider.ErrInvalidRequest}
	}
	if err := llmprovider.ValidateRequestParams(req.Params); err != nil {
		return nil, err
	}

	profile := e.normalizer.Profile()
	framing, err := chunk.ParseFraming(profile.Framing)
	if err != nil {
		return nil, err
	}

	maxSteps := e.options.MaxSteps
	if req.MaxSteps > 0 {
		maxSteps = req.MaxSteps
	}

	processor := NewProcessor(e.normalizer.Reasons(), profile, e.logger)
	processor.newID = e.options.IDGenerator

	return &EventStream{
		ctx:       ctx,
		engine:    e,
		request:   req,
		mode:      m,
		framing:   framing,
		maxSteps:  maxSteps,
		messages:  append([]llmprovider.Message(nil), req.Messages...),
		builder:   llmprovider.NewResponseBuilder(req.Schema != nil),
		processor: processor,
		state:     NewState(),
		logger:    e.logger,
	}, nil
}
