// Package lorem is a mock vendor that speaks the Anthropic Messages wire
// format with lorem ipsum content. It needs no API key, so it drives the
// engine end to end in tests and local development. Pair it with
// NewNormalizer.
package lorem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/anthropic"
)

// Options configures the mock vendor.
type Options struct {
	// Words is the text length of each turn (default 20)
	Words int

	// ToolTurns is how many turns call a tool before the model answers.
	// A turn calls a tool while the conversation holds fewer tool-result
	// messages than ToolTurns and the request registers tools.
	ToolTurns int

	// Delay between streamed deltas. Zero uses the model's speed
	// (lorem-slow, lorem-fast, lorem-instant).
	Delay time.Duration

	// Logger receives debug logs (nil discards)
	Logger *slog.Logger
}

// Transport implements llmprovider.Transport with generated responses.
type Transport struct {
	options Options
	logger  *slog.Logger

	mu        sync.Mutex // guards generator
	generator *loremgen.Lorem
}

var _ llmprovider.Transport = (*Transport)(nil)

// NewTransport creates a lorem ipsum transport.
func NewTransport(options Options) *Transport {
	if options.Words <= 0 {
		options.Words = 20
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transport{
		options:   options,
		generator: loremgen.New(),
		logger:    logger.With("provider", llmprovider.ProviderLorem),
	}
}

// NewNormalizer returns the normalizer for lorem streams, which are
// Anthropic-formatted.
func NewNormalizer() (*anthropic.Normalizer, error) {
	return anthropic.NewNormalizer()
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow", "lorem-cutoff", "lorem-overloaded"
func SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// Stream returns an SSE body that replays a generated turn.
func (t *Transport) Stream(ctx context.Context, req *llmprovider.GenerateRequest) (io.ReadCloser, error) {
	turn, err := t.plan(req)
	if err != nil {
		return nil, err
	}

	delay := t.options.Delay
	if delay == 0 {
		delay = getStreamDelay(req.Model)
	}

	reader, writer := io.Pipe()
	go func() {
		err := turn.writeSSE(ctx, writer, delay)
		if err != nil {
			t.logger.Debug("stream stopped", "error", err)
		}
		writer.CloseWithError(err)
	}()
	return reader, nil
}

// Complete returns the turn as an Anthropic Message body.
func (t *Transport) Complete(ctx context.Context, req *llmprovider.GenerateRequest) ([]byte, error) {
	turn, err := t.plan(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if turn.overloaded {
		return json.Marshal(overloadedError())
	}
	return json.Marshal(turn.message())
}

// plan decides what the next turn contains from the conversation so far.
func (t *Transport) plan(req *llmprovider.GenerateRequest) (*turn, error) {
	if !SupportsModel(req.Model) {
		return nil, &llmprovider.ModelError{
			Model:    req.Model,
			Provider: llmprovider.ProviderLorem.String(),
			Reason:   "model not supported by Lorem provider (must start with 'lorem-')",
			Err:      llmprovider.ErrInvalidModel,
		}
	}

	params := req.Params
	if params == nil {
		params = &llmprovider.RequestParams{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	words := t.options.Words
	maxTokens := params.GetMaxTokens(4096)
	stopReason := "end_turn"
	if isCutoffModel(req.Model) || words > maxTokens {
		words = maxTokens
		stopReason = "max_tokens"
	}

	toolResults := 0
	for _, msg := range req.Messages {
		if msg.HasToolResults() {
			toolResults++
		}
	}

	tr := &turn{
		id:          fmt.Sprintf("msg_lorem_%d", toolResults),
		model:       req.Model,
		inputTokens: estimateTokens(req.Messages),
		text:        t.generateTextWords(words),
		stopReason:  stopReason,
		overloaded:  strings.Contains(req.Model, "overloaded"),
	}
	if params.IsThinkingEnabled() {
		tr.thinking = t.generateTextWords(words)
		tr.signature = mockSignature
	}

	if req.Tools.Len() > 0 && toolResults < t.options.ToolTurns {
		names := req.Tools.Names()
		name := names[toolResults%len(names)]
		def, err := req.Tools.Get(name)
		if err != nil {
			return nil, err
		}
		tr.toolCall = &toolCall{
			id:    fmt.Sprintf("toolu_lorem_%d", toolResults),
			name:  name,
			input: t.mockArguments(def.Parameters),
		}
		tr.stopReason = "tool_use"
	}

	t.logger.Debug("planned turn", "model", req.Model, "words", words, "tool_call", tr.toolCall != nil, "stop_reason", tr.stopReason)
	return tr, nil
}

// mockArguments fills every schema property with a value of its type.
func (t *Transport) mockArguments(schema map[string]interface{}) map[string]interface{} {
	args := map[string]interface{}{}
	properties, _ := schema["properties"].(map[string]interface{})
	for name, raw := range properties {
		property, _ := raw.(map[string]interface{})
		switch property["type"] {
		case "integer", "number":
			args[name] = 3
		case "boolean":
			args[name] = true
		case "array":
			args[name] = []string{t.generator.Word(4, 8)}
		case "object":
			args[name] = map[string]interface{}{}
		default:
			args[name] = t.generator.Word(4, 10)
		}
	}
	return args
}

// getStreamDelay returns the delay between words based on the model name.
// - lorem-slow: 2 words/second (500ms per word)
// - lorem-fast: 30 words/second (33ms per word)
// - lorem-instant: no delay
// - default: 10 words/second
func getStreamDelay(model string) time.Duration {
	switch {
	case strings.Contains(model, "instant"):
		return 0
	case strings.Contains(model, "slow"):
		return 500 * time.Millisecond
	case strings.Contains(model, "fast"):
		return 33 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}

// isCutoffModel returns true if the model should simulate max_tokens cutoff.
func isCutoffModel(model string) bool {
	return strings.Contains(model, "cutoff") || strings.Contains(model, "small")
}

// generateTextWords generates lorem ipsum text with approximately targetWords words.
func (t *Transport) generateTextWords(targetWords int) string {
	var sb strings.Builder
	wordCount := 0

	for wordCount < targetWords {
		sentence := t.generator.Sentence(5, 15)
		words := strings.Fields(sentence)
		if remaining := targetWords - wordCount; len(words) > remaining {
			words = words[:remaining]
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(strings.Join(words, " "))
		wordCount += len(words)
	}

	return sb.String()
}

// estimateTokens estimates the token count for a list of messages.
// Uses word count as a rough approximation.
func estimateTokens(messages []llmprovider.Message) int {
	totalWords := 0
	for _, msg := range messages {
		for _, block := range msg.Blocks {
			if block.TextContent != nil {
				totalWords += len(strings.Fields(*block.TextContent))
			}
		}
	}
	return totalWords
}
