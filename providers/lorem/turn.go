package lorem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// mockSignature is sent as the last thinking delta, as Anthropic does
const mockSignature = "4k_a"

type toolCall struct {
	id    string
	name  string
	input map[string]interface{}
}

// turn is one generated assistant message.
type turn struct {
	id          string
	model       string
	inputTokens int

	thinking  string
	signature string
	text      string
	toolCall  *toolCall

	stopReason string
	overloaded bool
}

func (t *turn) outputTokens() int {
	tokens := len(strings.Fields(t.thinking)) + len(strings.Fields(t.text))
	if t.toolCall != nil {
		tokens += 20
	}
	return tokens
}

func (t *turn) usage(output int) map[string]interface{} {
	return map[string]interface{}{"input_tokens": t.inputTokens, "output_tokens": output}
}

// message renders the turn as a Messages API response body.
func (t *turn) message() map[string]interface{} {
	var content []map[string]interface{}
	if t.thinking != "" {
		content = append(content, map[string]interface{}{"type": "thinking", "thinking": t.thinking, "signature": t.signature})
	}
	content = append(content, map[string]interface{}{"type": "text", "text": t.text})
	if t.toolCall != nil {
		content = append(content, map[string]interface{}{
			"type":  "tool_use",
			"id":    t.toolCall.id,
			"name":  t.toolCall.name,
			"input": t.toolCall.input,
		})
	}

	return map[string]interface{}{
		"id":            t.id,
		"type":          "message",
		"role":          "assistant",
		"model":         t.model,
		"content":       content,
		"stop_reason":   t.stopReason,
		"stop_sequence": nil,
		"usage":         t.usage(t.outputTokens()),
	}
}

func overloadedError() map[string]interface{} {
	return map[string]interface{}{
		"type":  "error",
		"error": map[string]interface{}{"type": "overloaded_error", "message": "Overloaded"},
	}
}

// sseWriter writes event-framed SSE, pausing between content deltas.
type sseWriter struct {
	ctx   context.Context
	w     io.Writer
	delay time.Duration
}

func (s *sseWriter) event(data map[string]interface{}) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("lorem: marshal event: %w", err)
	}
	_, err = fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", data["type"], payload)
	return err
}

func (s *sseWriter) pause(delay time.Duration) error {
	if delay <= 0 {
		return s.ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *sseWriter) delta(index int, delta map[string]interface{}, delay time.Duration) error {
	if err := s.event(map[string]interface{}{"type": "content_block_delta", "index": index, "delta": delta}); err != nil {
		return err
	}
	return s.pause(delay)
}

// writeSSE streams the turn: thinking, text word by word, then the tool
// call's JSON in small fragments.
func (t *turn) writeSSE(ctx context.Context, w io.Writer, delay time.Duration) error {
	s := &sseWriter{ctx: ctx, w: w, delay: delay}

	err := s.event(map[string]interface{}{
		"type": "message_start",
		"message": map[string]interface{}{
			"id":          t.id,
			"type":        "message",
			"role":        "assistant",
			"model":       t.model,
			"content":     []interface{}{},
			"stop_reason": nil,
			"usage":       t.usage(1),
		},
	})
	if err != nil {
		return err
	}

	index := 0
	if t.thinking != "" {
		if err := t.writeThinking(s, index); err != nil {
			return err
		}
		index++
	}

	if err := t.writeText(s, index); err != nil {
		return err
	}
	index++

	if t.toolCall != nil {
		if err := t.writeToolCall(s, index); err != nil {
			return err
		}
	}

	if err := s.event(map[string]interface{}{
		"type":  "message_delta",
		"delta": map[string]interface{}{"stop_reason": t.stopReason, "stop_sequence": nil},
		"usage": map[string]interface{}{"output_tokens": t.outputTokens()},
	}); err != nil {
		return err
	}
	return s.event(map[string]interface{}{"type": "message_stop"})
}

func (t *turn) writeThinking(s *sseWriter, index int) error {
	if err := s.event(blockStart(index, map[string]interface{}{"type": "thinking", "thinking": ""})); err != nil {
		return err
	}
	for _, word := range strings.Fields(t.thinking) {
		if err := s.delta(index, map[string]interface{}{"type": "thinking_delta", "thinking": word + " "}, s.delay); err != nil {
			return err
		}
	}
	if err := s.delta(index, map[string]interface{}{"type": "signature_delta", "signature": t.signature}, 0); err != nil {
		return err
	}
	return s.event(blockStop(index))
}

func (t *turn) writeText(s *sseWriter, index int) error {
	if err := s.event(blockStart(index, map[string]interface{}{"type": "text", "text": ""})); err != nil {
		return err
	}

	words := strings.Fields(t.text)
	for i, word := range words {
		if i < len(words)-1 {
			word += " "
		}
		if err := s.delta(index, map[string]interface{}{"type": "text_delta", "text": word}, s.delay); err != nil {
			return err
		}
		// Simulated mid-stream failure after the first word
		if t.overloaded {
			return s.event(overloadedError())
		}
	}
	return s.event(blockStop(index))
}

func (t *turn) writeToolCall(s *sseWriter, index int) error {
	if err := s.event(blockStart(index, map[string]interface{}{
		"type":  "tool_use",
		"id":    t.toolCall.id,
		"name":  t.toolCall.name,
		"input": map[string]interface{}{},
	})); err != nil {
		return err
	}

	input, err := json.Marshal(t.toolCall.input)
	if err != nil {
		return fmt.Errorf("lorem: marshal tool input: %w", err)
	}

	// JSON streams faster than words
	const fragment = 8
	for start := 0; start < len(input); start += fragment {
		end := min(start+fragment, len(input))
		if err := s.delta(index, map[string]interface{}{"type": "input_json_delta", "partial_json": string(input[start:end])}, s.delay/10); err != nil {
			return err
		}
	}
	return s.event(blockStop(index))
}

func blockStart(index int, block map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "content_block_start", "index": index, "content_block": block}
}

func blockStop(index int) map[string]interface{} {
	return map[string]interface{}{"type": "content_block_stop", "index": index}
}
