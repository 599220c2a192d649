package llmprovider

import (
	"encoding/json"
	"strings"
)

// Meta identifies the vendor message a step came from.
type Meta struct {
	// ID is the vendor's message id, or a generated one when the vendor sent none
	ID string `json:"id"`

	// Model is the model that was used (may differ from request if aliased)
	Model string `json:"model"`
}

// Step is one completed model turn plus the tool executions that followed it.
type Step struct {
	Text         string       `json:"text"`
	Thinking     string       `json:"thinking,omitempty"`
	FinishReason FinishReason `json:"finish_reason"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults  []ToolResult `json:"tool_results,omitempty"`
	Usage        Usage        `json:"usage"`
	Meta         Meta         `json:"meta"`
	Citations    []Citation   `json:"citations,omitempty"`

	// Messages is the conversation as it stood when the step completed
	Messages []Message `json:"messages,omitempty"`

	// AdditionalContent carries vendor data with no normalized field,
	// e.g. "thinking_signature"
	AdditionalContent map[string]any `json:"additional_content,omitempty"`

	// Structured is the parsed structured-output payload, when the vendor returned one
	Structured any `json:"structured,omitempty"`
}

// Response is the result of a generation: every step in order plus the
// flattened view of the final one.
type Response struct {
	Steps []Step `json:"steps"`

	// Text, FinishReason, Meta and Structured come from the last step
	Text         string       `json:"text"`
	FinishReason FinishReason `json:"finish_reason"`
	Meta         Meta         `json:"meta"`
	Structured   any          `json:"structured,omitempty"`

	// ToolCalls and ToolResults are concatenated across all steps
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`

	// Usage is summed across steps
	Usage Usage `json:"usage"`

	// BudgetExhausted is set when the step limit stopped a tool loop
	BudgetExhausted bool `json:"budget_exhausted,omitempty"`
}

// ResponseBuilder accumulates steps and assembles the final Response.
type ResponseBuilder struct {
	steps           []Step
	structured      bool
	budgetExhausted bool
}

// NewResponseBuilder creates a builder. When structured is true, ToResponse
// parses the final text as JSON if the last step carries no structured payload.
func NewResponseBuilder(structured bool) *ResponseBuilder {
	return &ResponseBuilder{structured: structured}
}

// AddStep appends a completed step. Slices are copied so later changes by
// the caller do not leak into the recorded step.
func (b *ResponseBuilder) AddStep(step Step) {
	step.ToolCalls = append([]ToolCall(nil), step.ToolCalls...)
	step.ToolResults = append([]ToolResult(nil), step.ToolResults...)
	step.Citations = append([]Citation(nil), step.Citations...)
	step.Messages = append([]Message(nil), step.Messages...)
	b.steps = append(b.steps, step)
}

// MarkBudgetExhausted records that the step limit ended the generation.
func (b *ResponseBuilder) MarkBudgetExhausted() {
	b.budgetExhausted = true
}

// Len returns the number of recorded steps.
func (b *ResponseBuilder) Len() int {
	return len(b.steps)
}

// Steps returns a copy of the recorded steps.
func (b *ResponseBuilder) Steps() []Step {
	return append([]Step(nil), b.steps...)
}

// ToResponse assembles the Response. It fails only when structured output was
// requested and the final text is not valid JSON, returning a *DecodeError.
func (b *ResponseBuilder) ToResponse() (*Response, error) {
	resp := &Response{
		Steps:           b.Steps(),
		FinishReason:    FinishReasonUnknown,
		BudgetExhausted: b.budgetExhausted,
	}
	if len(b.steps) == 0 {
		return resp, nil
	}

	for _, step := range b.steps {
		resp.ToolCalls = append(resp.ToolCalls, step.ToolCalls...)
		resp.ToolResults = append(resp.ToolResults, step.ToolResults...)
		resp.Usage = resp.Usage.Add(step.Usage)
	}

	last := b.steps[len(b.steps)-1]
	resp.Text = last.Text
	resp.FinishReason = last.FinishReason
	resp.Meta = last.Meta
	resp.Structured = last.Structured

	if b.structured && resp.Structured == nil && strings.TrimSpace(last.Text) != "" {
		structured, err := parseStructuredText(last.Text)
		if err != nil {
			return nil, err
		}
		resp.Structured = structured
	}

	return resp, nil
}

// parseStructuredText decodes text as JSON, tolerating a surrounding
// markdown code fence such as ```json ... ```.
func parseStructuredText(text string) (any, error) {
	body := stripCodeFence(text)

	var structured any
	if err := json.Unmarshal([]byte(body), &structured); err != nil {
		return nil, &DecodeError{Raw: text, Err: err}
	}
	return structured, nil
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line, including any language tag
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		trimmed = trimmed[newline+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(trimmed, "json")
	}

	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
