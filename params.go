package llmprovider

import "fmt"

// RequestParams holds the generation knobs shared by every vendor. Fields are
// pointers so "unset" is distinct from the zero value; each wire encoder
// forwards the ones its vendor understands and ignores the rest.
type RequestParams struct {
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"` // 0.0-2.0
	TopP        *float64 `json:"top_p,omitempty"`       // 0.0-1.0
	TopK        *int     `json:"top_k,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        *int     `json:"seed,omitempty"`
	System      *string  `json:"system,omitempty"`

	// ThinkingLevel is "low", "medium" or "high"; the vendor profile's
	// thinking_budgets table turns it into a token budget.
	ThinkingEnabled *bool   `json:"thinking_enabled,omitempty"`
	ThinkingLevel   *string `json:"thinking_level,omitempty"`

	// OpenAI-compatible and Gemini only, -2.0 to 2.0
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`

	ToolChoice        *ToolChoice `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool       `json:"parallel_tool_calls,omitempty"`
}

var thinkingLevels = map[string]bool{"low": true, "medium": true, "high": true}

// ValidateRequestParams checks value ranges. A failure is a *ValidationError
// wrapping ErrInvalidRequest. Nil params are valid.
func ValidateRequestParams(params *RequestParams) error {
	if params == nil {
		return nil
	}

	invalid := func(field string, value any, reason string) error {
		return &ValidationError{Field: field, Value: value, Reason: reason, Err: ErrInvalidRequest}
	}

	floatRanges := []struct {
		field    string
		value    *float64
		min, max float64
	}{
		{"temperature", params.Temperature, 0, 2},
		{"top_p", params.TopP, 0, 1},
		{"frequency_penalty", params.FrequencyPenalty, -2, 2},
		{"presence_penalty", params.PresencePenalty, -2, 2},
	}
	for _, r := range floatRanges {
		if r.value != nil && (*r.value < r.min || *r.value > r.max) {
			return invalid(r.field, *r.value, fmt.Sprintf("must be between %.1f and %.1f", r.min, r.max))
		}
	}

	if params.TopK != nil && *params.TopK < 0 {
		return invalid("top_k", *params.TopK, "must be non-negative")
	}
	if params.MaxTokens != nil && *params.MaxTokens < 1 {
		return invalid("max_tokens", *params.MaxTokens, "must be positive")
	}
	if params.ThinkingLevel != nil && !thinkingLevels[*params.ThinkingLevel] {
		return invalid("thinking_level", *params.ThinkingLevel, "must be 'low', 'medium', or 'high'")
	}
	if params.ToolChoice != nil {
		if err := params.ToolChoice.Validate(); err != nil {
			return invalid("tool_choice", params.ToolChoice.Mode, err.Error())
		}
	}
	return nil
}

// GetMaxTokens returns max_tokens, or defaultValue when unset.
func (rp *RequestParams) GetMaxTokens(defaultValue int) int {
	if rp != nil && rp.MaxTokens != nil {
		return *rp.MaxTokens
	}
	return defaultValue
}

// GetSystem returns the system prompt, or "" when unset.
func (rp *RequestParams) GetSystem() string {
	if rp != nil && rp.System != nil {
		return *rp.System
	}
	return ""
}

// IsThinkingEnabled reports whether thinking was requested.
func (rp *RequestParams) IsThinkingEnabled() bool {
	return rp != nil && rp.ThinkingEnabled != nil && *rp.ThinkingEnabled
}

// GetThinkingLevel returns the requested thinking level, defaulting to "medium".
func (rp *RequestParams) GetThinkingLevel() string {
	if rp != nil && rp.ThinkingLevel != nil {
		return *rp.ThinkingLevel
	}
	return "medium"
}
