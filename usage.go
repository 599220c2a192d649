package llmprovider

// Usage holds token counts for one turn or a whole generation.
// A nil field means the vendor never reported it, which is different from zero.
type Usage struct {
	PromptTokens          *int `json:"prompt_tokens,omitempty"`
	CompletionTokens      *int `json:"completion_tokens,omitempty"`
	CacheWriteInputTokens *int `json:"cache_write_input_tokens,omitempty"`
	CacheReadInputTokens  *int `json:"cache_read_input_tokens,omitempty"`
	ThoughtTokens         *int `json:"thought_tokens,omitempty"`
}

// Merge overlays update on u within a single turn: each field reported by
// update replaces the current value, absent fields keep it.
func (u Usage) Merge(update Usage) Usage {
	return Usage{
		PromptTokens:          overlay(u.PromptTokens, update.PromptTokens),
		CompletionTokens:      overlay(u.CompletionTokens, update.CompletionTokens),
		CacheWriteInputTokens: overlay(u.CacheWriteInputTokens, update.CacheWriteInputTokens),
		CacheReadInputTokens:  overlay(u.CacheReadInputTokens, update.CacheReadInputTokens),
		ThoughtTokens:         overlay(u.ThoughtTokens, update.ThoughtTokens),
	}
}

// Add sums u and other across steps. A field stays nil unless at least one side reported it.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:          sum(u.PromptTokens, other.PromptTokens),
		CompletionTokens:      sum(u.CompletionTokens, other.CompletionTokens),
		CacheWriteInputTokens: sum(u.CacheWriteInputTokens, other.CacheWriteInputTokens),
		CacheReadInputTokens:  sum(u.CacheReadInputTokens, other.CacheReadInputTokens),
		ThoughtTokens:         sum(u.ThoughtTokens, other.ThoughtTokens),
	}
}

// IsZero reports whether no field was reported.
func (u Usage) IsZero() bool {
	return u.PromptTokens == nil &&
		u.CompletionTokens == nil &&
		u.CacheWriteInputTokens == nil &&
		u.CacheReadInputTokens == nil &&
		u.ThoughtTokens == nil
}

// Fields returns the reported counts keyed by JSON name, for logs and event payloads.
func (u Usage) Fields() map[string]any {
	fields := make(map[string]any)
	set := func(key string, v *int) {
		if v != nil {
			fields[key] = *v
		}
	}
	set("prompt_tokens", u.PromptTokens)
	set("completion_tokens", u.CompletionTokens)
	set("cache_write_input_tokens", u.CacheWriteInputTokens)
	set("cache_read_input_tokens", u.CacheReadInputTokens)
	set("thought_tokens", u.ThoughtTokens)
	return fields
}

func overlay(current, update *int) *int {
	if update == nil {
		return current
	}
	v := *update
	return &v
}

func sum(a, b *int) *int {
	if a == nil && b == nil {
		return nil
	}
	total := 0
	if a != nil {
		total += *a
	}
	if b != nil {
		total += *b
	}
	return &total
}

// Int returns a pointer to v, for building Usage literals.
func Int(v int) *int {
	return &v
}
