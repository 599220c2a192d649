package llmprovider

// FinishReason is the normalized reason a turn ended.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonError         FinishReason = "error"
	FinishReasonOther         FinishReason = "other"
	FinishReasonUnknown       FinishReason = "unknown"
)

// IsValid reports whether r is one of the normalized reasons.
func (r FinishReason) IsValid() bool {
	switch r {
	case FinishReasonStop, FinishReasonLength, FinishReasonContentFilter,
		FinishReasonToolCalls, FinishReasonError, FinishReasonOther, FinishReasonUnknown:
		return true
	}
	return false
}

// IsTerminal reports whether a turn with this reason ends the generation.
// ToolCalls continues into tool execution; Unknown and "" mean no reason yet.
func (r FinishReason) IsTerminal() bool {
	switch r {
	case FinishReasonStop, FinishReasonLength, FinishReasonContentFilter,
		FinishReasonError, FinishReasonOther:
		return true
	}
	return false
}

// ReasonTable maps vendor finish-reason strings to FinishReason.
type ReasonTable map[string]FinishReason

// Lookup maps a vendor reason. Unmapped and empty strings map to Unknown.
func (t ReasonTable) Lookup(vendor string) FinishReason {
	if r, ok := t[vendor]; ok {
		return r
	}
	return FinishReasonUnknown
}

// With returns a copy of t with overrides applied. Override values that are
// not valid reasons are skipped.
func (t ReasonTable) With(overrides map[string]string) ReasonTable {
	merged := make(ReasonTable, len(t)+len(overrides))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range overrides {
		if r := FinishReason(v); r.IsValid() {
			merged[k] = r
		}
	}
	return merged
}
