package llmprovider

import "encoding/json"

// Block type constants
const (
	BlockTypeText       = "text"
	BlockTypeThinking   = "thinking"    // Extended thinking / reasoning text
	BlockTypeToolUse    = "tool_use"    // Model asked for a client-executed tool
	BlockTypeToolResult = "tool_result" // Result sent back from a client-executed tool call
)

// Role constants for Message.Role
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Citation represents a reference from text content to an external source.
// Citations arrive as deltas while text streams and are attached to the next
// text delta emitted after them.
//
// Provider mappings:
// - Anthropic: citations_delta (char_location, web_search_result_location, ...)
// - OpenRouter: delta.annotations[] (url_citation)
type Citation struct {
	// Type indicates the citation type
	// Values: "char_location", "web_search_result_location", "url_citation", ...
	Type string `json:"type,omitempty"`

	// Text is the exact text that was cited
	Text string `json:"text,omitempty"`

	// StartIndex is the character position in the source where the citation starts (optional)
	StartIndex *int `json:"start_index,omitempty"`

	// EndIndex is the character position in the source where the citation ends (optional)
	EndIndex *int `json:"end_index,omitempty"`

	// DocumentIndex points at the cited document in the request (optional)
	DocumentIndex *int `json:"document_index,omitempty"`

	// URL is the cited resource URL
	URL string `json:"url,omitempty"`

	// Title is the page/document title
	Title string `json:"title,omitempty"`

	// ProviderData stores provider-specific citation data
	// Examples: Anthropic's encrypted_index
	ProviderData json.RawMessage `json:"provider_data,omitempty"`
}

// Block is one content block of a Message. Text, thinking and tool_result
// blocks carry their text in TextContent; Content holds the rest:
//   - thinking: {"signature": "..."} when signed
//   - tool_use: {"tool_use_id": "toolu_...", "tool_name": "...", "input": {...}}
//   - tool_result: {"tool_use_id": "toolu_...", "tool_name": "...", "is_error": false}
type Block struct {
	BlockType   string                 `json:"block_type"`
	Sequence    int                    `json:"sequence"` // 0-based position in the message
	TextContent *string                `json:"text_content,omitempty"`
	Content     map[string]interface{} `json:"content,omitempty"`
	Citations   []Citation             `json:"citations,omitempty"` // text blocks only
}

// IsToolBlock returns true if this is a tool-related block
func (b *Block) IsToolBlock() bool {
	return b.BlockType == BlockTypeToolUse || b.BlockType == BlockTypeToolResult
}

// IsToolUseBlock returns true if this is a tool_use block
func (b *Block) IsToolUseBlock() bool {
	return b.BlockType == BlockTypeToolUse
}

// IsToolResultBlock returns true if this is a tool_result block
func (b *Block) IsToolResultBlock() bool {
	return b.BlockType == BlockTypeToolResult
}

// GetToolUseID returns the tool_use_id from a tool_use or tool_result block
func (b *Block) GetToolUseID() (string, bool) {
	if !b.IsToolBlock() {
		return "", false
	}
	id, ok := b.Content["tool_use_id"].(string)
	return id, ok
}

// GetToolName returns the tool_name from a tool_use or tool_result block
func (b *Block) GetToolName() (string, bool) {
	if !b.IsToolBlock() {
		return "", false
	}
	name, ok := b.Content["tool_name"].(string)
	return name, ok
}

// GetToolInput returns the input from a tool_use block
func (b *Block) GetToolInput() (map[string]interface{}, bool) {
	if !b.IsToolUseBlock() {
		return nil, false
	}
	input, ok := b.Content["input"].(map[string]interface{})
	return input, ok
}

// IsErrorResult returns true if this is a tool_result block flagged as an error
func (b *Block) IsErrorResult() bool {
	if !b.IsToolResultBlock() {
		return false
	}
	isError, _ := b.Content["is_error"].(bool)
	return isError
}

// Text returns the block's text content, or "" when it has none
func (b *Block) Text() string {
	if b.TextContent == nil {
		return ""
	}
	return *b.TextContent
}
