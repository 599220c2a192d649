package llmprovider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ToolCall is one tool invocation requested by the model.
//
// Arguments holds the decoded JSON value when the accumulated argument text
// parses, and the raw text otherwise. It is never nil for calls built with
// NewToolCall.
type ToolCall struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Arguments interface{} `json:"arguments"`

	// ResultID links a server-side tool call to its result (optional)
	ResultID string `json:"result_id,omitempty"`
}

// NewToolCall builds a ToolCall from the argument text accumulated while streaming.
// Empty or whitespace-only text becomes an empty object.
func NewToolCall(id, name, rawArguments string) ToolCall {
	return ToolCall{
		ID:        id,
		Name:      name,
		Arguments: parseToolArguments(rawArguments),
	}
}

func parseToolArguments(raw string) interface{} {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]interface{}{}
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return raw
	}
	if parsed == nil {
		return map[string]interface{}{}
	}
	return parsed
}

// ArgumentMap returns the call's arguments as a JSON object.
// "", "{}" and null all map to an empty map; anything that is not an object is an error.
func (c ToolCall) ArgumentMap() (map[string]interface{}, error) {
	switch args := c.Arguments.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return args, nil
	case string:
		return decodeArgumentObject([]byte(args), c.Name)
	case []byte:
		return decodeArgumentObject(args, c.Name)
	case json.RawMessage:
		return decodeArgumentObject(args, c.Name)
	default:
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("tool %q: failed to encode arguments: %w", c.Name, err)
		}
		return decodeArgumentObject(data, c.Name)
	}
}

func decodeArgumentObject(data []byte, toolName string) (map[string]interface{}, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return map[string]interface{}{}, nil
	}

	var args map[string]interface{}
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("tool %q: arguments are not a JSON object: %w", toolName, err)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}

// RawArguments returns the arguments as JSON text, suitable for wire formats
// that carry tool arguments as a string.
func (c ToolCall) RawArguments() string {
	switch args := c.Arguments.(type) {
	case nil:
		return "{}"
	case string:
		if strings.TrimSpace(args) == "" {
			return "{}"
		}
		return args
	case json.RawMessage:
		return string(args)
	default:
		data, err := json.Marshal(args)
		if err != nil {
			return "{}"
		}
		return string(data)
	}
}

// ToolResult is the outcome of executing one ToolCall.
type ToolResult struct {
	ToolCallID string                 `json:"tool_call_id"`
	ToolName   string                 `json:"tool_name"`
	Args       map[string]interface{} `json:"args,omitempty"`
	Result     interface{}            `json:"result"`

	// IsError marks results produced from a failed handler
	IsError bool `json:"is_error,omitempty"`
}

// FormatToolResult renders a tool result value as text for vendors that only
// accept string tool output. Strings pass through; everything else is JSON.
func FormatToolResult(result interface{}) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case json.RawMessage:
		return string(v)
	case error:
		return v.Error()
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}
