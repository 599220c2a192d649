package llmprovider

import (
	"errors"
	"fmt"
)

// ToolChoiceMode selects how the model may use the offered tools.
type ToolChoiceMode string

const (
	ToolChoiceModeAuto     ToolChoiceMode = "auto"     // model decides
	ToolChoiceModeRequired ToolChoiceMode = "required" // model must call some tool
	ToolChoiceModeNone     ToolChoiceMode = "none"     // model must not call tools
	ToolChoiceModeSpecific ToolChoiceMode = "specific" // model must call ToolChoice.ToolName
)

func (m ToolChoiceMode) valid() bool {
	switch m {
	case ToolChoiceModeAuto, ToolChoiceModeRequired, ToolChoiceModeNone, ToolChoiceModeSpecific:
		return true
	}
	return false
}

// FunctionDetails is the function half of a Tool.
type FunctionDetails struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema, type "object"
}

// Tool is the vendor-neutral wire definition of a function tool, in the
// OpenAI chat-completions shape. The Anthropic and Gemini encoders flatten it
// into input_schema and FunctionDeclaration respectively.
type Tool struct {
	Type     string          `json:"type"` // "function"
	Function FunctionDetails `json:"function"`
}

// Validate reports whether the tool can be sent to a vendor.
func (t *Tool) Validate() error {
	switch {
	case t.Type != "function":
		return fmt.Errorf("unsupported tool type %q", t.Type)
	case t.Function.Name == "":
		return errors.New("function name is required")
	}

	schemaType, _ := t.Function.Parameters["type"].(string)
	if schemaType != "object" {
		return errors.New("function parameters must be a JSON schema with type 'object'")
	}
	return nil
}

// Required lists the schema's required property names.
func (t *Tool) Required() []string {
	return requiredProperties(t.Function.Parameters)
}

// ToolChoice constrains tool selection for a request.
type ToolChoice struct {
	Mode     ToolChoiceMode `json:"mode"`
	ToolName *string        `json:"tool_name,omitempty"` // set only for ToolChoiceModeSpecific
}

// Validate reports whether the choice is complete.
func (tc *ToolChoice) Validate() error {
	if !tc.Mode.valid() {
		return fmt.Errorf("invalid tool choice mode %q", tc.Mode)
	}
	if tc.Mode == ToolChoiceModeSpecific && (tc.ToolName == nil || *tc.ToolName == "") {
		return errors.New("tool_name is required when mode is 'specific'")
	}
	return nil
}

// NewToolChoice returns a validated choice for a mode other than specific.
func NewToolChoice(mode ToolChoiceMode) (*ToolChoice, error) {
	return newToolChoice(ToolChoice{Mode: mode})
}

// NewSpecificToolChoice returns a choice that forces a call to toolName.
func NewSpecificToolChoice(toolName string) (*ToolChoice, error) {
	return newToolChoice(ToolChoice{Mode: ToolChoiceModeSpecific, ToolName: &toolName})
}

func newToolChoice(tc ToolChoice) (*ToolChoice, error) {
	if err := tc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tool choice: %w", err)
	}
	return &tc, nil
}
