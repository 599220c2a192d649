package llmprovider

// GenerateRequest contains the parameters for an LLM generation.
type GenerateRequest struct {
	// Messages contains the conversation history.
	// Each message has a Role (user/assistant) and Blocks.
	Messages []Message

	// Model is the model identifier (e.g., "claude-haiku-4-5-20251001")
	Model string

	// Params contains all request parameters (temperature, max_tokens, thinking settings, etc.)
	// Wire encoders extract what they support from this unified struct.
	Params *RequestParams

	// Tools are the client-executed tools the model may call (optional)
	Tools *ToolSet

	// MaxSteps caps model turns for this request. Zero uses the engine default.
	MaxSteps int

	// Schema requests structured output matching this JSON schema (optional).
	// When set, the final step's text is parsed as JSON if the vendor did not
	// return a structured payload itself.
	Schema map[string]interface{}
}

// WithMessages returns a shallow copy of r carrying messages instead of r.Messages.
func (r *GenerateRequest) WithMessages(messages []Message) *GenerateRequest {
	clone := *r
	clone.Messages = messages
	return &clone
}

// Message represents a single message in the conversation.
type Message struct {
	// Role is either "user" or "assistant"
	Role string `json:"role"`

	// Blocks is the list of content blocks for this message
	Blocks []*Block `json:"blocks"`
}

// Text concatenates the text of every text block in the message.
func (m Message) Text() string {
	var text string
	for _, block := range m.Blocks {
		if block.BlockType == BlockTypeText {
			text += block.Text()
		}
	}
	return text
}
