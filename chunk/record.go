package chunk

import (
	llmprovider "github.com/haowjy/meridian-llm-go"
)

// Kind tags a Record.
type Kind int

const (
	KindIgnore Kind = iota
	KindTurnStart
	KindBlockStart
	KindBlockDelta
	KindBlockStop
	KindTurnDelta
	KindTurnStop
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindTurnStart:
		return "turn_start"
	case KindBlockStart:
		return "block_start"
	case KindBlockDelta:
		return "block_delta"
	case KindBlockStop:
		return "block_stop"
	case KindTurnDelta:
		return "turn_delta"
	case KindTurnStop:
		return "turn_stop"
	case KindError:
		return "error"
	default:
		return "ignore"
	}
}

// BlockKind is the kind of content block a record belongs to.
type BlockKind string

const (
	BlockText     BlockKind = "text"
	BlockThinking BlockKind = "thinking"
	BlockToolUse  BlockKind = "tool_use"

	// BlockOther covers vendor blocks with no normalized meaning
	// (server tool use, redacted thinking). Their deltas are dropped.
	BlockOther BlockKind = "other"
)

// DeltaKind is the kind of content a block delta carries.
type DeltaKind string

const (
	DeltaText      DeltaKind = "text"
	DeltaThinking  DeltaKind = "thinking"
	DeltaSignature DeltaKind = "signature"
	DeltaToolInput DeltaKind = "tool_input"
	DeltaCitation  DeltaKind = "citation"
)

// BlockKind returns the block a delta of this kind implies when it arrives
// without an explicit block start.
func (d DeltaKind) BlockKind() BlockKind {
	switch d {
	case DeltaThinking, DeltaSignature:
		return BlockThinking
	case DeltaToolInput:
		return BlockToolUse
	default:
		return BlockText
	}
}

// ErrorInfo describes a vendor error record.
type ErrorInfo struct {
	Type    string
	Message string
	Kind    llmprovider.ErrorKind
}

// Record is one vendor-neutral unit produced by a Normalizer. Which fields
// are meaningful depends on Kind.
type Record struct {
	Kind  Kind
	Index int // block index within the turn

	Block BlockKind
	Delta DeltaKind
	Text  string // text, thinking, signature or partial tool input

	ID    string // turn id (turn start) or tool call id (tool use)
	Name  string // tool name
	Model string

	Citation *llmprovider.Citation
	Usage    llmprovider.Usage

	// FinishReason is the raw vendor string; the processor maps it
	FinishReason string

	Error *ErrorInfo
}

// TurnStart announces a new assistant turn.
func TurnStart(id, model string, usage llmprovider.Usage) Record {
	return Record{Kind: KindTurnStart, ID: id, Model: model, Usage: usage}
}

// BlockStart opens block index. id and name are used by tool_use blocks.
func BlockStart(index int, kind BlockKind, id, name string) Record {
	return Record{Kind: KindBlockStart, Index: index, Block: kind, ID: id, Name: name}
}

// TextDelta carries text for block index.
func TextDelta(index int, text string) Record {
	return Record{Kind: KindBlockDelta, Index: index, Block: BlockText, Delta: DeltaText, Text: text}
}

// ThinkingDelta carries reasoning text for block index.
func ThinkingDelta(index int, text string) Record {
	return Record{Kind: KindBlockDelta, Index: index, Block: BlockThinking, Delta: DeltaThinking, Text: text}
}

// SignatureDelta carries a thinking signature fragment for block index.
func SignatureDelta(index int, signature string) Record {
	return Record{Kind: KindBlockDelta, Index: index, Block: BlockThinking, Delta: DeltaSignature, Text: signature}
}

// ToolInputDelta carries a fragment of tool-call argument JSON. id and name
// may be set on the first fragment when the vendor has no block start.
func ToolInputDelta(index int, id, name, partialJSON string) Record {
	return Record{Kind: KindBlockDelta, Index: index, Block: BlockToolUse, Delta: DeltaToolInput, ID: id, Name: name, Text: partialJSON}
}

// CitationDelta carries one citation for the text in block index.
func CitationDelta(index int, citation *llmprovider.Citation) Record {
	return Record{Kind: KindBlockDelta, Index: index, Block: BlockText, Delta: DeltaCitation, Citation: citation}
}

// BlockStop closes block index.
func BlockStop(index int) Record {
	return Record{Kind: KindBlockStop, Index: index}
}

// TurnDelta reports a finish reason and/or usage without ending the turn.
func TurnDelta(finishReason string, usage llmprovider.Usage) Record {
	return Record{Kind: KindTurnDelta, FinishReason: finishReason, Usage: usage}
}

// TurnStop ends the turn.
func TurnStop(finishReason string, usage llmprovider.Usage) Record {
	return Record{Kind: KindTurnStop, FinishReason: finishReason, Usage: usage}
}

// ErrorRecord reports a vendor error delivered inside the stream.
func ErrorRecord(info ErrorInfo) Record {
	return Record{Kind: KindError, Error: &info}
}

// Normalizer turns vendor payloads into Records. Implementations are
// stateless: everything that depends on earlier chunks lives in the engine.
type Normalizer interface {
	// Provider identifies the vendor for errors and logs
	Provider() llmprovider.ProviderID

	// Profile returns the vendor profile (framing, sentinel, paths)
	Profile() *llmprovider.VendorProfile

	// Reasons maps vendor finish reasons to FinishReason
	Reasons() llmprovider.ReasonTable

	// Normalize converts one streamed payload
	Normalize(payload Payload) ([]Record, error)

	// NormalizeResponse converts a complete blocking response body
	NormalizeResponse(body []byte) ([]Record, error)
}
