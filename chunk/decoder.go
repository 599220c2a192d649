// Package chunk classifies framed SSE lines into payloads and defines the
// vendor-neutral Record union that normalizers produce from them.
package chunk

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/frame"
)

// Framing selects how event types are carried in the stream.
type Framing int

const (
	// FramingData streams "data:" lines only; the type lives in the JSON
	FramingData Framing = iota
	// FramingEvent precedes each "data:" line with an "event:" line
	FramingEvent
)

// ParseFraming maps a profile framing name ("data" or "event").
func ParseFraming(name string) (Framing, error) {
	switch name {
	case "", "data":
		return FramingData, nil
	case "event":
		return FramingEvent, nil
	default:
		return FramingData, fmt.Errorf("unknown framing: %q", name)
	}
}

// Status is the classification of one line.
type Status int

const (
	StatusSkip Status = iota
	StatusPayload
	StatusTerminate
)

func (s Status) String() string {
	switch s {
	case StatusPayload:
		return "payload"
	case StatusTerminate:
		return "terminate"
	default:
		return "skip"
	}
}

// Payload is one decoded JSON frame. Type is the event type from the
// "event:" line or the payload's "type" field.
type Payload struct {
	Type string
	Data []byte

	// Raw is the line the payload came from
	Raw string
}

// Result is the outcome of decoding one line.
type Result struct {
	Status  Status
	Payload Payload
}

// Decoder turns framed lines into payloads. It keeps the pending event type
// between an "event:" line and the "data:" line that follows it.
type Decoder struct {
	lines     *frame.Reader
	framing   Framing
	done      string
	eventType string
}

// NewDecoder creates a Decoder reading lines from r. doneSentinel is the data
// value that ends the stream ("" for none).
func NewDecoder(r io.Reader, framing Framing, doneSentinel string) *Decoder {
	return &Decoder{
		lines:   frame.NewReader(r),
		framing: framing,
		done:    doneSentinel,
	}
}

// Next reads and decodes the next line. It returns io.EOF when the body ends.
func (d *Decoder) Next() (Result, error) {
	line, err := d.lines.ReadLine()
	if err != nil {
		if err == io.EOF {
			return Result{}, io.EOF
		}
		return Result{}, fmt.Errorf("chunk: read line: %w", err)
	}
	return d.Decode(line)
}

// Decode classifies one line. Blank lines, comments and unknown fields are
// skipped; the done sentinel terminates; a "data:" line that is not valid
// JSON fails with *llmprovider.DecodeError carrying the line.
func (d *Decoder) Decode(line string) (Result, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		d.eventType = ""
		return Result{Status: StatusSkip}, nil
	}
	if strings.HasPrefix(line, ":") {
		return Result{Status: StatusSkip}, nil
	}

	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimSpace(value)

	switch field {
	case "event":
		if d.framing == FramingEvent {
			d.eventType = value
		}
		return Result{Status: StatusSkip}, nil
	case "data":
		return d.decodeData(line, value)
	default:
		return Result{Status: StatusSkip}, nil
	}
}

func (d *Decoder) decodeData(line, value string) (Result, error) {
	eventType := d.eventType
	d.eventType = ""

	if value == "" {
		return Result{Status: StatusSkip}, nil
	}
	if d.done != "" && value == d.done {
		return Result{Status: StatusTerminate}, nil
	}

	var probe json.RawMessage
	if err := json.Unmarshal([]byte(value), &probe); err != nil {
		return Result{}, &llmprovider.DecodeError{Raw: line, Err: err}
	}

	data := []byte(value)
	parsed := gjson.ParseBytes(data)
	if eventType == "" {
		eventType = parsed.Get("type").String()
	} else if parsed.IsObject() && parsed.Get("type").String() != eventType {
		merged, err := sjson.SetBytes(data, "type", eventType)
		if err != nil {
			return Result{}, &llmprovider.DecodeError{Raw: line, Err: err}
		}
		data = merged
	}

	return Result{
		Status:  StatusPayload,
		Payload: Payload{Type: eventType, Data: data, Raw: line},
	}, nil
}
