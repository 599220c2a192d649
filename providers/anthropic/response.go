package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"

	"github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
)

// NormalizeResponse converts a blocking Messages API response into the same
// records a stream of it would have produced.
func (n *Normalizer) NormalizeResponse(body []byte) ([]chunk.Record, error) {
	if gjson.GetBytes(body, "type").String() == "error" {
		return []chunk.Record{n.errorRecord(body)}, nil
	}

	var message anthropic.Message
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, &llmprovider.DecodeError{Raw: string(body), Err: err}
	}

	records := []chunk.Record{
		chunk.TurnStart(message.ID, string(message.Model), n.profile.ExtractUsage(body)),
	}

	for i, block := range message.Content {
		switch block.Type {
		case "text":
			records = append(records, chunk.BlockStart(i, chunk.BlockText, "", ""))
			for _, c := range gjson.GetBytes(body, fmt.Sprintf("content.%d.citations", i)).Array() {
				records = append(records, chunk.CitationDelta(i, parseCitation(c)))
			}
			records = append(records, chunk.TextDelta(i, block.Text), chunk.BlockStop(i))

		case "thinking":
			records = append(records,
				chunk.BlockStart(i, chunk.BlockThinking, "", ""),
				chunk.ThinkingDelta(i, block.Thinking),
				chunk.SignatureDelta(i, block.Signature),
				chunk.BlockStop(i),
			)

		case "tool_use":
			records = append(records,
				chunk.BlockStart(i, chunk.BlockToolUse, block.ID, block.Name),
				chunk.ToolInputDelta(i, "", "", string(block.Input)),
				chunk.BlockStop(i),
			)
		}
	}

	return append(records, chunk.TurnStop(string(message.StopReason), llmprovider.Usage{})), nil
}
