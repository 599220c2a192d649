package main

import (
	"context"
	"fmt"
	"time"

	llmprovider "github.com/haowjy/meridian-llm-go"
)

// demoTools are the client-side tools offered to the model when --tools is set.
func demoTools(now func() time.Time) (*llmprovider.ToolSet, error) {
	return llmprovider.NewToolSet(
		llmprovider.ToolDefinition{
			Name:        "get_time",
			Description: "Get the current time in an IANA time zone such as Europe/Paris",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"zone": map[string]interface{}{"type": "string", "description": "IANA time zone name"},
				},
				"required": []string{"zone"},
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				zone, _ := args["zone"].(string)
				location, err := time.LoadLocation(zone)
				if err != nil {
					return nil, fmt.Errorf("unknown time zone %q", zone)
				}
				return now().In(location).Format(time.RFC3339), nil
			},
		},
		llmprovider.ToolDefinition{
			Name:        "add",
			Description: "Add a list of numbers",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"numbers": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "number"},
					},
				},
				"required": []string{"numbers"},
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				numbers, ok := args["numbers"].([]interface{})
				if !ok {
					return nil, fmt.Errorf("numbers must be an array")
				}
				var sum float64
				for i, n := range numbers {
					value, ok := n.(float64)
					if !ok {
						return nil, fmt.Errorf("numbers[%d] is not a number", i)
					}
					sum += value
				}
				return map[string]interface{}{"sum": sum}, nil
			},
		},
	)
}
