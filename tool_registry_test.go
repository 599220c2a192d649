package llmprovider

import (
	"context"
	"errors"
	"testing"
)

func echoHandler(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return args, nil
}

func searchDefinition(name string) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: "Search documents",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
			"required":   []interface{}{"query"},
		},
		Handler: echoHandler,
	}
}

func TestToolSet_Register(t *testing.T) {
	tests := []struct {
		name    string
		def     ToolDefinition
		wantErr bool
	}{
		{name: "valid", def: searchDefinition("search")},
		{name: "nil parameters get an empty object schema", def: ToolDefinition{Name: "ping", Handler: echoHandler}},
		{name: "missing name", def: ToolDefinition{Handler: echoHandler}, wantErr: true},
		{name: "missing handler", def: ToolDefinition{Name: "search"}, wantErr: true},
		{name: "non-object schema", def: ToolDefinition{
			Name:       "search",
			Parameters: map[string]interface{}{"type": "string"},
			Handler:    echoHandler,
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := NewToolSet()
			if err != nil {
				t.Fatalf("NewToolSet() error = %v", err)
			}
			err = set.Register(tt.def)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestToolSet_Duplicate(t *testing.T) {
	_, err := NewToolSet(searchDefinition("search"), searchDefinition("search"))
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestToolSet_Order(t *testing.T) {
	set, err := NewToolSet(searchDefinition("b"), searchDefinition("a"), searchDefinition("c"))
	if err != nil {
		t.Fatalf("NewToolSet() error = %v", err)
	}

	if err := set.Unregister("a"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if err := set.Unregister("a"); err == nil {
		t.Error("second Unregister should fail")
	}

	names := set.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "c" {
		t.Errorf("Names() = %v, want [b c]", names)
	}

	tools := set.Tools()
	if len(tools) != 2 || tools[0].Function.Name != "b" || tools[0].Type != "function" {
		t.Errorf("Tools() = %+v", tools)
	}
	if set.Len() != 2 || !set.IsRegistered("c") || set.IsRegistered("a") {
		t.Errorf("Len() = %d", set.Len())
	}
}

func TestToolSet_Nil(t *testing.T) {
	var set *ToolSet

	if set.Len() != 0 || set.Names() != nil || set.Tools() != nil {
		t.Error("nil set should be empty")
	}
	if _, err := set.Get("search"); !errors.Is(err, ErrUnknownTool) {
		t.Errorf("Get() on nil set = %v, want ErrUnknownTool", err)
	}
}

func TestToolSet_Resolve(t *testing.T) {
	set, err := NewToolSet(searchDefinition("search"))
	if err != nil {
		t.Fatalf("NewToolSet() error = %v", err)
	}

	t.Run("runs handler", func(t *testing.T) {
		handler, err := set.Resolve("search")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		got, err := handler(context.Background(), map[string]interface{}{"query": "dragons"})
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if args, _ := got.(map[string]interface{}); args["query"] != "dragons" {
			t.Errorf("handler result = %v", got)
		}
	})

	t.Run("checks required arguments", func(t *testing.T) {
		handler, err := set.Resolve("search")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if _, err := handler(context.Background(), map[string]interface{}{}); err == nil {
			t.Error("expected missing argument error")
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := set.Resolve("lookup")
		var unknown *UnknownToolError
		if !errors.As(err, &unknown) || unknown.Name != "lookup" {
			t.Errorf("Resolve() error = %v, want *UnknownToolError", err)
		}
	})
}

func TestToolChoice_Validate(t *testing.T) {
	empty := ""
	name := "search"

	tests := []struct {
		name    string
		choice  ToolChoice
		wantErr bool
	}{
		{name: "auto", choice: ToolChoice{Mode: ToolChoiceModeAuto}},
		{name: "specific", choice: ToolChoice{Mode: ToolChoiceModeSpecific, ToolName: &name}},
		{name: "specific without name", choice: ToolChoice{Mode: ToolChoiceModeSpecific}, wantErr: true},
		{name: "specific with empty name", choice: ToolChoice{Mode: ToolChoiceModeSpecific, ToolName: &empty}, wantErr: true},
		{name: "unknown mode", choice: ToolChoice{Mode: "sometimes"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.choice.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
