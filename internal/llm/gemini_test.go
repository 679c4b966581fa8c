package llm

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"voxtutor/internal/persona"
)

func TestSchemaFromJSONNil(t *testing.T) {
	s := schemaFromJSON(nil)
	if s.Type != genai.TypeObject {
		t.Errorf("Expected object schema, got %v", s.Type)
	}
	if len(s.Properties) != 0 || len(s.Required) != 0 {
		t.Errorf("Nil schema should convert to an empty object, got %+v", s)
	}
}

func TestSchemaFromJSONProperties(t *testing.T) {
	s := schemaFromJSON(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"concept": map[string]interface{}{
				"type":        "string",
				"description": "Concept id or title",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "How many to return",
			},
		},
		"required": []string{"concept"},
	})

	concept, ok := s.Properties["concept"]
	if !ok {
		t.Fatal("Missing property \"concept\"")
	}
	if concept.Type != genai.TypeString {
		t.Errorf("Expected string type for concept, got %v", concept.Type)
	}
	if concept.Description != "Concept id or title" {
		t.Errorf("Description not carried over: %q", concept.Description)
	}

	limit, ok := s.Properties["limit"]
	if !ok {
		t.Fatal("Missing property \"limit\"")
	}
	if limit.Type != genai.TypeInteger {
		t.Errorf("Expected integer type for limit, got %v", limit.Type)
	}

	if len(s.Required) != 1 || s.Required[0] != "concept" {
		t.Errorf("Required list wrong: %v", s.Required)
	}
}

func TestSchemaFromJSONRequiredAsInterfaceSlice(t *testing.T) {
	// A schema round-tripped through encoding/json carries required as
	// []interface{}.
	s := schemaFromJSON(map[string]interface{}{
		"properties": map[string]interface{}{
			"name": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"name"},
	})
	if len(s.Required) != 1 || s.Required[0] != "name" {
		t.Errorf("Required list wrong: %v", s.Required)
	}
}

// Every tool schema the coordinator exposes must survive conversion, since
// this is the path all tool declarations take before reaching the API.
func TestSchemaFromJSONAcceptsPersonaToolSchemas(t *testing.T) {
	m, err := persona.NewMachine(nil, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	for _, def := range m.Active().Tools() {
		s := schemaFromJSON(def.InputSchema)
		if s == nil || s.Type != genai.TypeObject {
			t.Errorf("Tool %q schema did not convert to an object", def.Name)
		}
	}
}

func TestNewGeminiClientRequiresAPIKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), "", "gemini-2.5-flash"); err == nil {
		t.Error("Expected error for missing API key")
	}
}
