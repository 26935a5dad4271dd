package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func itemSchema() *Schema {
	return &Schema{
		Name: "test-item",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"stem":          map[string]any{"type": "string", "minLength": 1},
				"options":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 4, "maxItems": 4},
				"correct_index": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
				"kind":          map[string]any{"type": "string", "enum": []any{"recall", "concept"}},
			},
			"required": []any{"stem", "options", "correct_index"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantPath string // "" means valid
		syntax   bool
	}{
		{"valid", `{"stem":"Q?","options":["a","b","c","d"],"correct_index":2}`, "", false},
		{"valid with optional", `{"stem":"Q?","options":["a","b","c","d"],"correct_index":0,"kind":"recall"}`, "", false},
		{"index out of range", `{"stem":"Q?","options":["a","b","c","d"],"correct_index":4}`, "/correct_index", false},
		{"three options", `{"stem":"Q?","options":["a","b","c"],"correct_index":0}`, "/options", false},
		{"option not a string", `{"stem":"Q?","options":["a","b","c",4],"correct_index":0}`, "/options/3", false},
		{"bad enum", `{"stem":"Q?","options":["a","b","c","d"],"correct_index":0,"kind":"trivia"}`, "/kind", false},
		{"missing required", `{"options":["a","b","c","d"],"correct_index":0}`, "", false},
		{"malformed", `{not json}`, "", true},
		{"empty", ``, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(itemSchema(), json.RawMessage(tt.raw))
			valid := tt.wantPath == "" && !tt.syntax && !strings.HasPrefix(tt.name, "missing")
			if valid {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("error = %v, want *ErrInvalidResponse", err)
			}
			if string(inv.Content) != tt.raw {
				t.Errorf("Content = %q, want the raw response", inv.Content)
			}
			var se *SchemaError
			if tt.syntax {
				if errors.As(err, &se) {
					t.Fatalf("syntax error reported as schema violation: %v", err)
				}
				return
			}
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *SchemaError", err)
			}
			if len(se.Violations) == 0 {
				t.Fatal("no violations reported")
			}
			if tt.wantPath != "" {
				found := false
				for _, v := range se.Violations {
					if v.Path == tt.wantPath {
						found = true
					}
				}
				if !found {
					t.Errorf("violations %v do not mention %s", se.Violations, tt.wantPath)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchemaAcceptsAnything(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateResponse_SameNameDifferentShape(t *testing.T) {
	loose := &Schema{Name: "shared", Definition: map[string]any{"type": "object"}}
	strict := &Schema{Name: "shared", Definition: map[string]any{
		"type":     "object",
		"required": []any{"stem"},
	}}
	raw := json.RawMessage(`{"other":1}`)

	if err := validateResponse(loose, raw); err != nil {
		t.Fatalf("loose schema rejected: %v", err)
	}
	if err := validateResponse(strict, raw); err == nil {
		t.Fatal("strict schema reused the loose validator")
	}
}

func TestViolationString(t *testing.T) {
	if got := (Violation{Path: "/a", Message: "bad"}).String(); got != "/a: bad" {
		t.Errorf("String = %q", got)
	}
	if got := (Violation{Message: "bad"}).String(); got != "bad" {
		t.Errorf("root String = %q", got)
	}
}

// testSchema is the small person object the provider tests exchange.
func testSchema() *Schema {
	return &Schema{
		Name:        "test-object",
		Description: "A test object",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
				"age":  map[string]any{"type": "integer", "minimum": 0},
			},
			"required": []any{"name", "age"},
		},
	}
}
