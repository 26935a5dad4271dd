package questiongen

import "github.com/abhisek/studyloop/internal/llm"

// ItemSchema defines the JSON the backend is asked to produce.
var ItemSchema = &llm.Schema{
	Name:        "question-item",
	Description: "A single multiple-choice study question grounded in a passage",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"stem": map[string]any{
				"type":        "string",
				"description": "The question shown to the learner",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    OptionCount,
				"maxItems":    OptionCount,
				"description": "Exactly 4 answer options without letter prefixes",
			},
			"correct_index": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     OptionCount - 1,
				"description": "Zero-based index of the single correct option",
			},
			"rationale": map[string]any{
				"type":        "string",
				"description": "One or two sentences explaining why the correct option is right, citing the passage",
			},
			"topic": map[string]any{
				"type":        "string",
				"description": "A short topic label for the question, two or three words",
			},
		},
		"required":             []any{"stem", "options", "correct_index", "rationale", "topic"},
		"additionalProperties": false,
	},
}
