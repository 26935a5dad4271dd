package questiongen

import (
	"errors"
	"fmt"
	"strings"
)

const systemPrompt = `You write multiple-choice study questions from a passage of course material.

Rules:
- Base the question only on the passage. Do not rely on outside facts.
- Write one clear, self-contained question stem.
- Provide exactly 4 options. Exactly one is correct. The other three are plausible distractors that reflect common misunderstandings of the passage.
- Options must be distinct from each other and must not repeat the stem.
- Do not prefix options with letters or numbers.
- Give the zero-based index of the correct option in correct_index.
- The rationale explains in one or two sentences why the correct option is right, citing the passage.
- Match the requested cognitive demand exactly.
- Do not repeat any question from the "already asked" list.
- Respond with a single JSON object and nothing else.`

const jsonShape = `{"stem": "...", "options": ["...", "...", "...", "..."], "correct_index": 0, "rationale": "...", "topic": "..."}`

// buildUserMessage constructs the user message for one attempt. After a
// failed attempt, a stricter reformatting instruction naming the failure
// is appended.
func buildUserMessage(in Input, cfg Config, prev error) string {
	level := LevelFor(in.Difficulty)

	var b strings.Builder
	fmt.Fprintf(&b, "Difficulty: %d (%s)\n", in.Difficulty, level.Name)
	fmt.Fprintf(&b, "Cognitive demand: %s\n", level.Instruction)
	if in.Chunk.Topic != "" {
		fmt.Fprintf(&b, "Topic hint: %s\n", in.Chunk.Topic)
	}

	b.WriteString("\nPassage:\n<<<\n")
	b.WriteString(in.Chunk.Text)
	b.WriteString("\n>>>\n")

	b.WriteString("\nAlready asked from this material:\n")
	b.WriteString(buildDedup(in.PriorStems, cfg.MaxPriorStems))

	if !cfg.StructuredOutput {
		b.WriteString("\n\nRespond with JSON of this exact shape:\n")
		b.WriteString(jsonShape)
	}

	if prev != nil {
		b.WriteString("\n\n")
		b.WriteString(reformatInstruction(prev))
	}
	return b.String()
}

// reformatInstruction tells the model what went wrong last time.
func reformatInstruction(prev error) string {
	var b strings.Builder
	b.WriteString("IMPORTANT: your previous answer was rejected: ")

	var verr *ValidationError
	var perr *ParseError
	switch {
	case errors.As(prev, &verr):
		b.WriteString(verr.Message)
	case errors.As(prev, &perr):
		b.WriteString(perr.Reason)
	default:
		b.WriteString("the response could not be used")
	}

	b.WriteString(".\nReturn ONLY one JSON object, no prose and no code fences, exactly of this shape:\n")
	b.WriteString(jsonShape)
	b.WriteString("\nThe options array must contain exactly 4 different non-empty strings, and correct_index must be 0, 1, 2 or 3.")
	return b.String()
}

// buildDedup formats prior stems for the prompt, keeping the most recent
// max. Returns "None" when there are none.
func buildDedup(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
