package questiongen

import (
	"time"

	"github.com/abhisek/studyloop/internal/corpus"
)

// OptionCount is the number of options every item carries.
const OptionCount = 4

// Item is a validated multiple-choice question ready for display. Items are
// immutable once generated.
type Item struct {
	ID         string
	ChunkID    string
	DocumentID string

	// Difficulty is the level the item was requested at. The model never
	// sets it.
	Difficulty int

	// Stem is the question prompt shown to the learner.
	Stem string

	// Options holds the four answer texts in display order.
	Options [OptionCount]string

	// CorrectIndex is the position of the single correct option.
	CorrectIndex int

	// Rationale explains the correct answer. Shown after the learner
	// answers; may be empty.
	Rationale string

	// Topic is the model's topic label, falling back to the chunk's.
	Topic string

	CreatedAt time.Time
}

// CorrectOption returns the text of the correct option.
func (it *Item) CorrectOption() string {
	return it.Options[it.CorrectIndex]
}

// Input holds everything needed to generate one item.
type Input struct {
	// Chunk is the source text the question is grounded in.
	Chunk corpus.Chunk

	// Difficulty is the ordinal level, used only to pick the prompt's
	// cognitive-demand instruction.
	Difficulty int

	// PriorStems are stems already asked from this document, for
	// deduplication in the prompt.
	PriorStems []string
}

// Level describes the cognitive demand of a difficulty level.
type Level struct {
	Name        string
	Instruction string
}

// levels is indexed by difficulty-1.
var levels = []Level{
	{"recall", "Ask about a single fact stated explicitly in the passage. The answer should be findable by rereading one sentence."},
	{"comprehension", "Ask the learner to restate or interpret an idea from the passage in different words. Avoid copying sentences verbatim."},
	{"application", "Ask the learner to apply a concept from the passage to a new, concrete situation not described in the text."},
	{"analysis", "Ask the learner to compare, contrast or find the relationship between two or more ideas in the passage."},
	{"multi-step inference", "Ask a question that requires combining several statements from the passage and drawing a conclusion the text does not state directly."},
}

// LevelFor returns the descriptor for a difficulty, clamped to the known
// levels.
func LevelFor(difficulty int) Level {
	i := min(max(difficulty, 1), len(levels)) - 1
	return levels[i]
}
