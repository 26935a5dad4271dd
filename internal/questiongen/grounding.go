package questiongen

import (
	"github.com/abhisek/studyloop/internal/corpus"
)

// GroundingValidator rejects items that share no content word with the
// source chunk, a cheap signal that the model wandered off the passage.
type GroundingValidator struct {
	// MinShared is the number of content words the stem and correct option
	// must share with the chunk. Zero means 1.
	MinShared int
}

func (v *GroundingValidator) Name() string { return "grounding" }

func (v *GroundingValidator) Validate(item *Item, in Input) *ValidationError {
	need := max(v.MinShared, 1)
	chunkWords := corpus.ContentWords(in.Chunk.Text)

	text := item.Stem
	if item.CorrectIndex >= 0 && item.CorrectIndex < OptionCount {
		text += " " + item.CorrectOption()
	}

	shared := 0
	for w := range corpus.ContentWords(text) {
		if chunkWords[w] {
			shared++
		}
	}
	if shared < need {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "question does not use any terms from the passage",
		}
	}
	return nil
}
