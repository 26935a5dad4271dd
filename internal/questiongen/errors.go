package questiongen

import (
	"errors"
	"fmt"
)

// ErrGenerationFailed reports that every attempt to produce a valid item
// failed. Match with errors.Is.
var ErrGenerationFailed = errors.New("question generation failed")

// ErrEmptyChunk is returned when the input chunk has no text. It indicates
// a caller bug and is not retried.
var ErrEmptyChunk = errors.New("chunk has no text")

// GenerationFailedError carries the attempt count and the last cause.
type GenerationFailedError struct {
	ChunkID  string
	Attempts int
	Last     error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("question generation failed for chunk %s after %d attempts: %v", e.ChunkID, e.Attempts, e.Last)
}

func (e *GenerationFailedError) Is(target error) bool { return target == ErrGenerationFailed }

func (e *GenerationFailedError) Unwrap() error { return e.Last }

// ValidationError describes why a generated item failed a check. It stays
// inside the retry loop unless every attempt fails.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// ParseError reports a response that could not be turned into an item.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unparseable response: %s: %v", e.Reason, e.Err)
	}
	return "unparseable response: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }
