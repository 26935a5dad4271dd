package session

import "errors"

var (
	// ErrInvalidChoice is returned when the chosen option index is outside
	// the question's options.
	ErrInvalidChoice = errors.New("choice out of range")

	// ErrUnknownQuestion is returned when the answered question was never
	// served to the learner.
	ErrUnknownQuestion = errors.New("unknown question")

	// ErrUnknownDocument is returned when a question is requested for a
	// document that is not in the library.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrMissingUser is returned when a call carries no learner ID.
	ErrMissingUser = errors.New("missing user id")
)
