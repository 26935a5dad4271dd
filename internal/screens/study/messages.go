package study

import (
	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/store"
)

// questionMsg carries the result of asking for the next question.
type questionMsg struct {
	Item *questiongen.Item
	Err  error
}

// answeredMsg carries the recorded answer and the learner's progress
// after it.
type answeredMsg struct {
	Event    *store.AnswerEvent
	Progress session.Progress
	// ProgressErr leaves the previous progress on screen; the answer
	// itself was recorded.
	ProgressErr error
	Err         error
}

// progressMsg refreshes the header before the first answer.
type progressMsg struct {
	Progress session.Progress
	Err      error
}
