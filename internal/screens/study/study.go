// Package study is the question-and-answer loop for one document.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/router"
	"github.com/abhisek/studyloop/internal/screen"
	"github.com/abhisek/studyloop/internal/screens/summary"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/ui/components"
	"github.com/abhisek/studyloop/internal/ui/layout"
	"github.com/abhisek/studyloop/internal/ui/theme"
)

// Tutor is the part of the orchestrator the study loop drives.
type Tutor interface {
	NextQuestion(ctx context.Context, userID, documentID string) (*questiongen.Item, error)
	SubmitAnswer(ctx context.Context, sub session.Submission) (*session.AnswerEvent, error)
	Progress(ctx context.Context, userID string) (session.Progress, error)
}

type phase int

const (
	phaseLoading phase = iota
	phaseAsking
	phaseSubmitting
	phaseFeedback
	phaseFailed
	phaseExhausted
)

// requestTimeout bounds one generation or submission.
const requestTimeout = 2 * time.Minute

// StudyScreen asks questions about one document until the learner stops
// or the document runs out.
type StudyScreen struct {
	ctx      context.Context
	tutor    Tutor
	userID   string
	docID    string
	docTitle string

	phase    phase
	spinner  spinner.Model
	choice   components.MultiChoice
	item     *questiongen.Item
	progress session.Progress
	hasProg  bool

	last       *store.AnswerEvent
	levelFrom  int
	answered   []store.AnswerEvent
	confirming bool
	errMsg     string
}

var _ screen.Screen = (*StudyScreen)(nil)
var _ screen.KeyHintProvider = (*StudyScreen)(nil)
var _ screen.StatusProvider = (*StudyScreen)(nil)

// New creates a study loop for userID over a document.
func New(ctx context.Context, tutor Tutor, userID, docID, docTitle string) *StudyScreen {
	return &StudyScreen{
		ctx:      ctx,
		tutor:    tutor,
		userID:   userID,
		docID:    docID,
		docTitle: docTitle,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary)),
		),
	}
}

func (s *StudyScreen) Init() tea.Cmd {
	return tea.Batch(s.loadProgress(), s.nextQuestion(), s.spinner.Tick)
}

func (s *StudyScreen) Title() string {
	return layout.Truncate(s.docTitle, 40)
}

func (s *StudyScreen) HandlesEscape() bool { return true }

func (s *StudyScreen) Status() string {
	if !s.hasProg {
		return ""
	}
	return fmt.Sprintf("Level %d  %.0f%%", s.progress.Difficulty, s.progress.WindowAccuracy*100)
}

func (s *StudyScreen) KeyHints() []layout.KeyHint {
	if s.confirming {
		return []layout.KeyHint{
			{Key: "Y", Description: "Finish"},
			{Key: "N", Description: "Keep going"},
		}
	}
	switch s.phase {
	case phaseAsking:
		return []layout.KeyHint{
			{Key: "1-4/A-D", Description: "Answer"},
			{Key: "↑↓ Enter", Description: "Pick"},
			{Key: "Esc", Description: "Finish"},
		}
	case phaseFeedback:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next question"},
			{Key: "Esc", Description: "Finish"},
		}
	case phaseFailed:
		return []layout.KeyHint{
			{Key: "R", Description: "Try again"},
			{Key: "Esc", Description: "Finish"},
		}
	case phaseExhausted:
		return []layout.KeyHint{{Key: "Enter", Description: "Summary"}}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Finish"}}
}

func (s *StudyScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case progressMsg:
		if msg.Err == nil {
			s.progress, s.hasProg = msg.Progress, true
		}
		return s, nil

	case questionMsg:
		return s.handleQuestion(msg)

	case answeredMsg:
		return s.handleAnswered(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *StudyScreen) handleQuestion(msg questionMsg) (screen.Screen, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, mastery.ErrCorpusExhausted):
		s.phase = phaseExhausted
	case msg.Err != nil:
		s.phase = phaseFailed
		s.errMsg = describe(msg.Err)
	default:
		s.phase = phaseAsking
		s.item = msg.Item
		s.choice = components.NewMultiChoice(msg.Item)
		s.errMsg = ""
	}
	return s, nil
}

func (s *StudyScreen) handleAnswered(msg answeredMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		// The choice was not recorded; let the learner pick again.
		s.phase = phaseAsking
		s.choice = components.NewMultiChoice(s.item)
		s.errMsg = describe(msg.Err)
		return s, nil
	}
	s.levelFrom = 0
	if s.hasProg {
		s.levelFrom = s.progress.Difficulty
	}
	s.last = msg.Event
	s.answered = append(s.answered, *msg.Event)
	if msg.ProgressErr == nil {
		s.progress, s.hasProg = msg.Progress, true
	}
	s.choice.Reveal(s.item.CorrectIndex)
	s.phase = phaseFeedback
	s.errMsg = ""
	return s, nil
}

func (s *StudyScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if s.confirming {
		switch key {
		case "y", "Y", "enter":
			return s, s.finish()
		case "n", "N", "esc":
			s.confirming = false
		}
		return s, nil
	}

	if key == "esc" || key == "q" {
		if len(s.answered) == 0 {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		if s.phase == phaseExhausted {
			return s, s.finish()
		}
		s.confirming = true
		return s, nil
	}

	switch s.phase {
	case phaseAsking:
		var cmd tea.Cmd
		s.choice, cmd = s.choice.Update(msg)
		if s.choice.Committed() {
			s.phase = phaseSubmitting
			return s, tea.Batch(cmd, s.submit(s.choice.Chosen))
		}
		return s, cmd
	case phaseFeedback:
		if key == "enter" || key == "space" || key == "n" {
			return s, s.advance()
		}
	case phaseFailed:
		if key == "r" || key == "enter" {
			return s, s.advance()
		}
	case phaseExhausted:
		if key == "enter" {
			return s, s.finish()
		}
	}
	return s, nil
}

func (s *StudyScreen) advance() tea.Cmd {
	s.phase = phaseLoading
	s.item = nil
	s.last = nil
	return tea.Batch(s.nextQuestion(), s.spinner.Tick)
}

func (s *StudyScreen) finish() tea.Cmd {
	sum := session.BuildSummary(s.answered, s.progress.Difficulty)
	next := summary.New(sum, s.docTitle)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *StudyScreen) loadProgress() tea.Cmd {
	return func() tea.Msg {
		p, err := s.tutor.Progress(s.ctx, s.userID)
		return progressMsg{Progress: p, Err: err}
	}
}

func (s *StudyScreen) nextQuestion() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
		defer cancel()
		item, err := s.tutor.NextQuestion(ctx, s.userID, s.docID)
		return questionMsg{Item: item, Err: err}
	}
}

func (s *StudyScreen) submit(chosen int) tea.Cmd {
	sub := session.Submission{
		UserID:     s.userID,
		QuestionID: s.item.ID,
		Chosen:     chosen,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
		defer cancel()
		ev, err := s.tutor.SubmitAnswer(ctx, sub)
		if err != nil {
			return answeredMsg{Err: err}
		}
		p, err := s.tutor.Progress(ctx, s.userID)
		return answeredMsg{Event: ev, Progress: p, ProgressErr: err}
	}
}

// describe turns an error into a line the learner can act on.
func describe(err error) string {
	switch {
	case errors.Is(err, questiongen.ErrGenerationFailed):
		return "Couldn't write a good question from this passage."
	case errors.Is(err, context.DeadlineExceeded):
		return "The question service took too long."
	case errors.Is(err, session.ErrUnknownDocument):
		return "This document is no longer in the library."
	default:
		return err.Error()
	}
}
