package summary

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyloop/internal/router"
	"github.com/abhisek/studyloop/internal/session"
)

func testSummary() *session.Summary {
	return &session.Summary{
		Duration:        7*time.Minute + 5*time.Second,
		TotalQuestions:  8,
		TotalCorrect:    6,
		Accuracy:        0.75,
		StartDifficulty: 1,
		EndDifficulty:   2,
		TopicResults: []session.TopicResult{
			{Topic: "photosynthesis", Correct: 4, Total: 5},
			{Topic: "respiration", Correct: 2, Total: 3},
		},
	}
}

func TestSummaryScreenView(t *testing.T) {
	s := New(testSummary(), "Biology notes")
	view := s.View(100, 30)

	for _, want := range []string{"Biology notes", "Accuracy 75%", "Time 7:05", "Level 1 > 2", "photosynthesis", "4/5"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSummaryScreenEmpty(t *testing.T) {
	s := New(&session.Summary{EndDifficulty: 1}, "")
	if view := s.View(80, 24); !strings.Contains(view, "No questions answered") {
		t.Errorf("empty summary view = %q", view)
	}
}

func TestSummaryScreenReturnsToLibrary(t *testing.T) {
	for _, key := range []tea.KeyPressMsg{
		{Code: tea.KeyEnter},
		{Code: tea.KeyEscape},
	} {
		s := New(testSummary(), "")
		_, cmd := s.Update(key)
		if cmd == nil {
			t.Fatalf("no command for %v", key)
		}
		if _, ok := cmd().(router.PopToRootMsg); !ok {
			t.Errorf("key %v: want PopToRootMsg", key)
		}
	}
}
