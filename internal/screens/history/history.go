package history

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyloop/internal/screen"
	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/ui/components"
	"github.com/abhisek/studyloop/internal/ui/layout"
	"github.com/abhisek/studyloop/internal/ui/theme"
)

// pageSize is how many recent answers are loaded.
const pageSize = 100

// Source reads a learner's answer history.
type Source interface {
	Query(ctx context.Context, userID string, opts store.QueryOpts) ([]store.AnswerEvent, error)
	Stats(ctx context.Context, userID string) (store.Stats, error)
}

type loadedMsg struct {
	Events []store.AnswerEvent
	Stats  store.Stats
	Err    error
}

// HistoryScreen shows accuracy so far and the latest answers.
type HistoryScreen struct {
	ctx    context.Context
	source Source
	userID string

	events []store.AnswerEvent
	stats  store.Stats
	offset int
	loaded bool
	errMsg string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a history view for userID.
func New(ctx context.Context, source Source, userID string) *HistoryScreen {
	return &HistoryScreen{ctx: ctx, source: source, userID: userID}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		events, err := s.source.Query(s.ctx, s.userID, store.QueryOpts{Limit: pageSize, Descending: true})
		if err != nil {
			return loadedMsg{Err: err}
		}
		stats, err := s.source.Stats(s.ctx, s.userID)
		return loadedMsg{Events: events, Stats: stats, Err: err}
	}
}

func (s *HistoryScreen) Title() string { return "History" }

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.events = msg.Events
		s.stats = msg.Stats
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			s.offset = max(s.offset-1, 0)
		case "down", "j":
			s.offset = min(s.offset+1, max(len(s.events)-1, 0))
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return theme.Centered(theme.Incorrect, width, "\n\nError: "+s.errMsg)
	case !s.loaded:
		return theme.Centered(theme.Dimmed, width, "\n\nLoading history...")
	case len(s.events) == 0:
		return theme.Centered(theme.Hint, width, "\n\nNothing answered yet. Pick a document and start studying.")
	}

	var b strings.Builder
	b.WriteString("\n")
	barWidth := min(width-8, 60)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		components.NewProgressBar("Overall   ", s.stats.Overall.Rate(), true, barWidth).View()))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		components.NewProgressBar(fmt.Sprintf("Last %-4d", store.RecentWindow), s.stats.Recent.Rate(), true, barWidth).View()))
	b.WriteString("\n\n")

	levels := make([]int, 0, len(s.stats.ByDifficulty))
	for d := range s.stats.ByDifficulty {
		levels = append(levels, d)
	}
	slices.Sort(levels)
	parts := make([]string, 0, len(levels))
	for _, d := range levels {
		acc := s.stats.ByDifficulty[d]
		parts = append(parts, fmt.Sprintf("L%d %d/%d", d, acc.Correct, acc.Total))
	}
	b.WriteString(theme.Centered(theme.Dimmed, width, strings.Join(parts, "   ")))
	b.WriteString("\n\n")

	rows := max(height-8, 1)
	end := min(s.offset+rows, len(s.events))
	for _, ev := range s.events[s.offset:end] {
		mark := theme.Correct.Render("✓")
		if !ev.Correct {
			mark = theme.Incorrect.Render("✗")
		}
		topic := ev.Topic
		if topic == "" {
			topic = "general"
		}
		line := fmt.Sprintf("%s  L%d  %s  %s",
			ev.AnsweredAt.Local().Format("Jan 02 15:04"), ev.Difficulty, mark, layout.Truncate(topic, 40))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Body.Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}
