package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyloop/internal/mastery"
)

func answerEvent(id, user string, difficulty int, correct bool) AnswerEvent {
	return AnswerEvent{
		ID:         id,
		UserID:     user,
		QuestionID: "q-" + id,
		ChunkID:    "c0",
		DocumentID: "d1",
		Topic:      "cells",
		Difficulty: difficulty,
		Correct:    correct,
	}
}

// appendEvent writes a bare answer event the way RecordAnswer does, without
// touching mastery state.
func appendEvent(t *testing.T, ctx context.Context, h *HistoryStore, ev AnswerEvent) (AnswerEvent, error) {
	t.Helper()
	err := h.store.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		ev, err = h.store.appendAnswer(ctx, tx, ev)
		return err
	})
	return ev, err
}

func TestHistoryAppendAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	h := s.HistoryStore()

	ev, err := appendEvent(t, ctx, h, answerEvent("e1", "u1", 2, true))
	require.NoError(t, err)
	assert.Positive(t, ev.Sequence)
	assert.False(t, ev.AnsweredAt.IsZero())

	got, err := h.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, 2, got.Difficulty)
	assert.True(t, got.Correct)
	assert.Equal(t, ev.Sequence, got.Sequence)

	_, err = h.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryAppendDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	h := s.HistoryStore()

	first, err := appendEvent(t, ctx, h, answerEvent("e1", "u1", 1, true))
	require.NoError(t, err)

	_, err = appendEvent(t, ctx, h, answerEvent("e1", "u1", 1, false))
	require.ErrorIs(t, err, ErrDuplicateEvent)

	got, err := h.Get(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, got.Correct, "first record must stand")

	// The rolled back append must not burn a sequence number.
	next, err := appendEvent(t, ctx, h, answerEvent("e2", "u1", 1, true))
	require.NoError(t, err)
	assert.Equal(t, first.Sequence+1, next.Sequence)
}

func TestHistoryAppendRequiresID(t *testing.T) {
	s := openTestStore(t)
	_, err := appendEvent(t, context.Background(), s.HistoryStore(), answerEvent("", "u1", 1, true))
	assert.Error(t, err)
}

func TestHistoryQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	h := s.HistoryStore()

	for i := range 6 {
		user := "u1"
		if i%2 == 1 {
			user = "u2"
		}
		_, err := appendEvent(t, ctx, h, answerEvent(fmt.Sprintf("e%d", i), user, 1, true))
		require.NoError(t, err)
	}

	u1, err := h.Query(ctx, "u1", QueryOpts{})
	require.NoError(t, err)
	require.Len(t, u1, 3)
	assert.Equal(t, []string{"e0", "e2", "e4"}, []string{u1[0].ID, u1[1].ID, u1[2].ID})

	latest, err := h.Query(ctx, "u1", QueryOpts{Limit: 1, Descending: true})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "e4", latest[0].ID)

	after, err := h.Query(ctx, "", QueryOpts{After: u1[1].Sequence})
	require.NoError(t, err)
	assert.Len(t, after, 3)

	future, err := h.Query(ctx, "", QueryOpts{From: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, future)
}

func TestHistoryStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	h := s.HistoryStore()

	// 12 answers: difficulty 1 all correct, difficulty 2 mostly wrong.
	for i := range 12 {
		difficulty, correct := 1, true
		if i >= 6 {
			difficulty, correct = 2, i == 11
		}
		_, err := appendEvent(t, ctx, h, answerEvent(fmt.Sprintf("e%02d", i), "u1", difficulty, correct))
		require.NoError(t, err)
	}

	st, err := h.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Accuracy{Correct: 7, Total: 12}, st.Overall)
	assert.Equal(t, Accuracy{Correct: 5, Total: RecentWindow}, st.Recent)
	assert.Equal(t, Accuracy{Correct: 6, Total: 6}, st.ByDifficulty[1])
	assert.Equal(t, Accuracy{Correct: 1, Total: 6}, st.ByDifficulty[2])
	assert.Equal(t, 12, st.ByDocument["d1"].Total)
	assert.Equal(t, 12, st.ByTopic["cells"].Total)

	level, ok := st.WeakestDifficulty()
	require.True(t, ok)
	assert.Equal(t, 2, level)
}

func TestStatsEmpty(t *testing.T) {
	st := ComputeStats(nil)
	assert.Zero(t, st.Overall.Rate())
	_, ok := st.WeakestDifficulty()
	assert.False(t, ok)
}

func TestWeakestDifficultyTieBreaksLow(t *testing.T) {
	st := Stats{ByDifficulty: map[int]Accuracy{
		3: {Correct: 1, Total: 2},
		2: {Correct: 2, Total: 4},
		4: {Correct: 2, Total: 2},
	}}
	level, ok := st.WeakestDifficulty()
	require.True(t, ok)
	assert.Equal(t, 2, level)
}

func TestRecordAnswerIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := mastery.New(mastery.DefaultConfig())
	state := c.NewState("u1")
	tr := c.Apply(&state, mastery.Outcome{Correct: true, Topic: "cells"})
	tr.From, tr.To, tr.Trigger = 1, 2, mastery.TriggerStreakUp

	ev, err := s.HistoryStore().RecordAnswer(ctx, answerEvent("e1", "u1", 1, true), state, tr)
	require.NoError(t, err)
	assert.Positive(t, ev.Sequence)

	loaded, ok, err := s.MasteryRepo().Load(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, loaded.TotalAnswered)

	events, err := s.EventRepo().MasteryEvents(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].AnswerEventID)
	assert.Equal(t, string(mastery.TriggerStreakUp), events[0].Reason)

	// A replay writes nothing, not even the state.
	replayState := state.Clone()
	replayState.TotalAnswered = 99
	_, err = s.HistoryStore().RecordAnswer(ctx, answerEvent("e1", "u1", 1, true), replayState, tr)
	require.True(t, errors.Is(err, ErrDuplicateEvent))

	loaded, _, err = s.MasteryRepo().Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalAnswered)
	events, err = s.EventRepo().MasteryEvents(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
