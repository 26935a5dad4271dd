package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/mastery"
)

// HistoryStore is the append-only answer log.
type HistoryStore struct {
	store *Store
}

var answerColumns = []string{
	"id", "sequence", "user_id", "question_id", "chunk_id", "document_id",
	"topic", "difficulty", "chosen", "correct", "answered_at",
}

// RecordAnswer atomically appends the answer event, stores the learner's
// updated mastery state and logs the difficulty transition, if any. On
// ErrDuplicateEvent nothing is written.
func (h *HistoryStore) RecordAnswer(ctx context.Context, ev AnswerEvent, state mastery.State, tr mastery.Transition) (AnswerEvent, error) {
	s := h.store
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if ev, err = s.appendAnswer(ctx, tx, ev); err != nil {
			return err
		}
		if err := s.saveMastery(ctx, tx, state); err != nil {
			return err
		}
		if tr.Changed() {
			return s.appendMasteryEvent(ctx, tx, tr, ev.ID)
		}
		return nil
	})
	return ev, err
}

func (s *Store) appendAnswer(ctx context.Context, tx *sql.Tx, ev AnswerEvent) (AnswerEvent, error) {
	if ev.ID == "" {
		return ev, fmt.Errorf("append answer: missing event id")
	}
	seq, err := s.seq.Next(ctx, tx)
	if err != nil {
		return ev, err
	}
	ev.Sequence = seq
	if ev.AnsweredAt.IsZero() {
		ev.AnsweredAt = time.Now().UTC()
	}

	ins := s.builder().Insert(tableAnswerEvents).
		Columns(answerColumns...).
		Values(ev.ID, ev.Sequence, ev.UserID, ev.QuestionID, ev.ChunkID, ev.DocumentID,
			ev.Topic, ev.Difficulty, ev.Chosen, ev.Correct, ev.AnsweredAt).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing())
	res, err := exec(ctx, tx, ins)
	if err != nil {
		return ev, fmt.Errorf("append answer %s: %w", ev.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ev, fmt.Errorf("append answer %s: %w", ev.ID, err)
	}
	if n == 0 {
		return ev, ErrDuplicateEvent
	}
	return ev, nil
}

// Get returns a recorded event by ID.
func (h *HistoryStore) Get(ctx context.Context, id string) (AnswerEvent, error) {
	b := h.store.builder()
	sel := b.Select(answerColumns...).
		From(b.Table(tableAnswerEvents)).
		Where(entsql.EQ("id", id))
	var events []AnswerEvent
	if err := scanAll(ctx, h.store.db, sel, &events); err != nil {
		return AnswerEvent{}, fmt.Errorf("get answer %s: %w", id, err)
	}
	if len(events) == 0 {
		return AnswerEvent{}, fmt.Errorf("answer %s: %w", id, ErrNotFound)
	}
	return events[0], nil
}

// Query returns a learner's events in sequence order. An empty userID
// matches every learner.
func (h *HistoryStore) Query(ctx context.Context, userID string, opts QueryOpts) ([]AnswerEvent, error) {
	b := h.store.builder()
	var preds []*entsql.Predicate
	if userID != "" {
		preds = append(preds, entsql.EQ("user_id", userID))
	}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("answered_at", opts.From))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("answered_at", opts.To))
	}

	sel := b.Select(answerColumns...).From(b.Table(tableAnswerEvents))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Descending {
		sel.OrderBy(entsql.Desc("sequence"))
	} else {
		sel.OrderBy("sequence")
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	var events []AnswerEvent
	if err := scanAll(ctx, h.store.db, sel, &events); err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	return events, nil
}

// Stats computes the progress dashboard for a learner.
func (h *HistoryStore) Stats(ctx context.Context, userID string) (Stats, error) {
	events, err := h.Query(ctx, userID, QueryOpts{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(events), nil
}

// ComputeStats tallies events given in sequence order.
func ComputeStats(events []AnswerEvent) Stats {
	st := Stats{
		ByDifficulty: make(map[int]Accuracy),
		ByDocument:   make(map[string]Accuracy),
		ByTopic:      make(map[string]Accuracy),
	}
	recentFrom := max(len(events)-RecentWindow, 0)
	for i, ev := range events {
		st.Overall.add(ev.Correct)
		if i >= recentFrom {
			st.Recent.add(ev.Correct)
		}

		d := st.ByDifficulty[ev.Difficulty]
		d.add(ev.Correct)
		st.ByDifficulty[ev.Difficulty] = d

		doc := st.ByDocument[ev.DocumentID]
		doc.add(ev.Correct)
		st.ByDocument[ev.DocumentID] = doc

		if ev.Topic != "" {
			t := st.ByTopic[ev.Topic]
			t.add(ev.Correct)
			st.ByTopic[ev.Topic] = t
		}
	}
	return st
}
