package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/mastery"
)

var masteryEventColumns = []string{
	"id", "sequence", "timestamp", "user_id", "from_difficulty", "to_difficulty",
	"reason", "answer_event_id",
}

// AppendMasteryEvent records a difficulty transition outside of an answer.
func (r *EventRepo) AppendMasteryEvent(ctx context.Context, tr mastery.Transition) error {
	return r.store.appendMasteryEvent(ctx, r.store.db, tr, "")
}

func (s *Store) appendMasteryEvent(ctx context.Context, q querier, tr mastery.Transition, answerID string) error {
	seq, err := s.seq.Next(ctx, q)
	if err != nil {
		return err
	}
	ins := s.builder().Insert(tableMasteryEvent).
		Columns(masteryEventColumns[1:]...).
		Values(seq, time.Now().UTC(), tr.UserID, tr.From, tr.To, string(tr.Trigger), answerID)
	if _, err := exec(ctx, q, ins); err != nil {
		return fmt.Errorf("save mastery event: %w", err)
	}
	return nil
}

// MasteryEvents returns a learner's difficulty transitions, oldest first.
func (r *EventRepo) MasteryEvents(ctx context.Context, userID string, limit int) ([]MasteryEvent, error) {
	b := r.store.builder()
	sel := b.Select(masteryEventColumns...).
		From(b.Table(tableMasteryEvent)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("sequence")
	if limit > 0 {
		sel.Limit(limit)
	}
	var events []MasteryEvent
	if err := scanAll(ctx, r.store.db, sel, &events); err != nil {
		return nil, fmt.Errorf("query mastery events: %w", err)
	}
	return events, nil
}
