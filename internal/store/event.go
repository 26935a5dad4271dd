package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter hands out the global monotonic sequence shared by every
// event table, so answers, LLM calls and mastery transitions can be ordered
// against each other. The mutex serializes within the process; the
// UPDATE ... RETURNING makes the increment atomic in the database.
type sequenceCounter struct {
	mu      sync.Mutex
	dialect string
}

// newSequenceCounter seeds the counter row if missing.
func newSequenceCounter(ctx context.Context, d string, db *sql.DB) (*sequenceCounter, error) {
	seed := entsql.Dialect(d).Insert(tableSequence).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing())
	if _, err := exec(ctx, db, seed); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequenceCounter{dialect: d}, nil
}

// Next returns the next sequence number. q may be a transaction so the
// number is only consumed when the event commits.
func (sc *sequenceCounter) Next(ctx context.Context, q querier) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	query, args := entsql.Dialect(sc.dialect).Update(tableSequence).
		Add("next_val", 1).
		Where(entsql.EQ("id", 1)).
		Returning("next_val").
		Query()

	var next int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&next); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next - 1, nil
}
