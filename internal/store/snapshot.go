package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/mastery"
)

// MasteryRepo stores one mastery state record per learner, keyed by user ID.
type MasteryRepo struct {
	store *Store
}

type masteryRow struct {
	UserID    string    `sql:"user_id"`
	Data      string    `sql:"data"`
	UpdatedAt time.Time `sql:"updated_at"`
}

// Load returns the stored state for userID. ok is false when the learner
// has no record yet.
func (r *MasteryRepo) Load(ctx context.Context, userID string) (state mastery.State, ok bool, err error) {
	b := r.store.builder()
	sel := b.Select("user_id", "data", "updated_at").
		From(b.Table(tableMastery)).
		Where(entsql.EQ("user_id", userID))
	var rows []masteryRow
	if err := scanAll(ctx, r.store.db, sel, &rows); err != nil {
		return mastery.State{}, false, fmt.Errorf("load mastery state for %s: %w", userID, err)
	}
	if len(rows) == 0 {
		return mastery.State{}, false, nil
	}
	state, err = mastery.DecodeState([]byte(rows[0].Data))
	if err != nil {
		return mastery.State{}, false, fmt.Errorf("load mastery state for %s: %w", userID, err)
	}
	state.UserID = userID
	return state, true, nil
}

// Save upserts the learner's state.
func (r *MasteryRepo) Save(ctx context.Context, state mastery.State) error {
	return r.store.saveMastery(ctx, r.store.db, state)
}

func (s *Store) saveMastery(ctx context.Context, q querier, state mastery.State) error {
	if state.UserID == "" {
		return fmt.Errorf("save mastery state: missing user id")
	}
	data, err := mastery.EncodeState(state)
	if err != nil {
		return err
	}
	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	ins := s.builder().Insert(tableMastery).
		Columns("user_id", "data", "updated_at").
		Values(state.UserID, string(data), updated).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.ResolveWithNewValues())
	if _, err := exec(ctx, q, ins); err != nil {
		return fmt.Errorf("save mastery state for %s: %w", state.UserID, err)
	}
	return nil
}

// Delete removes the learner's state. Answer history is kept.
func (r *MasteryRepo) Delete(ctx context.Context, userID string) error {
	del := r.store.builder().Delete(tableMastery).Where(entsql.EQ("user_id", userID))
	if _, err := exec(ctx, r.store.db, del); err != nil {
		return fmt.Errorf("delete mastery state for %s: %w", userID, err)
	}
	return nil
}

// Users lists learners with a stored state.
func (r *MasteryRepo) Users(ctx context.Context) ([]string, error) {
	b := r.store.builder()
	sel := b.Select("user_id").From(b.Table(tableMastery)).OrderBy("user_id")
	var users []string
	if err := scanAll(ctx, r.store.db, sel, &users); err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	return users, nil
}
