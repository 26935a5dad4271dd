package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/questiongen"
)

// Question is a generated item together with the learner it was served to.
type Question struct {
	questiongen.Item
	UserID string
}

// QuestionRepo persists generated questions, forming the per-document
// question bank.
type QuestionRepo struct {
	store *Store
}

type questionRow struct {
	ID           string    `sql:"id"`
	DocumentID   string    `sql:"document_id"`
	ChunkID      string    `sql:"chunk_id"`
	UserID       string    `sql:"user_id"`
	Difficulty   int       `sql:"difficulty"`
	Stem         string    `sql:"stem"`
	Options      string    `sql:"options"`
	CorrectIndex int       `sql:"correct_index"`
	Rationale    string    `sql:"rationale"`
	Topic        string    `sql:"topic"`
	CreatedAt    time.Time `sql:"created_at"`
}

var questionColumns = []string{
	"id", "document_id", "chunk_id", "user_id", "difficulty", "stem",
	"options", "correct_index", "rationale", "topic", "created_at",
}

// Save stores an item served to userID.
func (r *QuestionRepo) Save(ctx context.Context, userID string, item *questiongen.Item) error {
	options, err := json.Marshal(item.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	created := item.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	ins := r.store.builder().Insert(tableQuestions).
		Columns(questionColumns...).
		Values(item.ID, item.DocumentID, item.ChunkID, userID, item.Difficulty, item.Stem,
			string(options), item.CorrectIndex, item.Rationale, item.Topic, created)
	if _, err := exec(ctx, r.store.db, ins); err != nil {
		return fmt.Errorf("save question %s: %w", item.ID, err)
	}
	return nil
}

// Get returns a stored question.
func (r *QuestionRepo) Get(ctx context.Context, id string) (*Question, error) {
	b := r.store.builder()
	sel := b.Select(questionColumns...).
		From(b.Table(tableQuestions)).
		Where(entsql.EQ("id", id))
	qs, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return &qs[0], nil
}

// ListByDocument returns a document's questions, oldest first. limit <= 0
// returns all of them.
func (r *QuestionRepo) ListByDocument(ctx context.Context, documentID string, limit int) ([]Question, error) {
	b := r.store.builder()
	sel := b.Select(questionColumns...).
		From(b.Table(tableQuestions)).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy("created_at", "id")
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.query(ctx, sel)
}

// RecentStems returns the stems most recently served to userID from a
// document, newest first.
func (r *QuestionRepo) RecentStems(ctx context.Context, userID, documentID string, limit int) ([]string, error) {
	b := r.store.builder()
	sel := b.Select("stem").
		From(b.Table(tableQuestions)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("document_id", documentID),
		)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	var stems []string
	if err := scanAll(ctx, r.store.db, sel, &stems); err != nil {
		return nil, fmt.Errorf("query stems: %w", err)
	}
	return stems, nil
}

func (r *QuestionRepo) query(ctx context.Context, sel *entsql.Selector) ([]Question, error) {
	var rows []questionRow
	if err := scanAll(ctx, r.store.db, sel, &rows); err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	out := make([]Question, 0, len(rows))
	for _, row := range rows {
		q := Question{
			Item: questiongen.Item{
				ID:           row.ID,
				ChunkID:      row.ChunkID,
				DocumentID:   row.DocumentID,
				Difficulty:   row.Difficulty,
				Stem:         row.Stem,
				CorrectIndex: row.CorrectIndex,
				Rationale:    row.Rationale,
				Topic:        row.Topic,
				CreatedAt:    row.CreatedAt,
			},
			UserID: row.UserID,
		}
		if err := json.Unmarshal([]byte(row.Options), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %s: %w", row.ID, err)
		}
		out = append(out, q)
	}
	return out, nil
}
