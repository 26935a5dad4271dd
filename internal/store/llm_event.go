package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/llm"
)

// EventRepo records LLM calls and mastery transitions against the global
// sequence.
type EventRepo struct {
	store *Store
}

var llmEventColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose", "user_id",
	"input_tokens", "output_tokens", "latency_ms", "success", "error_message",
	"request_body", "response_body",
}

// AppendLLMRequest implements llm.EventRecorder.
func (r *EventRepo) AppendLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	seq, err := r.store.seq.Next(ctx, r.store.db)
	if err != nil {
		return err
	}
	ins := r.store.builder().Insert(tableLLMEvents).
		Columns(llmEventColumns[1:]...).
		Values(seq, time.Now().UTC(), ev.Provider, ev.Model, ev.Purpose, ev.UserID,
			ev.InputTokens, ev.OutputTokens, ev.LatencyMs, ev.Success, ev.ErrorMessage,
			ev.RequestBody, ev.ResponseBody)
	if _, err := exec(ctx, r.store.db, ins); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// QueryLLMEvents returns LLM events, newest first.
func (r *EventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	b := r.store.builder()
	sel := b.Select(llmEventColumns...).From(b.Table(tableLLMEvents))
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	var events []LLMRequestEvent
	if err := scanAll(ctx, r.store.db, sel, &events); err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return events, nil
}

// GetLLMEvent returns one event, or nil if it does not exist.
func (r *EventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error) {
	b := r.store.builder()
	sel := b.Select(llmEventColumns...).
		From(b.Table(tableLLMEvents)).
		Where(entsql.EQ("id", id))
	var events []LLMRequestEvent
	if err := scanAll(ctx, r.store.db, sel, &events); err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

type usageRow struct {
	Key          string `sql:"key"`
	Calls        int    `sql:"calls"`
	Failures     int    `sql:"failures"`
	InputTokens  int    `sql:"input_tokens"`
	OutputTokens int    `sql:"output_tokens"`
	LatencyMs    int64  `sql:"latency_ms"`
}

func (r *EventRepo) usageBy(ctx context.Context, column string) ([]usageRow, error) {
	b := r.store.builder()
	failures := b.String(func(b *entsql.Builder) {
		b.WriteString("SUM(CASE WHEN ").Ident("success").WriteString(" THEN 0 ELSE 1 END)")
	})
	sel := b.Select(
		entsql.As(column, "key"),
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(failures, "failures"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		entsql.As(entsql.Sum("latency_ms"), "latency_ms"),
	).
		From(b.Table(tableLLMEvents)).
		GroupBy(column).
		OrderBy(column)
	var rows []usageRow
	if err := scanAll(ctx, r.store.db, sel, &rows); err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by %s: %w", column, err)
	}
	return rows, nil
}

// LLMUsageByPurpose aggregates calls and tokens per purpose label.
func (r *EventRepo) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	rows, err := r.usageBy(ctx, "purpose")
	if err != nil {
		return nil, err
	}
	out := make([]PurposeUsage, 0, len(rows))
	for _, row := range rows {
		u := PurposeUsage{
			Purpose:      row.Key,
			Calls:        row.Calls,
			Failures:     row.Failures,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
		}
		if row.Calls > 0 {
			u.AvgLatencyMs = row.LatencyMs / int64(row.Calls)
		}
		out = append(out, u)
	}
	return out, nil
}

// LLMUsageByModel aggregates calls and tokens per model.
func (r *EventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	rows, err := r.usageBy(ctx, "model")
	if err != nil {
		return nil, err
	}
	out := make([]ModelUsage, 0, len(rows))
	for _, row := range rows {
		out = append(out, ModelUsage{
			Model:        row.Key,
			Calls:        row.Calls,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
		})
	}
	return out, nil
}

// EstimatedCost sums the estimated USD cost of all recorded calls. Models
// without pricing are reported in unknown.
func (r *EventRepo) EstimatedCost(ctx context.Context) (total float64, unknown []string, err error) {
	usage, err := r.LLMUsageByModel(ctx)
	if err != nil {
		return 0, nil, err
	}
	for _, u := range usage {
		if llm.LookupCost(u.Model) == nil {
			unknown = append(unknown, u.Model)
			continue
		}
		total += llm.EstimateCost(u.Model, u.InputTokens, u.OutputTokens)
	}
	return total, unknown, nil
}
