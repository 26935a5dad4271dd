package session

import (
	"context"

	"github.com/abhisek/studyloop/internal/corpus"
	"github.com/abhisek/studyloop/internal/questiongen"
)

type prefetched struct {
	userID string
	item   *questiongen.Item
}

// schedulePrefetch queues generation of the learner's next question. At
// most one prefetch per learner is in flight; a full queue drops the
// request.
func (o *Orchestrator) schedulePrefetch(userID, documentID string) {
	if o.pool == nil {
		return
	}
	queued := o.pool.TrySubmit(userID, func(ctx context.Context) (prefetched, error) {
		item, err := o.prefetch(ctx, userID, documentID)
		return prefetched{userID: userID, item: item}, err
	})
	if !queued {
		o.logger.Debug("prefetch not queued", "user_id", userID)
	}
}

func (o *Orchestrator) prefetch(ctx context.Context, userID, documentID string) (*questiongen.Item, error) {
	chunks, err := o.documentChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}
	e := o.users.entry(userID)
	if err := e.lock(ctx); err != nil {
		return nil, err
	}
	if err := o.ensureLoaded(ctx, e, userID); err != nil {
		e.unlock()
		return nil, err
	}
	chunk, err := o.ctrl.SelectChunkAvoiding(&e.state, chunks, o.ctrl.Config().AllowReuse, e.busy())
	difficulty := e.state.Difficulty
	e.unlock()
	if err != nil {
		return nil, err
	}
	return o.generate(ctx, userID, chunk, difficulty)
}

func (o *Orchestrator) collect() {
	defer close(o.collected)
	for res := range o.pool.Results() {
		if res.Err != nil {
			o.logger.Debug("prefetch failed", "user_id", res.JobID, "error", res.Err)
			continue
		}
		o.users.entry(res.Output.userID).setPrefetched(res.Output.item)
	}
}

// usablePrefetch returns the prefetched item if it still matches what would
// be generated now: same document, same difficulty and same chunk. Caller
// holds e.
func (o *Orchestrator) usablePrefetch(e *userEntry, documentID string, chunks []corpus.Chunk) *questiongen.Item {
	item := e.takePrefetched()
	if item == nil {
		return nil
	}
	if item.DocumentID != documentID || item.Difficulty != e.state.Difficulty {
		return nil
	}
	chunk, err := o.ctrl.SelectChunkAvoiding(&e.state, chunks, o.ctrl.Config().AllowReuse, e.busy())
	if err != nil || chunk.ID != item.ChunkID {
		return nil
	}
	return item
}
