package session

import (
	"context"
	"sync"

	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/questiongen"
)

// userEntry holds one learner's in-memory state. sem serializes every
// state read-modify-write for the learner; waiting on it honors the
// caller's context.
type userEntry struct {
	sem    chan struct{}
	loaded bool
	state  mastery.State

	// pmu guards prefetched, which the background worker fills without
	// holding sem.
	pmu        sync.Mutex
	prefetched *questiongen.Item

	// generating counts requests generating from each chunk between
	// selection and serve. Guarded by sem.
	generating map[string]int
}

func (e *userEntry) lock(ctx context.Context) error {
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *userEntry) unlock() { <-e.sem }

// claim marks chunkID as being generated from. Caller holds e.
func (e *userEntry) claim(chunkID string) {
	if e.generating == nil {
		e.generating = make(map[string]int)
	}
	e.generating[chunkID]++
}

// release undoes claim. Caller holds e.
func (e *userEntry) release(chunkID string) {
	if e.generating[chunkID] <= 1 {
		delete(e.generating, chunkID)
		return
	}
	e.generating[chunkID]--
}

// busy returns the chunks other requests are generating from. Caller
// holds e.
func (e *userEntry) busy() map[string]bool {
	if len(e.generating) == 0 {
		return nil
	}
	out := make(map[string]bool, len(e.generating))
	for id := range e.generating {
		out[id] = true
	}
	return out
}

func (e *userEntry) setPrefetched(item *questiongen.Item) {
	e.pmu.Lock()
	e.prefetched = item
	e.pmu.Unlock()
}

func (e *userEntry) takePrefetched() *questiongen.Item {
	e.pmu.Lock()
	defer e.pmu.Unlock()
	item := e.prefetched
	e.prefetched = nil
	return item
}

// registry maps learners to their entries. Only the map itself is guarded
// here; learners never contend on each other.
type registry struct {
	mu    sync.Mutex
	users map[string]*userEntry
}

func newRegistry() *registry {
	return &registry{users: make(map[string]*userEntry)}
}

func (r *registry) entry(userID string) *userEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.users[userID]
	if !ok {
		e = &userEntry{sem: make(chan struct{}, 1)}
		r.users[userID] = e
	}
	return e
}
