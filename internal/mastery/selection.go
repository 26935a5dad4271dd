package mastery

import (
	"errors"
	"slices"

	"github.com/abhisek/studyloop/internal/corpus"
)

// ErrCorpusExhausted is returned when no chunk is eligible for a new
// question: the document has no chunks, or every chunk was served and
// reuse is not allowed.
var ErrCorpusExhausted = errors.New("no unused chunks left in document")

// SelectChunk picks the chunk for the next question from chunks, which must
// be in reading order.
//
// Unserved chunks come first: one whose topic is among the learner's weak
// topics if any, otherwise the next one in reading order after the last
// served chunk. Once every chunk was served and allowReuse is set, the
// least recently served chunk is offered again, preferring weak topics on
// ties. The chunk served last is never repeated while another exists.
func (c *Controller) SelectChunk(s *State, chunks []corpus.Chunk, allowReuse bool) (corpus.Chunk, error) {
	return c.SelectChunkAvoiding(s, chunks, allowReuse, nil)
}

// SelectChunkAvoiding is SelectChunk that also passes over the chunks in
// avoid, typically ones a concurrent request is already generating from.
// They are only picked when nothing else is eligible.
func (c *Controller) SelectChunkAvoiding(s *State, chunks []corpus.Chunk, allowReuse bool, avoid map[string]bool) (corpus.Chunk, error) {
	if len(chunks) == 0 {
		return corpus.Chunk{}, ErrCorpusExhausted
	}
	c.Normalize(s)

	ordered := rotate(chunks, s.LastChunkID)
	if len(avoid) > 0 {
		open := slices.DeleteFunc(slices.Clone(ordered), func(ch corpus.Chunk) bool {
			return avoid[ch.ID]
		})
		if len(open) > 0 {
			if ch, err := c.selectFrom(s, open, allowReuse); err == nil {
				return ch, nil
			}
		}
	}
	return c.selectFrom(s, ordered, allowReuse)
}

func (c *Controller) selectFrom(s *State, ordered []corpus.Chunk, allowReuse bool) (corpus.Chunk, error) {
	var fresh []corpus.Chunk
	for _, ch := range ordered {
		if s.Served[ch.ID].Count == 0 {
			fresh = append(fresh, ch)
		}
	}
	if len(fresh) > 0 {
		weak := c.weakTopics(s)
		for _, ch := range fresh {
			if weak[ch.Topic] {
				return ch, nil
			}
		}
		return fresh[0], nil
	}

	if !allowReuse {
		return corpus.Chunk{}, ErrCorpusExhausted
	}

	pool := ordered
	if len(pool) > 1 {
		pool = slices.DeleteFunc(slices.Clone(pool), func(ch corpus.Chunk) bool {
			return ch.ID == s.LastChunkID
		})
	}
	best := pool[0]
	for _, ch := range pool[1:] {
		if c.lessRecent(s, ch, best) {
			best = ch
		}
	}
	return best, nil
}

// MarkServed records that a question was generated from chunkID.
func (c *Controller) MarkServed(s *State, chunkID string) {
	c.Normalize(s)
	s.Tick++
	sc := s.Served[chunkID]
	sc.Count++
	sc.LastServed = s.Tick
	s.Served[chunkID] = sc
	s.LastChunkID = chunkID
	s.UpdatedAt = c.now().UTC()
}

// lessRecent orders reuse candidates: older LastServed first, then lower
// topic mastery, then reading order.
func (c *Controller) lessRecent(s *State, a, b corpus.Chunk) bool {
	la, lb := s.Served[a.ID].LastServed, s.Served[b.ID].LastServed
	if la != lb {
		return la < lb
	}
	ma, mb := c.topicScore(s, a.Topic), c.topicScore(s, b.Topic)
	if ma != mb {
		return ma < mb
	}
	return a.Seq < b.Seq
}

func (c *Controller) topicScore(s *State, topic string) float64 {
	if m, ok := s.TopicMastery[topic]; ok {
		return m
	}
	return c.cfg.TopicPrior
}

func (c *Controller) weakTopics(s *State) map[string]bool {
	weak := make(map[string]bool)
	for _, t := range s.WeakestTopics(c.cfg.WeakTopicCount) {
		if s.TopicMastery[t] < c.cfg.WeakThreshold {
			weak[t] = true
		}
	}
	return weak
}

// rotate returns chunks starting just after lastID, wrapping around. Unknown
// or empty lastID keeps reading order.
func rotate(chunks []corpus.Chunk, lastID string) []corpus.Chunk {
	pos := slices.IndexFunc(chunks, func(ch corpus.Chunk) bool { return ch.ID == lastID })
	if pos < 0 {
		return chunks
	}
	out := make([]corpus.Chunk, 0, len(chunks))
	out = append(out, chunks[pos+1:]...)
	return append(out, chunks[:pos+1]...)
}
