package session

import (
	"slices"
	"time"

	"github.com/abhisek/studyloop/internal/store"
)

// Summary describes a run of answers, typically one sitting.
type Summary struct {
	Duration        time.Duration
	TotalQuestions  int
	TotalCorrect    int
	Accuracy        float64
	StartDifficulty int
	EndDifficulty   int
	TopicResults    []TopicResult
}

// TopicResult is the tally for one topic.
type TopicResult struct {
	Topic   string
	Correct int
	Total   int
}

// BuildSummary summarizes events, which must be in answer order.
// endDifficulty is the learner's level after the last answer.
func BuildSummary(events []store.AnswerEvent, endDifficulty int) *Summary {
	sum := &Summary{EndDifficulty: endDifficulty}
	if len(events) == 0 {
		return sum
	}
	sum.StartDifficulty = events[0].Difficulty
	sum.Duration = events[len(events)-1].AnsweredAt.Sub(events[0].AnsweredAt)

	idx := make(map[string]int)
	for _, ev := range events {
		sum.TotalQuestions++
		if ev.Correct {
			sum.TotalCorrect++
		}
		topic := ev.Topic
		if topic == "" {
			topic = "general"
		}
		i, ok := idx[topic]
		if !ok {
			i = len(sum.TopicResults)
			idx[topic] = i
			sum.TopicResults = append(sum.TopicResults, TopicResult{Topic: topic})
		}
		sum.TopicResults[i].Total++
		if ev.Correct {
			sum.TopicResults[i].Correct++
		}
	}
	sum.Accuracy = float64(sum.TotalCorrect) / float64(sum.TotalQuestions)
	slices.SortStableFunc(sum.TopicResults, func(a, b TopicResult) int {
		return b.Total - a.Total
	})
	return sum
}
