package session

import (
	"context"

	"github.com/abhisek/studyloop/internal/mastery"
)

// Progress is what a learner sees about where they stand.
type Progress struct {
	Difficulty    int
	MinDifficulty int
	MaxDifficulty int

	// CorrectToLevelUp is how many more consecutive correct answers raise
	// the difficulty, 0 at the top level.
	CorrectToLevelUp int
	// IncorrectToLevelDown is how many more consecutive misses lower it,
	// 0 at the bottom level.
	IncorrectToLevelDown int

	WindowAccuracy  float64
	OverallAccuracy float64
	Answered        int
	Mood            mastery.Mood
	WeakTopics      []string
}

// ProgressOf derives progress from a state under the controller's policy.
func ProgressOf(s mastery.State, cfg mastery.Config) Progress {
	p := Progress{
		Difficulty:      s.Difficulty,
		MinDifficulty:   cfg.MinDifficulty,
		MaxDifficulty:   cfg.MaxDifficulty,
		WindowAccuracy:  s.WindowAccuracy(),
		OverallAccuracy: s.OverallAccuracy(),
		Answered:        s.TotalAnswered,
		Mood:            mastery.ResolveMood(s, cfg),
		WeakTopics:      s.WeakestTopics(cfg.WeakTopicCount),
	}
	if s.Difficulty < cfg.MaxDifficulty {
		p.CorrectToLevelUp = cfg.StreakLength - s.ConsecutiveCorrect
	}
	if s.Difficulty > cfg.MinDifficulty {
		p.IncorrectToLevelDown = cfg.StreakLength - s.ConsecutiveIncorrect
	}
	return p
}

// Progress returns the learner's current progress.
func (o *Orchestrator) Progress(ctx context.Context, userID string) (Progress, error) {
	s, err := o.Mastery(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	return ProgressOf(s, o.ctrl.Config()), nil
}
