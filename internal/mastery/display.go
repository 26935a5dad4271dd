package mastery

// Mood is a short learner-facing summary of recent performance.
type Mood string

const (
	MoodNew       Mood = "getting started"
	MoodSteady    Mood = "steady"
	MoodOnARoll   Mood = "on a roll"
	MoodStruggles Mood = "finding it tricky"
	MoodTopLevel  Mood = "at the top level"
)

// ResolveMood maps a state to the mood shown next to the difficulty.
func ResolveMood(s State, cfg Config) Mood {
	switch run, correct := s.Window.TrailingRun(); {
	case s.TotalAnswered == 0:
		return MoodNew
	case s.Difficulty >= cfg.MaxDifficulty && s.WindowAccuracy() >= 0.8:
		return MoodTopLevel
	case correct && run >= 2:
		return MoodOnARoll
	case !correct && run >= 2:
		return MoodStruggles
	default:
		return MoodSteady
	}
}
