package round

import "slices"

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateActive
	StateTerminating
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateTerminating:
		return "terminating"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Reason records why a round ended.
type Reason string

const (
	ReasonTimeUp       Reason = "time_up"
	ReasonNoLives      Reason = "no_lives"
	ReasonCompletedAll Reason = "completed_all"
	ReasonManual       Reason = "manual"
)

// Config holds the fixed rules of a round.
type Config struct {
	Lives           int
	QuestionSeconds int
}

// DefaultConfig returns three lives and sixty seconds per question.
func DefaultConfig() Config {
	return Config{Lives: 3, QuestionSeconds: 60}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Lives <= 0 {
		c.Lives = d.Lives
	}
	if c.QuestionSeconds <= 0 {
		c.QuestionSeconds = d.QuestionSeconds
	}
	return c
}

// Question is a single item of a round. It is never mutated once loaded.
type Question struct {
	ID           int64
	Hint         string
	Organization string
	ImageURL     string
	Points       int
}

// GuessOutcome describes the last guess the server scored.
type GuessOutcome struct {
	QuestionID    int64
	Correct       bool
	PointsEarned  int
	CorrectAnswer string
}

// Summary is handed to presentation once a round has been finalized.
type Summary struct {
	RoundID             int64
	FinalScore          int
	TotalElapsedSeconds int
	Accuracy            *float64
	Reason              Reason
}

// Snapshot is a read-only copy of a Session taken after a transition.
type Snapshot struct {
	State                  State
	RoundID                int64
	Questions              []Question
	CurrentIndex           int
	Lives                  int
	Score                  int
	TotalElapsedSeconds    int
	PerQuestionSecondsLeft int
	Ended                  bool
	Reason                 Reason
	Pending                bool
	Message                string
	LastGuess              *GuessOutcome
	Summary                *Summary
}

// CurrentQuestion returns the question under the pointer, if any.
func (s Snapshot) CurrentQuestion() (Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// AcceptsGuesses reports whether presentation should enable guess input.
func (s Snapshot) AcceptsGuesses() bool {
	_, ok := s.CurrentQuestion()
	return ok && s.State == StateActive && !s.Pending && s.Lives > 0 && s.PerQuestionSecondsLeft > 0
}

func cloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	return slices.Clone(qs)
}
