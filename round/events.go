package round

// Event is an input to Session.Handle: a user intent, a timer tick, or the
// result of a network call issued by an earlier Effect.
type Event interface {
	isEvent()
}

// StartRequested asks for a fresh round.
type StartRequested struct{}

// RoundLoaded carries the round issued by the server for the start attempt.
type RoundLoaded struct {
	Attempt   int
	RoundID   int64
	Questions []Question
}

// RoundLoadFailed reports that the start request for Attempt failed.
type RoundLoadFailed struct {
	Attempt int
	Err     error
}

// GuessSubmitted carries raw guess text from presentation.
type GuessSubmitted struct {
	Text string
}

// GuessScored is the server verdict for guess Seq of round RoundID.
type GuessScored struct {
	RoundID       int64
	Seq           int
	Correct       bool
	Score         *int
	PointsEarned  int
	CorrectAnswer string
}

// GuessFailed reports that guess Seq of round RoundID was not scored.
type GuessFailed struct {
	RoundID int64
	Seq     int
	Err     error
}

// ElapsedTick is one second of the round clock.
type ElapsedTick struct{}

// QuestionTick is one second of the per-question countdown.
type QuestionTick struct{}

// FinalizeSucceeded carries the server's end-of-round figures.
type FinalizeSucceeded struct {
	RoundID    int64
	FinalScore *int
	Accuracy   *float64
}

// FinalizeFailed reports that the finalization request failed.
type FinalizeFailed struct {
	RoundID int64
	Err     error
}

// QuitRequested abandons the round without finalizing it.
type QuitRequested struct{}

func (StartRequested) isEvent()    {}
func (RoundLoaded) isEvent()       {}
func (RoundLoadFailed) isEvent()   {}
func (GuessSubmitted) isEvent()    {}
func (GuessScored) isEvent()       {}
func (GuessFailed) isEvent()       {}
func (ElapsedTick) isEvent()       {}
func (QuestionTick) isEvent()      {}
func (FinalizeSucceeded) isEvent() {}
func (FinalizeFailed) isEvent()    {}
func (QuitRequested) isEvent()     {}
