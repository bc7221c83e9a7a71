package round

// Effect is an instruction returned by Session.Handle. The Session never
// performs I/O or touches timers itself; the Runner executes effects and
// feeds their outcome back as events.
type Effect interface {
	isEffect()
}

// FetchRound requests a new round from the gateway.
type FetchRound struct {
	Attempt int
}

// ScoreGuess submits a guess to the gateway.
type ScoreGuess struct {
	Seq            int
	RoundID        int64
	QuestionID     int64
	Answer         string
	ElapsedSeconds int
}

// FinalizeRound asks the gateway to close the round.
type FinalizeRound struct {
	RoundID int64
}

// StartTimers starts the elapsed and per-question tickers.
type StartTimers struct{}

// ResetQuestionTimer restarts the per-question ticker from a full second.
type ResetQuestionTimer struct{}

// StopTimers cancels both tickers.
type StopTimers struct{}

// PublishSummary hands the end-of-round summary to presentation.
type PublishSummary struct {
	Summary Summary
}

func (FetchRound) isEffect()         {}
func (ScoreGuess) isEffect()         {}
func (FinalizeRound) isEffect()      {}
func (StartTimers) isEffect()        {}
func (ResetQuestionTimer) isEffect() {}
func (StopTimers) isEffect()         {}
func (PublishSummary) isEffect()     {}
