package round

import (
	"fmt"
	"strings"
)

// Session is the state of one round. All mutation goes through Handle,
// which runs each event to completion and returns the effects it needs.
// A Session is not safe for concurrent use; the Runner owns it.
type Session struct {
	cfg Config

	state     State
	attempt   int
	roundID   int64
	questions []Question
	index     int
	lives     int
	score     int
	elapsed   int
	left      int

	ended   bool
	reason  Reason
	closing Reason

	pending bool
	seq     int
	message string
	last    *GuessOutcome
	summary *Summary
}

// NewSession returns an idle session using cfg, with zero fields defaulted.
func NewSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:   cfg,
		state: StateIdle,
		lives: cfg.Lives,
		left:  cfg.QuestionSeconds,
	}
}

// Config returns the rules the session was built with.
func (s *Session) Config() Config { return s.cfg }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Snapshot copies the observable state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:                  s.state,
		RoundID:                s.roundID,
		Questions:              cloneQuestions(s.questions),
		CurrentIndex:           s.index,
		Lives:                  s.lives,
		Score:                  s.score,
		TotalElapsedSeconds:    s.elapsed,
		PerQuestionSecondsLeft: s.left,
		Ended:                  s.ended,
		Reason:                 s.reason,
		Pending:                s.pending,
		Message:                s.message,
	}
	if s.last != nil {
		last := *s.last
		snap.LastGuess = &last
	}
	if s.summary != nil {
		sum := *s.summary
		snap.Summary = &sum
	}
	return snap
}

// Handle applies ev and returns the effects the caller must execute in order.
func (s *Session) Handle(ev Event) []Effect {
	switch ev := ev.(type) {
	case StartRequested:
		return s.start()
	case RoundLoaded:
		return s.loaded(ev)
	case RoundLoadFailed:
		return s.loadFailed(ev)
	case GuessSubmitted:
		return s.submitGuess(ev.Text)
	case GuessScored:
		return s.guessScored(ev)
	case GuessFailed:
		return s.guessFailed(ev)
	case ElapsedTick:
		if s.state == StateActive {
			s.elapsed++
		}
		return nil
	case QuestionTick:
		return s.questionTick()
	case FinalizeSucceeded:
		if s.state != StateTerminating || ev.RoundID != s.roundID {
			return nil
		}
		s.score = preferServer(ev.FinalScore, s.score)
		return s.commitEnd(ev.Accuracy)
	case FinalizeFailed:
		if s.state != StateTerminating || ev.RoundID != s.roundID {
			return nil
		}
		s.message = fmt.Sprintf("Could not save round results: %v", ev.Err)
		return s.commitEnd(nil)
	case QuitRequested:
		return s.quit()
	}
	return nil
}

func (s *Session) start() []Effect {
	if s.state != StateIdle && s.state != StateEnded {
		return nil
	}
	*s = Session{
		cfg:     s.cfg,
		state:   StateLoading,
		attempt: s.attempt + 1,
		lives:   s.cfg.Lives,
		left:    s.cfg.QuestionSeconds,
	}
	return []Effect{FetchRound{Attempt: s.attempt}}
}

func (s *Session) loaded(ev RoundLoaded) []Effect {
	if s.state != StateLoading || ev.Attempt != s.attempt {
		return nil
	}
	if len(ev.Questions) == 0 {
		s.state = StateIdle
		s.message = "Failed to start game: no questions available."
		return nil
	}
	s.roundID = ev.RoundID
	s.questions = cloneQuestions(ev.Questions)
	s.index = 0
	s.lives = s.cfg.Lives
	s.score = 0
	s.elapsed = 0
	s.left = s.cfg.QuestionSeconds
	s.message = ""
	s.state = StateActive
	return []Effect{StartTimers{}}
}

func (s *Session) loadFailed(ev RoundLoadFailed) []Effect {
	if s.state != StateLoading || ev.Attempt != s.attempt {
		return nil
	}
	s.state = StateIdle
	s.message = fmt.Sprintf("Failed to start game: %v", ev.Err)
	return nil
}

func (s *Session) submitGuess(raw string) []Effect {
	if s.state != StateActive || s.pending {
		return nil
	}
	text := strings.TrimSpace(raw)
	if text == "" || s.index >= len(s.questions) {
		return nil
	}
	s.pending = true
	s.seq++
	s.message = ""
	return []Effect{ScoreGuess{
		Seq:            s.seq,
		RoundID:        s.roundID,
		QuestionID:     s.questions[s.index].ID,
		Answer:         text,
		ElapsedSeconds: s.cfg.QuestionSeconds - s.left,
	}}
}

func (s *Session) guessScored(ev GuessScored) []Effect {
	if !s.awaiting(ev.RoundID, ev.Seq) {
		return nil
	}
	s.pending = false
	s.score = preferServer(ev.Score, s.score)
	s.last = &GuessOutcome{
		QuestionID:    s.questions[s.index].ID,
		Correct:       ev.Correct,
		PointsEarned:  ev.PointsEarned,
		CorrectAnswer: ev.CorrectAnswer,
	}
	if !ev.Correct && s.lives > 0 {
		s.lives--
	}

	// Lives only drop on an incorrect guess, so a correct answer on the last
	// question always completes the round.
	switch {
	case s.lives == 0:
		return s.beginTermination(ReasonNoLives)
	case s.index+1 == len(s.questions):
		s.index++
		return s.beginTermination(ReasonCompletedAll)
	}

	s.index++
	s.left = s.cfg.QuestionSeconds
	s.message = ""
	return []Effect{ResetQuestionTimer{}}
}

func (s *Session) guessFailed(ev GuessFailed) []Effect {
	if !s.awaiting(ev.RoundID, ev.Seq) {
		return nil
	}
	s.pending = false
	s.message = fmt.Sprintf("Guess not submitted: %v", ev.Err)
	return nil
}

func (s *Session) awaiting(roundID int64, seq int) bool {
	return s.state == StateActive && s.pending && roundID == s.roundID && seq == s.seq
}

func (s *Session) questionTick() []Effect {
	if s.state != StateActive {
		return nil
	}
	if s.left > 0 {
		s.left--
	}
	if s.left == 0 {
		return s.beginTermination(ReasonTimeUp)
	}
	return nil
}

// beginTermination is a no-op unless the session is Active.
func (s *Session) beginTermination(reason Reason) []Effect {
	if s.state != StateActive {
		return nil
	}
	s.state = StateTerminating
	s.closing = reason
	s.pending = false
	return []Effect{StopTimers{}, FinalizeRound{RoundID: s.roundID}}
}

func (s *Session) commitEnd(accuracy *float64) []Effect {
	s.state = StateEnded
	s.ended = true
	s.reason = s.closing
	sum := Summary{
		RoundID:             s.roundID,
		FinalScore:          s.score,
		TotalElapsedSeconds: s.elapsed,
		Reason:              s.reason,
	}
	if accuracy != nil {
		acc := *accuracy
		sum.Accuracy = &acc
	}
	s.summary = &sum
	return []Effect{PublishSummary{Summary: sum}}
}

// quit ends the round locally. A round already terminating keeps the reason
// it was closing with; its finalization result is dropped.
func (s *Session) quit() []Effect {
	switch s.state {
	case StateLoading, StateActive, StateTerminating:
	default:
		return nil
	}
	wasActive := s.state == StateActive
	reason := ReasonManual
	if s.state == StateTerminating {
		reason = s.closing
	}
	s.state = StateEnded
	s.ended = true
	s.reason = reason
	s.closing = reason
	s.pending = false
	if wasActive {
		return []Effect{StopTimers{}}
	}
	return nil
}

// preferServer is the single precedence rule for scores: a value supplied by
// the server wins, otherwise the local accumulator stands.
func preferServer(server *int, local int) int {
	if server != nil {
		return *server
	}
	return local
}
