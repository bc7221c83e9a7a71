package round

import (
	"errors"
	"reflect"
	"testing"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func questions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{ID: int64(100 + i), Hint: "hint", Points: 100}
	}
	return qs
}

// activeSession returns a session that has loaded a round with n questions.
func activeSession(t *testing.T, n int) *Session {
	t.Helper()
	s := NewSession(DefaultConfig())
	effects := s.Handle(StartRequested{})
	fetch, ok := effects[0].(FetchRound)
	if !ok {
		t.Fatalf("expected FetchRound, got %#v", effects)
	}
	effects = s.Handle(RoundLoaded{Attempt: fetch.Attempt, RoundID: 7, Questions: questions(n)})
	if len(effects) != 1 {
		t.Fatalf("expected one effect on load, got %#v", effects)
	}
	if _, ok := effects[0].(StartTimers); !ok {
		t.Fatalf("expected StartTimers, got %#v", effects[0])
	}
	if s.State() != StateActive {
		t.Fatalf("expected active, got %s", s.State())
	}
	return s
}

// guess submits text and returns the resulting ScoreGuess effect.
func guess(t *testing.T, s *Session, text string) ScoreGuess {
	t.Helper()
	effects := s.Handle(GuessSubmitted{Text: text})
	if len(effects) != 1 {
		t.Fatalf("expected ScoreGuess, got %#v", effects)
	}
	sg, ok := effects[0].(ScoreGuess)
	if !ok {
		t.Fatalf("expected ScoreGuess, got %#v", effects[0])
	}
	return sg
}

func score(s *Session, sg ScoreGuess, correct bool, serverScore *int) []Effect {
	return s.Handle(GuessScored{RoundID: sg.RoundID, Seq: sg.Seq, Correct: correct, Score: serverScore})
}

func finalize(t *testing.T, effects []Effect) FinalizeRound {
	t.Helper()
	if len(effects) != 2 {
		t.Fatalf("expected StopTimers and FinalizeRound, got %#v", effects)
	}
	if _, ok := effects[0].(StopTimers); !ok {
		t.Fatalf("expected StopTimers first, got %#v", effects[0])
	}
	fin, ok := effects[1].(FinalizeRound)
	if !ok {
		t.Fatalf("expected FinalizeRound, got %#v", effects[1])
	}
	return fin
}

func TestStartLoadsRound(t *testing.T) {
	s := activeSession(t, 3)
	snap := s.Snapshot()

	if snap.RoundID != 7 {
		t.Fatalf("expected round 7, got %d", snap.RoundID)
	}
	if snap.Lives != 3 || snap.Score != 0 || snap.CurrentIndex != 0 {
		t.Fatalf("unexpected initial counters: %+v", snap)
	}
	if snap.PerQuestionSecondsLeft != 60 || snap.TotalElapsedSeconds != 0 {
		t.Fatalf("unexpected timers: left=%d elapsed=%d", snap.PerQuestionSecondsLeft, snap.TotalElapsedSeconds)
	}
	if snap.Ended || snap.Reason != "" {
		t.Fatalf("expected not ended, got ended=%v reason=%q", snap.Ended, snap.Reason)
	}
}

func TestStartFailureStaysIdle(t *testing.T) {
	s := NewSession(DefaultConfig())
	fetch := s.Handle(StartRequested{})[0].(FetchRound)

	effects := s.Handle(RoundLoadFailed{Attempt: fetch.Attempt, Err: errors.New("boom")})
	if len(effects) != 0 {
		t.Fatalf("expected no effects, got %#v", effects)
	}
	snap := s.Snapshot()
	if snap.State != StateIdle {
		t.Fatalf("expected idle, got %s", snap.State)
	}
	if snap.Message == "" {
		t.Fatal("expected an error message")
	}
	if snap.RoundID != 0 || len(snap.Questions) != 0 {
		t.Fatalf("expected no partial session, got %+v", snap)
	}
}

func TestEmptyRoundIsALoadFailure(t *testing.T) {
	s := NewSession(DefaultConfig())
	fetch := s.Handle(StartRequested{})[0].(FetchRound)

	if effects := s.Handle(RoundLoaded{Attempt: fetch.Attempt, RoundID: 1}); len(effects) != 0 {
		t.Fatalf("expected no timers for empty round, got %#v", effects)
	}
	if s.State() != StateIdle {
		t.Fatalf("expected idle, got %s", s.State())
	}
}

func TestStaleLoadIsIgnored(t *testing.T) {
	s := NewSession(DefaultConfig())
	fetch := s.Handle(StartRequested{})[0].(FetchRound)

	if effects := s.Handle(RoundLoaded{Attempt: fetch.Attempt + 1, RoundID: 9, Questions: questions(1)}); effects != nil {
		t.Fatalf("expected stale load to be ignored, got %#v", effects)
	}
	if s.State() != StateLoading {
		t.Fatalf("expected loading, got %s", s.State())
	}
}

func TestStartIgnoredWhileActive(t *testing.T) {
	s := activeSession(t, 2)
	if effects := s.Handle(StartRequested{}); effects != nil {
		t.Fatalf("expected no effects, got %#v", effects)
	}
	if s.State() != StateActive {
		t.Fatalf("expected active, got %s", s.State())
	}
}

func TestSubmitGuessPreconditions(t *testing.T) {
	idle := NewSession(DefaultConfig())
	if effects := idle.Handle(GuessSubmitted{Text: "quad"}); effects != nil {
		t.Fatalf("expected idle guess to be ignored, got %#v", effects)
	}

	s := activeSession(t, 2)
	if effects := s.Handle(GuessSubmitted{Text: "   "}); effects != nil {
		t.Fatalf("expected blank guess to be ignored, got %#v", effects)
	}

	sg := guess(t, s, "  spark festival ")
	if sg.Answer != "spark festival" {
		t.Fatalf("expected trimmed answer, got %q", sg.Answer)
	}
	if sg.QuestionID != 100 || sg.RoundID != 7 {
		t.Fatalf("unexpected guess target: %+v", sg)
	}
	if effects := s.Handle(GuessSubmitted{Text: "again"}); effects != nil {
		t.Fatalf("expected guess while pending to be ignored, got %#v", effects)
	}
}

func TestGuessElapsedSecondsUsesCountdown(t *testing.T) {
	s := activeSession(t, 2)
	for range 12 {
		s.Handle(QuestionTick{})
	}
	sg := guess(t, s, "quad")
	if sg.ElapsedSeconds != 12 {
		t.Fatalf("expected 12 elapsed seconds, got %d", sg.ElapsedSeconds)
	}
}

func TestCorrectGuessAdvances(t *testing.T) {
	s := activeSession(t, 3)
	for range 5 {
		s.Handle(QuestionTick{})
	}
	sg := guess(t, s, "quad")
	effects := score(s, sg, true, intPtr(100))

	if len(effects) != 1 {
		t.Fatalf("expected ResetQuestionTimer, got %#v", effects)
	}
	if _, ok := effects[0].(ResetQuestionTimer); !ok {
		t.Fatalf("expected ResetQuestionTimer, got %#v", effects[0])
	}
	snap := s.Snapshot()
	if snap.CurrentIndex != 1 || snap.Score != 100 || snap.Lives != 3 {
		t.Fatalf("unexpected counters: index=%d score=%d lives=%d", snap.CurrentIndex, snap.Score, snap.Lives)
	}
	if snap.PerQuestionSecondsLeft != 60 {
		t.Fatalf("expected countdown reset, got %d", snap.PerQuestionSecondsLeft)
	}
	if snap.LastGuess == nil || !snap.LastGuess.Correct || snap.LastGuess.QuestionID != 100 {
		t.Fatalf("unexpected last guess: %+v", snap.LastGuess)
	}
}

func TestIncorrectGuessCostsALife(t *testing.T) {
	s := activeSession(t, 3)
	sg := guess(t, s, "wrong")
	score(s, sg, false, nil)

	snap := s.Snapshot()
	if snap.Lives != 2 {
		t.Fatalf("expected 2 lives, got %d", snap.Lives)
	}
	if snap.CurrentIndex != 1 {
		t.Fatalf("expected to advance to question 1, got %d", snap.CurrentIndex)
	}
}

func TestScoreKeepsLocalValueWithoutServerScore(t *testing.T) {
	s := activeSession(t, 3)
	score(s, guess(t, s, "a"), true, intPtr(150))
	score(s, guess(t, s, "b"), true, nil)

	if got := s.Snapshot().Score; got != 150 {
		t.Fatalf("expected local score 150 to be retained, got %d", got)
	}
}

func TestGuessFailureLeavesStateUnchanged(t *testing.T) {
	s := activeSession(t, 2)
	before := s.Snapshot()
	sg := guess(t, s, "quad")

	if effects := s.Handle(GuessFailed{RoundID: sg.RoundID, Seq: sg.Seq, Err: errors.New("network down")}); effects != nil {
		t.Fatalf("expected no effects, got %#v", effects)
	}
	after := s.Snapshot()
	if after.Lives != before.Lives || after.Score != before.Score || after.CurrentIndex != before.CurrentIndex {
		t.Fatalf("expected counters unchanged, before=%+v after=%+v", before, after)
	}
	if after.State != StateActive {
		t.Fatalf("expected active, got %s", after.State)
	}
	if after.Pending {
		t.Fatal("expected pending guess to be cleared")
	}
	if after.Message == "" {
		t.Fatal("expected an error message for the caller")
	}

	// The player may retry.
	guess(t, s, "quad again")
}

func TestFailedSubmissionsDoNotCostLives(t *testing.T) {
	s := NewSession(DefaultConfig())
	fetch := s.Handle(StartRequested{})[0].(FetchRound)
	s.Handle(RoundLoaded{Attempt: fetch.Attempt, RoundID: 7, Questions: questions(2)})

	// The first two attempts fail in transit; the third is scored wrong.
	var effects []Effect
	for i := range 3 {
		sg := guess(t, s, "wrong")
		if i < 2 {
			s.Handle(GuessFailed{RoundID: sg.RoundID, Seq: sg.Seq, Err: errors.New("timeout")})
			continue
		}
		effects = score(s, sg, false, nil)
	}
	if s.Snapshot().Lives != 2 {
		t.Fatalf("expected failed submissions not to cost lives, got %d", s.Snapshot().Lives)
	}
	if len(effects) != 1 {
		t.Fatalf("expected the round to continue, got %#v", effects)
	}
}

func TestThreeWrongGuessesEndWithNoLives(t *testing.T) {
	s := NewSession(Config{Lives: 3, QuestionSeconds: 60})
	fetch := s.Handle(StartRequested{})[0].(FetchRound)
	s.Handle(RoundLoaded{Attempt: fetch.Attempt, RoundID: 3, Questions: questions(10)})

	var effects []Effect
	for range 3 {
		effects = score(s, guess(t, s, "wrong"), false, nil)
	}
	finalize(t, effects)
	if s.State() != StateTerminating {
		t.Fatalf("expected terminating, got %s", s.State())
	}
	s.Handle(FinalizeSucceeded{RoundID: 3})
	snap := s.Snapshot()
	if snap.Reason != ReasonNoLives || !snap.Ended || snap.Lives != 0 {
		t.Fatalf("expected ended with no_lives, got %+v", snap)
	}
}

func TestLastLifeLostKeepsIndex(t *testing.T) {
	s := NewSession(DefaultConfig())
	fetch := s.Handle(StartRequested{})[0].(FetchRound)
	s.Handle(RoundLoaded{Attempt: fetch.Attempt, RoundID: 11, Questions: questions(2)})
	s.lives = 1

	effects := score(s, guess(t, s, "wrong"), false, nil)
	finalize(t, effects)
	s.Handle(FinalizeSucceeded{RoundID: 11})

	snap := s.Snapshot()
	if snap.Reason != ReasonNoLives {
		t.Fatalf("expected no_lives, got %q", snap.Reason)
	}
	if snap.CurrentIndex != 0 {
		t.Fatalf("expected index to stay 0, got %d", snap.CurrentIndex)
	}
}

func TestWrongGuessOnLastQuestionWithLastLifeIsNoLives(t *testing.T) {
	s := activeSession(t, 1)
	s.lives = 1
	finalize(t, score(s, guess(t, s, "wrong"), false, nil))
	s.Handle(FinalizeSucceeded{RoundID: 7})

	snap := s.Snapshot()
	if snap.Reason != ReasonNoLives {
		t.Fatalf("expected no_lives to win over completion, got %q", snap.Reason)
	}
	if snap.CurrentIndex != 0 {
		t.Fatalf("expected index unchanged, got %d", snap.CurrentIndex)
	}
}

func TestCorrectGuessOnOnlyQuestionCompletes(t *testing.T) {
	s := activeSession(t, 1)
	fin := finalize(t, score(s, guess(t, s, "spark"), true, intPtr(100)))

	effects := s.Handle(FinalizeSucceeded{RoundID: fin.RoundID, FinalScore: intPtr(100), Accuracy: floatPtr(100)})
	if len(effects) != 1 {
		t.Fatalf("expected PublishSummary, got %#v", effects)
	}
	pub, ok := effects[0].(PublishSummary)
	if !ok {
		t.Fatalf("expected PublishSummary, got %#v", effects[0])
	}
	if pub.Summary.Reason != ReasonCompletedAll || pub.Summary.FinalScore != 100 {
		t.Fatalf("unexpected summary: %+v", pub.Summary)
	}
	if pub.Summary.Accuracy == nil || *pub.Summary.Accuracy != 100 {
		t.Fatalf("expected accuracy 100, got %v", pub.Summary.Accuracy)
	}
	snap := s.Snapshot()
	if snap.CurrentIndex != 1 {
		t.Fatalf("expected index 1, got %d", snap.CurrentIndex)
	}
	if !snap.Ended || snap.Reason != ReasonCompletedAll {
		t.Fatalf("expected ended completed_all, got %+v", snap)
	}
}

func TestCorrectGuessOnLastQuestionWithOneLifeCompletes(t *testing.T) {
	s := activeSession(t, 2)
	s.lives = 1
	score(s, guess(t, s, "a"), true, nil)
	finalize(t, score(s, guess(t, s, "b"), true, nil))
	s.Handle(FinalizeFailed{RoundID: 7, Err: errors.New("down")})

	if got := s.Snapshot().Reason; got != ReasonCompletedAll {
		t.Fatalf("expected completed_all, got %q", got)
	}
}

func TestQuestionTimeoutEndsWithTimeUp(t *testing.T) {
	s := activeSession(t, 3)
	score(s, guess(t, s, "wrong"), false, nil)

	var effects []Effect
	for range 60 {
		effects = s.Handle(QuestionTick{})
	}
	fin := finalize(t, effects)
	s.Handle(FinalizeSucceeded{RoundID: fin.RoundID})

	snap := s.Snapshot()
	if snap.Reason != ReasonTimeUp {
		t.Fatalf("expected time_up, got %q", snap.Reason)
	}
	if snap.Lives != 2 {
		t.Fatalf("expected lives unchanged at 2, got %d", snap.Lives)
	}
	if snap.PerQuestionSecondsLeft != 0 {
		t.Fatalf("expected countdown at 0, got %d", snap.PerQuestionSecondsLeft)
	}
}

func TestElapsedTicksOnlyWhileActive(t *testing.T) {
	s := NewSession(DefaultConfig())
	s.Handle(ElapsedTick{})
	if s.Snapshot().TotalElapsedSeconds != 0 {
		t.Fatal("expected idle session to ignore ticks")
	}

	s = activeSession(t, 1)
	s.Handle(ElapsedTick{})
	s.Handle(ElapsedTick{})
	finalize(t, score(s, guess(t, s, "x"), true, nil))
	s.Handle(ElapsedTick{})

	if got := s.Snapshot().TotalElapsedSeconds; got != 2 {
		t.Fatalf("expected elapsed to stop at termination, got %d", got)
	}
}

func TestTerminationIsIdempotent(t *testing.T) {
	s := activeSession(t, 2)
	score(s, guess(t, s, "x"), false, intPtr(0))
	if s.State() != StateActive {
		t.Fatalf("expected active, got %s", s.State())
	}

	for range 60 {
		s.Handle(QuestionTick{})
	}
	if s.State() != StateTerminating {
		t.Fatalf("expected terminating, got %s", s.State())
	}
	if effects := s.beginTermination(ReasonManual); effects != nil {
		t.Fatalf("expected second termination to be ignored, got %#v", effects)
	}
	if effects := s.Handle(QuestionTick{}); effects != nil {
		t.Fatalf("expected tick during termination to be ignored, got %#v", effects)
	}
}

func TestEndedSessionIsFrozen(t *testing.T) {
	s := activeSession(t, 2)
	sg := guess(t, s, "late")
	for range 60 {
		s.Handle(QuestionTick{})
	}
	s.Handle(FinalizeFailed{RoundID: 7, Err: errors.New("down")})
	frozen := s.Snapshot()
	if !frozen.Ended {
		t.Fatal("expected ended")
	}

	events := []Event{
		GuessSubmitted{Text: "more"},
		GuessScored{RoundID: sg.RoundID, Seq: sg.Seq, Correct: true, Score: intPtr(999)},
		GuessFailed{RoundID: sg.RoundID, Seq: sg.Seq, Err: errors.New("x")},
		QuestionTick{},
		ElapsedTick{},
		FinalizeSucceeded{RoundID: 7, FinalScore: intPtr(5000)},
		FinalizeFailed{RoundID: 7, Err: errors.New("again")},
		QuitRequested{},
	}
	for _, ev := range events {
		if effects := s.Handle(ev); effects != nil {
			t.Fatalf("expected %T to be ignored, got %#v", ev, effects)
		}
		if effects := s.beginTermination(ReasonNoLives); effects != nil {
			t.Fatalf("expected termination to be ignored, got %#v", effects)
		}
		if got := s.Snapshot(); !reflect.DeepEqual(got, frozen) {
			t.Fatalf("expected frozen snapshot after %T, got %+v", ev, got)
		}
	}
}

func TestLateGuessResultDiscardedAfterTermination(t *testing.T) {
	s := activeSession(t, 2)
	sg := guess(t, s, "slow")
	for range 60 {
		s.Handle(QuestionTick{})
	}
	if effects := score(s, sg, true, intPtr(100)); effects != nil {
		t.Fatalf("expected late verdict to be discarded, got %#v", effects)
	}
	s.Handle(FinalizeSucceeded{RoundID: 7})
	snap := s.Snapshot()
	if snap.Score != 0 || snap.Reason != ReasonTimeUp {
		t.Fatalf("expected time_up with score 0, got %+v", snap)
	}
}

func TestFinalizeFailureStillEnds(t *testing.T) {
	s := activeSession(t, 1)
	fin := finalize(t, score(s, guess(t, s, "x"), true, intPtr(250)))

	effects := s.Handle(FinalizeFailed{RoundID: fin.RoundID, Err: errors.New("500")})
	pub, ok := effects[0].(PublishSummary)
	if !ok {
		t.Fatalf("expected PublishSummary, got %#v", effects)
	}
	if pub.Summary.FinalScore != 250 {
		t.Fatalf("expected best local score 250, got %d", pub.Summary.FinalScore)
	}
	if pub.Summary.Accuracy != nil {
		t.Fatalf("expected accuracy omitted, got %v", *pub.Summary.Accuracy)
	}
	if !s.Snapshot().Ended {
		t.Fatal("expected ended")
	}
}

func TestFinalizeForOtherRoundIgnored(t *testing.T) {
	s := activeSession(t, 1)
	finalize(t, score(s, guess(t, s, "x"), true, nil))
	if effects := s.Handle(FinalizeSucceeded{RoundID: 99}); effects != nil {
		t.Fatalf("expected foreign finalize to be ignored, got %#v", effects)
	}
	if s.State() != StateTerminating {
		t.Fatalf("expected terminating, got %s", s.State())
	}
}

func TestQuitStopsTimersWithoutFinalizing(t *testing.T) {
	s := activeSession(t, 3)
	sg := guess(t, s, "pending")

	effects := s.Handle(QuitRequested{})
	if len(effects) != 1 {
		t.Fatalf("expected only StopTimers, got %#v", effects)
	}
	if _, ok := effects[0].(StopTimers); !ok {
		t.Fatalf("expected StopTimers, got %#v", effects[0])
	}
	snap := s.Snapshot()
	if !snap.Ended || snap.Reason != ReasonManual || snap.Summary != nil {
		t.Fatalf("expected manual end without summary, got %+v", snap)
	}
	if effects := score(s, sg, true, intPtr(100)); effects != nil {
		t.Fatalf("expected in-flight verdict to be dropped, got %#v", effects)
	}
}

func TestQuitWhileLoadingDropsRound(t *testing.T) {
	s := NewSession(DefaultConfig())
	fetch := s.Handle(StartRequested{})[0].(FetchRound)
	s.Handle(QuitRequested{})

	if effects := s.Handle(RoundLoaded{Attempt: fetch.Attempt, RoundID: 5, Questions: questions(1)}); effects != nil {
		t.Fatalf("expected load after quit to be ignored, got %#v", effects)
	}
	if s.Snapshot().Reason != ReasonManual {
		t.Fatalf("expected manual, got %q", s.Snapshot().Reason)
	}
}

func TestRestartAfterEndCreatesFreshRound(t *testing.T) {
	s := activeSession(t, 1)
	score(s, guess(t, s, "x"), false, intPtr(0))
	s.Handle(QuitRequested{})

	effects := s.Handle(StartRequested{})
	fetch, ok := effects[0].(FetchRound)
	if !ok {
		t.Fatalf("expected FetchRound, got %#v", effects)
	}
	snap := s.Snapshot()
	if snap.State != StateLoading || snap.Ended || snap.Reason != "" || snap.RoundID != 0 || snap.LastGuess != nil {
		t.Fatalf("expected fresh loading session, got %+v", snap)
	}
	s.Handle(RoundLoaded{Attempt: fetch.Attempt, RoundID: 8, Questions: questions(2)})
	if got := s.Snapshot(); got.Lives != 3 || got.RoundID != 8 {
		t.Fatalf("unexpected restarted session: %+v", got)
	}
}

func TestInvariantsHoldAcrossGuessSequences(t *testing.T) {
	outcomes := [][]bool{
		{true, true, true, true},
		{false, false, false},
		{false, true, false, true},
		{true, false, false, false},
		{false, true, true, false},
	}
	for _, seq := range outcomes {
		s := activeSession(t, 4)
		for _, correct := range seq {
			if s.State() != StateActive {
				break
			}
			score(s, guess(t, s, "g"), correct, nil)
			snap := s.Snapshot()
			if snap.CurrentIndex < 0 || snap.CurrentIndex > len(snap.Questions) {
				t.Fatalf("index out of range: %d", snap.CurrentIndex)
			}
			if snap.Lives < 0 || snap.Lives > 3 {
				t.Fatalf("lives out of range: %d", snap.Lives)
			}
			if snap.Ended != (snap.Reason != "") {
				t.Fatalf("reason set iff ended violated: %+v", snap)
			}
		}
	}
}
