package round

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Gateway is what the Runner needs from the remote game API.
type Gateway interface {
	StartRound(ctx context.Context) (RoundData, error)
	SubmitGuess(ctx context.Context, req GuessRequest) (GuessVerdict, error)
	FinalizeRound(ctx context.Context, roundID int64) (Finalization, error)
}

// RoundData is a newly issued round.
type RoundData struct {
	RoundID   int64
	Questions []Question
}

// GuessRequest is a guess as sent to the gateway.
type GuessRequest struct {
	RoundID        int64
	QuestionID     int64
	Answer         string
	ElapsedSeconds int
}

// GuessVerdict is the gateway's scoring of a guess. Score is nil when the
// server did not report one.
type GuessVerdict struct {
	Correct       bool
	Score         *int
	PointsEarned  int
	CorrectAnswer string
}

// Finalization carries the authoritative end-of-round figures, when known.
type Finalization struct {
	FinalScore *int
	Accuracy   *float64
}

const defaultCallTimeout = 15 * time.Second

// Options configures a Runner.
type Options struct {
	Config      Config
	Clock       clockwork.Clock
	Logger      *zerolog.Logger
	CallTimeout time.Duration

	// OnChange and OnSummary are invoked from the Runner's loop goroutine.
	OnChange  func(Snapshot)
	OnSummary func(Summary)
}

// Runner drives a Session: it owns the two tickers, executes effects, and
// funnels user intents, ticks and network results through a single loop so
// no two transitions ever interleave.
type Runner struct {
	session   *Session
	gateway   Gateway
	clock     clockwork.Clock
	log       zerolog.Logger
	timeout   time.Duration
	onChange  func(Snapshot)
	onSummary func(Summary)

	events chan Event
	done   chan struct{}

	elapsedTicker  clockwork.Ticker
	questionTicker clockwork.Ticker

	mu     sync.RWMutex
	latest Snapshot
}

// NewRunner builds a Runner around a fresh idle Session.
func NewRunner(gateway Gateway, opts Options) *Runner {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "round").Logger()
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	session := NewSession(opts.Config)
	return &Runner{
		session:   session,
		gateway:   gateway,
		clock:     clock,
		log:       logger,
		timeout:   timeout,
		onChange:  opts.OnChange,
		onSummary: opts.OnSummary,
		events:    make(chan Event, 32),
		done:      make(chan struct{}),
		latest:    session.Snapshot(),
	}
}

// Start requests a new round.
func (r *Runner) Start() { r.post(StartRequested{}) }

// SubmitGuess forwards raw guess text; invalid or ill-timed guesses are ignored.
func (r *Runner) SubmitGuess(text string) { r.post(GuessSubmitted{Text: text}) }

// Quit abandons the round and stops both timers without waiting on the network.
func (r *Runner) Quit() { r.post(QuitRequested{}) }

// Snapshot returns the state after the most recent transition.
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Done is closed once Run has returned.
func (r *Runner) Done() <-chan struct{} { return r.done }

func (r *Runner) post(ev Event) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

// Run processes events until ctx is cancelled. It must be called once.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	defer r.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.events:
			r.dispatch(ctx, ev)
		case <-tickerChan(r.elapsedTicker):
			r.dispatch(ctx, ElapsedTick{})
		case <-tickerChan(r.questionTicker):
			r.dispatch(ctx, QuestionTick{})
		}
	}
}

func tickerChan(t clockwork.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.Chan()
}

func (r *Runner) dispatch(ctx context.Context, ev Event) {
	before := r.session.State()
	effects := r.session.Handle(ev)

	var summaries []Summary
	for _, eff := range effects {
		if pub, ok := eff.(PublishSummary); ok {
			summaries = append(summaries, pub.Summary)
			continue
		}
		r.execute(ctx, eff)
	}

	snap := r.session.Snapshot()
	if snap.State != before {
		r.log.Debug().
			Stringer("from", before).
			Stringer("to", snap.State).
			Int64("round_id", snap.RoundID).
			Msg("round state changed")
	}

	r.mu.Lock()
	r.latest = snap
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange(snap)
	}
	for _, sum := range summaries {
		r.log.Info().
			Int64("round_id", sum.RoundID).
			Int("final_score", sum.FinalScore).
			Str("reason", string(sum.Reason)).
			Msg("round finished")
		if r.onSummary != nil {
			r.onSummary(sum)
		}
	}
}

func (r *Runner) execute(ctx context.Context, eff Effect) {
	switch eff := eff.(type) {
	case FetchRound:
		r.call(ctx, func(cctx context.Context) Event {
			data, err := r.gateway.StartRound(cctx)
			if err != nil {
				r.log.Warn().Err(err).Msg("start round failed")
				return RoundLoadFailed{Attempt: eff.Attempt, Err: err}
			}
			return RoundLoaded{Attempt: eff.Attempt, RoundID: data.RoundID, Questions: data.Questions}
		})
	case ScoreGuess:
		r.call(ctx, func(cctx context.Context) Event {
			verdict, err := r.gateway.SubmitGuess(cctx, GuessRequest{
				RoundID:        eff.RoundID,
				QuestionID:     eff.QuestionID,
				Answer:         eff.Answer,
				ElapsedSeconds: eff.ElapsedSeconds,
			})
			if err != nil {
				r.log.Warn().Err(err).Int64("round_id", eff.RoundID).Msg("submit guess failed")
				return GuessFailed{RoundID: eff.RoundID, Seq: eff.Seq, Err: err}
			}
			return GuessScored{
				RoundID:       eff.RoundID,
				Seq:           eff.Seq,
				Correct:       verdict.Correct,
				Score:         verdict.Score,
				PointsEarned:  verdict.PointsEarned,
				CorrectAnswer: verdict.CorrectAnswer,
			}
		})
	case FinalizeRound:
		r.call(ctx, func(cctx context.Context) Event {
			fin, err := r.gateway.FinalizeRound(cctx, eff.RoundID)
			if err != nil {
				r.log.Warn().Err(err).Int64("round_id", eff.RoundID).Msg("finalize round failed")
				return FinalizeFailed{RoundID: eff.RoundID, Err: err}
			}
			return FinalizeSucceeded{RoundID: eff.RoundID, FinalScore: fin.FinalScore, Accuracy: fin.Accuracy}
		})
	case StartTimers:
		r.stopTimers()
		r.elapsedTicker = r.clock.NewTicker(time.Second)
		r.questionTicker = r.clock.NewTicker(time.Second)
	case ResetQuestionTimer:
		if r.questionTicker == nil {
			r.questionTicker = r.clock.NewTicker(time.Second)
			return
		}
		r.questionTicker.Reset(time.Second)
	case StopTimers:
		r.stopTimers()
	}
}

// call runs fn off the loop and posts its resulting event back.
func (r *Runner) call(ctx context.Context, fn func(context.Context) Event) {
	go func() {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		r.post(fn(cctx))
	}()
}

func (r *Runner) stopTimers() {
	if r.elapsedTicker != nil {
		r.elapsedTicker.Stop()
		r.elapsedTicker = nil
	}
	if r.questionTicker != nil {
		r.questionTicker.Stop()
		r.questionTicker = nil
	}
}
