package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"guessr/cache"
	"guessr/models"
	"guessr/repository"
)

const (
	QuestionsPerRound = 7
	roundStateTTL     = 2 * time.Hour
)

// roundState is the cached view of an open round.
type roundState struct {
	EventIDs []uint `json:"event_ids"`
}

func roundKey(id uint) string { return "round:" + strconv.FormatUint(uint64(id), 10) }

type GameService struct {
	users   UserStore
	events  EventStore
	rounds  RoundStore
	cache   cache.Store
	matcher *AnswerMatcher
	feed    Publisher
	clock   clockwork.Clock
	log     zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type GameDeps struct {
	Users   UserStore
	Events  EventStore
	Rounds  RoundStore
	Cache   cache.Store
	Matcher *AnswerMatcher
	Feed    Publisher
	Clock   clockwork.Clock
	Rand    *rand.Rand
	Logger  zerolog.Logger
}

func NewGameService(deps GameDeps) *GameService {
	s := &GameService{
		users:   deps.Users,
		events:  deps.Events,
		rounds:  deps.Rounds,
		cache:   deps.Cache,
		matcher: deps.Matcher,
		feed:    deps.Feed,
		clock:   deps.Clock,
		rng:     deps.Rand,
		log:     deps.Logger.With().Str("service", "game").Logger(),
	}
	if s.matcher == nil {
		s.matcher = NewAnswerMatcher(DefaultTolerance)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

func (s *GameService) ListEvents(ctx context.Context) ([]EventView, error) {
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, NewEventView(e))
	}
	return out, nil
}

// sample picks up to n ids in random order.
func (s *GameService) sample(ids []uint, n int) []uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	picked := slices.Clone(ids)
	s.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if len(picked) > n {
		picked = picked[:n]
	}
	return picked
}

// StartRound opens a round of up to QuestionsPerRound random events.
func (s *GameService) StartRound(ctx context.Context, userID uint) (*StartRoundResult, error) {
	ids, err := s.events.EventIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list event ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNoEvents
	}
	picked := s.sample(ids, QuestionsPerRound)
	events, err := s.events.EventsByIDs(ctx, picked)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	round := &models.GameRound{UserID: userID, TotalQuestions: len(events)}
	if err := s.rounds.CreateRound(ctx, round); err != nil {
		return nil, fmt.Errorf("create round: %w", err)
	}

	state := roundState{EventIDs: make([]uint, 0, len(events))}
	questions := make([]QuestionView, 0, len(events))
	for _, e := range events {
		state.EventIDs = append(state.EventIDs, e.ID)
		questions = append(questions, NewQuestionView(e))
	}
	if err := cache.SetJSON(ctx, s.cache, roundKey(round.ID), state, roundStateTTL); err != nil {
		s.log.Warn().Err(err).Uint("round_id", round.ID).Msg("failed to cache round state")
	}

	s.log.Info().Uint("round_id", round.ID).Uint("user_id", userID).Int("questions", len(questions)).Msg("round started")
	return &StartRoundResult{
		GameRoundID:    round.ID,
		Questions:      questions,
		TotalQuestions: len(questions),
	}, nil
}

func (s *GameService) openRound(ctx context.Context, userID, roundID uint) (*models.GameRound, error) {
	round, err := s.rounds.RoundForUser(ctx, roundID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: game round %d", ErrNotFound, roundID)
	}
	if err != nil {
		return nil, fmt.Errorf("load round: %w", err)
	}
	if round.IsCompleted {
		return nil, ErrRoundClosed
	}
	return round, nil
}

// SubmitGuess scores one answer. Each event can be answered once per round.
func (s *GameService) SubmitGuess(ctx context.Context, userID uint, req GuessRequest) (*GuessResult, error) {
	round, err := s.openRound(ctx, userID, req.GameRoundID)
	if err != nil {
		return nil, err
	}
	event, err := s.events.EventByID(ctx, req.EventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: event %d", ErrNotFound, req.EventID)
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}

	state, err := cache.GetJSON[roundState](ctx, s.cache, roundKey(round.ID))
	switch {
	case err == nil:
		if !slices.Contains(state.EventIDs, event.ID) {
			return nil, fmt.Errorf("%w: event %d is not part of this round", ErrValidation, event.ID)
		}
	case !errors.Is(err, cache.ErrMiss):
		s.log.Warn().Err(err).Uint("round_id", round.ID).Msg("round state unavailable")
	}

	answer := strings.TrimSpace(req.Answer)
	match := s.matcher.Match(answer, event.Answers())
	guess := &models.Guess{
		GameRoundID: round.ID,
		EventID:     event.ID,
		UserAnswer:  answer,
		IsCorrect:   match.Correct,
		TimeTaken:   max(req.TimeTaken, 0),
	}
	if match.Correct {
		guess.PointsEarned = event.PointsValue
	}
	if err := s.rounds.RecordGuess(ctx, round, guess); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrAlreadyAnswered
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrRoundClosed
		}
		return nil, fmt.Errorf("record guess: %w", err)
	}

	s.log.Debug().
		Uint("round_id", round.ID).
		Uint("event_id", event.ID).
		Bool("correct", match.Correct).
		Float64("confidence", match.Confidence).
		Msg("guess scored")

	answers := []string(event.AcceptableAnswers)
	if answers == nil {
		answers = []string{}
	}
	return &GuessResult{
		IsCorrect:          match.Correct,
		PointsEarned:       guess.PointsEarned,
		CorrectAnswer:      event.Name,
		Description:        event.Description,
		AcceptableAnswers:  answers,
		CurrentScore:       round.TotalScore,
		QuestionsRemaining: max(0, round.TotalQuestions-round.QuestionsAnswered),
	}, nil
}

// CompleteRound closes a round, folds it into the player's profile and
// records a leaderboard entry. A round can be completed once.
func (s *GameService) CompleteRound(ctx context.Context, userID, roundID uint) (*CompleteResult, error) {
	round, err := s.openRound(ctx, userID, roundID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.Profile == nil {
		return nil, fmt.Errorf("%w: profile for user %d", ErrNotFound, userID)
	}

	now := s.clock.Now().UTC()
	round.CompletedAt = &now
	entry := &models.LeaderboardEntry{
		UserID:      userID,
		GameRoundID: round.ID,
		Date:        startOfDay(now),
	}

	profile, err := s.rounds.CompleteRound(ctx, round, entry)
	switch {
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrRoundClosed
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%w: profile for user %d", ErrNotFound, userID)
	case err != nil:
		return nil, fmt.Errorf("complete round: %w", err)
	}
	best := profile.BestScore == round.TotalScore
	if err := s.cache.Delete(ctx, roundKey(round.ID)); err != nil {
		s.log.Warn().Err(err).Uint("round_id", round.ID).Msg("failed to drop round state")
	}

	s.log.Info().
		Uint("round_id", round.ID).
		Int("score", round.TotalScore).
		Float64("accuracy", entry.Accuracy).
		Msg("round completed")

	if s.feed != nil {
		s.feed.Publish("leaderboard_entry", FeedEntry{
			UserEmail: user.Email,
			Score:     entry.Score,
			Accuracy:  entry.Accuracy,
			Date:      entry.Date.Format(dateLayout),
		})
	}

	return &CompleteResult{
		FinalScore:        round.TotalScore,
		QuestionsAnswered: round.QuestionsAnswered,
		CorrectAnswers:    round.CorrectAnswers,
		Accuracy:          round.Accuracy(),
		IsPersonalBest:    best,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
