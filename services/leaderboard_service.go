package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"guessr/models"
	"guessr/repository"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

type LeaderboardService struct {
	store LeaderboardStore
	clock clockwork.Clock
}

func NewLeaderboardService(store LeaderboardStore, clock clockwork.Clock) *LeaderboardService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LeaderboardService{store: store, clock: clock}
}

// WeekStart is midnight UTC of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	day := startOfDay(t.UTC())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func validateLimit(limit int) error {
	if limit < 1 || limit > MaxLeaderboardLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrValidation, MaxLeaderboardLimit)
	}
	return nil
}

func rows(entries []models.LeaderboardEntry) []LeaderboardRow {
	out := make([]LeaderboardRow, 0, len(entries))
	for i, e := range entries {
		out = append(out, LeaderboardRow{
			Rank:      i + 1,
			UserEmail: e.User.Email,
			Score:     e.Score,
			Accuracy:  e.Accuracy,
			Date:      e.Date.Format(dateLayout),
		})
	}
	return out
}

func (s *LeaderboardService) TopScores(ctx context.Context, limit int) (*Leaderboard, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	entries, err := s.store.TopEntries(ctx, time.Time{}, limit)
	if err != nil {
		return nil, fmt.Errorf("top entries: %w", err)
	}
	return &Leaderboard{Type: "all-time", Entries: rows(entries)}, nil
}

func (s *LeaderboardService) WeeklyScores(ctx context.Context, limit int) (*Leaderboard, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	start := WeekStart(now)
	entries, err := s.store.TopEntries(ctx, start, limit)
	if err != nil {
		return nil, fmt.Errorf("weekly entries: %w", err)
	}
	return &Leaderboard{
		Type:      "weekly",
		WeekStart: start.Format(dateLayout),
		WeekEnd:   now.Format(dateLayout),
		Entries:   rows(entries),
	}, nil
}

// standing returns the best score since the given time and the rank it
// earns among distinct players. Both are zero without an entry.
func (s *LeaderboardService) standing(ctx context.Context, userID uint, since time.Time) (int, int64, error) {
	best, err := s.store.BestEntry(ctx, userID, since)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	above, err := s.store.CountPlayersAbove(ctx, best.Score, since)
	if err != nil {
		return 0, 0, err
	}
	return best.Score, above + 1, nil
}

func (s *LeaderboardService) UserStats(ctx context.Context, userID uint) (*UserStats, error) {
	var stats UserStats
	var err error

	stats.AllTimeBestScore, stats.AllTimeRank, err = s.standing(ctx, userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("all-time standing: %w", err)
	}
	stats.WeeklyBestScore, stats.WeeklyRank, err = s.standing(ctx, userID, WeekStart(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("weekly standing: %w", err)
	}
	if stats.TotalPlayers, err = s.store.CountPlayers(ctx); err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}
	if stats.EntriesCount, err = s.store.CountEntries(ctx, userID); err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	return &stats, nil
}
