// Package repository persists users, events, rounds and leaderboard entries,
// either in PostgreSQL through gorm or in process memory.
package repository

import (
	"context"
	"errors"
	"time"

	"guessr/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict reports a conditional update that matched nothing, such
	// as completing a round twice.
	ErrConflict = errors.New("conflicting update")
)

// Store is implemented by GormStore and MemoryStore.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error

	ListEvents(ctx context.Context) ([]models.Event, error)
	EventIDs(ctx context.Context) ([]uint, error)
	EventsByIDs(ctx context.Context, ids []uint) ([]models.Event, error)
	EventByID(ctx context.Context, id uint) (*models.Event, error)
	CountEvents(ctx context.Context) (int64, error)
	CreateEvents(ctx context.Context, events []models.Event) error

	CreateRound(ctx context.Context, r *models.GameRound) error
	RoundForUser(ctx context.Context, id, userID uint) (*models.GameRound, error)
	// RecordGuess stores g and adds it to the round counters in place,
	// then refreshes r from the stored row.
	RecordGuess(ctx context.Context, r *models.GameRound, g *models.Guess) error
	// CompleteRound closes r, adds its score to the owner's profile and
	// stores e with the round's final score and accuracy. r is refreshed
	// and the updated profile returned.
	CompleteRound(ctx context.Context, r *models.GameRound, e *models.LeaderboardEntry) (*models.Profile, error)

	TopEntries(ctx context.Context, since time.Time, limit int) ([]models.LeaderboardEntry, error)
	BestEntry(ctx context.Context, userID uint, since time.Time) (*models.LeaderboardEntry, error)
	CountEntries(ctx context.Context, userID uint) (int64, error)
	CountPlayersAbove(ctx context.Context, score int, since time.Time) (int64, error)
	CountPlayers(ctx context.Context) (int64, error)
}

// orderByIDs returns events in the order of ids, skipping unknown ids.
func orderByIDs(ids []uint, events []models.Event) []models.Event {
	byID := make(map[uint]models.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	out := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}
