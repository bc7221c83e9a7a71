package services

import (
	"context"
	"time"

	"guessr/models"
)

// UserStore is what the services need from the user repository.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
}

type EventStore interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	EventIDs(ctx context.Context) ([]uint, error)
	EventsByIDs(ctx context.Context, ids []uint) ([]models.Event, error)
	EventByID(ctx context.Context, id uint) (*models.Event, error)
}

type RoundStore interface {
	CreateRound(ctx context.Context, r *models.GameRound) error
	RoundForUser(ctx context.Context, id, userID uint) (*models.GameRound, error)
	RecordGuess(ctx context.Context, r *models.GameRound, g *models.Guess) error
	CompleteRound(ctx context.Context, r *models.GameRound, e *models.LeaderboardEntry) (*models.Profile, error)
}

type LeaderboardStore interface {
	TopEntries(ctx context.Context, since time.Time, limit int) ([]models.LeaderboardEntry, error)
	BestEntry(ctx context.Context, userID uint, since time.Time) (*models.LeaderboardEntry, error)
	CountEntries(ctx context.Context, userID uint) (int64, error)
	CountPlayersAbove(ctx context.Context, score int, since time.Time) (int64, error)
	CountPlayers(ctx context.Context) (int64, error)
}

// Publisher fans a message out to live subscribers.
type Publisher interface {
	Publish(messageType string, payload any)
}
