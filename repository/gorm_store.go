package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"guessr/models"
)

const leaderboardOrder = "score DESC, accuracy DESC, id ASC"

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the schema.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// translate maps gorm errors onto the package sentinels. The DB must be
// opened with TranslateError for duplicate keys to be recognised.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("Profile").Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) UpdateProfile(ctx context.Context, p *models.Profile) error {
	return translate(s.db.WithContext(ctx).Save(p).Error)
}

func (s *GormStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.db.WithContext(ctx).Order("name").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GormStore) EventIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Event{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *GormStore) EventsByIDs(ctx context.Context, ids []uint) ([]models.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var events []models.Event
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&events).Error; err != nil {
		return nil, err
	}
	return orderByIDs(ids, events), nil
}

func (s *GormStore) EventByID(ctx context.Context, id uint) (*models.Event, error) {
	var e models.Event
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *GormStore) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Event{}).Count(&n).Error
	return n, err
}

func (s *GormStore) CreateEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).CreateInBatches(events, 100).Error)
}

func (s *GormStore) CreateRound(ctx context.Context, r *models.GameRound) error {
	return translate(s.db.WithContext(ctx).Create(r).Error)
}

func (s *GormStore) RoundForUser(ctx context.Context, id, userID uint) (*models.GameRound, error) {
	var r models.GameRound
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&r).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) RecordGuess(ctx context.Context, r *models.GameRound, g *models.Guess) error {
	correct := 0
	if g.IsCorrect {
		correct = 1
	}
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		res := tx.Model(&models.GameRound{}).
			Where("id = ? AND is_completed = ?", r.ID, false).
			Updates(map[string]any{
				"total_score":        gorm.Expr("total_score + ?", g.PointsEarned),
				"questions_answered": gorm.Expr("questions_answered + 1"),
				"correct_answers":    gorm.Expr("correct_answers + ?", correct),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return tx.Where("id = ?", r.ID).First(r).Error
	}))
}

func (s *GormStore) CompleteRound(ctx context.Context, r *models.GameRound, e *models.LeaderboardEntry) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.GameRound{}).
			Where("id = ? AND is_completed = ?", r.ID, false).
			Updates(map[string]any{"is_completed": true, "completed_at": r.CompletedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		// The update above holds the row lock, so these are the final counters.
		if err := tx.Where("id = ?", r.ID).First(r).Error; err != nil {
			return err
		}

		res = tx.Model(&models.Profile{}).
			Where("user_id = ?", r.UserID).
			Updates(map[string]any{
				"games_played": gorm.Expr("games_played + 1"),
				"total_score":  gorm.Expr("total_score + ?", r.TotalScore),
				"best_score":   gorm.Expr("GREATEST(best_score, ?)", r.TotalScore),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("user_id = ?", r.UserID).First(&p).Error; err != nil {
			return err
		}

		e.Score = r.TotalScore
		e.Accuracy = r.Accuracy()
		return tx.Create(e).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) entries(ctx context.Context, since time.Time) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.LeaderboardEntry{})
	if !since.IsZero() {
		q = q.Where("date >= ?", since)
	}
	return q
}

func (s *GormStore) TopEntries(ctx context.Context, since time.Time, limit int) ([]models.LeaderboardEntry, error) {
	var out []models.LeaderboardEntry
	err := s.entries(ctx, since).Preload("User").Order(leaderboardOrder).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) BestEntry(ctx context.Context, userID uint, since time.Time) (*models.LeaderboardEntry, error) {
	var e models.LeaderboardEntry
	err := s.entries(ctx, since).Where("user_id = ?", userID).Order(leaderboardOrder).First(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *GormStore) CountEntries(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.entries(ctx, time.Time{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (s *GormStore) CountPlayersAbove(ctx context.Context, score int, since time.Time) (int64, error) {
	var n int64
	err := s.entries(ctx, since).Where("score > ?", score).Distinct("user_id").Count(&n).Error
	return n, err
}

func (s *GormStore) CountPlayers(ctx context.Context) (int64, error) {
	var n int64
	err := s.entries(ctx, time.Time{}).Distinct("user_id").Count(&n).Error
	return n, err
}
