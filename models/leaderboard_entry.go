package models

import "time"

// LeaderboardEntry is the score of one completed round.
type LeaderboardEntry struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user" gorm:"index;not null"`
	GameRoundID uint      `json:"game_round" gorm:"uniqueIndex;not null"`
	Score       int       `json:"score" gorm:"index:idx_leaderboard_score,sort:desc;not null"`
	Accuracy    float64   `json:"accuracy" gorm:"not null"`
	Date        time.Time `json:"date" gorm:"type:date;index;not null"`
	CreatedAt   time.Time `json:"created_at"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// Ranks before other orders higher: score first, then accuracy.
func (e LeaderboardEntry) Ranks(other LeaderboardEntry) bool {
	if e.Score != other.Score {
		return e.Score > other.Score
	}
	if e.Accuracy != other.Accuracy {
		return e.Accuracy > other.Accuracy
	}
	return e.ID < other.ID
}

// All returns every model the schema migration needs.
func All() []any {
	return []any{&User{}, &Profile{}, &Event{}, &GameRound{}, &Guess{}, &LeaderboardEntry{}}
}
