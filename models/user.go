package models

import "time"

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null;size:254"`
	PasswordHash string    `json:"-" gorm:"not null"`
	DateJoined   time.Time `json:"date_joined" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"-"`

	// Relationships
	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Profile holds a player's running totals across completed rounds.
type Profile struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	UserID      uint      `json:"-" gorm:"uniqueIndex;not null"`
	TotalScore  int       `json:"total_score" gorm:"not null;default:0"`
	GamesPlayed int       `json:"games_played" gorm:"not null;default:0"`
	BestScore   int       `json:"best_score" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RecordRound folds a completed round score into the totals and reports
// whether it is a new personal best.
func (p *Profile) RecordRound(score int) bool {
	p.GamesPlayed++
	p.TotalScore += score
	if score > p.BestScore {
		p.BestScore = score
	}
	return score == p.BestScore
}
