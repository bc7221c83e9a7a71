package models

import (
	"math"
	"time"
)

// GameRound is one timed round played by a user.
type GameRound struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	UserID            uint       `json:"user" gorm:"index;not null"`
	TotalScore        int        `json:"total_score" gorm:"not null;default:0"`
	QuestionsAnswered int        `json:"questions_answered" gorm:"not null;default:0"`
	CorrectAnswers    int        `json:"correct_answers" gorm:"not null;default:0"`
	TotalQuestions    int        `json:"total_questions" gorm:"not null;default:0"`
	StartedAt         time.Time  `json:"started_at" gorm:"autoCreateTime"`
	CompletedAt       *time.Time `json:"completed_at"`
	IsCompleted       bool       `json:"is_completed" gorm:"not null;default:false"`

	// Relationships
	Guesses []Guess `json:"guesses,omitempty" gorm:"foreignKey:GameRoundID;constraint:OnDelete:CASCADE"`
}

// Accuracy is the percentage of answered questions that were correct,
// rounded to two decimals. A round with no answers has accuracy 0.
func (r GameRound) Accuracy() float64 {
	if r.QuestionsAnswered == 0 {
		return 0
	}
	pct := float64(r.CorrectAnswers) / float64(r.QuestionsAnswered) * 100
	return math.Round(pct*100) / 100
}

// Apply records a scored guess in the round counters.
func (r *GameRound) Apply(g Guess) {
	r.QuestionsAnswered++
	if g.IsCorrect {
		r.CorrectAnswers++
	}
	r.TotalScore += g.PointsEarned
}

// Guess is a single answer submitted within a round. A question can be
// answered once per round.
type Guess struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	GameRoundID  uint      `json:"game_round" gorm:"not null;uniqueIndex:idx_guess_round_event"`
	EventID      uint      `json:"uic_event" gorm:"column:uic_event_id;not null;uniqueIndex:idx_guess_round_event"`
	UserAnswer   string    `json:"user_answer" gorm:"size:200;not null"`
	IsCorrect    bool      `json:"is_correct" gorm:"not null;default:false"`
	TimeTaken    float64   `json:"time_taken" gorm:"not null;default:0"`
	PointsEarned int       `json:"points_earned" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
}
