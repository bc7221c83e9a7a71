package services

import (
	"time"

	"guessr/models"
)

type UserSummary struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	DateJoined time.Time `json:"date_joined"`
}

type ProfileView struct {
	User        UserSummary `json:"user"`
	TotalScore  int         `json:"total_score"`
	GamesPlayed int         `json:"games_played"`
	BestScore   int         `json:"best_score"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func NewProfileView(u *models.User) ProfileView {
	v := ProfileView{User: UserSummary{ID: u.ID, Email: u.Email, DateJoined: u.DateJoined}}
	if p := u.Profile; p != nil {
		v.TotalScore = p.TotalScore
		v.GamesPlayed = p.GamesPlayed
		v.BestScore = p.BestScore
		v.CreatedAt = p.CreatedAt
		v.UpdatedAt = p.UpdatedAt
	}
	return v
}

// EventView is the catalogue representation of an event.
type EventView struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Organization      string    `json:"organization"`
	ImageBase64       string    `json:"image_base64,omitempty"`
	AcceptableAnswers []string  `json:"acceptable_answers"`
	PointsValue       int       `json:"points_value"`
	EventDate         time.Time `json:"event_date"`
}

func NewEventView(e models.Event) EventView {
	answers := []string(e.AcceptableAnswers)
	if answers == nil {
		answers = []string{}
	}
	return EventView{
		ID:                e.ID,
		Name:              e.Name,
		Description:       e.Description,
		Organization:      e.Organization,
		ImageBase64:       e.ImageDataURL(),
		AcceptableAnswers: answers,
		PointsValue:       e.PointsValue,
		EventDate:         e.EventDate,
	}
}

// QuestionView is an event as shown during a round: without its answers.
type QuestionView struct {
	ID           uint      `json:"id"`
	Description  string    `json:"description"`
	Organization string    `json:"organization"`
	ImageBase64  string    `json:"image_base64,omitempty"`
	PointsValue  int       `json:"points_value"`
	EventDate    time.Time `json:"event_date"`
}

func NewQuestionView(e models.Event) QuestionView {
	return QuestionView{
		ID:           e.ID,
		Description:  e.Description,
		Organization: e.Organization,
		ImageBase64:  e.ImageDataURL(),
		PointsValue:  e.PointsValue,
		EventDate:    e.EventDate,
	}
}

type StartRoundResult struct {
	GameRoundID    uint           `json:"game_round_id"`
	Questions      []QuestionView `json:"questions"`
	TotalQuestions int            `json:"total_questions"`
}

type GuessRequest struct {
	GameRoundID uint    `json:"game_round_id" binding:"required"`
	EventID     uint    `json:"uic_event_id" binding:"required"`
	Answer      string  `json:"answer"`
	TimeTaken   float64 `json:"time_taken"`
}

type GuessResult struct {
	IsCorrect          bool     `json:"is_correct"`
	PointsEarned       int      `json:"points_earned"`
	CorrectAnswer      string   `json:"correct_answer"`
	Description        string   `json:"description"`
	AcceptableAnswers  []string `json:"acceptable_answers"`
	CurrentScore       int      `json:"current_score"`
	QuestionsRemaining int      `json:"questions_remaining"`
}

type CompleteRequest struct {
	GameRoundID uint `json:"game_round_id" binding:"required"`
}

type CompleteResult struct {
	FinalScore        int     `json:"final_score"`
	QuestionsAnswered int     `json:"questions_answered"`
	CorrectAnswers    int     `json:"correct_answers"`
	Accuracy          float64 `json:"accuracy"`
	IsPersonalBest    bool    `json:"is_personal_best"`
}

const dateLayout = "2006-01-02"

type LeaderboardRow struct {
	Rank      int     `json:"rank"`
	UserEmail string  `json:"user_email"`
	Score     int     `json:"score"`
	Accuracy  float64 `json:"accuracy"`
	Date      string  `json:"date"`
}

type Leaderboard struct {
	Type      string           `json:"leaderboard_type"`
	WeekStart string           `json:"week_start,omitempty"`
	WeekEnd   string           `json:"week_end,omitempty"`
	Entries   []LeaderboardRow `json:"entries"`
}

type UserStats struct {
	AllTimeBestScore int   `json:"all_time_best_score"`
	AllTimeRank      int64 `json:"all_time_rank"`
	WeeklyBestScore  int   `json:"weekly_best_score"`
	WeeklyRank       int64 `json:"weekly_rank"`
	TotalPlayers     int64 `json:"total_players"`
	EntriesCount     int64 `json:"entries_count"`
}

// FeedEntry is broadcast on the live leaderboard feed for each completed round.
type FeedEntry struct {
	UserEmail string  `json:"user_email"`
	Score     int     `json:"score"`
	Accuracy  float64 `json:"accuracy"`
	Date      string  `json:"date"`
}
