package clients

import (
	"encoding/json"
	"time"
)

// User is the account as returned by the accounts endpoints.
type User struct {
	ID      int64    `json:"id"`
	Email   string   `json:"email"`
	Profile *Profile `json:"profile,omitempty"`
}

// ProfileUser is the nested account summary inside a Profile.
type ProfileUser struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	DateJoined time.Time `json:"date_joined"`
}

// Profile holds a player's running totals.
type Profile struct {
	User        *ProfileUser `json:"user,omitempty"`
	TotalScore  int          `json:"total_score"`
	GamesPlayed int          `json:"games_played"`
	BestScore   int          `json:"best_score"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User    User   `json:"user"`
	Message string `json:"message"`
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	TotalScore  *int `json:"total_score,omitempty"`
	GamesPlayed *int `json:"games_played,omitempty"`
	BestScore   *int `json:"best_score,omitempty"`
}

// Event is a campus event, the subject of one question.
type Event struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name,omitempty"`
	Description       string    `json:"description"`
	Organization      string    `json:"organization"`
	ImageBase64       string    `json:"image_base64,omitempty"`
	AcceptableAnswers []string  `json:"acceptable_answers,omitempty"`
	PointsValue       int       `json:"points_value"`
	EventDate         time.Time `json:"event_date"`
}

// StartRoundResponse is the round issued by POST /games/start/.
type StartRoundResponse struct {
	GameRoundID    int64   `json:"game_round_id"`
	Questions      []Event `json:"questions"`
	TotalQuestions int     `json:"total_questions"`
}

// GuessPayload is the body of POST /games/guess/.
type GuessPayload struct {
	GameRoundID int64   `json:"game_round_id"`
	UICEventID  int64   `json:"uic_event_id"`
	Answer      string  `json:"answer"`
	TimeTaken   float64 `json:"time_taken"`
}

// GuessResult is the server verdict on a guess.
type GuessResult struct {
	IsCorrect          bool     `json:"is_correct"`
	PointsEarned       int      `json:"points_earned"`
	CorrectAnswer      string   `json:"correct_answer"`
	Description        string   `json:"description"`
	AcceptableAnswers  []string `json:"acceptable_answers"`
	CurrentScore       *int     `json:"current_score"`
	QuestionsRemaining int      `json:"questions_remaining"`
}

// CompleteResult is the server's end-of-round figures.
type CompleteResult struct {
	FinalScore        *int     `json:"final_score"`
	QuestionsAnswered int      `json:"questions_answered"`
	CorrectAnswers    int      `json:"correct_answers"`
	Accuracy          *float64 `json:"accuracy"`
	IsPersonalBest    bool     `json:"is_personal_best"`
}

// LeaderboardRow is one ranked score.
type LeaderboardRow struct {
	Rank      int     `json:"rank"`
	UserEmail string  `json:"user_email"`
	Score     int     `json:"score"`
	Accuracy  float64 `json:"accuracy"`
	Date      string  `json:"date"`
}

// Leaderboard is the all-time or weekly top list.
type Leaderboard struct {
	Type      string           `json:"leaderboard_type"`
	WeekStart string           `json:"week_start,omitempty"`
	WeekEnd   string           `json:"week_end,omitempty"`
	Entries   []LeaderboardRow `json:"entries"`
}

// UserStats summarises the caller's leaderboard standing.
type UserStats struct {
	AllTimeBestScore int `json:"all_time_best_score"`
	AllTimeRank      int `json:"all_time_rank"`
	WeeklyBestScore  int `json:"weekly_best_score"`
	WeeklyRank       int `json:"weekly_rank"`
	TotalPlayers     int `json:"total_players"`
	EntriesCount     int `json:"entries_count"`
}

// FeedMessage is a frame of the live leaderboard feed.
type FeedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
