package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// GuessrClient wraps every endpoint of the game API.
type GuessrClient struct {
	*BaseClient
}

// NewGuessrClient builds a client for the API rooted at baseURL.
func NewGuessrClient(baseURL string, opts ...Option) (*GuessrClient, error) {
	base, err := NewBaseClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &GuessrClient{BaseClient: base}, nil
}

// Accounts

func (c *GuessrClient) Register(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.Do(ctx, http.MethodPost, "/accounts/register/", map[string]string{
		"email":            email,
		"password":         password,
		"password_confirm": password,
	}, &out)
	return out, err
}

func (c *GuessrClient) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.Do(ctx, http.MethodPost, "/accounts/login/", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

func (c *GuessrClient) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/accounts/logout/", nil, nil)
}

func (c *GuessrClient) Profile(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.Do(ctx, http.MethodGet, "/accounts/profile/", nil, &out)
	return out, err
}

func (c *GuessrClient) UpdateProfile(ctx context.Context, update ProfileUpdate) (Profile, error) {
	var out Profile
	err := c.Do(ctx, http.MethodPut, "/accounts/profile/update/", update, &out)
	return out, err
}

// Games

func (c *GuessrClient) Events(ctx context.Context) ([]Event, error) {
	var out []Event
	err := c.Do(ctx, http.MethodGet, "/games/events/", nil, &out)
	return out, err
}

func (c *GuessrClient) StartRound(ctx context.Context) (StartRoundResponse, error) {
	var out StartRoundResponse
	err := c.Do(ctx, http.MethodPost, "/games/start/", nil, &out)
	return out, err
}

func (c *GuessrClient) SubmitGuess(ctx context.Context, guess GuessPayload) (GuessResult, error) {
	var out GuessResult
	err := c.Do(ctx, http.MethodPost, "/games/guess/", guess, &out)
	return out, err
}

func (c *GuessrClient) CompleteRound(ctx context.Context, roundID int64) (CompleteResult, error) {
	var out CompleteResult
	err := c.Do(ctx, http.MethodPost, "/games/complete/", map[string]int64{"game_round_id": roundID}, &out)
	return out, err
}

// Leaderboards

func (c *GuessrClient) TopScores(ctx context.Context, limit int) (Leaderboard, error) {
	var out Leaderboard
	err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/leaderboards/top/?limit=%d", limitOrDefault(limit)), nil, &out)
	return out, err
}

func (c *GuessrClient) WeeklyScores(ctx context.Context, limit int) (Leaderboard, error) {
	var out Leaderboard
	err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/leaderboards/weekly/?limit=%d", limitOrDefault(limit)), nil, &out)
	return out, err
}

func (c *GuessrClient) MyStats(ctx context.Context) (UserStats, error) {
	var out UserStats
	err := c.Do(ctx, http.MethodGet, "/leaderboards/me/", nil, &out)
	return out, err
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}

// FollowLeaderboard streams live leaderboard frames to fn until ctx is
// cancelled or the server closes the feed. The session cookie is sent on
// the websocket handshake.
func (c *GuessrClient) FollowLeaderboard(ctx context.Context, fn func(FeedMessage)) error {
	u := c.Root()
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u = u.JoinPath("ws", "leaderboard")

	dialer := websocket.Dialer{
		Jar:              c.Jar(),
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return &APIError{Status: status, Message: fmt.Sprintf("dial leaderboard feed: %v", err), Err: err}
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var msg FeedMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return &APIError{Message: "leaderboard feed closed", Err: err}
			}
			return &APIError{Message: fmt.Sprintf("read leaderboard feed: %v", err), Err: err}
		}
		fn(msg)
	}
}
