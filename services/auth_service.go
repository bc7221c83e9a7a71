package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"guessr/cache"
	"guessr/models"
	"guessr/repository"
)

const minPasswordLength = 8

type AuthService struct {
	users  UserStore
	cache  cache.Store
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
	log    zerolog.Logger
}

type RegisterRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate is a partial update of the running totals.
type ProfileUpdate struct {
	TotalScore  *int `json:"total_score"`
	GamesPlayed *int `json:"games_played"`
	BestScore   *int `json:"best_score"`
}

// Session is an issued login.
type Session struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (s Session) TTL() time.Duration { return s.ExpiresAt.Sub(s.IssuedAt) }

type sessionClaims struct {
	jwt.RegisteredClaims
}

func NewAuthService(users UserStore, store cache.Store, secret string, ttl time.Duration, clock clockwork.Clock, logger zerolog.Logger) *AuthService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AuthService{
		users:  users,
		cache:  store,
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
		log:    logger.With().Str("service", "auth").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: enter a valid email address", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if req.Password != req.PasswordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Profile:      &models.Profile{},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Uint("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login verifies the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*models.User, Session, error) {
	user, err := s.users.UserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, Session{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, Session{}, ErrInvalidCredentials
	}

	session, err := s.issue(user.ID)
	if err != nil {
		return nil, Session{}, err
	}
	return user, session, nil
}

func (s *AuthService) issue(userID uint) (Session, error) {
	now := s.clock.Now()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	return Session{Token: token, IssuedAt: now, ExpiresAt: expires}, nil
}

func (s *AuthService) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return claims, nil
}

func revokedKey(jti string) string { return "revoked:" + jti }

// Authenticate returns the user id a valid, unrevoked token belongs to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, ErrUnauthenticated
	}
	claims, err := s.parse(token)
	if err != nil {
		return 0, err
	}
	_, err = s.cache.Get(ctx, revokedKey(claims.ID))
	switch {
	case err == nil:
		return 0, fmt.Errorf("%w: session revoked", ErrUnauthenticated)
	case !errors.Is(err, cache.ErrMiss):
		return 0, fmt.Errorf("check revocation: %w", err)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrUnauthenticated)
	}
	return uint(id), nil
}

// Logout revokes token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	remaining := claims.ExpiresAt.Time.Sub(s.clock.Now())
	if remaining <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedKey(claims.ID), []byte("1"), remaining); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.log.Info().Str("subject", claims.Subject).Msg("session revoked")
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, fmt.Errorf("%w: profile for user %d", ErrNotFound, userID)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	for name, v := range map[string]*int{
		"total_score":  update.TotalScore,
		"games_played": update.GamesPlayed,
		"best_score":   update.BestScore,
	} {
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrValidation, name)
		}
	}

	p := user.Profile
	if update.TotalScore != nil {
		p.TotalScore = *update.TotalScore
	}
	if update.GamesPlayed != nil {
		p.GamesPlayed = *update.GamesPlayed
	}
	if update.BestScore != nil {
		p.BestScore = *update.BestScore
	}
	if err := s.users.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}
