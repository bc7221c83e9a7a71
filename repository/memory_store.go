package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"guessr/models"
)

type guessKey struct {
	round, event uint
}

// MemoryStore keeps everything in maps. It backs local development and
// tests; all returned records are copies.
type MemoryStore struct {
	clock clockwork.Clock

	mu      sync.RWMutex
	nextID  uint
	users   map[uint]models.User
	emails  map[string]uint
	events  map[uint]models.Event
	rounds  map[uint]models.GameRound
	guesses map[guessKey]models.Guess
	entries []models.LeaderboardEntry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		clock:   clock,
		users:   make(map[uint]models.User),
		emails:  make(map[string]uint),
		events:  make(map[uint]models.Event),
		rounds:  make(map[uint]models.GameRound),
		guesses: make(map[guessKey]models.Guess),
	}
}

func (s *MemoryStore) id() uint {
	s.nextID++
	return s.nextID
}

func copyUser(u models.User) *models.User {
	if u.Profile != nil {
		p := *u.Profile
		u.Profile = &p
	}
	return &u
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := s.emails[key]; ok {
		return ErrDuplicate
	}
	now := s.clock.Now()
	u.ID = s.id()
	u.DateJoined = now
	u.UpdatedAt = now
	if u.Profile != nil {
		u.Profile.ID = s.id()
		u.Profile.UserID = u.ID
		u.Profile.CreatedAt = now
		u.Profile.UpdatedAt = now
	}
	s.users[u.ID] = *copyUser(*u)
	s.emails[key] = u.ID
	return nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *MemoryStore) UserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveProfile(p)
}

func (s *MemoryStore) saveProfile(p *models.Profile) error {
	u, ok := s.users[p.UserID]
	if !ok {
		return ErrNotFound
	}
	p.UpdatedAt = s.clock.Now()
	saved := *p
	u.Profile = &saved
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b models.Event) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return int(a.ID) - int(b.ID)
	})
	return out, nil
}

func (s *MemoryStore) EventIDs(_ context.Context) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *MemoryStore) EventsByIDs(_ context.Context, ids []uint) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.events[id]; ok {
			found = append(found, e)
		}
	}
	return orderByIDs(ids, found), nil
}

func (s *MemoryStore) EventByID(_ context.Context, id uint) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *MemoryStore) CountEvents(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.events)), nil
}

func (s *MemoryStore) CreateEvents(_ context.Context, events []models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range events {
		events[i].ID = s.id()
		if events[i].PointsValue == 0 {
			events[i].PointsValue = models.DefaultPointsValue
		}
		if events[i].ImageFormat == "" {
			events[i].ImageFormat = "jpg"
		}
		if events[i].EventDate.IsZero() {
			events[i].EventDate = s.clock.Now()
		}
		s.events[events[i].ID] = events[i]
	}
	return nil
}

func (s *MemoryStore) CreateRound(_ context.Context, r *models.GameRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.id()
	r.StartedAt = s.clock.Now()
	saved := *r
	saved.Guesses = nil
	s.rounds[r.ID] = saved
	return nil
}

func (s *MemoryStore) RoundForUser(_ context.Context, id, userID uint) (*models.GameRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rounds[id]
	if !ok || r.UserID != userID {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) RecordGuess(_ context.Context, r *models.GameRound, g *models.Guess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rounds[r.ID]
	if !ok {
		return ErrNotFound
	}
	key := guessKey{round: g.GameRoundID, event: g.EventID}
	if _, dup := s.guesses[key]; dup {
		return ErrDuplicate
	}
	if stored.IsCompleted {
		return ErrConflict
	}
	g.ID = s.id()
	g.CreatedAt = s.clock.Now()
	s.guesses[key] = *g

	stored.Apply(*g)
	s.rounds[r.ID] = stored
	*r = stored
	return nil
}

func (s *MemoryStore) CompleteRound(_ context.Context, r *models.GameRound, e *models.LeaderboardEntry) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rounds[r.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if stored.IsCompleted {
		return nil, ErrConflict
	}
	u, ok := s.users[stored.UserID]
	if !ok || u.Profile == nil {
		return nil, ErrNotFound
	}

	stored.IsCompleted = true
	stored.CompletedAt = r.CompletedAt
	s.rounds[r.ID] = stored
	*r = stored

	p := *u.Profile
	p.RecordRound(stored.TotalScore)
	p.UpdatedAt = s.clock.Now()
	u.Profile = &p
	s.users[u.ID] = u

	e.ID = s.id()
	e.CreatedAt = s.clock.Now()
	e.Score = stored.TotalScore
	e.Accuracy = stored.Accuracy()
	s.entries = append(s.entries, *e)

	updated := p
	return &updated, nil
}

// filtered returns entries on or after since (zero means all), best first,
// with the User relation filled in.
func (s *MemoryStore) filtered(since time.Time, keep func(models.LeaderboardEntry) bool) []models.LeaderboardEntry {
	var out []models.LeaderboardEntry
	for _, e := range s.entries {
		if !since.IsZero() && e.Date.Before(since) {
			continue
		}
		if keep != nil && !keep(e) {
			continue
		}
		if u, ok := s.users[e.UserID]; ok {
			e.User = *copyUser(u)
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b models.LeaderboardEntry) int {
		if a.Ranks(b) {
			return -1
		}
		if b.Ranks(a) {
			return 1
		}
		return 0
	})
	return out
}

func (s *MemoryStore) TopEntries(_ context.Context, since time.Time, limit int) ([]models.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.filtered(since, nil)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) BestEntry(_ context.Context, userID uint, since time.Time) (*models.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.filtered(since, func(e models.LeaderboardEntry) bool { return e.UserID == userID })
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *MemoryStore) CountEntries(_ context.Context, userID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountPlayersAbove(_ context.Context, score int, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make(map[uint]struct{})
	for _, e := range s.filtered(since, func(e models.LeaderboardEntry) bool { return e.Score > score }) {
		players[e.UserID] = struct{}{}
	}
	return int64(len(players)), nil
}

func (s *MemoryStore) CountPlayers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make(map[uint]struct{})
	for _, e := range s.entries {
		players[e.UserID] = struct{}{}
	}
	return int64(len(players)), nil
}
