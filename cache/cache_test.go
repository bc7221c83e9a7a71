package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

type roundState struct {
	IDs []uint `json:"ids"`
}

func exercise(t *testing.T, s Store, expire func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}

	if err := SetJSON(ctx, s, "round:1", roundState{IDs: []uint{3, 1, 2}}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := GetJSON[roundState](ctx, s, "round:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.IDs) != 3 || got.IDs[0] != 3 {
		t.Fatalf("unexpected value %+v", got)
	}

	expire(2 * time.Minute)
	if _, err := s.Get(ctx, "round:1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expiry, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected deleted key to miss, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	clock := clockwork.NewFakeClock()
	exercise(t, NewMemoryStore(clock), clock.Advance)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := NewRedisStore(client, "guessr:")
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	exercise(t, s, mr.FastForward)

	s.Set(context.Background(), "x", []byte("1"), 0)
	if !mr.Exists("guessr:x") {
		t.Fatal("expected prefixed key in redis")
	}
}
