package session

import (
	"context"
	"testing"
	"time"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &Session{ID: "a", Token: "t", Role: model.RoleAdmin}))
	require.NoError(t, s.Save(ctx, &Session{ID: "b", Token: "t"}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, got.Role)

	got.Role = model.RoleStudent
	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, again.Role)

	now = now.Add(time.Hour)
	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, 1, s.Sweep())

	require.NoError(t, s.Delete(ctx, "missing"))
}

func TestRedisStore_Unreachable(t *testing.T) {
	t.Parallel()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedisStore(rdb, time.Hour)

	_, err := s.Get(context.Background(), "a")
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, "fabtrack:sess:a", key("a"))
}

func TestClaimsFromToken(t *testing.T) {
	t.Parallel()
	// {"alg":"HS256","typ":"JWT"}.{"Role":"Admin","Email":"x@y.z","id":12}.sig
	const tok = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJSb2xlIjoiQWRtaW4iLCJFbWFpbCI6InhAeS56IiwiaWQiOjEyfQ.c2ln"
	u, ok := claimsFromToken(tok)
	require.True(t, ok)
	require.Equal(t, model.User{ID: "12", Email: "x@y.z", Role: model.RoleAdmin}, u)

	_, ok = claimsFromToken("not-a-jwt")
	require.False(t, ok)
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	created := 0
	r := NewRegistry(30*time.Minute, func() *int { created++; v := created; return &v })
	r.now = func() time.Time { return now }

	a := r.Get("a")
	require.Same(t, a, r.Get("a"))
	b := r.Get("b")
	require.NotSame(t, a, b)
	require.Equal(t, 2, created)

	now = now.Add(20 * time.Minute)
	r.Get("a")
	now = now.Add(20 * time.Minute)
	require.Equal(t, 1, r.Sweep())
	_, ok := r.peek("b")
	require.False(t, ok)
	_, ok = r.peek("a")
	require.True(t, ok)

	r.Drop("a")
	require.Equal(t, 0, r.size())
}

func (r *Registry[T]) peek(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (r *Registry[T]) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
