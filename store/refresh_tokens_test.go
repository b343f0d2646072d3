package store

import (
	"bitwise74/finance-api/model"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(id, userID string, at time.Time) *model.RefreshToken {
	return &model.RefreshToken{
		ID:        id,
		UserID:    userID,
		CreatedAt: at,
		ExpiresAt: at.Add(time.Hour),
		IP:        "127.0.0.1",
		UserAgent: "test",
	}
}

func TestCreateSession_ReplacesPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "user1", "bob@x.com")

	require.NoError(t, s.CreateSession(ctx, session("a", "user1", now)))
	require.NoError(t, s.CreateSession(ctx, session("b", "user1", now.Add(time.Second))))

	assert.EqualValues(t, 1, liveTokens(t, s, "user1"))

	a, err := s.FindRefreshToken(ctx, "a")
	require.NoError(t, err)
	assert.NotNil(t, a.RevokedAt)
	assert.Equal(t, model.RevokedReplaced, a.RevokedReason)

	b, err := s.FindRefreshToken(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, b.RevokedAt)
	assert.Empty(t, b.RevokedReason)
	assert.True(t, b.Live(now))
}

func TestLiveIndex_RejectsSecondLiveRow(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	seedUser(t, s, "user1", "bob@x.com")

	require.NoError(t, s.DB().Create(session("a", "user1", now)).Error)

	err := wrap(s.DB().Create(session("b", "user1", now)).Error, "insert")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRotateRefreshToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "user1", "bob@x.com")
	require.NoError(t, s.CreateSession(ctx, session("a", "user1", now)))

	require.NoError(t, s.RotateRefreshToken(ctx, "a", session("b", "user1", now.Add(time.Second))))
	assert.EqualValues(t, 1, liveTokens(t, s, "user1"))

	a, err := s.FindRefreshToken(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.RevokedRotated, a.RevokedReason)

	err = s.RotateRefreshToken(ctx, "a", session("c", "user1", now.Add(2*time.Second)))
	assert.ErrorIs(t, err, ErrAlreadyRevoked)

	_, err = s.FindRefreshToken(ctx, "c")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRotateRefreshToken_SingleWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "user1", "bob@x.com")
	require.NoError(t, s.CreateSession(ctx, session("root", "user1", now)))

	const n = 16

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()

			next := session(string(rune('a'+i)), "user1", now.Add(time.Second))
			if err := s.RotateRefreshToken(ctx, "root", next); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.EqualValues(t, 1, liveTokens(t, s, "user1"))
}

func TestRevokeRefreshToken_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "user1", "bob@x.com")
	require.NoError(t, s.CreateSession(ctx, session("a", "user1", now)))

	changed, err := s.RevokeRefreshToken(ctx, "a", "user1", now)
	require.NoError(t, err)
	assert.True(t, changed)

	a, err := s.FindRefreshToken(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.RevokedLogout, a.RevokedReason)

	changed, err = s.RevokeRefreshToken(ctx, "a", "user1", now)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.RevokeRefreshToken(ctx, "missing", "user1", now)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRevokeRefreshToken_OtherOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "user1", "bob@x.com")
	require.NoError(t, s.CreateSession(ctx, session("a", "user1", now)))

	changed, err := s.RevokeRefreshToken(ctx, "a", "user2", now)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.EqualValues(t, 1, liveTokens(t, s, "user1"))
}

func TestRevokeUserRefreshTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "user1", "bob@x.com")
	require.NoError(t, s.CreateSession(ctx, session("a", "user1", now)))

	n, err := s.RevokeUserRefreshTokens(ctx, "user1", model.RevokedReuse, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Zero(t, liveTokens(t, s, "user1"))

	a, err := s.FindRefreshToken(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.RevokedReuse, a.RevokedReason)
}
