package store

import (
	"bitwise74/finance-api/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeActivationToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user1", "bob@x.com")

	tok, err := s.FindActivationToken(ctx, "token-user1")
	require.NoError(t, err)

	require.NoError(t, s.ConsumeActivationToken(ctx, tok, time.Now().UTC()))

	u, err := s.FindUserByID(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, u.Account.IsVerified)
	assert.NotNil(t, u.Account.VerifiedAt)

	tok, err = s.FindActivationToken(ctx, "token-user1")
	require.NoError(t, err)
	assert.True(t, tok.Used)

	assert.ErrorIs(t, s.ConsumeActivationToken(ctx, tok, time.Now().UTC()), ErrAlreadyUsed)
}

func TestConsumeActivationToken_Expired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user1", "bob@x.com")

	tok, err := s.FindActivationToken(ctx, "token-user1")
	require.NoError(t, err)

	err = s.ConsumeActivationToken(ctx, tok, time.Now().UTC().Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyUsed)

	u, err := s.FindUserByID(ctx, "user1")
	require.NoError(t, err)
	assert.False(t, u.Account.IsVerified)
}

func TestReplaceActivationToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user1", "bob@x.com")

	err := s.ReplaceActivationToken(ctx, &model.ActivationToken{
		UserID:    "user1",
		Token:     "fresh",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = s.FindActivationToken(ctx, "token-user1")
	assert.ErrorIs(t, err, ErrNotFound)

	tok, err := s.FindActivationTokenByUser(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.Token)
}
