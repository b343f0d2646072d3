package store

import (
	"bitwise74/finance-api/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user1", "bob@x.com")

	found, err := s.EmailExists(ctx, "bob@x.com")
	require.NoError(t, err)
	assert.True(t, found)

	u, err := s.FindUserByEmail(ctx, "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, "user1", u.ID)
	assert.Equal(t, "", u.LastName)
	assert.Equal(t, "hash", u.Account.PasswordHash)
	assert.False(t, u.Account.IsVerified)

	tok, err := s.FindActivationTokenByUser(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "token-user1", tok.Token)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user1", "bob@x.com")

	err := s.CreateUser(ctx,
		&model.User{ID: "user2", Email: "bob@x.com", FirstName: "Bob"},
		&model.Account{PasswordHash: "hash"},
		&model.ActivationToken{Token: "other", ExpiresAt: time.Now().Add(time.Hour)},
	)
	assert.ErrorIs(t, err, ErrConflict)

	var n int64
	require.NoError(t, s.DB().Model(&model.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	// The transaction left nothing of user2 behind
	_, err = s.FindActivationToken(ctx, "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindUserByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindUserByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, s, "user1", "bob@x.com")
	seedUser(t, s, "user2", "alice@x.com")

	for _, uid := range []string{"user1", "user2"} {
		require.NoError(t, s.CreateSession(ctx, &model.RefreshToken{
			ID: "rt-" + uid, UserID: uid, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		}))
		require.NoError(t, s.CreateTransaction(ctx, &model.Transaction{
			ID: "tx-" + uid, UserID: uid, Kind: model.KindExpense, Amount: 100, Currency: "USD", OccurredAt: now,
		}))
	}

	require.NoError(t, s.DeleteUser(ctx, "user1"))

	for _, m := range []any{&model.Account{}, &model.ActivationToken{}, &model.RefreshToken{}, &model.Transaction{}} {
		var n int64
		require.NoError(t, s.DB().Model(m).Where("user_id = ?", "user1").Count(&n).Error)
		assert.Zero(t, n, "%T left behind", m)

		require.NoError(t, s.DB().Model(m).Where("user_id = ?", "user2").Count(&n).Error)
		assert.EqualValues(t, 1, n, "%T of another user deleted", m)
	}

	assert.ErrorIs(t, s.DeleteUser(ctx, "user1"), ErrNotFound)
}
