package store

import (
	"bitwise74/finance-api/db"
	"bitwise74/finance-api/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	gdb, err := db.NewInMemory(t.Name())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return New(gdb)
}

func seedUser(t *testing.T, s *Store, id, email string) *model.User {
	t.Helper()

	u := &model.User{ID: id, Email: email, FirstName: "Test"}
	tok := &model.ActivationToken{
		Token:     "token-" + id,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	err := s.CreateUser(context.Background(), u, &model.Account{PasswordHash: "hash"}, tok)
	require.NoError(t, err)

	return u
}

func liveTokens(t *testing.T, s *Store, userID string) int64 {
	t.Helper()

	var n int64
	err := s.DB().
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Count(&n).
		Error
	require.NoError(t, err)

	return n
}
