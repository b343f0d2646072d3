package store

import (
	"bitwise74/finance-api/model"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return New(gdb), mock
}

func TestRotateRefreshToken_RollsBackOnInsertFailure(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "refresh_tokens"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.RotateRefreshToken(context.Background(), "old", &model.RefreshToken{
		ID: "new", UserID: "user1", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyRevoked)
	assert.Contains(t, err.Error(), "disk full")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateRefreshToken_LostRaceWritesNothing(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked_at"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.RotateRefreshToken(context.Background(), "old", &model.RefreshToken{
		ID: "new", UserID: "user1", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrAlreadyRevoked)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSession_DatabaseDown(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked_at"`).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	err := s.CreateSession(context.Background(), &model.RefreshToken{
		ID: "new", UserID: "user1", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create session")

	assert.NoError(t, mock.ExpectationsWereMet())
}
