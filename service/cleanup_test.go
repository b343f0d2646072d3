package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCleanupStore struct {
	refreshBefore    time.Time
	activationBefore time.Time
	usersBefore      time.Time
	usersCalled      bool
	err              error
}

func (f *fakeCleanupStore) PurgeRefreshTokens(_ context.Context, before time.Time) (int64, error) {
	f.refreshBefore = before
	return 2, f.err
}

func (f *fakeCleanupStore) PurgeActivationTokens(_ context.Context, before time.Time) (int64, error) {
	f.activationBefore = before
	return 3, nil
}

func (f *fakeCleanupStore) PurgeUnverifiedUsers(_ context.Context, before time.Time) (int64, error) {
	f.usersCalled = true
	f.usersBefore = before
	return 1, nil
}

func TestCleanup_Run(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &fakeCleanupStore{}

	c := NewCleanup(s, CleanupOptions{
		RefreshRetention: 24 * time.Hour,
		UnverifiedTTL:    48 * time.Hour,
		Now:              func() time.Time { return now },
	}, zap.NewNop())

	r, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CleanupReport{RefreshTokens: 2, ActivationTokens: 3, Users: 1}, r)

	assert.Equal(t, now.Add(-24*time.Hour), s.refreshBefore)
	assert.Equal(t, now.Add(-24*time.Hour), s.activationBefore)
	assert.Equal(t, now.Add(-48*time.Hour), s.usersBefore)
}

func TestCleanup_KeepsUnverifiedUsers(t *testing.T) {
	s := &fakeCleanupStore{}
	c := NewCleanup(s, CleanupOptions{RefreshRetention: time.Hour}, zap.NewNop())

	r, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, s.usersCalled)
	assert.Zero(t, r.Users)
}

func TestCleanup_ContinuesAfterError(t *testing.T) {
	s := &fakeCleanupStore{err: errors.New("db down")}
	c := NewCleanup(s, CleanupOptions{RefreshRetention: time.Hour, UnverifiedTTL: time.Hour}, zap.NewNop())

	r, err := c.Run(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.EqualValues(t, 3, r.ActivationTokens)
	assert.True(t, s.usersCalled)
}

func TestCleanup_Schedule(t *testing.T) {
	c := NewCleanup(&fakeCleanupStore{}, CleanupOptions{}, zap.NewNop())

	assert.NoError(t, c.Schedule("@hourly"))
	assert.NoError(t, c.Schedule("*/5 * * * *"))
	assert.Error(t, c.Schedule("every tuesday"))

	c.Start()
	c.Stop()
}
