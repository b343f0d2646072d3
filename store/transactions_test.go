package store

import (
	"bitwise74/finance-api/model"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTransactions(t *testing.T, s *Store, userID string, base time.Time) {
	t.Helper()

	entries := []struct {
		kind     string
		amount   int64
		currency string
	}{
		{model.KindIncome, 500000, "USD"},
		{model.KindExpense, 1250, "USD"},
		{model.KindExpense, 4000, "USD"},
		{model.KindExpense, 900, "EUR"},
	}

	for i, e := range entries {
		err := s.CreateTransaction(context.Background(), &model.Transaction{
			ID:         fmt.Sprintf("%s-%d", userID, i),
			UserID:     userID,
			Kind:       e.kind,
			Amount:     e.amount,
			Currency:   e.currency,
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
}

func TestListTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seedUser(t, s, "user1", "bob@x.com")
	seedUser(t, s, "user2", "alice@x.com")
	seedTransactions(t, s, "user1", base)
	seedTransactions(t, s, "user2", base)

	entries, total, err := s.ListTransactions(ctx, "user1", TransactionQuery{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, entries, 2)
	assert.Equal(t, "user1-3", entries[0].ID)
	assert.Equal(t, "user1-2", entries[1].ID)

	entries, _, err = s.ListTransactions(ctx, "user1", TransactionQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "user1-1", entries[0].ID)

	entries, total, err = s.ListTransactions(ctx, "user1", TransactionQuery{Kind: model.KindIncome, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "user1-0", entries[0].ID)

	from := base.Add(time.Hour)
	to := base.Add(3 * time.Hour)
	_, total, err = s.ListTransactions(ctx, "user1", TransactionQuery{From: &from, To: &to, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestTransactions_OwnershipScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seedUser(t, s, "user1", "bob@x.com")
	seedUser(t, s, "user2", "alice@x.com")
	seedTransactions(t, s, "user1", base)

	_, err := s.FindTransaction(ctx, "user2", "user1-0")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateTransaction(ctx, "user2", "user1-0", map[string]any{"amount": 1})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteTransaction(ctx, "user2", "user1-0"), ErrNotFound)

	got, err := s.FindTransaction(ctx, "user1", "user1-0")
	require.NoError(t, err)
	assert.EqualValues(t, 500000, got.Amount)
}

func TestUpdateDeleteTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seedUser(t, s, "user1", "bob@x.com")
	seedTransactions(t, s, "user1", base)

	got, err := s.UpdateTransaction(ctx, "user1", "user1-1", map[string]any{
		"amount":   int64(1300),
		"category": "food",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1300, got.Amount)
	assert.Equal(t, "food", got.Category)

	require.NoError(t, s.DeleteTransaction(ctx, "user1", "user1-1"))

	_, err = s.FindTransaction(ctx, "user1", "user1-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummarizeTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seedUser(t, s, "user1", "bob@x.com")
	seedUser(t, s, "user2", "alice@x.com")
	seedTransactions(t, s, "user1", base)
	seedTransactions(t, s, "user2", base)

	sums, err := s.SummarizeTransactions(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, sums, 2)

	assert.Equal(t, model.Summary{Currency: "EUR", Income: 0, Expense: 900, Balance: -900, Count: 1}, sums[0])
	assert.Equal(t, model.Summary{Currency: "USD", Income: 500000, Expense: 5250, Balance: 494750, Count: 3}, sums[1])

	sums, err = s.SummarizeTransactions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, sums)
}
