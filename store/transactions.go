package store

import (
	"bitwise74/finance-api/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// TransactionQuery filters and pages a user's transactions
type TransactionQuery struct {
	Kind   string
	From   *time.Time
	To     *time.Time
	Order  string
	Offset int
	Limit  int
}

func (s *Store) ListTransactions(ctx context.Context, userID string, q TransactionQuery) ([]model.Transaction, int64, error) {
	filtered := func() *gorm.DB {
		tx := s.db.WithContext(ctx).
			Model(&model.Transaction{}).
			Where("user_id = ?", userID)

		if q.Kind != "" {
			tx = tx.Where("kind = ?", q.Kind)
		}
		if q.From != nil {
			tx = tx.Where("occurred_at >= ?", q.From.UTC())
		}
		if q.To != nil {
			tx = tx.Where("occurred_at < ?", q.To.UTC())
		}

		return tx
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "failed to count transactions")
	}

	order := q.Order
	if order == "" {
		order = "occurred_at desc"
	}

	// gorm treats -1 as no limit
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}

	entries := []model.Transaction{}
	err := filtered().
		Order(order).
		Order("id").
		Offset(q.Offset).
		Limit(limit).
		Find(&entries).
		Error
	if err != nil {
		return nil, 0, wrap(err, "failed to list transactions")
	}

	return entries, total, nil
}

func (s *Store) FindTransaction(ctx context.Context, userID, id string) (*model.Transaction, error) {
	var t model.Transaction

	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&t).
		Error
	if err != nil {
		return nil, wrap(err, "failed to get transaction")
	}

	return &t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	return wrap(s.db.WithContext(ctx).Create(t).Error, "failed to create transaction")
}

// UpdateTransaction applies updates to a transaction owned by userID and
// returns the result
func (s *Store) UpdateTransaction(ctx context.Context, userID, id string, updates map[string]any) (*model.Transaction, error) {
	r := s.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if r.Error != nil {
		return nil, wrap(r.Error, "failed to update transaction")
	}

	if r.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.FindTransaction(ctx, userID, id)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	r := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Transaction{})
	if r.Error != nil {
		return wrap(r.Error, "failed to delete transaction")
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type summaryRow struct {
	Currency string
	Kind     string
	Total    int64
	N        int64
}

// SummarizeTransactions totals a user's income and expenses per currency
func (s *Store) SummarizeTransactions(ctx context.Context, userID string) ([]model.Summary, error) {
	var rows []summaryRow

	err := s.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Select("currency, kind, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("currency, kind").
		Order("currency").
		Scan(&rows).
		Error
	if err != nil {
		return nil, wrap(err, "failed to summarize transactions")
	}

	out := []model.Summary{}
	for _, r := range rows {
		if len(out) == 0 || out[len(out)-1].Currency != r.Currency {
			out = append(out, model.Summary{Currency: r.Currency})
		}

		sum := &out[len(out)-1]
		switch r.Kind {
		case model.KindIncome:
			sum.Income += r.Total
		case model.KindExpense:
			sum.Expense += r.Total
		}
		sum.Count += r.N
		sum.Balance = sum.Income - sum.Expense
	}

	return out, nil
}
