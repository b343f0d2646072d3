package model

import "time"

const (
	KindIncome  = "income"
	KindExpense = "expense"
)

type Transaction struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"size:16;not null;index" json:"-"`
	Kind   string `gorm:"size:16;not null;index" json:"kind"`
	// Minor units (cents) to keep sums exact
	Amount      int64     `gorm:"not null" json:"amount"`
	Currency    string    `gorm:"size:3;not null" json:"currency"`
	Category    string    `gorm:"size:64;index" json:"category"`
	Description string    `gorm:"size:512" json:"description"`
	OccurredAt  time.Time `gorm:"not null;index" json:"occurredAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary aggregates a user's transactions in one currency
type Summary struct {
	Currency string `json:"currency"`
	Income   int64  `json:"income"`
	Expense  int64  `json:"expense"`
	Balance  int64  `json:"balance"`
	Count    int64  `json:"count"`
}
