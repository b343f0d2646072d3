package api

import (
	"bitwise74/finance-api/model"
	"bitwise74/finance-api/validators"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type transactionBody struct {
	Kind        string     `json:"kind" binding:"required,oneof=income expense"`
	Amount      int64      `json:"amount" binding:"required,gt=0"`
	Currency    string     `json:"currency" binding:"omitempty,len=3"`
	Category    string     `json:"category" binding:"max=64"`
	Description string     `json:"description" binding:"max=512"`
	OccurredAt  *time.Time `json:"occurredAt"`
}

func (a *API) TransactionCreate(c *gin.Context) {
	userID := c.GetString("userID")

	var data transactionBody
	if err := c.ShouldBindJSON(&data); err != nil {
		bindError(c, err)
		return
	}

	t := &model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        data.Kind,
		Amount:      data.Amount,
		Currency:    strings.ToUpper(data.Currency),
		Category:    strings.TrimSpace(data.Category),
		Description: strings.TrimSpace(data.Description),
		OccurredAt:  time.Now().UTC(),
	}

	if t.Currency == "" {
		t.Currency = a.cfg.DefaultCurrency
	}

	if data.OccurredAt != nil {
		t.OccurredAt = data.OccurredAt.UTC()
	}

	if err := validators.TransactionValidator(t); err != nil {
		badRequest(c, capitalize(err.Error()))
		return
	}

	if err := a.Store.CreateTransaction(c.Request.Context(), t); err != nil {
		fail(c, err)
		return
	}

	a.dropSummary(userID)
	c.JSON(http.StatusCreated, t)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
