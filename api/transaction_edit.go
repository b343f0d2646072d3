package api

import (
	"bitwise74/finance-api/validators"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type transactionPatch struct {
	Kind        *string    `json:"kind" binding:"omitempty,oneof=income expense"`
	Amount      *int64     `json:"amount" binding:"omitempty,gt=0"`
	Currency    *string    `json:"currency" binding:"omitempty,len=3"`
	Category    *string    `json:"category" binding:"omitempty,max=64"`
	Description *string    `json:"description" binding:"omitempty,max=512"`
	OccurredAt  *time.Time `json:"occurredAt"`
}

func (a *API) TransactionEdit(c *gin.Context) {
	userID := c.GetString("userID")
	id := c.Param("id")

	var data transactionPatch
	if err := c.ShouldBindJSON(&data); err != nil {
		bindError(c, err)
		return
	}

	t, err := a.Store.FindTransaction(c.Request.Context(), userID, id)
	if err != nil {
		transactionError(c, err)
		return
	}

	updates := map[string]any{}

	if data.Kind != nil {
		t.Kind = *data.Kind
		updates["kind"] = t.Kind
	}
	if data.Amount != nil {
		t.Amount = *data.Amount
		updates["amount"] = t.Amount
	}
	if data.Currency != nil {
		t.Currency = strings.ToUpper(*data.Currency)
		updates["currency"] = t.Currency
	}
	if data.Category != nil {
		t.Category = strings.TrimSpace(*data.Category)
		updates["category"] = t.Category
	}
	if data.Description != nil {
		t.Description = strings.TrimSpace(*data.Description)
		updates["description"] = t.Description
	}
	if data.OccurredAt != nil {
		t.OccurredAt = data.OccurredAt.UTC()
		updates["occurred_at"] = t.OccurredAt
	}

	if len(updates) == 0 {
		badRequest(c, "Nothing to update")
		return
	}

	if err := validators.TransactionValidator(t); err != nil {
		badRequest(c, capitalize(err.Error()))
		return
	}

	t, err = a.Store.UpdateTransaction(c.Request.Context(), userID, id, updates)
	if err != nil {
		transactionError(c, err)
		return
	}

	a.dropSummary(userID)
	c.JSON(http.StatusOK, t)
}
