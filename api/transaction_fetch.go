package api

import (
	"bitwise74/finance-api/model"
	"bitwise74/finance-api/store"
	"errors"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var validSortOpts = []string{"newest", "oldest", "amount-asc", "amount-desc"}

func (a *API) TransactionList(c *gin.Context) {
	userID := c.GetString("userID")

	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		badRequest(c, "Page is not a valid integer")
		return
	}

	if page < 0 {
		badRequest(c, "Page can't be negative")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		badRequest(c, "Limit is not a valid integer")
		return
	}

	if limit <= 0 {
		badRequest(c, "Limit must be bigger than 0")
		return
	}

	if limit > 100 {
		badRequest(c, "Limit can't be bigger than 100")
		return
	}

	if page > math.MaxInt32/limit {
		badRequest(c, "Page is too big")
		return
	}

	sort := strings.ToLower(c.DefaultQuery("sort", "newest"))
	if !slices.Contains(validSortOpts, sort) {
		badRequest(c, "Invalid sorting option")
		return
	}

	order := ""

	switch sort {
	case "newest":
		order = "occurred_at desc"
	case "oldest":
		order = "occurred_at asc"
	case "amount-asc":
		order = "amount asc"
	case "amount-desc":
		order = "amount desc"
	}

	q := store.TransactionQuery{
		Kind:   strings.ToLower(c.Query("kind")),
		Order:  order,
		Offset: page * limit,
		Limit:  limit,
	}

	if q.Kind != "" && q.Kind != model.KindIncome && q.Kind != model.KindExpense {
		badRequest(c, "Kind must be either income or expense")
		return
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &q.From}, {"to", &q.To}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}

		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "Field "+p.name+" must be an RFC 3339 timestamp")
			return
		}

		*p.dst = &t
	}

	entries, total, err := a.Store.ListTransactions(c.Request.Context(), userID, q)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": entries,
		"total":        total,
		"page":         page,
		"limit":        limit,
	})
}

func (a *API) TransactionFetch(c *gin.Context) {
	t, err := a.Store.FindTransaction(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		transactionError(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (a *API) TransactionSummary(c *gin.Context) {
	sums, err := a.Store.SummarizeTransactions(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": sums,
	})
}

// transactionError answers 404 for missing rows and rows owned by someone
// else alike
func transactionError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"message":   "Transaction not found",
			"requestID": c.GetString("requestID"),
		})
		return
	}

	fail(c, err)
}
