package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) TransactionDelete(c *gin.Context) {
	userID := c.GetString("userID")

	if err := a.Store.DeleteTransaction(c.Request.Context(), userID, c.Param("id")); err != nil {
		transactionError(c, err)
		return
	}

	a.dropSummary(userID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Transaction deleted",
	})
}
