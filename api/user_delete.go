package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserDelete deletes the user with its sessions and transactions
func (a *API) UserDelete(c *gin.Context) {
	userID := c.GetString("userID")

	if err := a.Auth.DeleteAccount(c.Request.Context(), userID); err != nil {
		fail(c, err)
		return
	}

	a.dropSummary(userID)
	a.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Account deleted",
	})
}
