package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserFetch returns the user the access token belongs to
func (a *API) UserFetch(c *gin.Context) {
	user, err := a.Auth.Me(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
