package api

import (
	"bitwise74/finance-api/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) AuthLogout(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		badRequest(c, "No refresh token cookie")
		return
	}

	if err := a.Auth.Logout(c.Request.Context(), token); err != nil {
		// A token that can't be decoded is a bad request here, not an
		// authentication failure
		if service.KindOf(err) == service.KindInvalidRefreshToken {
			a.clearRefreshCookie(c)
			failWithStatus(c, http.StatusBadRequest, err)
			return
		}

		fail(c, err)
		return
	}

	a.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}
