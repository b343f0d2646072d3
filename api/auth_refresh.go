package api

import (
	"bitwise74/finance-api/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) AuthRefresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"message":   "Invalid refresh token",
			"requestID": c.GetString("requestID"),
		})
		return
	}

	sess, err := a.Auth.Refresh(c.Request.Context(), service.RefreshInput{
		Token:     token,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		if service.KindOf(err) == service.KindInvalidRefreshToken {
			a.clearRefreshCookie(c)
		}

		fail(c, err)
		return
	}

	a.setRefreshCookie(c, sess.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"accessToken": sess.AccessToken,
	})
}
