package api

import (
	"bitwise74/finance-api/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) AuthLogin(c *gin.Context) {
	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		bindError(c, err)
		return
	}

	sess, err := a.Auth.Login(c.Request.Context(), service.LoginInput{
		Email:     data.Email,
		Password:  data.Password,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		fail(c, err)
		return
	}

	a.setRefreshCookie(c, sess.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"accessToken": sess.AccessToken,
		"user":        sess.User,
	})
}
