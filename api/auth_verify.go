package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type verifyBody struct {
	Token string `json:"token" form:"token"`
}

// AuthVerify accepts the token as a query parameter (the link in the mail)
// or in a JSON body
func (a *API) AuthVerify(c *gin.Context) {
	token := c.Query("token")

	if token == "" && c.Request.Method == http.MethodPost {
		var data verifyBody
		if err := c.ShouldBindJSON(&data); err != nil {
			bindError(c, err)
			return
		}

		token = data.Token
	}

	if err := a.Auth.Verify(c.Request.Context(), token); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified",
	})
}

type resendBody struct {
	Email string `json:"email" binding:"required,max=255"`
}

func (a *API) AuthResend(c *gin.Context) {
	var data resendBody
	if err := c.ShouldBindJSON(&data); err != nil {
		bindError(c, err)
		return
	}

	if err := a.Auth.ResendVerification(c.Request.Context(), data.Email); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If the email belongs to an unverified account a new link has been sent",
	})
}
