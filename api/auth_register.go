package api

import (
	"bitwise74/finance-api/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerBody struct {
	FirstName string `json:"firstName" binding:"required,max=64"`
	LastName  string `json:"lastName" binding:"max=64"`
	Email     string `json:"email" binding:"required,max=255"`
	Password  string `json:"password" binding:"required,max=255"`
}

func (a *API) AuthRegister(c *gin.Context) {
	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		bindError(c, err)
		return
	}

	res, err := a.Auth.Register(c.Request.Context(), service.RegisterInput{
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     data.Email,
		Password:  data.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": res.User,
	})
}
