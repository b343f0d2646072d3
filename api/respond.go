package api

import (
	"bitwise74/finance-api/service"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var statusByKind = map[service.Kind]int{
	service.KindValidation:            http.StatusBadRequest,
	service.KindEmailInUse:            http.StatusConflict,
	service.KindAuthenticationFailed:  http.StatusUnauthorized,
	service.KindInvalidRefreshToken:   http.StatusUnauthorized,
	service.KindInvalidOrExpiredToken: http.StatusBadRequest,
	service.KindTooManyAttempts:       http.StatusTooManyRequests,
	service.KindAccountUnverified:     http.StatusForbidden,
	service.KindNotFound:              http.StatusNotFound,
	service.KindInternal:              http.StatusInternalServerError,
}

// StatusOf maps a service error to its HTTP status
func StatusOf(err error) int {
	if s, ok := statusByKind[service.KindOf(err)]; ok {
		return s
	}

	return http.StatusInternalServerError
}

// fail writes err as the response. Only the client facing message of
// service errors ends up in the body.
func fail(c *gin.Context, err error) {
	failWithStatus(c, StatusOf(err), err)
}

func failWithStatus(c *gin.Context, status int, err error) {
	requestID := c.GetString("requestID")

	if status >= http.StatusInternalServerError {
		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
	}

	c.AbortWithStatusJSON(status, gin.H{
		"message":   service.MessageOf(err),
		"requestID": requestID,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"message":   msg,
		"requestID": c.GetString("requestID"),
	})
}

// bindError turns a binding failure into a message a client can act on
func bindError(c *gin.Context, err error) {
	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", c.GetString("requestID")))

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		badRequest(c, fieldMessage(ve[0]))
		return
	}

	badRequest(c, "Invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	if name != "" {
		name = strings.ToLower(name[:1]) + name[1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field %s is required", name)
	case "max":
		return fmt.Sprintf("Field %s must be at most %s", name, fe.Param())
	case "min", "gt", "gte":
		return fmt.Sprintf("Field %s is too small", name)
	case "oneof":
		return fmt.Sprintf("Field %s must be one of: %s", name, fe.Param())
	case "email":
		return fmt.Sprintf("Field %s must be a valid email address", name)
	case "len":
		return fmt.Sprintf("Field %s must be %s characters long", name, fe.Param())
	}

	return fmt.Sprintf("Field %s is invalid", name)
}
