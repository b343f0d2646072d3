package middleware

import (
	"bitwise74/finance-api/security"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewJWTMiddleware only lets requests with a valid bearer access token
// through. The check is cryptographic, the database isn't consulted, so a
// token keeps working until it expires even after logout.
func NewJWTMiddleware(access *security.TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		token, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, requestID)
			return
		}

		claims, err := access.Verify(token)
		if err != nil {
			zap.L().Debug("Access token rejected", zap.Error(err), zap.String("requestID", requestID))

			unauthorized(c, requestID)
			return
		}

		// A refresh token signed with the same secret still must not pass
		// as an access token
		if claims.RefreshID != "" {
			unauthorized(c, requestID)
			return
		}

		c.Set("userID", claims.UserID())
		c.Set("claims", claims)
		c.Next()
	}
}

func bearer(h string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, requestID string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"message":   "Unauthorized",
		"requestID": requestID,
	})
}
