package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	refreshCookie     = "refresh_token"
	refreshCookiePath = "/api/auth"
)

func (a *API) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, token, int(a.cfg.RefreshTTL/time.Second), refreshCookiePath, "", a.cfg.SecureCookies, true)
}

func (a *API) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, "", -1, refreshCookiePath, "", a.cfg.SecureCookies, true)
}
