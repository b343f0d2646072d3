package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// NewSecureMiddleware sets the usual security headers. HSTS is only sent
// when tls is on.
func NewSecureMiddleware(tls bool) gin.HandlerFunc {
	opts := secure.Options{
		IsDevelopment:         !tls,
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}

	if tls {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
	}

	s := secure.New(opts)

	return func(c *gin.Context) {
		if err := s.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}

		// Process wrote a redirect
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}

		c.Next()
	}
}
