// Package api contains all endpoints available
package api

import (
	"bitwise74/finance-api/middleware"
	"bitwise74/finance-api/security"
	"bitwise74/finance-api/service"
	"bitwise74/finance-api/store"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type Config struct {
	SecureCookies   bool
	RefreshTTL      time.Duration
	CORSOrigins     []string
	DefaultCurrency string
	SummaryCacheTTL time.Duration
	Turnstile       middleware.TurnstileConfig
	// Serve prometheus metrics on /metrics
	Metrics bool
}

type API struct {
	Router  *gin.Engine
	Auth    *service.AuthService
	Store   *store.Store
	Access  *security.TokenCodec
	Limiter *middleware.RateLimiter

	cfg   Config
	cache *persist.MemoryStore
}

func NewRouter(auth *service.AuthService, st *store.Store, access *security.TokenCodec, limiter *middleware.RateLimiter, cfg Config) *API {
	if cfg.SummaryCacheTTL <= 0 {
		cfg.SummaryCacheTTL = 10 * time.Second
	}

	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}

	a := &API{
		Auth:    auth,
		Store:   st,
		Access:  access,
		Limiter: limiter,
		cfg:     cfg,
		cache:   persist.NewMemoryStore(time.Minute),
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewSecureMiddleware(cfg.SecureCookies),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	if cfg.Metrics {
		router.Use(middleware.NewMetricsMiddleware())

		// GET /metrics			-> Prometheus scrape endpoint
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	jwt := middleware.NewJWTMiddleware(access)
	turnstile := middleware.NewTurnstileMiddleware(cfg.Turnstile)
	body := middleware.BodySizeLimiter(1 << 20)

	main := router.Group("/api")
	if limiter != nil {
		main.Use(limiter.Middleware())
	}
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// GET /api/validate		-> Validates an access token
		main.GET("/validate", jwt, a.Validate)
		main.HEAD("/validate", jwt, a.Validate)
	}

	authGroup := main.Group("/auth", body)
	{
		// POST /api/auth/register	-> Registers a new user
		authGroup.POST("/register", turnstile, a.AuthRegister)

		// GET|POST /api/auth/verify	-> Consumes an activation token
		authGroup.GET("/verify", a.AuthVerify)
		authGroup.POST("/verify", a.AuthVerify)

		// POST /api/auth/verify/resend	-> Sends a new activation token
		authGroup.POST("/verify/resend", turnstile, a.AuthResend)

		// POST /api/auth/login		-> Returns an access token and sets the refresh cookie
		authGroup.POST("/login", turnstile, a.AuthLogin)

		// POST /api/auth/refresh	-> Rotates the refresh cookie
		authGroup.POST("/refresh", a.AuthRefresh)

		// POST /api/auth/logout	-> Revokes the refresh cookie
		authGroup.POST("/logout", a.AuthLogout)
	}

	users := main.Group("/users", jwt)
	{
		// GET /api/users/me		-> Returns the logged in user
		users.GET("/me", a.UserFetch)

		// DELETE /api/users/me		-> Deletes the logged in user and all of its data
		users.DELETE("/me", a.UserDelete)
	}

	transactions := main.Group("/transactions", jwt, body)
	{
		// GET /api/transactions		-> Lists transactions, newest first
		transactions.GET("", a.TransactionList)

		// GET /api/transactions/summary	-> Totals per currency
		transactions.GET("/summary", a.summaryCache(), a.TransactionSummary)

		// GET /api/transactions/:id		-> Returns one transaction
		transactions.GET("/:id", a.TransactionFetch)

		// POST /api/transactions		-> Creates a transaction
		transactions.POST("", a.TransactionCreate)

		// PATCH /api/transactions/:id		-> Edits a transaction
		transactions.PATCH("/:id", a.TransactionEdit)

		// DELETE /api/transactions/:id		-> Deletes a transaction
		transactions.DELETE("/:id", a.TransactionDelete)
	}

	return a
}

// MakeLogger builds the global logger
func MakeLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(log)
	return nil
}

func summaryKey(userID string) string {
	return "summary:" + userID
}

// summaryCache caches the summary per user. Writes drop the entry.
func (a *API) summaryCache() gin.HandlerFunc {
	return cache.Cache(a.cache, a.cfg.SummaryCacheTTL,
		cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
			return true, cache.Strategy{CacheKey: summaryKey(c.GetString("userID"))}
		}),
	)
}

func (a *API) dropSummary(userID string) {
	_ = a.cache.Delete(summaryKey(userID))
}
