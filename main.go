package main

import (
	"bitwise74/finance-api/api"
	"bitwise74/finance-api/config"
	"bitwise74/finance-api/db"
	"bitwise74/finance-api/middleware"
	"bitwise74/finance-api/security"
	"bitwise74/finance-api/service"
	"bitwise74/finance-api/store"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/sourcegraph/conc"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	if err := config.Setup(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := api.MakeLogger(v.GetString("app.log_level")); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	if err := run(); err != nil {
		zap.L().Fatal("Server failed", zap.Error(err))
	}
}

func run() error {
	database, err := db.New(v.GetString("database.driver"), v.GetString("database.dsn"))
	if err != nil {
		return fmt.Errorf("failed to initialize database, %w", err)
	}

	st := store.New(database)

	hasher := security.New()
	hasher.Algorithm = v.GetString("security.hash_algorithm")
	hasher.BcryptCost = v.GetInt("security.bcrypt_cost")
	hasher.Iterations = v.GetUint32("security.argon_iterations")
	hasher.Memory = v.GetUint32("security.argon_memory")

	access, err := security.NewTokenCodec(v.GetString("jwt.access_secret"), v.GetDuration("jwt.access_ttl"))
	if err != nil {
		return fmt.Errorf("invalid access token config, %w", err)
	}

	refresh, err := security.NewTokenCodec(v.GetString("jwt.refresh_secret"), v.GetDuration("jwt.refresh_ttl"))
	if err != nil {
		return fmt.Errorf("invalid refresh token config, %w", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	}

	mail := service.NewMailNotifier(
		service.NewSMTPDialer(v.GetString("mail.host"), v.GetInt("mail.port"), v.GetString("mail.username"), v.GetString("mail.password")),
		v.GetString("mail.sender"),
		v.GetString("mail.verify_url"),
	)

	var (
		notifier service.Notifier
		worker   *service.MailWorker
	)

	switch v.GetString("mail.transport") {
	case "smtp":
		notifier = mail
	case "queue":
		q := service.NewQueueNotifier(redisOpt)
		defer q.Close()

		notifier = q
		worker = service.NewMailWorker(redisOpt, mail, zap.L().Named("mail"))
	default:
		notifier = service.NewLogNotifier(zap.L().Named("mail"), v.GetString("mail.verify_url"))
	}

	opts := service.DefaultAuthOptions()
	opts.ActivationTTL = v.GetDuration("auth.activation_ttl")
	opts.OperationTimeout = v.GetDuration("auth.operation_timeout")
	opts.RevokeOnReuse = v.GetBool("auth.revoke_on_reuse")
	opts.RequireVerified = v.GetBool("auth.require_verified")
	opts.ResendCooldown = v.GetDuration("auth.resend_cooldown")
	opts.MaxLoginAttempts = v.GetInt("security.max_login_attempts")
	opts.LockoutWindow = v.GetDuration("security.lockout_window")
	opts.PasswordMinLength = v.GetInt("security.password_min_length")

	auth, err := service.NewAuthService(st, hasher, access, refresh, notifier, zap.L().Named("auth"), opts)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service, %w", err)
	}
	defer auth.Close()

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: v.GetFloat64("security.rate_limit"),
	})

	a := api.NewRouter(auth, st, access, limiter, api.Config{
		SecureCookies:   v.GetBool("host.ssl.enabled"),
		RefreshTTL:      refresh.TTL(),
		CORSOrigins:     v.GetStringSlice("host.cors_origins"),
		DefaultCurrency: v.GetString("transactions.default_currency"),
		Metrics:         v.GetBool("app.metrics"),
		Turnstile: middleware.TurnstileConfig{
			Enabled: v.GetBool("cloudflare.turnstile.enabled"),
			Secret:  v.GetString("cloudflare.turnstile.secret_token"),
		},
	})

	cleanup := service.NewCleanup(st, service.CleanupOptions{
		RefreshRetention: v.GetDuration("cleanup.refresh_retention"),
		UnverifiedTTL:    v.GetDuration("cleanup.unverified_ttl"),
	}, zap.L().Named("cleanup"))

	if err := cleanup.Schedule(v.GetString("cleanup.schedule")); err != nil {
		return fmt.Errorf("invalid cleanup schedule, %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", v.GetInt("host.port")),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if worker != nil {
		if err := worker.Start(); err != nil {
			return fmt.Errorf("failed to start mail worker, %w", err)
		}
		defer worker.Shutdown()
	}

	cleanup.Start()
	defer cleanup.Stop()

	var wg conc.WaitGroup

	wg.Go(func() {
		limiter.Run(ctx)
	})

	serveErr := make(chan error, 1)
	wg.Go(func() {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr))

		var err error
		if v.GetBool("host.ssl.enabled") {
			err = srv.ListenAndServeTLS(v.GetString("host.ssl.certificate_path"), v.GetString("host.ssl.certificate_key_path"))
		} else {
			err = srv.ListenAndServe()
		}

		if !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	})

	<-ctx.Done()
	zap.L().Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to shut down server", zap.Error(err))
	}

	wg.Wait()

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}
