package service

import (
	"bitwise74/finance-api/metrics"
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type CleanupStore interface {
	PurgeRefreshTokens(ctx context.Context, before time.Time) (int64, error)
	PurgeActivationTokens(ctx context.Context, before time.Time) (int64, error)
	PurgeUnverifiedUsers(ctx context.Context, before time.Time) (int64, error)
}

type CleanupOptions struct {
	// How long revoked and expired tokens are kept around for reuse detection
	RefreshRetention time.Duration
	// Accounts that stay unverified for longer are deleted, 0 keeps them
	UnverifiedTTL time.Duration
	Timeout       time.Duration
	Now           func() time.Time
}

type CleanupReport struct {
	RefreshTokens    int64
	ActivationTokens int64
	Users            int64
}

// Cleanup periodically deletes rows nothing can use anymore
type Cleanup struct {
	store CleanupStore
	opts  CleanupOptions
	cron  *cron.Cron
	log   *zap.Logger
}

func NewCleanup(s CleanupStore, opts CleanupOptions, log *zap.Logger) *Cleanup {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}

	return &Cleanup{
		store: s,
		opts:  opts,
		cron:  cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:   log,
	}
}

// Schedule registers the job with a standard 5 field cron expression or a
// descriptor like @hourly
func (c *Cleanup) Schedule(spec string) error {
	_, err := c.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		defer cancel()

		if _, err := c.Run(ctx); err != nil {
			c.log.Error("Cleanup failed", zap.Error(err))
		}
	})

	if err == nil {
		c.log.Debug("Cleanup attached", zap.String("schedule", spec))
	}

	return err
}

func (c *Cleanup) Start() {
	c.cron.Start()
}

// Stop stops the scheduler and waits for a running job
func (c *Cleanup) Stop() {
	<-c.cron.Stop().Done()
}

// Run does one cleanup pass. Every step runs even if an earlier one failed.
func (c *Cleanup) Run(ctx context.Context) (CleanupReport, error) {
	var (
		r    CleanupReport
		errs []error
		err  error
	)

	now := c.opts.Now().UTC()
	before := now.Add(-c.opts.RefreshRetention)

	r.RefreshTokens, err = c.store.PurgeRefreshTokens(ctx, before)
	errs = append(errs, err)

	r.ActivationTokens, err = c.store.PurgeActivationTokens(ctx, before)
	errs = append(errs, err)

	if c.opts.UnverifiedTTL > 0 {
		r.Users, err = c.store.PurgeUnverifiedUsers(ctx, now.Add(-c.opts.UnverifiedTTL))
		errs = append(errs, err)
	}

	metrics.CleanupDeleted("refresh_tokens", r.RefreshTokens)
	metrics.CleanupDeleted("activation_tokens", r.ActivationTokens)
	metrics.CleanupDeleted("users", r.Users)

	c.log.Debug("Cleanup finished",
		zap.Int64("refreshTokens", r.RefreshTokens),
		zap.Int64("activationTokens", r.ActivationTokens),
		zap.Int64("users", r.Users),
	)

	return r, errors.Join(errs...)
}
