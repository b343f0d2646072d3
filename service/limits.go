package service

import (
	"errors"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v2"
)

type attempts struct {
	n int
}

// Lockout counts failed attempts per key. Once max failures happened inside
// window the key is locked until the window that started with the first
// failure runs out.
type Lockout struct {
	mu    sync.Mutex
	cache *ttlcache.Cache
	max   int
	win   time.Duration
}

// NewLockout returns a lockout. max <= 0 disables it.
func NewLockout(max int, window time.Duration) *Lockout {
	c := ttlcache.NewCache()
	c.SkipTTLExtensionOnHit(true)

	return &Lockout{cache: c, max: max, win: window}
}

func (l *Lockout) enabled() bool {
	return l != nil && l.max > 0 && l.win > 0
}

func (l *Lockout) Locked(key string) bool {
	if !l.enabled() {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	v, err := l.cache.Get(key)
	if err != nil {
		return false
	}

	return v.(*attempts).n >= l.max
}

// Fail records a failed attempt and returns the count inside the current
// window
func (l *Lockout) Fail(key string) int {
	if !l.enabled() {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	v, err := l.cache.Get(key)
	if errors.Is(err, ttlcache.ErrNotFound) {
		_ = l.cache.SetWithTTL(key, &attempts{n: 1}, l.win)
		return 1
	}

	if err != nil {
		return 0
	}

	a := v.(*attempts)
	a.n++

	return a.n
}

func (l *Lockout) Reset(key string) {
	if !l.enabled() {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.cache.Remove(key)
}

func (l *Lockout) Close() error {
	if l == nil {
		return nil
	}

	return l.cache.Close()
}

// Cooldown lets a key through at most once per period
type Cooldown struct {
	mu     sync.Mutex
	cache  *ttlcache.Cache
	period time.Duration
}

// NewCooldown returns a cooldown. period <= 0 lets everything through.
func NewCooldown(period time.Duration) *Cooldown {
	c := ttlcache.NewCache()
	c.SkipTTLExtensionOnHit(true)

	return &Cooldown{cache: c, period: period}
}

// Allow reports whether key may go ahead and starts a new period if so
func (c *Cooldown) Allow(key string) bool {
	if c == nil || c.period <= 0 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.cache.Get(key); err == nil {
		return false
	}

	_ = c.cache.SetWithTTL(key, struct{}{}, c.period)
	return true
}

func (c *Cooldown) Close() error {
	if c == nil {
		return nil
	}

	return c.cache.Close()
}
