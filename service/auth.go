// Package service holds the business logic of the API. Services return
// *Error for every expected failure and never write HTTP responses.
package service

import (
	"bitwise74/finance-api/metrics"
	"bitwise74/finance-api/model"
	"bitwise74/finance-api/security"
	"bitwise74/finance-api/store"
	"bitwise74/finance-api/validators"
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// lockoutSpread is how many times MaxLoginAttempts an email may fail across
// all client addresses before it is locked for everyone
const lockoutSpread = 10

// AuthStore is the part of the store the auth service needs
type AuthStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u *model.User, acc *model.Account, t *model.ActivationToken) error
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error

	FindActivationToken(ctx context.Context, token string) (*model.ActivationToken, error)
	ConsumeActivationToken(ctx context.Context, t *model.ActivationToken, now time.Time) error
	ReplaceActivationToken(ctx context.Context, t *model.ActivationToken) error

	CreateSession(ctx context.Context, rt *model.RefreshToken) error
	FindRefreshToken(ctx context.Context, id string) (*model.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID string, next *model.RefreshToken) error
	RevokeRefreshToken(ctx context.Context, id, userID string, now time.Time) (bool, error)
	RevokeUserRefreshTokens(ctx context.Context, userID, reason string, now time.Time) (int64, error)
}

type AuthOptions struct {
	ActivationTTL     time.Duration
	OperationTimeout  time.Duration
	NotifyTimeout     time.Duration
	RevokeOnReuse     bool
	RequireVerified   bool
	ResendCooldown    time.Duration
	MaxLoginAttempts  int
	LockoutWindow     time.Duration
	PasswordMinLength int
	// Now overrides the clock of the service and both codecs
	Now func() time.Time
}

func DefaultAuthOptions() AuthOptions {
	return AuthOptions{
		ActivationTTL:    24 * time.Hour,
		OperationTimeout: 5 * time.Second,
		NotifyTimeout:    30 * time.Second,
		RevokeOnReuse:    true,
		ResendCooldown:   time.Minute,
		MaxLoginAttempts: 5,
		LockoutWindow:    15 * time.Minute,
	}
}

type AuthService struct {
	store    AuthStore
	hasher   *security.PasswordHasher
	access   *security.TokenCodec
	refresh  *security.TokenCodec
	notifier Notifier
	log      *zap.Logger
	opts     AuthOptions
	now      func() time.Time

	// Failed logins per email and client IP, plus a wider cap per email
	// that catches guessing spread over many addresses
	lockout      *Lockout
	emailLockout *Lockout
	resend       *Cooldown
	pending      *conc.WaitGroup

	// Verified against when the email is unknown so that both login failures
	// take the same time
	dummyHash string
}

func NewAuthService(s AuthStore, h *security.PasswordHasher, access, refresh *security.TokenCodec, n Notifier, log *zap.Logger, opts AuthOptions) (*AuthService, error) {
	if s == nil || h == nil || access == nil || refresh == nil {
		return nil, errors.New("auth service is missing a dependency")
	}

	if log == nil {
		log = zap.NewNop()
	}

	if n == nil {
		n = NewLogNotifier(log, "")
	}

	if opts.ActivationTTL <= 0 {
		return nil, errors.New("activation ttl must be bigger than 0")
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
		access = access.WithClock(now)
		refresh = refresh.WithClock(now)
	}

	dummy, err := h.GenerateFromPassword(idCharset)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		store:     s,
		hasher:    h,
		access:    access,
		refresh:   refresh,
		notifier:  n,
		log:       log,
		opts:      opts,
		now:       func() time.Time { return now().UTC() },
		lockout:      NewLockout(opts.MaxLoginAttempts, opts.LockoutWindow),
		emailLockout: NewLockout(opts.MaxLoginAttempts*lockoutSpread, opts.LockoutWindow),
		resend:       NewCooldown(opts.ResendCooldown),
		pending:      conc.NewWaitGroup(),
		dummyHash:    dummy,
	}, nil
}

// Close waits for dispatched notifications and releases the caches
func (s *AuthService) Close() error {
	s.pending.Wait()

	return errors.Join(s.lockout.Close(), s.emailLockout.Close(), s.resend.Close())
}

// Wait blocks until every dispatched notification returned
func (s *AuthService) Wait() {
	s.pending.Wait()
}

func (s *AuthService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.opts.OperationTimeout)
}

// dispatch hands e to the notifier without blocking the caller
func (s *AuthService) dispatch(e Event) {
	s.pending.Go(func() {
		ctx := context.Background()
		if s.opts.NotifyTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opts.NotifyTimeout)
			defer cancel()
		}

		if err := s.notifier.Notify(ctx, e); err != nil {
			s.log.Error("Failed to dispatch notification",
				zap.Error(err),
				zap.String("kind", string(e.Kind)),
				zap.String("userID", e.UserID),
			)
		}
	})
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates an unverified user and sends it an activation token
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (res *Registration, err error) {
	defer func() { metrics.AuthEvent("register", outcome(err)) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validators.NameValidator(in.FirstName, in.LastName); err != nil {
		return nil, newError(KindValidation, capitalize(err.Error()), err)
	}

	if err := validators.EmailValidator(in.Email); err != nil {
		return nil, newError(KindValidation, capitalize(err.Error()), err)
	}

	if err := validators.PasswordValidator(in.Password, s.opts.PasswordMinLength); err != nil {
		return nil, newError(KindValidation, capitalize(err.Error()), err)
	}

	found, err := s.store.EmailExists(ctx, in.Email)
	if err != nil {
		s.log.Error("Failed to check if email is registered", zap.Error(err))
		return nil, internal(err)
	}

	if found {
		return nil, newError(KindEmailInUse, msgEmailInUse, nil)
	}

	hash, err := s.hasher.GenerateFromPassword(in.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, internal(err)
	}

	userID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		s.log.Error("Failed to generate user ID", zap.Error(err))
		return nil, internal(err)
	}

	expiresAt := s.now().Add(s.opts.ActivationTTL)

	token, err := security.MakeActivationToken(&security.ActivationTokenOpts{
		UserID:    userID,
		ExpiresAt: &expiresAt,
	})
	if err != nil {
		s.log.Error("Failed to generate activation token", zap.Error(err))
		return nil, internal(err)
	}

	user := &model.User{
		ID:        userID,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	acc := &model.Account{PasswordHash: hash}

	if err := s.store.CreateUser(ctx, user, acc, token); err != nil {
		// Lost a race with another registration of the same email
		if errors.Is(err, store.ErrConflict) {
			return nil, newError(KindEmailInUse, msgEmailInUse, err)
		}

		s.log.Error("Failed to create user", zap.Error(err))
		return nil, internal(err)
	}

	user.Account = *acc
	s.log.Info("User registered", zap.String("userID", userID))

	s.dispatch(Event{
		Kind:      EventActivation,
		UserID:    userID,
		Email:     user.Email,
		FirstName: user.FirstName,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})

	return &Registration{
		User:            NewUserView(user),
		ActivationToken: token.Token,
	}, nil
}

// Verify consumes an activation token and marks its owner verified
func (s *AuthService) Verify(ctx context.Context, token string) (err error) {
	defer func() { metrics.AuthEvent("verify", outcome(err)) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	token = strings.TrimSpace(token)
	if token == "" {
		return newError(KindValidation, "No token provided", nil)
	}

	t, err := s.store.FindActivationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindInvalidOrExpiredToken, msgInvalidToken, err)
		}

		s.log.Error("Failed to query activation token", zap.Error(err))
		return internal(err)
	}

	now := s.now()
	if t.Used || !now.Before(t.ExpiresAt) {
		return newError(KindInvalidOrExpiredToken, msgInvalidToken, nil)
	}

	if err := s.store.ConsumeActivationToken(ctx, t, now); err != nil {
		if errors.Is(err, store.ErrAlreadyUsed) || errors.Is(err, store.ErrNotFound) {
			return newError(KindInvalidOrExpiredToken, msgInvalidToken, err)
		}

		s.log.Error("Failed to consume activation token", zap.Error(err))
		return internal(err)
	}

	s.log.Info("User verified", zap.String("userID", t.UserID))
	return nil
}

// ResendVerification issues a new activation token for an unverified user.
// Unknown and already verified emails succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	email = strings.TrimSpace(email)
	if err := validators.EmailValidator(email); err != nil {
		return newError(KindValidation, capitalize(err.Error()), err)
	}

	if !s.resend.Allow(strings.ToLower(email)) {
		return newError(KindTooManyAttempts, msgResendCooldown, nil)
	}

	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}

		s.log.Error("Failed to query user", zap.Error(err))
		return internal(err)
	}

	if u.Account.IsVerified {
		return nil
	}

	expiresAt := s.now().Add(s.opts.ActivationTTL)

	token, err := security.MakeActivationToken(&security.ActivationTokenOpts{
		UserID:    u.ID,
		ExpiresAt: &expiresAt,
	})
	if err != nil {
		s.log.Error("Failed to generate activation token", zap.Error(err))
		return internal(err)
	}

	if err := s.store.ReplaceActivationToken(ctx, token); err != nil {
		s.log.Error("Failed to replace activation token", zap.Error(err))
		return internal(err)
	}

	s.dispatch(Event{
		Kind:      EventActivation,
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})

	return nil
}

type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// Login checks the credentials and starts a new session, replacing the
// previous one of the user
func (s *AuthService) Login(ctx context.Context, in LoginInput) (sess *Session, err error) {
	defer func() { metrics.AuthEvent("login", outcome(err)) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return nil, newError(KindValidation, "Email field can't be empty", nil)
	}

	if in.Password == "" {
		return nil, newError(KindValidation, "Password field can't be empty", nil)
	}

	email := strings.ToLower(in.Email)
	key := email + "|" + in.IP
	if s.lockout.Locked(key) || s.emailLockout.Locked(email) {
		return nil, newError(KindTooManyAttempts, msgTooManyAttempts, nil)
	}

	u, err := s.store.FindUserByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Error("Failed to query user", zap.Error(err))
		return nil, internal(err)
	}

	if u == nil {
		_, _ = s.hasher.VerifyPasswd(in.Password, s.dummyHash)
		s.lockout.Fail(key)
		s.emailLockout.Fail(email)

		s.log.Debug("Login failed, unknown email", zap.String("ip", in.IP))
		return nil, newError(KindAuthenticationFailed, msgInvalidCredentials, nil)
	}

	ok, err := s.hasher.VerifyPasswd(in.Password, u.Account.PasswordHash)
	if err != nil {
		s.log.Error("Failed to verify password", zap.Error(err), zap.String("userID", u.ID))
		return nil, internal(err)
	}

	if !ok {
		n := s.lockout.Fail(key)
		s.emailLockout.Fail(email)

		s.log.Debug("Login failed, wrong password",
			zap.String("userID", u.ID),
			zap.String("ip", in.IP),
			zap.Int("attempts", n),
		)
		return nil, newError(KindAuthenticationFailed, msgInvalidCredentials, nil)
	}

	s.lockout.Reset(key)
	s.emailLockout.Reset(email)

	if s.opts.RequireVerified && !u.Account.IsVerified {
		return nil, newError(KindAccountUnverified, msgUnverified, nil)
	}

	for attempt := 0; ; attempt++ {
		sess, err = s.startSession(ctx, u.ID, in.IP, in.UserAgent)
		// A concurrent login of the same user inserted its row first
		if errors.Is(err, store.ErrConflict) && attempt == 0 {
			continue
		}

		break
	}

	if err != nil {
		s.log.Error("Failed to create session", zap.Error(err), zap.String("userID", u.ID))
		return nil, internal(err)
	}

	view := NewUserView(u)
	sess.User = &view

	s.log.Info("User logged in", zap.String("userID", u.ID), zap.String("ip", in.IP))
	return sess, nil
}

func (s *AuthService) startSession(ctx context.Context, userID, ip, ua string) (*Session, error) {
	sess, row, err := s.mint(userID, ip, ua)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateSession(ctx, row); err != nil {
		return nil, err
	}

	return sess, nil
}

// mint signs a new token pair and returns the refresh token row backing it
func (s *AuthService) mint(userID, ip, ua string) (*Session, *model.RefreshToken, error) {
	access, _, err := s.access.Sign(userID, "")
	if err != nil {
		return nil, nil, err
	}

	rid := uuid.NewString()

	refresh, claims, err := s.refresh.Sign(userID, rid)
	if err != nil {
		return nil, nil, err
	}

	row := &model.RefreshToken{
		ID:        rid,
		UserID:    userID,
		CreatedAt: claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
		IP:        truncate(ip, 64),
		UserAgent: truncate(ua, 512),
	}

	return &Session{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: row.ExpiresAt,
	}, row, nil
}

type RefreshInput struct {
	Token string
	// Only used for logging, the new row keeps the metadata of the old one
	IP        string
	UserAgent string
}

// Refresh rotates a refresh token. Every token can be exchanged exactly once.
func (s *AuthService) Refresh(ctx context.Context, in RefreshInput) (sess *Session, err error) {
	defer func() { metrics.AuthEvent("refresh", outcome(err)) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	invalid := func(cause error) *Error {
		return newError(KindInvalidRefreshToken, msgInvalidRefreshToken, cause)
	}

	claims, err := s.refresh.Verify(in.Token)
	if err != nil {
		s.log.Debug("Refresh token rejected", zap.Error(err), zap.String("ip", in.IP))
		return nil, invalid(err)
	}

	if claims.RefreshID == "" {
		return nil, invalid(security.ErrTokenMalformed)
	}

	row, err := s.store.FindRefreshToken(ctx, claims.RefreshID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Debug("Refresh token row not found", zap.String("userID", claims.UserID()))
			return nil, invalid(err)
		}

		s.log.Error("Failed to query refresh token", zap.Error(err))
		return nil, internal(err)
	}

	if row.UserID != claims.UserID() {
		s.log.Warn("Refresh token owner mismatch",
			zap.String("userID", claims.UserID()),
			zap.String("owner", row.UserID),
			zap.String("ip", in.IP),
		)
		return nil, invalid(nil)
	}

	if row.RevokedAt != nil {
		// Logged out or replaced by a newer login, the holder never got a
		// successor so this isn't reuse
		if row.RevokedReason == model.RevokedRotated {
			s.reuseDetected(ctx, row, in)
		} else {
			s.log.Debug("Refresh token already revoked",
				zap.String("userID", row.UserID),
				zap.String("reason", row.RevokedReason),
			)
		}

		return nil, invalid(store.ErrAlreadyRevoked)
	}

	if !row.Live(s.now()) {
		s.log.Debug("Refresh token expired", zap.String("userID", row.UserID))
		return nil, invalid(security.ErrTokenExpired)
	}

	sess, next, err := s.mint(row.UserID, row.IP, row.UserAgent)
	if err != nil {
		s.log.Error("Failed to sign tokens", zap.Error(err))
		return nil, internal(err)
	}

	if err := s.store.RotateRefreshToken(ctx, row.ID, next); err != nil {
		// Someone else rotated or revoked the row between the read and
		// the write
		if errors.Is(err, store.ErrAlreadyRevoked) || errors.Is(err, store.ErrConflict) {
			s.log.Warn("Refresh token lost a rotation race",
				zap.String("userID", row.UserID),
				zap.String("ip", in.IP),
			)
			return nil, invalid(err)
		}

		s.log.Error("Failed to rotate refresh token", zap.Error(err), zap.String("userID", row.UserID))
		return nil, internal(err)
	}

	return sess, nil
}

// reuseDetected handles an already rotated refresh token being presented
// again, which means either the client or an attacker holds a stale copy
func (s *AuthService) reuseDetected(ctx context.Context, row *model.RefreshToken, in RefreshInput) {
	metrics.RefreshReuse()
	s.log.Warn("Refresh token reuse detected",
		zap.String("userID", row.UserID),
		zap.String("tokenID", row.ID),
		zap.String("ip", in.IP),
		zap.String("userAgent", in.UserAgent),
	)

	if !s.opts.RevokeOnReuse {
		return
	}

	n, err := s.store.RevokeUserRefreshTokens(ctx, row.UserID, model.RevokedReuse, s.now())
	if err != nil {
		s.log.Error("Failed to revoke sessions after reuse", zap.Error(err), zap.String("userID", row.UserID))
		return
	}

	if n > 0 {
		s.log.Warn("Revoked sessions after reuse", zap.String("userID", row.UserID), zap.Int64("count", n))
	}
}

// Logout revokes the session of a refresh token. Expired and already revoked
// tokens log out fine.
func (s *AuthService) Logout(ctx context.Context, token string) (err error) {
	defer func() { metrics.AuthEvent("logout", outcome(err)) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	claims, err := s.refresh.Decode(token)
	if err != nil {
		return newError(KindInvalidRefreshToken, msgInvalidRefreshToken, err)
	}

	if claims.RefreshID == "" {
		return newError(KindInvalidRefreshToken, msgInvalidRefreshToken, security.ErrTokenMalformed)
	}

	changed, err := s.store.RevokeRefreshToken(ctx, claims.RefreshID, claims.UserID(), s.now())
	if err != nil {
		s.log.Error("Failed to revoke refresh token", zap.Error(err), zap.String("userID", claims.UserID()))
		return internal(err)
	}

	s.log.Debug("User logged out", zap.String("userID", claims.UserID()), zap.Bool("revoked", changed))
	return nil
}

// Me returns the user behind an access token
func (s *AuthService) Me(ctx context.Context, userID string) (*UserView, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, msgUserNotFound, err)
		}

		s.log.Error("Failed to query user", zap.Error(err))
		return nil, internal(err)
	}

	v := NewUserView(u)
	return &v, nil
}

// DeleteAccount removes the user and everything it owns
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindNotFound, msgUserNotFound, err)
		}

		s.log.Error("Failed to delete user", zap.Error(err), zap.String("userID", userID))
		return internal(err)
	}

	s.log.Info("User deleted", zap.String("userID", userID))
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}
