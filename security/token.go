package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
)

// Claims is the payload of both token classes. Access tokens leave RefreshID
// empty; refresh tokens carry the id of their database row in it.
type Claims struct {
	RefreshID string `json:"rid,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the sub claim
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenCodec signs and verifies HS256 tokens of a single class. Access and
// refresh tokens each get their own codec and secret so that one can't be
// passed off as the other.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token secret can't be empty")
	}

	if ttl <= 0 {
		return nil, errors.New("token ttl must be bigger than 0")
	}

	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the codec reading time from now
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Sign mints a token for userID. refreshID is embedded as the rid claim when
// not empty.
func (c *TokenCodec) Sign(userID, refreshID string) (string, *Claims, error) {
	if userID == "" {
		return "", nil, errors.New("no user ID provided")
	}

	now := c.now()
	claims := &Claims{
		RefreshID: refreshID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token, %w", err)
	}

	return s, claims, nil
}

// Verify checks the signature and the time claims of s
func (c *TokenCodec) Verify(s string) (*Claims, error) {
	return c.parse(s,
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
}

// Decode only checks the signature of s. Expired tokens decode fine.
func (c *TokenCodec) Decode(s string) (*Claims, error) {
	return c.parse(s, jwt.WithoutClaimsValidation())
}

func (c *TokenCodec) parse(s string, opts ...jwt.ParserOption) (*Claims, error) {
	if s == "" {
		return nil, ErrTokenMalformed
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	claims := &Claims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(s, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
