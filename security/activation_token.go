package security

import (
	"bitwise74/finance-api/model"
	"bitwise74/finance-api/util"
	"errors"
	"time"
)

const (
	tokenSize = 32
)

type ActivationTokenOpts struct {
	UserID    string
	ExpiresAt *time.Time
}

// MakeActivationToken returns an unused activation token with 256 bits of
// randomness, hex encoded
func MakeActivationToken(o *ActivationTokenOpts) (*model.ActivationToken, error) {
	if o == nil {
		return nil, errors.New("no token options provided")
	}

	if o.UserID == "" {
		return nil, errors.New("no user ID provided")
	}

	if o.ExpiresAt == nil {
		return nil, errors.New("no expiry provided")
	}

	token, err := util.GenerateToken(tokenSize)
	if err != nil {
		return nil, err
	}

	return &model.ActivationToken{
		UserID:    o.UserID,
		Token:     token,
		ExpiresAt: *o.ExpiresAt,
		CreatedAt: time.Now().UTC(),
		Used:      false,
	}, nil
}
