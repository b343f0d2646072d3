package store

import (
	"bitwise74/finance-api/model"
	"context"
	"time"

	"gorm.io/gorm"
)

func revocation(now time.Time, reason string) map[string]any {
	return map[string]any{
		"revoked_at":     now,
		"revoked_reason": reason,
	}
}

// CreateSession revokes whatever live refresh token the user has and stores
// rt in its place, so a new login replaces the previous session.
func (s *Store) CreateSession(ctx context.Context, rt *model.RefreshToken) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.RefreshToken{}).
			Where("user_id = ? AND revoked_at IS NULL", rt.UserID).
			Updates(revocation(rt.CreatedAt, model.RevokedReplaced)).
			Error
		if err != nil {
			return err
		}

		return tx.Create(rt).Error
	})

	return wrap(err, "failed to create session")
}

func (s *Store) FindRefreshToken(ctx context.Context, id string) (*model.RefreshToken, error) {
	var rt model.RefreshToken

	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rt).
		Error
	if err != nil {
		return nil, wrap(err, "failed to get refresh token")
	}

	return &rt, nil
}

// RotateRefreshToken revokes oldID and inserts next atomically. The revoke is
// conditional on the row still being live; if another rotation got there
// first nothing is written and ErrAlreadyRevoked is returned.
func (s *Store) RotateRefreshToken(ctx context.Context, oldID string, next *model.RefreshToken) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := tx.Model(&model.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", oldID).
			Updates(revocation(next.CreatedAt, model.RevokedRotated))
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected != 1 {
			return ErrAlreadyRevoked
		}

		return tx.Create(next).Error
	})

	return wrap(err, "failed to rotate refresh token")
}

// RevokeRefreshToken revokes the token id owned by userID on logout. Revoking a token
// that is already revoked or doesn't exist isn't an error, the returned bool
// tells whether anything changed.
func (s *Store) RevokeRefreshToken(ctx context.Context, id, userID string, now time.Time) (bool, error) {
	r := s.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", id, userID).
		Updates(revocation(now, model.RevokedLogout))
	if r.Error != nil {
		return false, wrap(r.Error, "failed to revoke refresh token")
	}

	return r.RowsAffected > 0, nil
}

// RevokeUserRefreshTokens revokes every live refresh token of userID, recording
// reason on each
func (s *Store) RevokeUserRefreshTokens(ctx context.Context, userID, reason string, now time.Time) (int64, error) {
	r := s.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(revocation(now, reason))
	if r.Error != nil {
		return 0, wrap(r.Error, "failed to revoke user refresh tokens")
	}

	return r.RowsAffected, nil
}
