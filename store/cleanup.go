package store

import (
	"bitwise74/finance-api/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// PurgeRefreshTokens deletes refresh tokens that were revoked or expired
// before the cutoff
func (s *Store) PurgeRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	r := s.db.WithContext(ctx).
		Where("(revoked_at IS NOT NULL AND revoked_at < ?) OR expires_at < ?", before, before).
		Delete(&model.RefreshToken{})

	return r.RowsAffected, wrap(r.Error, "failed to purge refresh tokens")
}

// PurgeActivationTokens deletes activation tokens that were used or expired
// before the cutoff
func (s *Store) PurgeActivationTokens(ctx context.Context, before time.Time) (int64, error) {
	r := s.db.WithContext(ctx).
		Where("(used = ? AND used_at < ?) OR expires_at < ?", true, before, before).
		Delete(&model.ActivationToken{})

	return r.RowsAffected, wrap(r.Error, "failed to purge activation tokens")
}

// PurgeUnverifiedUsers deletes users that registered before the cutoff and
// never verified their email
func (s *Store) PurgeUnverifiedUsers(ctx context.Context, before time.Time) (int64, error) {
	var ids []string

	err := s.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("is_verified = ? AND created_at < ?", false, before).
		Pluck("user_id", &ids).
		Error
	if err != nil {
		return 0, wrap(err, "failed to query unverified users")
	}

	if len(ids) == 0 {
		return 0, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteUsers(tx, ids, false)
	})
	if err != nil {
		return 0, wrap(err, "failed to delete unverified users")
	}

	return int64(len(ids)), nil
}
