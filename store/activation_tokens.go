package store

import (
	"bitwise74/finance-api/model"
	"context"
	"time"

	"gorm.io/gorm"
)

func (s *Store) FindActivationToken(ctx context.Context, token string) (*model.ActivationToken, error) {
	var t model.ActivationToken

	err := s.db.WithContext(ctx).
		Where("token = ?", token).
		First(&t).
		Error
	if err != nil {
		return nil, wrap(err, "failed to get activation token")
	}

	return &t, nil
}

func (s *Store) FindActivationTokenByUser(ctx context.Context, userID string) (*model.ActivationToken, error) {
	var t model.ActivationToken

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&t).
		Error
	if err != nil {
		return nil, wrap(err, "failed to get activation token")
	}

	return &t, nil
}

// ConsumeActivationToken marks the token used and the owner's account
// verified. Only one caller can consume a given token, the others get
// ErrAlreadyUsed.
func (s *Store) ConsumeActivationToken(ctx context.Context, t *model.ActivationToken, now time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := tx.Model(&model.ActivationToken{}).
			Where("id = ? AND used = ? AND expires_at > ?", t.ID, false, now).
			Updates(map[string]any{
				"used":    true,
				"used_at": now,
			})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected != 1 {
			return ErrAlreadyUsed
		}

		r = tx.Model(&model.Account{}).
			Where("user_id = ?", t.UserID).
			Updates(map[string]any{
				"is_verified": true,
				"verified_at": now,
			})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected != 1 {
			return ErrNotFound
		}

		return nil
	})

	return wrap(err, "failed to consume activation token")
}

// ReplaceActivationToken swaps the user's activation token for t
func (s *Store) ReplaceActivationToken(ctx context.Context, t *model.ActivationToken) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", t.UserID).Delete(&model.ActivationToken{}).Error; err != nil {
			return err
		}

		return tx.Create(t).Error
	})

	return wrap(err, "failed to replace activation token")
}
