package store

import (
	"bitwise74/finance-api/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(model.User{}).
		Where("email = ?", email).
		Count(&n).
		Error
	if err != nil {
		return false, wrap(err, "failed to check if email is registered")
	}

	return n > 0, nil
}

// CreateUser writes the user, its account and its first activation token in
// one transaction. A taken email returns ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u *model.User, acc *model.Account, t *model.ActivationToken) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return err
		}

		acc.UserID = u.ID
		if err := tx.Create(acc).Error; err != nil {
			return err
		}

		t.UserID = u.ID
		return tx.Create(t).Error
	})

	return wrap(err, "failed to create user")
}

// FindUserByEmail returns the user with its account loaded
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Preload("Account").
		Where("email = ?", email).
		First(&u).
		Error
	if err != nil {
		return nil, wrap(err, "failed to find user by email")
	}

	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Preload("Account").
		Where("id = ?", id).
		First(&u).
		Error
	if err != nil {
		return nil, wrap(err, "failed to find user")
	}

	return &u, nil
}

// DeleteUser removes the user and everything it owns. The children are
// deleted explicitly so the cascade doesn't depend on the database enforcing
// foreign keys.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteUsers(tx, []string{id}, true)
	})

	return wrap(err, "failed to delete user")
}

func deleteUsers(tx *gorm.DB, ids []string, mustExist bool) error {
	children := []any{
		&model.Transaction{},
		&model.RefreshToken{},
		&model.ActivationToken{},
		&model.Account{},
	}

	for _, m := range children {
		if err := tx.Where("user_id IN ?", ids).Delete(m).Error; err != nil {
			return err
		}
	}

	r := tx.Where("id IN ?", ids).Delete(&model.User{})
	if r.Error != nil {
		return r.Error
	}

	if mustExist && r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
