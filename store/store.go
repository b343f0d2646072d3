// Package store is the repository layer over gorm. Every query the
// application runs lives here so handlers and services only see plain
// methods and the sentinel errors below.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrConflict       = errors.New("record already exists")
	ErrAlreadyRevoked = errors.New("refresh token already revoked")
	ErrAlreadyUsed    = errors.New("activation token already used or expired")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// wrap maps gorm errors to the package sentinels and adds context to the rest
func wrap(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s, %w", msg, ErrConflict)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrAlreadyRevoked), errors.Is(err, ErrAlreadyUsed):
		return err
	}

	return fmt.Errorf("%s, %w", msg, err)
}
