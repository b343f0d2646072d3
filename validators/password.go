package validators

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordInvalid  = errors.New("password contains invalid characters")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
)

const maxPasswordLength = 255

// PasswordValidator checks p against the length limits. minLen <= 1 only
// requires a non empty password.
func PasswordValidator(p string, minLen int) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if !utf8.ValidString(p) || strings.ContainsRune(p, 0) {
		return ErrPasswordInvalid
	}

	n := utf8.RuneCountInString(p)
	if minLen > 1 && n < minLen {
		return fmt.Errorf("%w, must be at least %d characters long", ErrPasswordTooShort, minLen)
	}

	if len(p) > maxPasswordLength {
		return ErrPasswordTooLong
	}

	return nil
}
