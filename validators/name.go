package validators

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrFirstNameEmpty = errors.New("no first name provided")
	ErrNameTooLong    = errors.New("name is too long")
)

const maxNameLength = 64

// NameValidator checks the first and last name of a user. The last name is
// optional.
func NameValidator(first, last string) error {
	if strings.TrimSpace(first) == "" {
		return ErrFirstNameEmpty
	}

	if utf8.RuneCountInString(first) > maxNameLength || utf8.RuneCountInString(last) > maxNameLength {
		return ErrNameTooLong
	}

	return nil
}
