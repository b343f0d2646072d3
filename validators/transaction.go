package validators

import (
	"bitwise74/finance-api/model"
	"errors"
	"unicode/utf8"
)

var (
	ErrKindInvalid        = errors.New("kind must be either income or expense")
	ErrAmountInvalid      = errors.New("amount must be bigger than 0")
	ErrCurrencyInvalid    = errors.New("currency must be a 3 letter ISO 4217 code")
	ErrCategoryTooLong    = errors.New("category is too long")
	ErrDescriptionTooLong = errors.New("description is too long")
)

const (
	maxCategoryLength    = 64
	maxDescriptionLength = 512
)

// TransactionValidator checks every user supplied field of t
func TransactionValidator(t *model.Transaction) error {
	if err := KindValidator(t.Kind); err != nil {
		return err
	}

	if t.Amount <= 0 {
		return ErrAmountInvalid
	}

	if err := CurrencyValidator(t.Currency); err != nil {
		return err
	}

	if utf8.RuneCountInString(t.Category) > maxCategoryLength {
		return ErrCategoryTooLong
	}

	if utf8.RuneCountInString(t.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}

	return nil
}

func KindValidator(k string) error {
	if k != model.KindIncome && k != model.KindExpense {
		return ErrKindInvalid
	}

	return nil
}

// CurrencyValidator only accepts upper case codes, callers normalize first
func CurrencyValidator(c string) error {
	if len(c) != 3 {
		return ErrCurrencyInvalid
	}

	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return ErrCurrencyInvalid
		}
	}

	return nil
}
