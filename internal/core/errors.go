package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTitle          = errors.New("empty title")
	ErrTitleTooLong        = errors.New("title too long (max 200 characters)")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrEmptyDate           = errors.New("empty date")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidID           = errors.New("invalid transaction id")
	ErrDuplicateID         = errors.New("duplicate transaction id")
	ErrNegativeBalance     = errors.New("negative balance")
)

// Input field names reported by ValidationError.
const (
	FieldTitle    = "title"
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldDate     = "date"
)

// ValidationError reports a missing or invalid input field.
// No state is changed when one is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// InsufficientFundsError is returned when an expense would drive the
// balance below zero.
type InsufficientFundsError struct {
	Balance   Money
	Requested Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, requested %s", e.Balance, e.Requested)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
