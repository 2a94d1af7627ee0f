package core

import (
	"strings"
	"unicode/utf8"
)

const maxTitleLength = 200

type (
	// Transaction is a recorded expense. ID is derived from the creation
	// time in Unix milliseconds and never changes on edit.
	Transaction struct {
		ID       int64    `json:"id"`
		Title    string   `json:"title"`
		Amount   Money    `json:"amount"`
		Category Category `json:"category"`
		Date     string   `json:"date"`
	}

	// ExpenseDraft carries the user supplied fields of an expense, for
	// both creation and edit.
	ExpenseDraft struct {
		Title    string
		Amount   Money
		Category Category
		Date     string
	}
)

// Validate checks the fields in form order: title, amount, category, date.
// The first failure is returned as a *ValidationError.
func (d ExpenseDraft) Validate() error {
	if err := validateTitle(d.Title); err != nil {
		return err
	}
	if err := d.Amount.Validate(); err != nil {
		return invalid(FieldAmount, err)
	}
	if !d.Category.Valid() {
		return invalid(FieldCategory, ErrInvalidCategory)
	}
	if strings.TrimSpace(d.Date) == "" {
		return invalid(FieldDate, ErrEmptyDate)
	}
	return nil
}

// ParseExpenseDraft builds a draft from raw form values, reporting the
// same errors in the same order as Validate.
func ParseExpenseDraft(title, amount, category, date string) (ExpenseDraft, error) {
	d := ExpenseDraft{
		Title: strings.TrimSpace(title),
		Date:  strings.TrimSpace(date),
	}
	if err := validateTitle(d.Title); err != nil {
		return ExpenseDraft{}, err
	}
	amt, err := ParseAmount(amount)
	if err != nil {
		return ExpenseDraft{}, invalid(FieldAmount, err)
	}
	d.Amount = amt
	cat, err := ParseCategory(category)
	if err != nil {
		return ExpenseDraft{}, invalid(FieldCategory, err)
	}
	d.Category = cat
	if d.Date == "" {
		return ExpenseDraft{}, invalid(FieldDate, ErrEmptyDate)
	}
	return d, nil
}

// ParseIncome parses the amount of an income entry.
func ParseIncome(amount string) (Money, error) {
	m, err := ParseAmount(amount)
	if err != nil {
		return Money{}, invalid(FieldAmount, err)
	}
	return m, nil
}

// ValidateIncome checks an already typed income amount.
func ValidateIncome(m Money) error {
	if err := m.Validate(); err != nil {
		return invalid(FieldAmount, err)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid(FieldTitle, ErrEmptyTitle)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return invalid(FieldTitle, ErrTitleTooLong)
	}
	return nil
}

// Draft returns the editable fields of t.
func (t Transaction) Draft() ExpenseDraft {
	return ExpenseDraft{Title: t.Title, Amount: t.Amount, Category: t.Category, Date: t.Date}
}

func (t Transaction) Validate() error {
	if t.ID <= 0 {
		return ErrInvalidID
	}
	return t.Draft().Validate()
}
