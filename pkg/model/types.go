package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Field limits shared by the entry forms.
const (
	MaxNameLength        = 50
	MaxDescriptionLength = 200
	AmountDecimalPlaces  = 2
	MaxAmountDigits      = 15
)

// RecordKind names the type of a submitted record
type RecordKind string

const (
	KindTransaction RecordKind = "transaction"
	KindAccount     RecordKind = "account"
)

// Record is anything the entry forms can submit
type Record interface {
	Kind() RecordKind
	Validate() error
}

// Transaction is a single income or expense entry
type Transaction struct {
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	CategoryID      string          `json:"category_id"`
	CategoryName    string          `json:"category_name"`
	SubcategoryID   string          `json:"subcategory_id"`
	SubcategoryName string          `json:"subcategory_name"`
	AccountID       string          `json:"account_id"`
	AccountName     string          `json:"account_name"`
	Date            time.Time       `json:"date"`
	Description     string          `json:"description,omitempty"`
}

// Kind implements Record
func (t Transaction) Kind() RecordKind { return KindTransaction }

// Validate checks every field and reports all problems at once
func (t Transaction) Validate() error {
	var errs []error
	if err := ValidateName(t.Name); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateAmount(t.Amount); err != nil {
		errs = append(errs, err)
	}
	if t.CategoryID == "" || t.SubcategoryID == "" {
		errs = append(errs, fmt.Errorf("please select a category"))
	}
	if t.AccountID == "" {
		errs = append(errs, fmt.Errorf("please select an account"))
	}
	if t.Date.IsZero() {
		errs = append(errs, fmt.Errorf("please select a date"))
	}
	if err := ValidateDescription(t.Description); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Account is a bank or cash account transactions are booked against
type Account struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Currency    string `json:"currency" yaml:"currency"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Kind implements Record
func (a Account) Kind() RecordKind { return KindAccount }

// Validate checks the account fields. The id is assigned by whoever stores
// the account and is not required here.
func (a Account) Validate() error {
	var errs []error
	if err := ValidateName(a.Name); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateCurrency(a.Currency); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateDescription(a.Description); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Currencies lists the ISO 4217 codes accounts may use
var Currencies = []string{"SGD", "USD", "EUR", "GBP", "MYR", "IDR", "JPY", "AUD"}

// DefaultCurrency is preselected in the account form
const DefaultCurrency = "SGD"

// ValidateName requires 1 to MaxNameLength characters
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return fmt.Errorf("name must have at least one character")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name cannot be longer than %d characters", MaxNameLength)
	}
	return nil
}

// ValidateDescription allows an empty description
func ValidateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return fmt.Errorf("description cannot be longer than %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidateAmount requires a non-negative amount in whole cents
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("amount cannot be negative")
	}
	if !withinPlaces(amount, AmountDecimalPlaces) {
		return fmt.Errorf("amount must be a multiple of 0.01")
	}
	return nil
}

// withinPlaces reports whether d has no non-zero digit past the given number
// of decimal places. It must not rescale d: Round and Truncate multiply by
// 10^|exponent|, which never finishes for inputs like 1e-99999999.
func withinPlaces(d decimal.Decimal, places int32) bool {
	excess := -int64(d.Exponent()) - int64(places)
	if excess <= 0 {
		return true
	}
	coef := d.Coefficient().String()
	if coef == "0" {
		return true
	}
	trailing := len(coef) - len(strings.TrimRight(coef, "0"))
	return int64(trailing) >= excess
}

// ValidateCurrency requires one of Currencies
func ValidateCurrency(code string) error {
	for _, c := range Currencies {
		if c == code {
			return nil
		}
	}
	return fmt.Errorf("unsupported currency %q", code)
}

// ParseAmount parses user input such as "12.5" or "1,200.00"
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("please insert an amount")
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if countDigits(s) > MaxAmountDigits {
		return decimal.Zero, fmt.Errorf("amount cannot have more than %d digits", MaxAmountDigits)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// DateLayout is the input format of the transaction date field
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in the local time zone
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("please select a date")
	}
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must look like %s", DateLayout)
	}
	return d, nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
