package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

// MaxUserIDLength bounds user identifiers accepted by the engine.
const MaxUserIDLength = 128

// AmountDecimals is the precision every ledger amount is stored with.
const AmountDecimals = 2

type (
	TransactionType string

	Transaction struct {
		ID          int64
		WalletID    int64
		UserID      string
		Source      string
		Amount      decimal.Decimal
		Type        TransactionType
		Category    string // empty string is its own bucket
		Description string
		Timestamp   time.Time
	}

	// Wallet is a funding source a user's transactions are booked against.
	Wallet struct {
		ID        int64
		UserID    string
		Provider  string
		Source    string
		Label     string
		IsActive  bool
		CreatedAt time.Time
	}

	// Aggregate is the result of summing and counting a filtered set of transactions.
	// The zero value means no rows matched.
	Aggregate struct {
		Sum   decimal.Decimal
		Count int64
	}

	// CategorySum is an amount aggregated by category name.
	CategorySum struct {
		Category string
		Sum      decimal.Decimal
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyUserID   = errors.New("empty user id")
	ErrZeroTimestamp = errors.New("timestamp cannot be zero")
	ErrInvalidWallet = errors.New("invalid wallet")
)

// IsValid reports whether t is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case Credit, Debit:
		return true
	default:
		return false
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTransactionType accepts the type names case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.UserID) == "" {
		return ErrEmptyUserID
	}
	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := CheckAmountScale(tx.Amount); err != nil {
		return err
	}
	if !tx.Type.IsValid() {
		return ErrInvalidType
	}
	if tx.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

// CheckAmountScale rejects amounts with more than AmountDecimals decimals, which a
// store would otherwise round.
func CheckAmountScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(AmountDecimals)) {
		return fmt.Errorf("%w: %s has more than %d decimals", ErrInvalidAmount, amount, AmountDecimals)
	}
	return nil
}

// Validate requires the fields a wallet is created with.
func (w Wallet) Validate() error {
	switch {
	case strings.TrimSpace(w.UserID) == "":
		return ErrEmptyUserID
	case strings.TrimSpace(w.Provider) == "":
		return fmt.Errorf("%w: provider is required", ErrInvalidWallet)
	case strings.TrimSpace(w.Source) == "":
		return fmt.Errorf("%w: source is required", ErrInvalidWallet)
	case strings.TrimSpace(w.Label) == "":
		return fmt.Errorf("%w: label is required", ErrInvalidWallet)
	}
	return nil
}

// ValidateUserID rejects identifiers that are empty, too long or carry control characters.
func ValidateUserID(userID string) error {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if trimmed != userID {
		return fmt.Errorf("%w: user id has surrounding whitespace", ErrInvalidInput)
	}
	if len(userID) > MaxUserIDLength {
		return fmt.Errorf("%w: user id longer than %d bytes", ErrInvalidInput, MaxUserIDLength)
	}
	for _, r := range userID {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: user id contains control characters", ErrInvalidInput)
		}
	}
	return nil
}
