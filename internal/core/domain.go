package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Directions of a ledger transaction. Closed two-valued enum.
	In  Direction = "IN"
	Out Direction = "OUT"
)

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "credit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// Uncategorized is the fallback label used when no category can be resolved.
const Uncategorized = "uncategorized"

type (
	Direction     string
	PaymentMethod string

	Money struct {
		Cents int64
	}

	// Account is a ledger account. Balance is mutated only by the ledger
	// engine and always equals sum(IN) - sum(OUT) over the account's
	// transactions since creation.
	Account struct {
		ID         int64
		Name       string
		Balance    Money
		MinBalance Money
		Currency   string // informational tag, no conversion
		CreatedAt  time.Time
	}

	// Transaction is a single ledger movement on an account.
	Transaction struct {
		ID            int64
		OccurredAt    time.Time
		Direction     Direction
		Amount        Money
		AccountID     int64
		Description   string
		PaymentMethod PaymentMethod
		Categories    []string
	}

	// Budget tracks allocated vs spent amounts for one (category, account)
	// pair. Spent accumulates from OUT transactions recorded after the
	// budget row was created.
	Budget struct {
		ID        int64
		Name      string
		Category  string
		Allocated Money
		Spent     Money
		AccountID int64
	}

	// CustomCategory is a user-managed label scoped to (account, direction).
	CustomCategory struct {
		ID        int64
		AccountID int64
		Direction Direction
		Name      string
	}

	// KeywordCategory maps a global category name to a comma-separated
	// keyword list used for automatic description matching.
	KeywordCategory struct {
		ID       int64
		Name     string
		Keywords string
	}
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidDirection    = errors.New("invalid direction")
	ErrInvalidPayment      = errors.New("invalid payment method")
	ErrEmptyName           = errors.New("empty name")
)

func (d Direction) Validate() error {
	switch d {
	case In, Out:
		return nil
	}
	return ErrInvalidDirection
}

// Sign returns +1 for IN and -1 for OUT, the factor a transaction applies
// to its account balance.
func (d Direction) Sign() int64 {
	if d == Out {
		return -1
	}
	return 1
}

func (p PaymentMethod) Validate() error {
	switch p {
	case PaymentCash, PaymentCard, PaymentBankTransfer:
		return nil
	}
	return ErrInvalidPayment
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(other Money) Money     { return Money{Cents: m.Cents + other.Cents} }
func (m Money) Sub(other Money) Money     { return Money{Cents: m.Cents - other.Cents} }
func (m Money) LessThan(other Money) bool { return m.Cents < other.Cents }

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("account name too long (max 100 characters)")
	}
	if a.MinBalance.Cents < 0 {
		return errors.New("minimum balance cannot be negative")
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Direction.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.AccountID <= 0 {
		return ErrAccountNotFound
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.PaymentMethod.Validate(); err != nil {
		return err
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyName
	}
	if b.Allocated.Cents < 0 {
		return errors.New("allocated amount cannot be negative")
	}
	if b.AccountID <= 0 {
		return ErrAccountNotFound
	}
	return nil
}

// JoinCategories serializes category labels into the stored representation.
// Labels are trimmed and empties dropped; an empty set becomes the
// uncategorized fallback.
func JoinCategories(labels []string) string {
	cleaned := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l != "" {
			cleaned = append(cleaned, l)
		}
	}
	if len(cleaned) == 0 {
		return Uncategorized
	}
	return strings.Join(cleaned, ", ")
}

// SplitCategories is the inverse of JoinCategories.
func SplitCategories(stored string) []string {
	parts := strings.Split(stored, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}
