package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Account types.
const (
	TypeChecking = "checking"
	TypeSavings  = "savings"
	TypeBusiness = "business"
)

// ErrNumberTaken reports an account number collision on insert. Create
// retries with a fresh number.
var ErrNumberTaken = errors.New("account: account number already taken")

type Account struct {
	ID             int
	ClientID       int
	Number         string
	Type           string
	Balance        decimal.Decimal
	OverdraftLimit decimal.Decimal
	Active         bool
	CreatedAt      time.Time
}

type NewAccount struct {
	ClientID       int
	Type           string
	OverdraftLimit decimal.Decimal
}
