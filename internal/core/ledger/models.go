package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types. A transfer produces two transfer-typed rows, one per
// account, correlated by TransferID.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
	TypeTransfer   = "transfer"
)

// Account types.
const (
	AccountChecking = "checking"
	AccountSavings  = "savings"
	AccountBusiness = "business"
)

// Account is the ledger's view of a bank account: just what is needed to
// move money. Administrative account data lives in the account core.
type Account struct {
	ID             int
	ClientID       int
	Number         string
	Type           string
	Balance        decimal.Decimal
	OverdraftLimit decimal.Decimal
	Active         bool
}

// Available returns the maximum amount withdrawable before the account is
// rejected: balance plus overdraft limit.
func (a Account) Available() decimal.Decimal {
	return a.Balance.Add(a.OverdraftLimit)
}

// Transaction is one immutable ledger entry. Amount is always positive; the
// type carries the direction.
type Transaction struct {
	ID          uuid.UUID
	AccountID   int
	ClientID    int
	Type        string
	Amount      decimal.Decimal
	Description string
	TransferID  uuid.NullUUID
	CreatedAt   time.Time
}

// Transfer describes a completed transfer: both accounts with their balances
// after the movement.
type Transfer struct {
	ID          uuid.UUID
	Source      Account
	Destination Account
	Amount      decimal.Decimal
}
