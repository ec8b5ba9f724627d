package ledgerdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/core/ledger"
)

type dbAccount struct {
	ID             int             `db:"id"`
	ClientID       int             `db:"client_id"`
	Number         string          `db:"account_number"`
	Type           string          `db:"type"`
	Balance        decimal.Decimal `db:"balance"`
	OverdraftLimit decimal.Decimal `db:"overdraft_limit"`
	Active         bool            `db:"is_active"`
}

func toAccount(a dbAccount) ledger.Account {
	return ledger.Account{
		ID:             a.ID,
		ClientID:       a.ClientID,
		Number:         a.Number,
		Type:           a.Type,
		Balance:        a.Balance,
		OverdraftLimit: a.OverdraftLimit,
		Active:         a.Active,
	}
}

type dbAccountID struct {
	ID int `db:"id"`
}

type dbTransaction struct {
	ID          uuid.UUID       `db:"id"`
	AccountID   int             `db:"account_id"`
	ClientID    int             `db:"client_id"`
	Type        string          `db:"type"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	TransferID  uuid.NullUUID   `db:"transfer_id"`
	CreatedAt   time.Time       `db:"created_at"`
}

func toDBTransaction(t ledger.Transaction) dbTransaction {
	return dbTransaction(t)
}
