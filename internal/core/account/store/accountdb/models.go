package accountdb

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/core/account"
)

type dbAccount struct {
	ID             int             `db:"id"`
	ClientID       int             `db:"client_id"`
	Number         string          `db:"account_number"`
	Type           string          `db:"type"`
	Balance        decimal.Decimal `db:"balance"`
	OverdraftLimit decimal.Decimal `db:"overdraft_limit"`
	Active         bool            `db:"is_active"`
	CreatedAt      time.Time       `db:"created_at"`
}

func toDBAccount(a account.Account) dbAccount {
	return dbAccount{
		ID:             a.ID,
		ClientID:       a.ClientID,
		Number:         a.Number,
		Type:           a.Type,
		Balance:        a.Balance,
		OverdraftLimit: a.OverdraftLimit,
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
	}
}

func toAccount(a dbAccount) account.Account {
	return account.Account(a)
}

func toAccounts(as []dbAccount) []account.Account {
	slice := make([]account.Account, len(as))
	for i, a := range as {
		slice[i] = toAccount(a)
	}
	return slice
}

type dbAccountID struct {
	ID int `db:"id"`
}

type dbCount struct {
	Total int `db:"total"`
}
