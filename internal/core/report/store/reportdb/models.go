package reportdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/core/report"
)

type dbTotal struct {
	Total decimal.Decimal `db:"total"`
}

type dbCount struct {
	Total int `db:"total"`
}

type dbTransactionDetail struct {
	ID            uuid.UUID       `db:"id"`
	AccountID     int             `db:"account_id"`
	AccountNumber string          `db:"account_number"`
	ClientID      int             `db:"client_id"`
	ClientName    string          `db:"client_name"`
	Type          string          `db:"type"`
	Amount        decimal.Decimal `db:"amount"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
}

func toTransactionDetails(ts []dbTransactionDetail) []report.TransactionDetail {
	slice := make([]report.TransactionDetail, len(ts))
	for i, t := range ts {
		slice[i] = report.TransactionDetail(t)
	}
	return slice
}

type dbDayStats struct {
	Day          time.Time       `db:"day"`
	Transactions int             `db:"transactions"`
	Deposits     decimal.Decimal `db:"deposits"`
	Withdrawals  decimal.Decimal `db:"withdrawals"`
}

func toDayStats(ds []dbDayStats) []report.DayStats {
	slice := make([]report.DayStats, len(ds))
	for i, d := range ds {
		slice[i] = report.DayStats(d)
	}
	return slice
}
