package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stats are the point-in-time dashboard numbers. Available reports whether
// the values were actually computed; when false the values are zeros from a
// degraded read, not true zeros.
type Stats struct {
	Available             bool
	TotalBalance          decimal.Decimal
	TotalDeposits         decimal.Decimal
	TotalWithdrawals      decimal.Decimal
	ActiveAccounts        int
	MonthlyServiceRevenue decimal.Decimal
}

// Report aggregates a date range. NetFlow is Deposits minus Withdrawals.
// Available has the same meaning as in Stats.
type Report struct {
	Available         bool
	Start             time.Time
	End               time.Time
	TotalTransactions int
	Deposits          decimal.Decimal
	Withdrawals       decimal.Decimal
	NetFlow           decimal.Decimal
	NewAccounts       int
	ServiceRevenue    decimal.Decimal
}

// TransactionDetail is a transaction joined with display context.
type TransactionDetail struct {
	ID            uuid.UUID
	AccountID     int
	AccountNumber string
	ClientID      int
	ClientName    string
	Type          string
	Amount        decimal.Decimal
	Description   string
	CreatedAt     time.Time
}

// DayStats aggregates one calendar day of transactions.
type DayStats struct {
	Day          time.Time
	Transactions int
	Deposits     decimal.Decimal
	Withdrawals  decimal.Decimal
}
