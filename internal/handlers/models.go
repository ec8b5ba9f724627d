package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/core/account"
	"github.com/vbrandao/bank/internal/core/catalog"
	"github.com/vbrandao/bank/internal/core/ledger"
	"github.com/vbrandao/bank/internal/core/principal"
	"github.com/vbrandao/bank/internal/core/report"
)

// =============================================================================
// Clients

type RegisterClientReq struct {
	Kind       string `json:"kind"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
}

type ClientResp struct {
	ID         int       `json:"id"`
	Kind       string    `json:"kind"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Department string    `json:"department,omitempty"`
	Verified   bool      `json:"verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func toClientResp(p principal.Principal) ClientResp {
	return ClientResp{
		ID:         p.ID,
		Kind:       p.Kind,
		Email:      p.Email,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Department: p.Department,
		Verified:   p.Verified,
		CreatedAt:  p.CreatedAt,
	}
}

// =============================================================================
// Accounts

type CreateAccountReq struct {
	ClientID       int             `json:"client_id"`
	Type           string          `json:"type"`
	OverdraftLimit decimal.Decimal `json:"overdraft_limit"`
}

type AccountResp struct {
	ID             int             `json:"id"`
	ClientID       int             `json:"client_id"`
	AccountNumber  string          `json:"account_number"`
	Type           string          `json:"type"`
	Balance        decimal.Decimal `json:"balance"`
	OverdraftLimit decimal.Decimal `json:"overdraft_limit"`
	Available      decimal.Decimal `json:"available"`
	Active         bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toAccountResp(a account.Account) AccountResp {
	return AccountResp{
		ID:             a.ID,
		ClientID:       a.ClientID,
		AccountNumber:  a.Number,
		Type:           a.Type,
		Balance:        a.Balance,
		OverdraftLimit: a.OverdraftLimit,
		Available:      a.Balance.Add(a.OverdraftLimit),
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
	}
}

func toAccountResps(accs []account.Account) []AccountResp {
	slice := make([]AccountResp, len(accs))
	for i, a := range accs {
		slice[i] = toAccountResp(a)
	}
	return slice
}

// =============================================================================
// Ledger

type MovementReq struct {
	ClientID    int             `json:"client_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type TransferReq struct {
	ClientID    int             `json:"client_id"`
	Destination string          `json:"destination"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type BalanceResp struct {
	AccountID     int             `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Available     decimal.Decimal `json:"available"`
}

func toBalanceResp(a ledger.Account) BalanceResp {
	return BalanceResp{
		AccountID:     a.ID,
		AccountNumber: a.Number,
		Balance:       a.Balance,
		Available:     a.Available(),
	}
}

// TransferResp reports the source side of the movement. The destination
// balance belongs to the other client and is not exposed.
type TransferResp struct {
	TransferID  uuid.UUID       `json:"transfer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Source      BalanceResp     `json:"source"`
	Destination string          `json:"destination"`
}

func toTransferResp(t ledger.Transfer) TransferResp {
	return TransferResp{
		TransferID:  t.ID,
		Amount:      t.Amount,
		Source:      toBalanceResp(t.Source),
		Destination: t.Destination.Number,
	}
}

// =============================================================================
// Services

type CreateServiceReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImagePath   string          `json:"image_path"`
}

type UpdateServiceReq struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Active      *bool            `json:"is_active"`
	ImagePath   *string          `json:"image_path"`
}

type SubscriptionReq struct {
	ClientID int `json:"client_id"`
}

type ServiceResp struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"is_active"`
	ImagePath   string          `json:"image_path,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toServiceResp(s catalog.Service) ServiceResp {
	return ServiceResp{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		Active:      s.Active,
		ImagePath:   s.ImagePath,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toServiceResps(svcs []catalog.Service) []ServiceResp {
	slice := make([]ServiceResp, len(svcs))
	for i, s := range svcs {
		slice[i] = toServiceResp(s)
	}
	return slice
}

// =============================================================================
// Billing

type BillingItemResp struct {
	ClientID  int             `json:"client_id"`
	ServiceID int             `json:"service_id"`
	Service   string          `json:"service"`
	Amount    decimal.Decimal `json:"amount"`
	Error     string          `json:"error,omitempty"`
}

type BillingResp struct {
	StartedAt time.Time         `json:"started_at"`
	Charged   int               `json:"charged"`
	Failed    int               `json:"failed"`
	Items     []BillingItemResp `json:"items"`
}

func toBillingResp(s catalog.BillingSummary) BillingResp {
	items := make([]BillingItemResp, len(s.Items))
	for i, it := range s.Items {
		items[i] = BillingItemResp{
			ClientID:  it.ClientID,
			ServiceID: it.ServiceID,
			Service:   it.Service,
			Amount:    it.Amount,
		}
		if it.Err != nil {
			items[i].Error = it.Err.Error()
		}
	}

	return BillingResp{
		StartedAt: s.StartedAt,
		Charged:   s.Charged,
		Failed:    s.Failed,
		Items:     items,
	}
}

// =============================================================================
// Reports

type StatsResp struct {
	Available             bool            `json:"available"`
	TotalBalance          decimal.Decimal `json:"total_balance"`
	TotalDeposits         decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals      decimal.Decimal `json:"total_withdrawals"`
	ActiveAccounts        int             `json:"active_accounts_count"`
	MonthlyServiceRevenue decimal.Decimal `json:"total_monthly_service_revenue"`
}

func toStatsResp(s report.Stats) StatsResp {
	return StatsResp{
		Available:             s.Available,
		TotalBalance:          s.TotalBalance,
		TotalDeposits:         s.TotalDeposits,
		TotalWithdrawals:      s.TotalWithdrawals,
		ActiveAccounts:        s.ActiveAccounts,
		MonthlyServiceRevenue: s.MonthlyServiceRevenue,
	}
}

type ReportResp struct {
	Available         bool            `json:"available"`
	Start             time.Time       `json:"start"`
	End               time.Time       `json:"end"`
	TotalTransactions int             `json:"total_transactions"`
	Deposits          decimal.Decimal `json:"deposits"`
	Withdrawals       decimal.Decimal `json:"withdrawals"`
	NetFlow           decimal.Decimal `json:"net_flow"`
	NewAccounts       int             `json:"new_accounts"`
	ServiceRevenue    decimal.Decimal `json:"service_revenue"`
}

func toReportResp(r report.Report) ReportResp {
	return ReportResp{
		Available:         r.Available,
		Start:             r.Start,
		End:               r.End,
		TotalTransactions: r.TotalTransactions,
		Deposits:          r.Deposits,
		Withdrawals:       r.Withdrawals,
		NetFlow:           r.NetFlow,
		NewAccounts:       r.NewAccounts,
		ServiceRevenue:    r.ServiceRevenue,
	}
}

type TransactionResp struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     int             `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	ClientID      int             `json:"client_id"`
	ClientName    string          `json:"client_name"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toTransactionResps(ts []report.TransactionDetail) []TransactionResp {
	slice := make([]TransactionResp, len(ts))
	for i, t := range ts {
		slice[i] = TransactionResp(t)
	}
	return slice
}

type DayStatsResp struct {
	Day          string          `json:"day"`
	Transactions int             `json:"transactions"`
	Deposits     decimal.Decimal `json:"deposits"`
	Withdrawals  decimal.Decimal `json:"withdrawals"`
}

func toDayStatsResps(ds []report.DayStats) []DayStatsResp {
	slice := make([]DayStatsResp, len(ds))
	for i, d := range ds {
		slice[i] = DayStatsResp{
			Day:          d.Day.Format("2006-01-02"),
			Transactions: d.Transactions,
			Deposits:     d.Deposits,
			Withdrawals:  d.Withdrawals,
		}
	}
	return slice
}
