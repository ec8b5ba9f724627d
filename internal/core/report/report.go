// Package report computes aggregate financial metrics over the account and
// transaction data. Reporting is advisory: every computation degrades to
// zero values instead of failing, and results carry an Available flag so a
// degraded zero is never mistaken for a true zero.
package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/web"
)

// statsCacheKey and statsCacheTTL control the dashboard stats cache. The
// cache is best-effort: a missing or failing Redis never blocks a report.
const (
	statsCacheKey = "bank:report:stats"
	statsCacheTTL = 30 * time.Second
)

// Store is used to read aggregate data. All methods are read-only.
type Store interface {
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
	SumByType(ctx context.Context, txType string, start, end time.Time) (decimal.Decimal, error)
	CountByRange(ctx context.Context, start, end time.Time) (int, error)
	ActiveAccounts(ctx context.Context) (int, error)
	AccountsCreated(ctx context.Context, start, end time.Time) (int, error)
	ServiceRevenue(ctx context.Context) (decimal.Decimal, error)
	RecentTransactions(ctx context.Context, limit int) ([]TransactionDetail, error)
	DailyStats(ctx context.Context, since time.Time) ([]DayStats, error)
}

// Core deals with reporting business logic.
type Core struct {
	log   *slog.Logger
	store Store
	cache *redis.Client
}

// NewCore constructs the reporting core. cache may be nil to disable the
// stats cache.
func NewCore(log *slog.Logger, store Store, cache *redis.Client) *Core {
	return &Core{
		log:   log,
		store: store,
		cache: cache,
	}
}

// allTime bounds queries that are not range-limited. Postgres timestamps
// accept year 9999.
var (
	allTimeStart = time.Time{}
	allTimeEnd   = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// FinancialStats returns the point-in-time dashboard numbers. On storage
// failure it returns zeros with Available unset.
func (c *Core) FinancialStats(ctx context.Context) Stats {
	if s, ok := c.cachedStats(ctx); ok {
		return s
	}

	s := Stats{Available: true}
	var err error

	if s.TotalBalance, err = c.store.TotalBalance(ctx); err != nil {
		return c.degradeStats(ctx, err)
	}
	if s.TotalDeposits, err = c.store.SumByType(ctx, "deposit", allTimeStart, allTimeEnd); err != nil {
		return c.degradeStats(ctx, err)
	}
	if s.TotalWithdrawals, err = c.store.SumByType(ctx, "withdrawal", allTimeStart, allTimeEnd); err != nil {
		return c.degradeStats(ctx, err)
	}
	if s.ActiveAccounts, err = c.store.ActiveAccounts(ctx); err != nil {
		return c.degradeStats(ctx, err)
	}
	if s.MonthlyServiceRevenue, err = c.store.ServiceRevenue(ctx); err != nil {
		return c.degradeStats(ctx, err)
	}

	c.storeCachedStats(ctx, s)
	return s
}

// TotalDeposits sums the deposit amounts in [start, end]. Zero times widen
// the bound to all time.
func (c *Core) TotalDeposits(ctx context.Context, start, end time.Time) (decimal.Decimal, bool) {
	return c.sumByType(ctx, "deposit", start, end)
}

// TotalWithdrawals sums the withdrawal amounts in [start, end]. Zero times
// widen the bound to all time.
func (c *Core) TotalWithdrawals(ctx context.Context, start, end time.Time) (decimal.Decimal, bool) {
	return c.sumByType(ctx, "withdrawal", start, end)
}

func (c *Core) sumByType(ctx context.Context, txType string, start, end time.Time) (decimal.Decimal, bool) {
	if start.IsZero() {
		start = allTimeStart
	}
	if end.IsZero() {
		end = allTimeEnd
	} else {
		end = normalizeEnd(end)
	}

	total, err := c.store.SumByType(ctx, txType, start, end)
	if err != nil {
		c.log.Error("report: sum by type degraded to zero", "type", txType, "ERROR", err)
		return decimal.Zero, false
	}
	return total, true
}

// DetailedReport aggregates the period [start, end]. An end date with no
// clock time covers the whole day.
func (c *Core) DetailedReport(ctx context.Context, start, end time.Time) Report {
	end = normalizeEnd(end)

	r := Report{
		Available: true,
		Start:     start,
		End:       end,
	}
	var err error

	if r.TotalTransactions, err = c.store.CountByRange(ctx, start, end); err != nil {
		return c.degradeReport(ctx, start, end, err)
	}
	if r.Deposits, err = c.store.SumByType(ctx, "deposit", start, end); err != nil {
		return c.degradeReport(ctx, start, end, err)
	}
	if r.Withdrawals, err = c.store.SumByType(ctx, "withdrawal", start, end); err != nil {
		return c.degradeReport(ctx, start, end, err)
	}
	if r.NewAccounts, err = c.store.AccountsCreated(ctx, start, end); err != nil {
		return c.degradeReport(ctx, start, end, err)
	}
	if r.ServiceRevenue, err = c.store.ServiceRevenue(ctx); err != nil {
		return c.degradeReport(ctx, start, end, err)
	}

	r.NetFlow = r.Deposits.Sub(r.Withdrawals)
	return r
}

// RecentTransactions returns the limit most recent transactions, newest
// first, with account and client context for display.
func (c *Core) RecentTransactions(ctx context.Context, limit int) []TransactionDetail {
	if limit <= 0 {
		limit = 10
	}

	ts, err := c.store.RecentTransactions(ctx, limit)
	if err != nil {
		c.log.Error("report: recent transactions degraded to empty", "ERROR", err)
		return []TransactionDetail{}
	}
	return ts
}

// DailyStats returns per-day transaction aggregates for the last days days,
// newest first.
func (c *Core) DailyStats(ctx context.Context, days int) []DayStats {
	if days <= 0 {
		days = 30
	}

	since := web.GetTime(ctx).AddDate(0, 0, -days)
	ds, err := c.store.DailyStats(ctx, since)
	if err != nil {
		c.log.Error("report: daily stats degraded to empty", "ERROR", err)
		return []DayStats{}
	}
	return ds
}

func (c *Core) degradeStats(ctx context.Context, err error) Stats {
	c.log.ErrorContext(ctx, "report: stats degraded to zeros", "ERROR", err)
	return Stats{}
}

func (c *Core) degradeReport(ctx context.Context, start, end time.Time, err error) Report {
	c.log.ErrorContext(ctx, "report: detailed report degraded to zeros", "ERROR", err)
	return Report{Start: start, End: end}
}

func (c *Core) cachedStats(ctx context.Context) (Stats, bool) {
	if c.cache == nil {
		return Stats{}, false
	}

	bs, err := c.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return Stats{}, false
	}

	var s Stats
	if err := json.Unmarshal(bs, &s); err != nil {
		return Stats{}, false
	}
	return s, true
}

func (c *Core) storeCachedStats(ctx context.Context, s Stats) {
	if c.cache == nil {
		return
	}

	bs, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, statsCacheKey, bs, statsCacheTTL).Err(); err != nil {
		c.log.InfoContext(ctx, "report: stats cache write failed", "ERROR", err)
	}
}

// normalizeEnd treats a bare calendar date as end-of-day so a report range
// includes the whole final day.
func normalizeEnd(end time.Time) time.Time {
	h, m, s := end.Clock()
	if h == 0 && m == 0 && s == 0 {
		return end.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return end
}
