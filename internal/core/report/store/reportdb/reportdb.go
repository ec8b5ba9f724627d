// Package reportdb implements the read-only reporting queries on top of
// PostgreSQL.
package reportdb

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/core/report"
	db "github.com/vbrandao/bank/internal/data/dbsql/pgx"
)

type Store struct {
	log *slog.Logger
	db  db.DB
}

func NewStore(log *slog.Logger, database db.DB) *Store {
	return &Store{
		log: log,
		db:  database,
	}
}

func (s *Store) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	const q = `
	SELECT
		COALESCE(SUM(balance), 0) AS total
	FROM
		accounts
	WHERE
		is_active`

	row, err := db.NamedQueryStruct[dbTotal](ctx, s.log, s.db, q, struct{}{})
	if err != nil {
		return decimal.Zero, err
	}

	return row.Total, nil
}

func (s *Store) SumByType(ctx context.Context, txType string, start, end time.Time) (decimal.Decimal, error) {
	data := struct {
		Type  string    `db:"type"`
		Start time.Time `db:"start"`
		End   time.Time `db:"end"`
	}{
		Type:  txType,
		Start: start,
		End:   end,
	}

	const q = `
	SELECT
		COALESCE(SUM(amount), 0) AS total
	FROM
		transactions
	WHERE
		type = @type
		AND created_at BETWEEN @start AND @end`

	row, err := db.NamedQueryStruct[dbTotal](ctx, s.log, s.db, q, data)
	if err != nil {
		return decimal.Zero, err
	}

	return row.Total, nil
}

func (s *Store) CountByRange(ctx context.Context, start, end time.Time) (int, error) {
	data := struct {
		Start time.Time `db:"start"`
		End   time.Time `db:"end"`
	}{
		Start: start,
		End:   end,
	}

	const q = `
	SELECT
		COUNT(id) AS total
	FROM
		transactions
	WHERE
		created_at BETWEEN @start AND @end`

	row, err := db.NamedQueryStruct[dbCount](ctx, s.log, s.db, q, data)
	if err != nil {
		return 0, err
	}

	return row.Total, nil
}

func (s *Store) ActiveAccounts(ctx context.Context) (int, error) {
	const q = `
	SELECT
		COUNT(id) AS total
	FROM
		accounts
	WHERE
		is_active`

	row, err := db.NamedQueryStruct[dbCount](ctx, s.log, s.db, q, struct{}{})
	if err != nil {
		return 0, err
	}

	return row.Total, nil
}

func (s *Store) AccountsCreated(ctx context.Context, start, end time.Time) (int, error) {
	data := struct {
		Start time.Time `db:"start"`
		End   time.Time `db:"end"`
	}{
		Start: start,
		End:   end,
	}

	const q = `
	SELECT
		COUNT(id) AS total
	FROM
		accounts
	WHERE
		created_at BETWEEN @start AND @end`

	row, err := db.NamedQueryStruct[dbCount](ctx, s.log, s.db, q, data)
	if err != nil {
		return 0, err
	}

	return row.Total, nil
}

func (s *Store) ServiceRevenue(ctx context.Context) (decimal.Decimal, error) {
	const q = `
	SELECT
		COALESCE(SUM(price), 0) AS total
	FROM
		services
	WHERE
		is_active`

	row, err := db.NamedQueryStruct[dbTotal](ctx, s.log, s.db, q, struct{}{})
	if err != nil {
		return decimal.Zero, err
	}

	return row.Total, nil
}

func (s *Store) RecentTransactions(ctx context.Context, limit int) ([]report.TransactionDetail, error) {
	data := struct {
		Limit int `db:"limit"`
	}{
		Limit: limit,
	}

	const q = `
	SELECT
		t.id,
		t.account_id,
		a.account_number,
		t.client_id,
		c.first_name || ' ' || c.last_name AS client_name,
		t.type,
		t.amount,
		t.description,
		t.created_at
	FROM
		transactions AS t
		JOIN accounts AS a ON a.id = t.account_id
		JOIN clients AS c ON c.id = t.client_id
	ORDER BY
		t.created_at DESC
	LIMIT @limit`

	ts, err := db.NamedQuerySlice[dbTransactionDetail](ctx, s.log, s.db, q, data)
	if err != nil {
		return nil, err
	}

	return toTransactionDetails(ts), nil
}

func (s *Store) DailyStats(ctx context.Context, since time.Time) ([]report.DayStats, error) {
	data := struct {
		Since time.Time `db:"since"`
	}{
		Since: since,
	}

	const q = `
	SELECT
		created_at::date AS day,
		COUNT(id) AS transactions,
		COALESCE(SUM(CASE WHEN type = 'deposit' THEN amount ELSE 0 END), 0) AS deposits,
		COALESCE(SUM(CASE WHEN type = 'withdrawal' THEN amount ELSE 0 END), 0) AS withdrawals
	FROM
		transactions
	WHERE
		created_at >= @since
	GROUP BY
		created_at::date
	ORDER BY
		day DESC`

	ds, err := db.NamedQuerySlice[dbDayStats](ctx, s.log, s.db, q, data)
	if err != nil {
		return nil, err
	}

	return toDayStats(ds), nil
}
