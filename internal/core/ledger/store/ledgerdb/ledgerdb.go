// Package ledgerdb implements the ledger store with row-locked reads on top
// of PostgreSQL.
package ledgerdb

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/core/ledger"
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

func (s *Store) ExecUnderTx(ctx context.Context, fn func(tx ledger.Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(NewStore(s.log, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *Store) QueryAccountForUpdate(ctx context.Context, accountID int) (ledger.Account, error) {
	data := struct {
		ID int `db:"id"`
	}{
		ID: accountID,
	}

	const q = `
	SELECT
		id,
		client_id,
		account_number,
		type,
		balance,
		overdraft_limit,
		is_active
	FROM
		accounts
	WHERE
		id = @id
	FOR UPDATE`

	a, err := db.NamedQueryStruct[dbAccount](ctx, s.log, s.db, q, data)
	if err != nil {
		return ledger.Account{}, mapErr(err)
	}

	return toAccount(a), nil
}

func (s *Store) QueryAccountIDByNumber(ctx context.Context, number string) (int, error) {
	data := struct {
		Number string `db:"account_number"`
	}{
		Number: number,
	}

	const q = `
	SELECT
		id
	FROM
		accounts
	WHERE
		account_number = @account_number`

	row, err := db.NamedQueryStruct[dbAccountID](ctx, s.log, s.db, q, data)
	if err != nil {
		return 0, mapErr(err)
	}

	return row.ID, nil
}

func (s *Store) QueryCheckingAccountID(ctx context.Context, clientID int) (int, error) {
	data := struct {
		ClientID int    `db:"client_id"`
		Type     string `db:"type"`
	}{
		ClientID: clientID,
		Type:     ledger.AccountChecking,
	}

	const q = `
	SELECT
		id
	FROM
		accounts
	WHERE
		client_id = @client_id
		AND type = @type
		AND is_active
	ORDER BY
		id
	LIMIT 1`

	row, err := db.NamedQueryStruct[dbAccountID](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return 0, ledger.ErrNoCheckingAccount
		}
		return 0, mapErr(err)
	}

	return row.ID, nil
}

func (s *Store) UpdateBalance(ctx context.Context, accountID int, balance decimal.Decimal) error {
	data := struct {
		ID      int             `db:"id"`
		Balance decimal.Decimal `db:"balance"`
	}{
		ID:      accountID,
		Balance: balance,
	}

	const q = `
	UPDATE accounts SET
		balance = @balance
	WHERE
		id = @id`

	if err := db.NamedExec(ctx, s.log, s.db, q, data); err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *Store) InsertTransaction(ctx context.Context, t ledger.Transaction) error {
	const q = `
	INSERT INTO transactions
		(id, account_id, client_id, type, amount, description, transfer_id, created_at)
	VALUES
		(@id, @account_id, @client_id, @type, @amount, @description, @transfer_id, @created_at)`

	if err := db.NamedExec(ctx, s.log, s.db, q, toDBTransaction(t)); err != nil {
		return mapErr(err)
	}
	return nil
}

// mapErr translates db sentinel errors into ledger ones.
func mapErr(err error) error {
	switch {
	case errors.Is(err, db.ErrDBNotFound):
		return ledger.ErrAccountNotFound
	case errors.Is(err, db.ErrDBConcurrent):
		return ledger.ErrConcurrentModification
	}
	return err
}
