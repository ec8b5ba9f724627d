// Package accountdb implements the account store on top of PostgreSQL.
package accountdb

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vbrandao/bank/internal/core/account"
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

func (s *Store) ExecUnderTx(ctx context.Context, fn func(tx account.Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(NewStore(s.log, tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) Insert(ctx context.Context, a account.Account) (int, error) {
	const q = `
	INSERT INTO accounts
		(client_id, account_number, type, balance, overdraft_limit, is_active, created_at)
	VALUES
		(@client_id, @account_number, @type, @balance, @overdraft_limit, @is_active, @created_at)
	RETURNING id`

	row, err := db.NamedQueryStruct[dbAccountID](ctx, s.log, s.db, q, toDBAccount(a))
	if err != nil {
		if errors.Is(err, db.ErrDBDuplicatedEntry) {
			return 0, account.ErrNumberTaken
		}
		return 0, err
	}

	return row.ID, nil
}

func (s *Store) QueryByID(ctx context.Context, accountID int) (account.Account, error) {
	return s.queryByID(ctx, accountID, false)
}

func (s *Store) QueryByIDForUpdate(ctx context.Context, accountID int) (account.Account, error) {
	return s.queryByID(ctx, accountID, true)
}

func (s *Store) queryByID(ctx context.Context, accountID int, forUpdate bool) (account.Account, error) {
	data := struct {
		ID int `db:"id"`
	}{
		ID: accountID,
	}

	q := `
	SELECT
		id,
		client_id,
		account_number,
		type,
		balance,
		overdraft_limit,
		is_active,
		created_at
	FROM
		accounts
	WHERE
		id = @id`
	if forUpdate {
		q += `
	FOR UPDATE`
	}

	a, err := db.NamedQueryStruct[dbAccount](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, err
	}

	return toAccount(a), nil
}

func (s *Store) QueryByClient(ctx context.Context, clientID int) ([]account.Account, error) {
	data := struct {
		ClientID int `db:"client_id"`
	}{
		ClientID: clientID,
	}

	const q = `
	SELECT
		id,
		client_id,
		account_number,
		type,
		balance,
		overdraft_limit,
		is_active,
		created_at
	FROM
		accounts
	WHERE
		client_id = @client_id
	ORDER BY
		id`

	as, err := db.NamedQuerySlice[dbAccount](ctx, s.log, s.db, q, data)
	if err != nil {
		return nil, err
	}

	return toAccounts(as), nil
}

func (s *Store) UpdateActive(ctx context.Context, accountID int, active bool) error {
	data := struct {
		ID     int  `db:"id"`
		Active bool `db:"is_active"`
	}{
		ID:     accountID,
		Active: active,
	}

	const q = `
	UPDATE accounts SET
		is_active = @is_active
	WHERE
		id = @id`

	return db.NamedExec(ctx, s.log, s.db, q, data)
}

func (s *Store) Delete(ctx context.Context, accountID int) error {
	data := struct {
		ID int `db:"id"`
	}{
		ID: accountID,
	}

	const q = `
	DELETE FROM
		accounts
	WHERE
		id = @id`

	return db.NamedExec(ctx, s.log, s.db, q, data)
}

func (s *Store) CountTransactions(ctx context.Context, accountID int) (int, error) {
	data := struct {
		AccountID int `db:"account_id"`
	}{
		AccountID: accountID,
	}

	const q = `
	SELECT
		COUNT(id) AS total
	FROM
		transactions
	WHERE
		account_id = @account_id`

	row, err := db.NamedQueryStruct[dbCount](ctx, s.log, s.db, q, data)
	if err != nil {
		return 0, err
	}

	return row.Total, nil
}
