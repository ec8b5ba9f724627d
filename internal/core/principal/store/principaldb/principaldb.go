// Package principaldb implements the principal store on top of PostgreSQL.
package principaldb

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vbrandao/bank/internal/core/principal"
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

func (s *Store) Insert(ctx context.Context, p principal.Principal) (int, error) {
	const q = `
	INSERT INTO clients
		(kind, email, password_hash, first_name, last_name, department, verified, created_at)
	VALUES
		(@kind, @email, @password_hash, @first_name, @last_name, NULLIF(@department, ''), @verified, @created_at)
	RETURNING id`

	row, err := db.NamedQueryStruct[dbID](ctx, s.log, s.db, q, toDBPrincipal(p))
	if err != nil {
		if errors.Is(err, db.ErrDBDuplicatedEntry) {
			return 0, principal.ErrEmailTaken
		}
		return 0, err
	}

	return row.ID, nil
}

func (s *Store) QueryByID(ctx context.Context, principalID int) (principal.Principal, error) {
	data := struct {
		ID int `db:"id"`
	}{
		ID: principalID,
	}

	const q = `
	SELECT
		id,
		kind,
		email,
		password_hash,
		first_name,
		last_name,
		COALESCE(department, '') AS department,
		verified,
		created_at
	FROM
		clients
	WHERE
		id = @id`

	p, err := db.NamedQueryStruct[dbPrincipal](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return principal.Principal{}, principal.ErrNotFound
		}
		return principal.Principal{}, err
	}

	return toPrincipal(p), nil
}

func (s *Store) QueryByEmail(ctx context.Context, email string) (principal.Principal, error) {
	data := struct {
		Email string `db:"email"`
	}{
		Email: email,
	}

	const q = `
	SELECT
		id,
		kind,
		email,
		password_hash,
		first_name,
		last_name,
		COALESCE(department, '') AS department,
		verified,
		created_at
	FROM
		clients
	WHERE
		email = @email`

	p, err := db.NamedQueryStruct[dbPrincipal](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return principal.Principal{}, principal.ErrNotFound
		}
		return principal.Principal{}, err
	}

	return toPrincipal(p), nil
}
