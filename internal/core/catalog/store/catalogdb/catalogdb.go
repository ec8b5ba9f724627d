// Package catalogdb implements the catalog store on top of PostgreSQL.
package catalogdb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vbrandao/bank/internal/core/catalog"
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

func (s *Store) ExecUnderTx(ctx context.Context, fn func(tx catalog.Store) error) error {
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

func (s *Store) InsertService(ctx context.Context, svc catalog.Service) (int, error) {
	const q = `
	INSERT INTO services
		(name, description, price, is_active, image_path, created_at, updated_at)
	VALUES
		(@name, @description, @price, @is_active, NULLIF(@image_path, ''), @created_at, @updated_at)
	RETURNING id`

	row, err := db.NamedQueryStruct[dbID](ctx, s.log, s.db, q, toDBService(svc))
	if err != nil {
		return 0, err
	}

	return row.ID, nil
}

func (s *Store) UpdateService(ctx context.Context, svc catalog.Service) error {
	const q = `
	UPDATE services SET
		name = @name,
		description = @description,
		price = @price,
		is_active = @is_active,
		image_path = NULLIF(@image_path, ''),
		updated_at = @updated_at
	WHERE
		id = @id`

	return db.NamedExec(ctx, s.log, s.db, q, toDBService(svc))
}

func (s *Store) QueryServiceByID(ctx context.Context, serviceID int) (catalog.Service, error) {
	data := struct {
		ID int `db:"id"`
	}{
		ID: serviceID,
	}

	const q = `
	SELECT
		id,
		name,
		description,
		price,
		is_active,
		COALESCE(image_path, '') AS image_path,
		created_at,
		updated_at
	FROM
		services
	WHERE
		id = @id`

	svc, err := db.NamedQueryStruct[dbService](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return catalog.Service{}, catalog.ErrServiceNotFound
		}
		return catalog.Service{}, err
	}

	return toService(svc), nil
}

func (s *Store) QueryServices(ctx context.Context, activeOnly bool) ([]catalog.Service, error) {
	data := struct {
		ActiveOnly bool `db:"active_only"`
	}{
		ActiveOnly: activeOnly,
	}

	const q = `
	SELECT
		id,
		name,
		description,
		price,
		is_active,
		COALESCE(image_path, '') AS image_path,
		created_at,
		updated_at
	FROM
		services
	WHERE
		is_active OR NOT @active_only
	ORDER BY
		name`

	svcs, err := db.NamedQuerySlice[dbService](ctx, s.log, s.db, q, data)
	if err != nil {
		return nil, err
	}

	return toServices(svcs), nil
}

func (s *Store) IsSubscribed(ctx context.Context, clientID, serviceID int) (bool, error) {
	data := struct {
		ClientID  int `db:"client_id"`
		ServiceID int `db:"service_id"`
	}{
		ClientID:  clientID,
		ServiceID: serviceID,
	}

	const q = `
	SELECT
		COUNT(*) AS total
	FROM
		client_services
	WHERE
		client_id = @client_id
		AND service_id = @service_id`

	row, err := db.NamedQueryStruct[dbCount](ctx, s.log, s.db, q, data)
	if err != nil {
		return false, err
	}

	return row.Total > 0, nil
}

func (s *Store) AddSubscription(ctx context.Context, sub catalog.Subscription) error {
	data := struct {
		ClientID     int       `db:"client_id"`
		ServiceID    int       `db:"service_id"`
		SubscribedAt time.Time `db:"subscribed_at"`
	}{
		ClientID:     sub.ClientID,
		ServiceID:    sub.ServiceID,
		SubscribedAt: sub.SubscribedAt,
	}

	const q = `
	INSERT INTO client_services
		(client_id, service_id, subscribed_at)
	VALUES
		(@client_id, @service_id, @subscribed_at)`

	if err := db.NamedExec(ctx, s.log, s.db, q, data); err != nil {
		if errors.Is(err, db.ErrDBDuplicatedEntry) {
			return catalog.ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

func (s *Store) RemoveSubscription(ctx context.Context, clientID, serviceID int) error {
	data := struct {
		ClientID  int `db:"client_id"`
		ServiceID int `db:"service_id"`
	}{
		ClientID:  clientID,
		ServiceID: serviceID,
	}

	const q = `
	DELETE FROM
		client_services
	WHERE
		client_id = @client_id
		AND service_id = @service_id`

	return db.NamedExec(ctx, s.log, s.db, q, data)
}

func (s *Store) QuerySubscriptions(ctx context.Context, clientID int) ([]catalog.Service, error) {
	data := struct {
		ClientID int `db:"client_id"`
	}{
		ClientID: clientID,
	}

	const q = `
	SELECT
		s.id,
		s.name,
		s.description,
		s.price,
		s.is_active,
		COALESCE(s.image_path, '') AS image_path,
		s.created_at,
		s.updated_at
	FROM
		client_services AS cs
		JOIN services AS s ON s.id = cs.service_id
	WHERE
		cs.client_id = @client_id
	ORDER BY
		s.name`

	svcs, err := db.NamedQuerySlice[dbService](ctx, s.log, s.db, q, data)
	if err != nil {
		return nil, err
	}

	return toServices(svcs), nil
}

func (s *Store) QueryActiveSubscriptions(ctx context.Context) ([]catalog.Subscription, error) {
	const q = `
	SELECT
		cs.client_id,
		cs.service_id,
		s.name AS service_name,
		s.price,
		cs.subscribed_at
	FROM
		client_services AS cs
		JOIN services AS s ON s.id = cs.service_id
	WHERE
		s.is_active
		AND s.price > 0
	ORDER BY
		cs.client_id, cs.service_id`

	subs, err := db.NamedQuerySlice[dbSubscription](ctx, s.log, s.db, q, struct{}{})
	if err != nil {
		return nil, err
	}

	return toSubscriptions(subs), nil
}
