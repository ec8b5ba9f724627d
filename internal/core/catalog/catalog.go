// Package catalog owns the banking services a client can subscribe to and
// the subscription billing that debits them through the ledger.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/vbrandao/bank/internal/core/ledger"
	"github.com/vbrandao/bank/internal/web"
)

// Set of errors for catalog API.
var (
	ErrServiceNotFound   = errors.New("catalog: service not found")
	ErrServiceInactive   = errors.New("catalog: service not available")
	ErrAlreadySubscribed = errors.New("catalog: already subscribed")
	ErrNotSubscribed     = errors.New("catalog: not subscribed")
	ErrInvalidService    = errors.New("catalog: invalid service")
	ErrSweepRunning      = errors.New("catalog: billing sweep already running")
)

// Store is used to persist catalog data.
type Store interface {
	// ExecUnderTx executes the fn function under a transaction. If fn returns
	// an error the transaction is rolled back and the error is returned.
	ExecUnderTx(ctx context.Context, fn func(tx Store) error) error

	InsertService(ctx context.Context, s Service) (int, error)
	UpdateService(ctx context.Context, s Service) error
	QueryServiceByID(ctx context.Context, serviceID int) (Service, error)
	QueryServices(ctx context.Context, activeOnly bool) ([]Service, error)
	IsSubscribed(ctx context.Context, clientID, serviceID int) (bool, error)
	AddSubscription(ctx context.Context, sub Subscription) error
	RemoveSubscription(ctx context.Context, clientID, serviceID int) error
	QuerySubscriptions(ctx context.Context, clientID int) ([]Service, error)
	QueryActiveSubscriptions(ctx context.Context) ([]Subscription, error)
}

// Core deals with catalog business logic. The ledger core performs the
// subscription debits; the optional locker serializes billing sweeps across
// service instances.
type Core struct {
	store  Store
	ledger *ledger.Core
	locker *redsync.Redsync
}

func NewCore(store Store, lgr *ledger.Core, locker *redsync.Redsync) *Core {
	return &Core{
		store:  store,
		ledger: lgr,
		locker: locker,
	}
}

// CreateService registers a new service in the catalog.
func (c *Core) CreateService(ctx context.Context, ns NewService) (Service, error) {
	if err := ns.validate(); err != nil {
		return Service{}, err
	}

	now := web.GetTime(ctx).Round(time.Microsecond)
	s := Service{
		Name:        ns.Name,
		Description: ns.Description,
		Price:       ns.Price,
		Active:      true,
		ImagePath:   ns.ImagePath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := c.store.InsertService(ctx, s)
	if err != nil {
		return Service{}, err
	}
	s.ID = id

	return s, nil
}

// UpdateService replaces the mutable fields of a service.
func (c *Core) UpdateService(ctx context.Context, serviceID int, us UpdateService) (Service, error) {
	var out Service
	fn := func(tx Store) error {
		s, err := tx.QueryServiceByID(ctx, serviceID)
		if err != nil {
			return err
		}

		if us.Name != nil {
			s.Name = *us.Name
		}
		if us.Description != nil {
			s.Description = *us.Description
		}
		if us.Price != nil {
			s.Price = *us.Price
		}
		if us.Active != nil {
			s.Active = *us.Active
		}
		if us.ImagePath != nil {
			s.ImagePath = *us.ImagePath
		}
		s.UpdatedAt = web.GetTime(ctx).Round(time.Microsecond)

		if s.Name == "" || s.Price.IsNegative() || s.Price.Exponent() < -2 {
			return ErrInvalidService
		}

		if err := tx.UpdateService(ctx, s); err != nil {
			return err
		}

		out = s
		return nil
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return Service{}, err
	}
	return out, nil
}

// QueryServiceByID returns the service with the given id.
func (c *Core) QueryServiceByID(ctx context.Context, serviceID int) (Service, error) {
	return c.store.QueryServiceByID(ctx, serviceID)
}

// QueryServices lists services, optionally only the active ones.
func (c *Core) QueryServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	return c.store.QueryServices(ctx, activeOnly)
}

// QuerySubscriptions lists the services a client is subscribed to.
func (c *Core) QuerySubscriptions(ctx context.Context, clientID int) ([]Service, error) {
	return c.store.QuerySubscriptions(ctx, clientID)
}

// Subscribe signs the client up to the service. Paid services are debited
// from the client's checking account before the subscription is recorded; a
// failure to record after a successful debit is compensated with a refund.
func (c *Core) Subscribe(ctx context.Context, clientID, serviceID int) error {
	s, err := c.store.QueryServiceByID(ctx, serviceID)
	if err != nil {
		return err
	}
	if !s.Active {
		return ErrServiceInactive
	}

	subscribed, err := c.store.IsSubscribed(ctx, clientID, serviceID)
	if err != nil {
		return err
	}
	if subscribed {
		return ErrAlreadySubscribed
	}

	var debited ledger.Account
	paid := s.Price.IsPositive()
	if paid {
		debited, err = c.ledger.DebitForSubscription(ctx, clientID, s.Name, s.Price)
		if err != nil {
			return err
		}
	}

	sub := Subscription{
		ClientID:     clientID,
		ServiceID:    serviceID,
		SubscribedAt: web.GetTime(ctx).Round(time.Microsecond),
	}
	fn := func(tx Store) error {
		subscribed, err := tx.IsSubscribed(ctx, clientID, serviceID)
		if err != nil {
			return err
		}
		if subscribed {
			return ErrAlreadySubscribed
		}
		return tx.AddSubscription(ctx, sub)
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		if paid {
			if _, rerr := c.ledger.Deposit(ctx, debited.ID, clientID, s.Price, "Subscription refund: "+s.Name); rerr != nil {
				return fmt.Errorf("recording subscription: %w (refund also failed: %v)", err, rerr)
			}
		}
		return err
	}

	return nil
}

// Unsubscribe removes the client's subscription. No refund is issued; the
// monthly price covers the running month.
func (c *Core) Unsubscribe(ctx context.Context, clientID, serviceID int) error {
	if _, err := c.store.QueryServiceByID(ctx, serviceID); err != nil {
		return err
	}

	fn := func(tx Store) error {
		subscribed, err := tx.IsSubscribed(ctx, clientID, serviceID)
		if err != nil {
			return err
		}
		if !subscribed {
			return ErrNotSubscribed
		}
		return tx.RemoveSubscription(ctx, clientID, serviceID)
	}

	return c.store.ExecUnderTx(ctx, fn)
}

// RunBillingSweep debits every active subscription of an active service once.
// Per-subscription failures (typically insufficient funds) are reported in
// the summary, not fatal. When a locker is configured only one instance may
// sweep at a time.
func (c *Core) RunBillingSweep(ctx context.Context) (BillingSummary, error) {
	if c.locker != nil {
		mutex := c.locker.NewMutex("billing-sweep", redsync.WithExpiry(5*time.Minute))
		if err := mutex.LockContext(ctx); err != nil {
			return BillingSummary{}, ErrSweepRunning
		}
		defer mutex.UnlockContext(ctx)
	}

	subs, err := c.store.QueryActiveSubscriptions(ctx)
	if err != nil {
		return BillingSummary{}, fmt.Errorf("listing subscriptions: %w", err)
	}

	summary := BillingSummary{StartedAt: web.GetTime(ctx)}
	for _, sub := range subs {
		item := BillingItem{
			ClientID:  sub.ClientID,
			ServiceID: sub.ServiceID,
			Service:   sub.ServiceName,
			Amount:    sub.Price,
		}

		if _, err := c.ledger.DebitForSubscription(ctx, sub.ClientID, sub.ServiceName, sub.Price); err != nil {
			item.Err = err
			summary.Failed++
		} else {
			summary.Charged++
		}
		summary.Items = append(summary.Items, item)
	}

	return summary, nil
}

func (ns NewService) validate() error {
	switch {
	case ns.Name == "":
		return ErrInvalidService
	case ns.Price.IsNegative() || ns.Price.Exponent() < -2:
		return ErrInvalidService
	}

	return nil
}
