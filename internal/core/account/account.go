// Package account owns the administrative account lifecycle: creation with a
// generated account number, activation state and the guarded delete. Balance
// movements belong to the ledger core.
package account

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/web"
)

// Set of errors for account API.
var (
	ErrNotFound          = errors.New("account: not found")
	ErrInvalidType       = errors.New("account: invalid account type")
	ErrInvalidOverdraft  = errors.New("account: invalid overdraft limit")
	ErrAccountNotEmpty   = errors.New("account: balance must be zero to delete")
	ErrAccountHasHistory = errors.New("account: transactions recorded, cannot delete")
)

// Store is used to persist account data.
type Store interface {
	// ExecUnderTx executes the fn function under a transaction. If fn returns
	// an error the transaction is rolled back and the error is returned.
	ExecUnderTx(ctx context.Context, fn func(tx Store) error) error

	Insert(ctx context.Context, a Account) (int, error)
	QueryByID(ctx context.Context, accountID int) (Account, error)
	QueryByIDForUpdate(ctx context.Context, accountID int) (Account, error)
	QueryByClient(ctx context.Context, clientID int) ([]Account, error)
	UpdateActive(ctx context.Context, accountID int, active bool) error
	Delete(ctx context.Context, accountID int) error
	CountTransactions(ctx context.Context, accountID int) (int, error)
}

// Core deals with account business logic.
type Core struct {
	store Store
}

func NewCore(store Store) *Core {
	return &Core{store: store}
}

// Create opens a new account for a client. The account number is generated
// and creation is retried when the generated number collides with an
// existing one.
func (c *Core) Create(ctx context.Context, na NewAccount) (Account, error) {
	if err := na.validate(); err != nil {
		return Account{}, err
	}

	a := Account{
		ClientID:       na.ClientID,
		Type:           na.Type,
		Balance:        decimal.Zero,
		OverdraftLimit: na.OverdraftLimit,
		Active:         true,
		CreatedAt:      web.GetTime(ctx).Round(time.Microsecond),
	}

	const maxAttempts = 3
	var lastErr error
	for range maxAttempts {
		a.Number = generateNumber()
		id, err := c.store.Insert(ctx, a)
		if err == nil {
			a.ID = id
			return a, nil
		}
		if !errors.Is(err, ErrNumberTaken) {
			return Account{}, err
		}
		lastErr = err
	}

	return Account{}, fmt.Errorf("generating unique account number: %w", lastErr)
}

// QueryByID returns the account with the given id.
func (c *Core) QueryByID(ctx context.Context, accountID int) (Account, error) {
	return c.store.QueryByID(ctx, accountID)
}

// QueryByClient returns all accounts owned by the client.
func (c *Core) QueryByClient(ctx context.Context, clientID int) ([]Account, error) {
	return c.store.QueryByClient(ctx, clientID)
}

// SetActive flips the account's active flag. Inactive accounts reject ledger
// operations but keep their history.
func (c *Core) SetActive(ctx context.Context, accountID int, active bool) error {
	fn := func(tx Store) error {
		if _, err := tx.QueryByIDForUpdate(ctx, accountID); err != nil {
			return err
		}
		return tx.UpdateActive(ctx, accountID, active)
	}
	return c.store.ExecUnderTx(ctx, fn)
}

// Delete removes an account. It refuses when the balance is not zero or when
// any transaction references the account, so ledger history stays intact.
func (c *Core) Delete(ctx context.Context, accountID int) error {
	fn := func(tx Store) error {
		a, err := tx.QueryByIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if !a.Balance.IsZero() {
			return ErrAccountNotEmpty
		}

		n, err := tx.CountTransactions(ctx, accountID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrAccountHasHistory
		}

		return tx.Delete(ctx, accountID)
	}
	return c.store.ExecUnderTx(ctx, fn)
}

func (na NewAccount) validate() error {
	switch na.Type {
	case TypeChecking, TypeSavings, TypeBusiness:
	default:
		return ErrInvalidType
	}

	if na.OverdraftLimit.IsNegative() || na.OverdraftLimit.Exponent() < -2 {
		return ErrInvalidOverdraft
	}

	return nil
}

// generateNumber produces a bank-format account number: the FR76 prefix
// followed by fourteen digits.
func generateNumber() string {
	return fmt.Sprintf("FR76%04d%04d%04d%02d",
		rand.IntN(9000)+1000,
		rand.IntN(9000)+1000,
		rand.IntN(9000)+1000,
		rand.IntN(90)+10,
	)
}
