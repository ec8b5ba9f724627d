// Package ledger owns the balance mutation rules: every money movement runs
// inside one storage transaction that locks the affected account rows, checks
// the available balance and records an immutable Transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/web"
)

// Set of errors for ledger API.
var (
	ErrInvalidAmount          = errors.New("ledger: invalid amount")
	ErrInsufficientFunds      = errors.New("ledger: insufficient funds")
	ErrAccountNotFound        = errors.New("ledger: account not found")
	ErrAccountInactive        = errors.New("ledger: account inactive")
	ErrNoCheckingAccount      = errors.New("ledger: no active checking account")
	ErrSameAccount            = errors.New("ledger: source and destination are the same account")
	ErrConcurrentModification = errors.New("ledger: concurrent modification")
)

// Store is used to persist ledger data. Implementations must hand out
// row-locked account reads inside ExecUnderTx so the read-check-write
// sequence cannot race.
type Store interface {
	// ExecUnderTx executes the fn function under a transaction. If fn returns
	// an error the transaction is rolled back and the error is returned.
	ExecUnderTx(ctx context.Context, fn func(tx Store) error) error

	QueryAccountForUpdate(ctx context.Context, accountID int) (Account, error)
	QueryAccountIDByNumber(ctx context.Context, number string) (int, error)
	QueryCheckingAccountID(ctx context.Context, clientID int) (int, error)
	UpdateBalance(ctx context.Context, accountID int, balance decimal.Decimal) error
	InsertTransaction(ctx context.Context, t Transaction) error
}

// Core deals with the ledger business logic.
type Core struct {
	store Store
}

func NewCore(store Store) *Core {
	return &Core{store: store}
}

// Deposit credits amount to the account and records a deposit transaction.
func (c *Core) Deposit(ctx context.Context, accountID, clientID int, amount decimal.Decimal, description string) (Account, error) {
	if err := validateAmount(amount); err != nil {
		return Account{}, err
	}

	var out Account
	fn := func(tx Store) error {
		acc, err := tx.QueryAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if !acc.Active {
			return ErrAccountInactive
		}

		acc.Balance = acc.Balance.Add(amount)
		if err := tx.UpdateBalance(ctx, acc.ID, acc.Balance); err != nil {
			return err
		}

		t := Transaction{
			ID:          uuid.New(),
			AccountID:   acc.ID,
			ClientID:    clientID,
			Type:        TypeDeposit,
			Amount:      amount,
			Description: description,
			CreatedAt:   web.GetTime(ctx).Round(time.Microsecond),
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return fmt.Errorf("failed to record deposit: %w", err)
		}

		out = acc
		return nil
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return Account{}, err
	}
	return out, nil
}

// Withdraw debits amount from the account when the available balance covers
// it, and records a withdrawal transaction. Withdrawing exactly the available
// balance succeeds and leaves the balance at the negated overdraft limit.
func (c *Core) Withdraw(ctx context.Context, accountID, clientID int, amount decimal.Decimal, description string) (Account, error) {
	if err := validateAmount(amount); err != nil {
		return Account{}, err
	}

	var out Account
	fn := func(tx Store) error {
		acc, err := tx.QueryAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if !acc.Active {
			return ErrAccountInactive
		}

		newBalance := acc.Balance.Sub(amount)
		if newBalance.LessThan(acc.OverdraftLimit.Neg()) {
			return ErrInsufficientFunds
		}

		acc.Balance = newBalance
		if err := tx.UpdateBalance(ctx, acc.ID, acc.Balance); err != nil {
			return err
		}

		t := Transaction{
			ID:          uuid.New(),
			AccountID:   acc.ID,
			ClientID:    clientID,
			Type:        TypeWithdrawal,
			Amount:      amount,
			Description: description,
			CreatedAt:   web.GetTime(ctx).Round(time.Microsecond),
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return fmt.Errorf("failed to record withdrawal: %w", err)
		}

		out = acc
		return nil
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return Account{}, err
	}
	return out, nil
}

// Transfer moves amount from the source account to the account identified by
// destNumber. Both balance updates and both transaction rows commit together
// or not at all. The two rows share a transfer id and each leg's description
// names the counterparty account.
func (c *Core) Transfer(ctx context.Context, sourceID, clientID int, destNumber string, amount decimal.Decimal, description string) (Transfer, error) {
	if err := validateAmount(amount); err != nil {
		return Transfer{}, err
	}
	if description == "" {
		description = "Transfer"
	}

	var out Transfer
	fn := func(tx Store) error {
		destID, err := tx.QueryAccountIDByNumber(ctx, destNumber)
		if err != nil {
			return err
		}
		if destID == sourceID {
			return ErrSameAccount
		}

		// Lock both rows in ascending id order so two crossing transfers
		// cannot deadlock.
		firstID, secondID := sourceID, destID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}

		first, err := tx.QueryAccountForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := tx.QueryAccountForUpdate(ctx, secondID)
		if err != nil {
			return err
		}

		src, dst := first, second
		if src.ID != sourceID {
			src, dst = second, first
		}

		if !src.Active || !dst.Active {
			return ErrAccountInactive
		}

		newBalance := src.Balance.Sub(amount)
		if newBalance.LessThan(src.OverdraftLimit.Neg()) {
			return ErrInsufficientFunds
		}

		src.Balance = newBalance
		dst.Balance = dst.Balance.Add(amount)
		if err := tx.UpdateBalance(ctx, src.ID, src.Balance); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, dst.ID, dst.Balance); err != nil {
			return err
		}

		transferID := uuid.New()
		now := web.GetTime(ctx).Round(time.Microsecond)

		debit := Transaction{
			ID:          uuid.New(),
			AccountID:   src.ID,
			ClientID:    clientID,
			Type:        TypeTransfer,
			Amount:      amount,
			Description: fmt.Sprintf("%s to %s", description, dst.Number),
			TransferID:  uuid.NullUUID{UUID: transferID, Valid: true},
			CreatedAt:   now,
		}
		credit := Transaction{
			ID:          uuid.New(),
			AccountID:   dst.ID,
			ClientID:    dst.ClientID,
			Type:        TypeTransfer,
			Amount:      amount,
			Description: fmt.Sprintf("%s from %s", description, src.Number),
			TransferID:  uuid.NullUUID{UUID: transferID, Valid: true},
			CreatedAt:   now,
		}
		if err := tx.InsertTransaction(ctx, debit); err != nil {
			return fmt.Errorf("failed to record transfer debit: %w", err)
		}
		if err := tx.InsertTransaction(ctx, credit); err != nil {
			return fmt.Errorf("failed to record transfer credit: %w", err)
		}

		out = Transfer{
			ID:          transferID,
			Source:      src,
			Destination: dst,
			Amount:      amount,
		}
		return nil
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return Transfer{}, err
	}
	return out, nil
}

// DebitForSubscription charges price to the client's active checking account,
// recording a withdrawal described with the service name.
func (c *Core) DebitForSubscription(ctx context.Context, clientID int, serviceName string, price decimal.Decimal) (Account, error) {
	if err := validateAmount(price); err != nil {
		return Account{}, err
	}

	var accountID int
	fn := func(tx Store) error {
		id, err := tx.QueryCheckingAccountID(ctx, clientID)
		if err != nil {
			return err
		}
		accountID = id
		return nil
	}
	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return Account{}, err
	}

	return c.Withdraw(ctx, accountID, clientID, price, "Subscription: "+serviceName)
}

// validateAmount rejects non-positive amounts and amounts with more than two
// fractional digits. Monetary values are exact decimals, never floats.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.Exponent() < -2 {
		return ErrInvalidAmount
	}
	return nil
}
