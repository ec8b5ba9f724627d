package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/core/ledger"
	"github.com/vbrandao/bank/internal/core/ledger/store/ledgerdb"
	"github.com/vbrandao/bank/internal/data/dbtest"
)

func TestDepositWithdrawRoundTrip(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := ledger.NewCore(ledgerdb.NewStore(log, database))

	accountID, clientID := 1, 2
	amount := decimal.RequireFromString("25.50")

	acc, err := core.Deposit(ctx, accountID, clientID, amount, "paycheck")
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if want := decimal.RequireFromString("125.50"); !acc.Balance.Equal(want) {
		t.Fatalf("after deposit got balance %s want %s", acc.Balance, want)
	}

	acc, err = core.Withdraw(ctx, accountID, clientID, amount, "groceries")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if want := decimal.RequireFromString("100.00"); !acc.Balance.Equal(want) {
		t.Fatalf("after withdraw got balance %s want %s", acc.Balance, want)
	}
}

func TestWithdrawOverdraftBoundary(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := ledger.NewCore(ledgerdb.NewStore(log, database))

	// Account 3 holds 250.00 with a 100.00 overdraft limit.
	accountID, clientID := 3, 3

	over := decimal.RequireFromString("350.01")
	if _, err := core.Withdraw(ctx, accountID, clientID, over, ""); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("withdrawing over the available balance: got %v want %v", err, ledger.ErrInsufficientFunds)
	}

	exact := decimal.RequireFromString("350.00")
	acc, err := core.Withdraw(ctx, accountID, clientID, exact, "")
	if err != nil {
		t.Fatalf("withdrawing the exact available balance: %v", err)
	}
	if want := decimal.RequireFromString("-100.00"); !acc.Balance.Equal(want) {
		t.Fatalf("got balance %s want %s", acc.Balance, want)
	}

	one := decimal.RequireFromString("0.01")
	if _, err := core.Withdraw(ctx, accountID, clientID, one, ""); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("withdrawing at the floor: got %v want %v", err, ledger.ErrInsufficientFunds)
	}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := ledger.NewCore(ledgerdb.NewStore(log, database))

	sourceID, clientID := 1, 2
	destNumber := "FR7610042004200420042003"
	amount := decimal.RequireFromString("40.00")

	tr, err := core.Transfer(ctx, sourceID, clientID, destNumber, amount, "rent")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if want := decimal.RequireFromString("60.00"); !tr.Source.Balance.Equal(want) {
		t.Fatalf("got source balance %s want %s", tr.Source.Balance, want)
	}
	if want := decimal.RequireFromString("290.00"); !tr.Destination.Balance.Equal(want) {
		t.Fatalf("got destination balance %s want %s", tr.Destination.Balance, want)
	}

	// Both legs are recorded, correlated by the transfer id.
	var legs int
	q := "SELECT COUNT(*) FROM transactions WHERE transfer_id = $1"
	if err := database.QueryRow(ctx, q, tr.ID).Scan(&legs); err != nil {
		t.Fatalf("counting legs: %v", err)
	}
	if legs != 2 {
		t.Fatalf("got %d transfer legs want 2", legs)
	}

	var descs []string
	q = "SELECT description FROM transactions WHERE transfer_id = $1 ORDER BY account_id"
	rows, err := database.Query(ctx, q, tr.ID)
	if err != nil {
		t.Fatalf("querying legs: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			t.Fatalf("scanning leg: %v", err)
		}
		descs = append(descs, d)
	}

	want := []string{
		"rent to FR7610042004200420042003",
		"rent from FR7610042004200420042001",
	}
	if diff := cmp.Diff(want, descs); diff != "" {
		t.Fatalf("got different leg descriptions: %s", diff)
	}
}

func TestTransferToSameAccount(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := ledger.NewCore(ledgerdb.NewStore(log, database))

	amount := decimal.RequireFromString("10.00")
	_, err := core.Transfer(ctx, 1, 2, "FR7610042004200420042001", amount, "")
	if !errors.Is(err, ledger.ErrSameAccount) {
		t.Fatalf("got %v want %v", err, ledger.ErrSameAccount)
	}
}

func TestInactiveAccount(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := ledger.NewCore(ledgerdb.NewStore(log, database))

	// Account 4 is seeded inactive.
	amount := decimal.RequireFromString("10.00")
	if _, err := core.Deposit(ctx, 4, 3, amount, ""); !errors.Is(err, ledger.ErrAccountInactive) {
		t.Fatalf("deposit: got %v want %v", err, ledger.ErrAccountInactive)
	}
	if _, err := core.Transfer(ctx, 1, 2, "FR7610042004200420042004", amount, ""); !errors.Is(err, ledger.ErrAccountInactive) {
		t.Fatalf("transfer: got %v want %v", err, ledger.ErrAccountInactive)
	}
}

func TestDebitForSubscription(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := ledger.NewCore(ledgerdb.NewStore(log, database))

	price := decimal.RequireFromString("9.90")
	acc, err := core.DebitForSubscription(ctx, 2, "Premium Card", price)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if acc.ID != 1 {
		t.Fatalf("got account %d want the checking account 1", acc.ID)
	}
	if want := decimal.RequireFromString("90.10"); !acc.Balance.Equal(want) {
		t.Fatalf("got balance %s want %s", acc.Balance, want)
	}

	// Client 1 has no accounts at all.
	if _, err := core.DebitForSubscription(ctx, 1, "Premium Card", price); !errors.Is(err, ledger.ErrNoCheckingAccount) {
		t.Fatalf("got %v want %v", err, ledger.ErrNoCheckingAccount)
	}
}

func TestInvalidAmounts(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"zero", "0"},
		{"negative", "-10.00"},
		{"sub cent", "0.001"},
		{"three decimals", "10.555"},
	}

	ctx := context.Background()
	core := ledger.NewCore(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			if _, err := core.Deposit(ctx, 1, 2, amount, ""); !errors.Is(err, ledger.ErrInvalidAmount) {
				t.Fatalf("deposit: got %v want %v", err, ledger.ErrInvalidAmount)
			}
			if _, err := core.Withdraw(ctx, 1, 2, amount, ""); !errors.Is(err, ledger.ErrInvalidAmount) {
				t.Fatalf("withdraw: got %v want %v", err, ledger.ErrInvalidAmount)
			}
		})
	}
}

func TestConcurrentWithdrawals(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := ledger.NewCore(ledgerdb.NewStore(log, database))

	// Account 1 holds 100.00 with no overdraft. Any one 60.00 withdrawal
	// leaves 40.00, so out of all the concurrent withdrawals exactly one can
	// succeed.
	const workers = 120
	amount := decimal.RequireFromString("60.00")

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := core.Withdraw(ctx, 1, 2, amount, "race")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ledger.ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Fatalf("got %d successful withdrawals want 1", succeeded)
	}
	if insufficient != workers-1 {
		t.Fatalf("got %d insufficient funds errors want %d", insufficient, workers-1)
	}

	var balance decimal.Decimal
	if err := database.QueryRow(ctx, "SELECT balance FROM accounts WHERE id = 1").Scan(&balance); err != nil {
		t.Fatalf("reading balance: %v", err)
	}
	if want := decimal.RequireFromString("40.00"); !balance.Equal(want) {
		t.Fatalf("got balance %s want %s", balance, want)
	}
}
