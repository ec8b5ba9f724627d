package account_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/core/account"
	"github.com/vbrandao/bank/internal/core/account/store/accountdb"
	"github.com/vbrandao/bank/internal/core/ledger"
	"github.com/vbrandao/bank/internal/core/ledger/store/ledgerdb"
	"github.com/vbrandao/bank/internal/data/dbtest"
)

var numberRE = regexp.MustCompile(`^FR76\d{14}$`)

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := account.NewCore(accountdb.NewStore(log, database))

	a, err := core.Create(ctx, account.NewAccount{
		ClientID:       2,
		Type:           account.TypeSavings,
		OverdraftLimit: decimal.RequireFromString("50.00"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !numberRE.MatchString(a.Number) {
		t.Fatalf("got account number %q, want FR76 followed by 14 digits", a.Number)
	}
	if !a.Balance.IsZero() {
		t.Fatalf("got balance %s want 0", a.Balance)
	}
	if !a.Active {
		t.Fatal("new account should be active")
	}

	got, err := core.QueryByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got.Number != a.Number {
		t.Fatalf("got number %q want %q", got.Number, a.Number)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	ctx := context.Background()
	core := account.NewCore(nil)

	_, err := core.Create(ctx, account.NewAccount{ClientID: 2, Type: "bitcoin"})
	if !errors.Is(err, account.ErrInvalidType) {
		t.Fatalf("got %v want %v", err, account.ErrInvalidType)
	}

	_, err = core.Create(ctx, account.NewAccount{
		ClientID:       2,
		Type:           account.TypeChecking,
		OverdraftLimit: decimal.RequireFromString("-1.00"),
	})
	if !errors.Is(err, account.ErrInvalidOverdraft) {
		t.Fatalf("got %v want %v", err, account.ErrInvalidOverdraft)
	}
}

func TestQueryByClient(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := account.NewCore(accountdb.NewStore(log, database))

	accs, err := core.QueryByClient(ctx, 3)
	if err != nil {
		t.Fatalf("query by client: %v", err)
	}
	if len(accs) != 2 {
		t.Fatalf("got %d accounts want 2", len(accs))
	}
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := account.NewCore(accountdb.NewStore(log, database))
	lcore := ledger.NewCore(ledgerdb.NewStore(log, database))

	if err := core.SetActive(ctx, 1, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	amount := decimal.RequireFromString("10.00")
	if _, err := lcore.Deposit(ctx, 1, 2, amount, ""); !errors.Is(err, ledger.ErrAccountInactive) {
		t.Fatalf("deposit on deactivated account: got %v want %v", err, ledger.ErrAccountInactive)
	}

	if err := core.SetActive(ctx, 1, true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if _, err := lcore.Deposit(ctx, 1, 2, amount, ""); err != nil {
		t.Fatalf("deposit after reactivation: %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	core := account.NewCore(accountdb.NewStore(log, database))
	lcore := ledger.NewCore(ledgerdb.NewStore(log, database))

	// A non-zero balance blocks the delete.
	if err := core.Delete(ctx, 1); !errors.Is(err, account.ErrAccountNotEmpty) {
		t.Fatalf("got %v want %v", err, account.ErrAccountNotEmpty)
	}

	// A zero balance with recorded transactions blocks it too.
	a, err := core.Create(ctx, account.NewAccount{ClientID: 2, Type: account.TypeSavings})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	amount := decimal.RequireFromString("10.00")
	if _, err := lcore.Deposit(ctx, a.ID, 2, amount, ""); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := lcore.Withdraw(ctx, a.ID, 2, amount, ""); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if err := core.Delete(ctx, a.ID); !errors.Is(err, account.ErrAccountHasHistory) {
		t.Fatalf("got %v want %v", err, account.ErrAccountHasHistory)
	}

	// A fresh untouched account can go.
	b, err := core.Create(ctx, account.NewAccount{ClientID: 2, Type: account.TypeSavings})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := core.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := core.QueryByID(ctx, b.ID); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("got %v want %v", err, account.ErrNotFound)
	}
}
