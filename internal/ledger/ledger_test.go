package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/models"
	"github.com/fintrackhq/fintrack/internal/storage/memory"
)

func newTestService() *Service {
	return New(memory.NewStore(), nil, zap.NewNop())
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func mustAccount(t *testing.T, svc *Service, userID string) *models.Account {
	t.Helper()
	acc, err := svc.CreateAccount(context.Background(), userID, "checking", decimal.Zero)
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return acc
}

// checkInvariant verifies balance == sum of signed transaction amounts.
func checkInvariant(t *testing.T, svc *Service, userID, accountID string) {
	t.Helper()
	ctx := context.Background()

	acc, err := svc.GetAccount(ctx, userID, accountID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	txs, err := svc.ListTransactionsByAccount(ctx, userID, accountID)
	if err != nil {
		t.Fatalf("ListTransactionsByAccount: %v", err)
	}

	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.SignedAmount())
	}
	if !acc.Balance.Equal(sum) {
		t.Fatalf("invariant violated: balance %s, signed sum %s", acc.Balance, sum)
	}
}

func TestCreateTransactionAdjustsBalance(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")

	if _, err := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("100"), Type: models.TypeIncome}); err != nil {
		t.Fatalf("create income: %v", err)
	}
	if _, err := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("40"), Type: models.TypeExpense}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	got, _ := svc.GetAccount(ctx, "u1", acc.ID)
	if !got.Balance.Equal(dec("60")) {
		t.Errorf("balance = %s, want 60", got.Balance)
	}
	checkInvariant(t, svc, "u1", acc.ID)
}

func TestUpdateTransactionReversesOldContribution(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")

	tx, err := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("100"), Type: models.TypeIncome})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amount := dec("30")
	typ := models.TypeExpense
	if _, err := svc.UpdateTransaction(ctx, "u1", tx.ID, TransactionPatch{Amount: &amount, Type: &typ}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := svc.GetAccount(ctx, "u1", acc.ID)
	if !got.Balance.Equal(dec("-30")) {
		t.Errorf("balance = %s, want -30", got.Balance)
	}
	checkInvariant(t, svc, "u1", acc.ID)
}

func TestUpdateTransactionPartialPatchKeepsOldValues(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")

	tx, _ := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("100"), Type: models.TypeIncome})

	// Only the type flips; the old amount stays in effect.
	typ := models.TypeExpense
	if _, err := svc.UpdateTransaction(ctx, "u1", tx.ID, TransactionPatch{Type: &typ}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := svc.GetAccount(ctx, "u1", acc.ID)
	if !got.Balance.Equal(dec("-100")) {
		t.Errorf("balance = %s, want -100", got.Balance)
	}
	checkInvariant(t, svc, "u1", acc.ID)
}

func TestUpdateDescriptionHasNoBalanceEffect(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")

	tx, _ := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("100"), Type: models.TypeIncome})

	desc := "salary"
	updated, err := svc.UpdateTransaction(ctx, "u1", tx.ID, TransactionPatch{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != "salary" {
		t.Errorf("description = %q, want salary", updated.Description)
	}

	got, _ := svc.GetAccount(ctx, "u1", acc.ID)
	if !got.Balance.Equal(dec("100")) {
		t.Errorf("balance = %s, want 100", got.Balance)
	}
}

func TestDeleteTransactionRestoresBalance(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")

	tx, _ := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("100"), Type: models.TypeIncome})
	if err := svc.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := svc.GetAccount(ctx, "u1", acc.ID)
	if !got.Balance.Equal(decimal.Zero) {
		t.Errorf("balance = %s, want 0", got.Balance)
	}
	checkInvariant(t, svc, "u1", acc.ID)
}

func TestDeleteThenRecreateRoundTrips(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")

	svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("250.50"), Type: models.TypeIncome})
	tx, _ := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("99.99"), Type: models.TypeExpense})

	before, _ := svc.GetAccount(ctx, "u1", acc.ID)

	if err := svc.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("99.99"), Type: models.TypeExpense}); err != nil {
		t.Fatalf("recreate: %v", err)
	}

	after, _ := svc.GetAccount(ctx, "u1", acc.ID)
	if !after.Balance.Equal(before.Balance) {
		t.Errorf("balance = %s, want %s", after.Balance, before.Balance)
	}
	checkInvariant(t, svc, "u1", acc.ID)
}

func TestCreateTransactionValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")

	cases := []struct {
		name string
		in   TransactionInput
	}{
		{"zero amount", TransactionInput{Amount: decimal.Zero, Type: models.TypeIncome}},
		{"negative amount", TransactionInput{Amount: dec("-5"), Type: models.TypeIncome}},
		{"bad type", TransactionInput{Amount: dec("10"), Type: "transfer"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateTransaction(ctx, "u1", acc.ID, tc.in); !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}

	// Rejected creates must leave the balance untouched.
	got, _ := svc.GetAccount(ctx, "u1", acc.ID)
	if !got.Balance.Equal(decimal.Zero) {
		t.Errorf("balance = %s, want 0", got.Balance)
	}
}

func TestUpdateTransactionValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")

	tx, _ := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("100"), Type: models.TypeIncome})

	bad := dec("-1")
	if _, err := svc.UpdateTransaction(ctx, "u1", tx.ID, TransactionPatch{Amount: &bad}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}

	got, _ := svc.GetAccount(ctx, "u1", acc.ID)
	if !got.Balance.Equal(dec("100")) {
		t.Errorf("balance = %s, want 100 after rejected update", got.Balance)
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "userA")
	tx, _ := svc.CreateTransaction(ctx, "userA", acc.ID, TransactionInput{Amount: dec("10"), Type: models.TypeIncome})

	if _, err := svc.GetAccount(ctx, "userB", acc.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("GetAccount err = %v, want not found", err)
	}
	if _, err := svc.GetTransaction(ctx, "userB", tx.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("GetTransaction err = %v, want not found", err)
	}
	if _, err := svc.CreateTransaction(ctx, "userB", acc.ID, TransactionInput{Amount: dec("10"), Type: models.TypeIncome}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("CreateTransaction err = %v, want not found", err)
	}
	if err := svc.DeleteTransaction(ctx, "userB", tx.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("DeleteTransaction err = %v, want not found", err)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, err := svc.CreateAccount(ctx, "u1", "", decimal.Zero); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("empty name err = %v, want validation error", err)
	}
	if _, err := svc.CreateAccount(ctx, "u1", "   ", decimal.Zero); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("blank name err = %v, want validation error", err)
	}
}

func TestUpdateAccountBalanceOverride(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")
	svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("100"), Type: models.TypeIncome})

	// The admin override writes the balance directly, bypassing reconciliation.
	override := dec("5000")
	updated, err := svc.UpdateAccount(ctx, "u1", acc.ID, AccountPatch{Balance: &override})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Balance.Equal(dec("5000")) {
		t.Errorf("balance = %s, want 5000", updated.Balance)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")
	tx, _ := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("10"), Type: models.TypeIncome})

	if err := svc.DeleteAccount(ctx, "u1", acc.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := svc.GetAccount(ctx, "u1", acc.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("GetAccount err = %v, want not found", err)
	}
	if _, err := svc.GetTransaction(ctx, "u1", tx.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("GetTransaction err = %v, want not found after cascade", err)
	}
}

func TestConcurrentCreatesKeepInvariant(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			typ := models.TypeIncome
			if i%2 == 1 {
				typ = models.TypeExpense
			}
			if _, err := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("3"), Type: typ}); err != nil {
				t.Errorf("create: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// 25 incomes and 25 expenses of 3 cancel out exactly.
	got, _ := svc.GetAccount(ctx, "u1", acc.ID)
	if !got.Balance.Equal(decimal.Zero) {
		t.Errorf("balance = %s, want 0", got.Balance)
	}
	checkInvariant(t, svc, "u1", acc.ID)
}

func TestConcurrentMixedMutationsKeepInvariant(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	acc := mustAccount(t, svc, "u1")

	var ids []string
	for i := 0; i < 20; i++ {
		tx, err := svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("7"), Type: models.TypeIncome})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, tx.ID)
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				svc.DeleteTransaction(ctx, "u1", id)
			case 1:
				amount := dec("11")
				svc.UpdateTransaction(ctx, "u1", id, TransactionPatch{Amount: &amount})
			default:
				svc.CreateTransaction(ctx, "u1", acc.ID, TransactionInput{Amount: dec("2"), Type: models.TypeExpense})
			}
		}(i, id)
	}
	wg.Wait()

	checkInvariant(t, svc, "u1", acc.ID)
}
