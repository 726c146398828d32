package services

import (
	"context"
	"strings"
	"testing"

	"floosafandy/internal/core"
)

func TestAlertEvaluator(t *testing.T) {
	svc, repo := newTestService(t)
	evaluator := NewAlertEvaluator(repo)
	ctx := context.Background()

	account := createAccount(t, svc, "Checking", 200_00, 100_00)

	alerts, err := evaluator.Evaluate(ctx)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("alerts on healthy state = %d, want 0", len(alerts))
	}

	// Spend the balance below the minimum.
	if _, err := svc.AddTransaction(ctx, AddTransactionParams{
		AccountID:     account.ID,
		Direction:     core.Out,
		Amount:        core.Money{Cents: 150_00},
		Description:   "electricity bill",
		PaymentMethod: core.PaymentBankTransfer,
	}); err != nil {
		t.Fatalf("add transaction: %v", err)
	}

	alerts, err = evaluator.Evaluate(ctx)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	if alerts[0].Kind != AlertLowBalance {
		t.Errorf("kind = %s, want %s", alerts[0].Kind, AlertLowBalance)
	}
	if !strings.Contains(alerts[0].Message, "Checking") {
		t.Errorf("message %q does not name the account", alerts[0].Message)
	}
}

func TestAlertEvaluatorOverBudget(t *testing.T) {
	svc, repo := newTestService(t)
	evaluator := NewAlertEvaluator(repo)
	ctx := context.Background()

	account := createAccount(t, svc, "Checking", 1000_00, 0)
	if _, err := svc.CreateBudget(ctx, CreateBudgetParams{
		Category:  "food",
		Allocated: core.Money{Cents: 50_00},
		AccountID: account.ID,
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	// Spending exactly the allocation triggers nothing.
	if _, err := svc.AddTransaction(ctx, AddTransactionParams{
		AccountID:     account.ID,
		Direction:     core.Out,
		Amount:        core.Money{Cents: 50_00},
		Description:   "supermarket haul",
		PaymentMethod: core.PaymentCash,
	}); err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	alerts, err := evaluator.Evaluate(ctx)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("alerts at exact allocation = %d, want 0", len(alerts))
	}

	// One cent over does.
	if _, err := svc.AddTransaction(ctx, AddTransactionParams{
		AccountID:     account.ID,
		Direction:     core.Out,
		Amount:        core.Money{Cents: 1},
		Description:   "grocery top-up",
		PaymentMethod: core.PaymentCash,
	}); err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	alerts, err = evaluator.Evaluate(ctx)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts over allocation = %d, want 1", len(alerts))
	}
	if alerts[0].Kind != AlertOverBudget {
		t.Errorf("kind = %s, want %s", alerts[0].Kind, AlertOverBudget)
	}
	if !strings.Contains(alerts[0].Message, "food") || !strings.Contains(alerts[0].Message, "Checking") {
		t.Errorf("message %q does not name budget and account", alerts[0].Message)
	}
}
