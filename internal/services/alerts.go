package services

import (
	"context"
	"fmt"

	"floosafandy/internal/storage"
)

// AlertKind distinguishes the two alert conditions.
type AlertKind string

const (
	AlertLowBalance AlertKind = "low_balance"
	AlertOverBudget AlertKind = "over_budget"
)

// Alert is a human-readable warning derived from the current ledger state.
type Alert struct {
	Kind    AlertKind
	Message string
}

// AlertEvaluator computes alerts from a fresh read of the store on every
// call; nothing is cached between evaluations.
type AlertEvaluator struct {
	store *storage.SQLiteRepository
}

func NewAlertEvaluator(store *storage.SQLiteRepository) *AlertEvaluator {
	return &AlertEvaluator{store: store}
}

// Evaluate returns one alert per account whose balance fell below its
// minimum and one per budget whose spending exceeds its allocation.
// Equality triggers neither.
func (e *AlertEvaluator) Evaluate(ctx context.Context) ([]Alert, error) {
	q := e.store.Queries()

	accounts, err := q.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accountNames := make(map[int64]string, len(accounts))
	var alerts []Alert
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
		if a.Balance.LessThan(a.MinBalance) {
			alerts = append(alerts, Alert{
				Kind: AlertLowBalance,
				Message: fmt.Sprintf("Account %s balance %s is below minimum %s",
					a.Name, a.Balance, a.MinBalance),
			})
		}
	}

	budgets, err := q.ListBudgets(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	for _, b := range budgets {
		if b.Allocated.LessThan(b.Spent) {
			name := accountNames[b.AccountID]
			alerts = append(alerts, Alert{
				Kind: AlertOverBudget,
				Message: fmt.Sprintf("Budget %s on account %s spent %s of %s allocated",
					b.Category, name, b.Spent, b.Allocated),
			})
		}
	}

	return alerts, nil
}
