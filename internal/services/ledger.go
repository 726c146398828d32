package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"floosafandy/internal/amqp"
	"floosafandy/internal/core"
	"floosafandy/internal/storage"
)

// LedgerService owns every mutation of accounts, transactions and budgets.
// Each mutation runs inside a single database transaction, so balances and
// budget counters can never drift from the transaction log.
type LedgerService struct {
	store    *storage.SQLiteRepository
	resolver CategoryResolver
	events   *amqp.Client
}

// NewLedgerService creates the ledger engine. events may be nil; export
// notifications are then skipped and the periodic worker picks the rows up
// from the pending queue instead.
func NewLedgerService(store *storage.SQLiteRepository, resolver CategoryResolver, events *amqp.Client) *LedgerService {
	return &LedgerService{
		store:    store,
		resolver: resolver,
		events:   events,
	}
}

// AddTransactionParams describes a new ledger movement. Categories is the
// caller's explicit selection and may be empty; the configured resolver
// then derives the labels.
type AddTransactionParams struct {
	AccountID     int64
	Direction     core.Direction
	Amount        core.Money
	Description   string
	PaymentMethod core.PaymentMethod
	Categories    []string
}

// MutationResult reports the outcome of a ledger mutation.
type MutationResult struct {
	TransactionID int64
	NewBalance    core.Money
	// LowBalance is set when the new balance fell below the account's
	// minimum. Advisory only, the mutation still commits.
	LowBalance string
	// Warning is set when the mutation committed but a follow-up step
	// (export notification) failed.
	Warning string
}

// AddTransaction records a movement and applies it to the account balance
// and, for OUT movements, to the matching budget counters. The whole
// mutation commits or rolls back as one unit.
func (s *LedgerService) AddTransaction(ctx context.Context, params AddTransactionParams) (MutationResult, error) {
	var result MutationResult

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		account, err := q.GetAccount(ctx, params.AccountID)
		if err != nil {
			return err
		}

		txn := core.Transaction{
			OccurredAt:    time.Now().UTC(),
			Direction:     params.Direction,
			Amount:        params.Amount,
			AccountID:     account.ID,
			Description:   strings.TrimSpace(params.Description),
			PaymentMethod: params.PaymentMethod,
		}
		if err := txn.Validate(); err != nil {
			return err
		}

		if params.Direction == core.Out && account.Balance.LessThan(params.Amount) {
			return fmt.Errorf("%w: balance %s, requested %s",
				core.ErrInsufficientFunds, account.Balance, params.Amount)
		}

		labels, err := s.resolver.Resolve(ctx, q, ResolveRequest{
			AccountID:   account.ID,
			Direction:   params.Direction,
			Description: txn.Description,
			Explicit:    params.Categories,
		})
		if err != nil {
			return fmt.Errorf("resolve categories: %w", err)
		}
		txn.Categories = labels

		id, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
			OccurredAt:    txn.OccurredAt,
			Direction:     txn.Direction,
			AmountCents:   txn.Amount.Cents,
			AccountID:     txn.AccountID,
			Description:   txn.Description,
			PaymentMethod: txn.PaymentMethod,
			Category:      core.JoinCategories(labels),
		})
		if err != nil {
			return err
		}

		delta := params.Direction.Sign() * params.Amount.Cents
		if err := q.AdjustAccountBalance(ctx, account.ID, delta); err != nil {
			return err
		}

		if params.Direction == core.Out {
			for _, label := range labels {
				if err := q.RecordBudgetSpend(ctx, label, account.ID, params.Amount.Cents); err != nil {
					return err
				}
			}
		}

		result.TransactionID = id
		result.NewBalance = account.Balance.Add(core.Money{Cents: delta})
		if result.NewBalance.LessThan(account.MinBalance) {
			result.LowBalance = fmt.Sprintf("%s balance %s is below the %s minimum",
				account.Name, result.NewBalance, account.MinBalance)
		}
		return nil
	})
	if err != nil {
		return MutationResult{}, err
	}

	slog.InfoContext(ctx, "Transaction added",
		"id", result.TransactionID,
		"account_id", params.AccountID,
		"direction", params.Direction,
		"amount", params.Amount)

	result.Warning = s.notifySync(ctx, result.TransactionID)
	return result, nil
}

// EditTransactionParams describes the full replacement state of an existing
// transaction. The movement may change amount, direction and even account.
type EditTransactionParams struct {
	ID            int64
	AccountID     int64
	Direction     core.Direction
	Amount        core.Money
	Description   string
	PaymentMethod core.PaymentMethod
	Categories    []string
}

// EditTransaction reverses the old movement's effects, validates the new
// movement against the reversed state, then applies it. On any failure the
// whole edit rolls back and the old state stays intact.
func (s *LedgerService) EditTransaction(ctx context.Context, params EditTransactionParams) (MutationResult, error) {
	var result MutationResult

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, params.ID)
		if err != nil {
			return err
		}

		account, err := q.GetAccount(ctx, params.AccountID)
		if err != nil {
			return err
		}

		txn := core.Transaction{
			ID:            old.ID,
			OccurredAt:    time.Now().UTC(),
			Direction:     params.Direction,
			Amount:        params.Amount,
			AccountID:     account.ID,
			Description:   strings.TrimSpace(params.Description),
			PaymentMethod: params.PaymentMethod,
		}
		if err := txn.Validate(); err != nil {
			return err
		}

		// Base is the target account's balance with the old movement
		// already backed out.
		oldReversal := -old.Direction.Sign() * old.Amount.Cents
		var base core.Money
		if old.AccountID == account.ID {
			base = account.Balance.Add(core.Money{Cents: oldReversal})
		} else {
			if err := q.AdjustAccountBalance(ctx, old.AccountID, oldReversal); err != nil {
				return err
			}
			base = account.Balance
		}

		if params.Direction == core.Out && base.LessThan(params.Amount) {
			return fmt.Errorf("%w: balance %s after reversal, requested %s",
				core.ErrInsufficientFunds, base, params.Amount)
		}

		labels, err := s.resolver.Resolve(ctx, q, ResolveRequest{
			AccountID:   account.ID,
			Direction:   params.Direction,
			Description: txn.Description,
			Explicit:    params.Categories,
		})
		if err != nil {
			return fmt.Errorf("resolve categories: %w", err)
		}
		txn.Categories = labels

		newBalance := base.Add(core.Money{Cents: params.Direction.Sign() * params.Amount.Cents})
		if err := q.SetAccountBalance(ctx, account.ID, newBalance.Cents); err != nil {
			return err
		}

		if old.Direction == core.Out {
			for _, label := range old.Categories {
				if err := q.RecordBudgetSpend(ctx, label, old.AccountID, -old.Amount.Cents); err != nil {
					return err
				}
			}
		}
		if params.Direction == core.Out {
			for _, label := range labels {
				if err := q.RecordBudgetSpend(ctx, label, account.ID, params.Amount.Cents); err != nil {
					return err
				}
			}
		}

		if err := q.UpdateTransaction(ctx, storage.UpdateTransactionParams{
			ID:            txn.ID,
			OccurredAt:    txn.OccurredAt,
			Direction:     txn.Direction,
			AmountCents:   txn.Amount.Cents,
			AccountID:     txn.AccountID,
			Description:   txn.Description,
			PaymentMethod: txn.PaymentMethod,
			Category:      core.JoinCategories(labels),
		}); err != nil {
			return err
		}

		result.TransactionID = txn.ID
		result.NewBalance = newBalance
		if newBalance.LessThan(account.MinBalance) {
			result.LowBalance = fmt.Sprintf("%s balance %s is below the %s minimum",
				account.Name, newBalance, account.MinBalance)
		}
		return nil
	})
	if err != nil {
		return MutationResult{}, err
	}

	slog.InfoContext(ctx, "Transaction edited",
		"id", params.ID,
		"account_id", params.AccountID,
		"direction", params.Direction,
		"amount", params.Amount)

	result.Warning = s.notifySync(ctx, result.TransactionID)
	return result, nil
}

// DeleteTransaction removes a movement and reverses its effects on the
// account balance and budget counters.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	var deleted core.Transaction

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		txn, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}

		reversal := -txn.Direction.Sign() * txn.Amount.Cents
		if err := q.AdjustAccountBalance(ctx, txn.AccountID, reversal); err != nil {
			return err
		}

		if txn.Direction == core.Out {
			for _, label := range txn.Categories {
				if err := q.RecordBudgetSpend(ctx, label, txn.AccountID, -txn.Amount.Cents); err != nil {
					return err
				}
			}
		}

		if err := q.DeleteTransaction(ctx, id); err != nil {
			return err
		}

		deleted = txn
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"id", id,
		"account_id", deleted.AccountID)

	if s.events != nil {
		if err := s.events.PublishDelete(ctx, amqp.NewDeleteEvent(deleted)); err != nil {
			slog.WarnContext(ctx, "Failed to publish delete event", "error", err, "id", id)
		}
	}
	return nil
}

// GetTransaction retrieves a single transaction.
func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.Queries().GetTransaction(ctx, id)
}

// FilterTransactions returns transactions matching the filter, ordered by
// occurrence time then id.
func (s *LedgerService) FilterTransactions(ctx context.Context, filter storage.TransactionFilter) ([]core.Transaction, error) {
	return s.store.Queries().FilterTransactions(ctx, filter)
}

// notifySync publishes a sync event for a committed transaction. Publish
// failures never fail the mutation; the row stays pending and the periodic
// worker retries it.
func (s *LedgerService) notifySync(ctx context.Context, id int64) string {
	if s.events == nil {
		return ""
	}
	if err := s.events.PublishSync(ctx, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish sync event", "error", err, "id", id)
		return "transaction saved, export notification failed"
	}
	return ""
}

// ---- accounts ----

type CreateAccountParams struct {
	Name           string
	InitialBalance core.Money
	MinBalance     core.Money
	Currency       string
}

func (s *LedgerService) CreateAccount(ctx context.Context, params CreateAccountParams) (core.Account, error) {
	account := core.Account{
		Name:       strings.TrimSpace(params.Name),
		Balance:    params.InitialBalance,
		MinBalance: params.MinBalance,
		Currency:   params.Currency,
	}
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}
	if account.Balance.Cents < 0 {
		return core.Account{}, fmt.Errorf("%w: initial balance cannot be negative", core.ErrInvalidAmount)
	}
	if account.Currency == "" {
		account.Currency = "USD"
	}

	created, err := s.store.Queries().CreateAccount(ctx, storage.CreateAccountParams{
		Name:            account.Name,
		BalanceCents:    account.Balance.Cents,
		MinBalanceCents: account.MinBalance.Cents,
		Currency:        account.Currency,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account created", "id", created.ID, "name", created.Name)
	return created, nil
}

type UpdateAccountParams struct {
	ID         int64
	Name       string
	MinBalance core.Money
	Currency   string
}

// UpdateAccount changes an account's metadata. The balance is not part of
// the update; only ledger mutations move it.
func (s *LedgerService) UpdateAccount(ctx context.Context, params UpdateAccountParams) error {
	account := core.Account{
		Name:       strings.TrimSpace(params.Name),
		MinBalance: params.MinBalance,
	}
	if err := account.Validate(); err != nil {
		return err
	}

	err := s.store.Queries().UpdateAccount(ctx, storage.UpdateAccountParams{
		ID:              params.ID,
		Name:            account.Name,
		MinBalanceCents: params.MinBalance.Cents,
		Currency:        params.Currency,
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account updated", "id", params.ID)
	return nil
}

// DeleteAccount removes an account together with its transactions, budgets
// and custom categories via the schema's cascade rules.
func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.store.Queries().DeleteAccount(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account deleted", "id", id)
	return nil
}

func (s *LedgerService) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return s.store.Queries().GetAccount(ctx, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.store.Queries().ListAccounts(ctx)
}

// ---- budgets ----

type CreateBudgetParams struct {
	Name      string
	Category  string
	Allocated core.Money
	AccountID int64
}

// CreateBudget creates an explicit budget row. Spending starts at zero;
// movements recorded before the budget existed are not back-filled.
func (s *LedgerService) CreateBudget(ctx context.Context, params CreateBudgetParams) (core.Budget, error) {
	budget := core.Budget{
		Name:      strings.TrimSpace(params.Name),
		Category:  strings.TrimSpace(params.Category),
		Allocated: params.Allocated,
		AccountID: params.AccountID,
	}
	if budget.Name == "" {
		budget.Name = budget.Category
	}
	if err := budget.Validate(); err != nil {
		return core.Budget{}, err
	}
	if _, err := s.store.Queries().GetAccount(ctx, params.AccountID); err != nil {
		return core.Budget{}, err
	}

	id, err := s.store.Queries().CreateBudget(ctx, storage.CreateBudgetParams{
		Name:           budget.Name,
		Category:       budget.Category,
		AllocatedCents: budget.Allocated.Cents,
		SpentCents:     0,
		AccountID:      budget.AccountID,
	})
	if err != nil {
		return core.Budget{}, err
	}
	budget.ID = id

	slog.InfoContext(ctx, "Budget created",
		"id", id,
		"category", budget.Category,
		"account_id", budget.AccountID)
	return budget, nil
}

type UpdateBudgetParams struct {
	ID        int64
	Name      string
	Category  string
	Allocated core.Money
}

func (s *LedgerService) UpdateBudget(ctx context.Context, params UpdateBudgetParams) error {
	category := strings.TrimSpace(params.Category)
	if category == "" {
		return core.ErrEmptyName
	}
	if params.Allocated.Cents < 0 {
		return fmt.Errorf("%w: allocated amount cannot be negative", core.ErrInvalidAmount)
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		name = category
	}

	err := s.store.Queries().UpdateBudget(ctx, storage.UpdateBudgetParams{
		ID:             params.ID,
		Name:           name,
		Category:       category,
		AllocatedCents: params.Allocated.Cents,
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget updated", "id", params.ID)
	return nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, id int64) error {
	if err := s.store.Queries().DeleteBudget(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budget deleted", "id", id)
	return nil
}

func (s *LedgerService) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	return s.store.Queries().GetBudget(ctx, id)
}

// ListBudgets returns budgets, optionally scoped to one account.
func (s *LedgerService) ListBudgets(ctx context.Context, accountID *int64) ([]core.Budget, error) {
	return s.store.Queries().ListBudgets(ctx, accountID)
}

// ---- categories ----

func (s *LedgerService) ListCustomCategories(ctx context.Context, accountID int64, direction core.Direction) ([]core.CustomCategory, error) {
	return s.store.Queries().ListCustomCategories(ctx, accountID, direction)
}

// ListAllCustomCategories returns every account's custom categories, for
// the unfiltered category management page.
func (s *LedgerService) ListAllCustomCategories(ctx context.Context) ([]core.CustomCategory, error) {
	return s.store.Queries().ListAllCustomCategories(ctx)
}

func (s *LedgerService) AddCustomCategory(ctx context.Context, accountID int64, direction core.Direction, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyName
	}
	if err := direction.Validate(); err != nil {
		return err
	}
	if _, err := s.store.Queries().GetAccount(ctx, accountID); err != nil {
		return err
	}
	return s.store.Queries().CreateCustomCategory(ctx, storage.CreateCustomCategoryParams{
		AccountID: accountID,
		Direction: direction,
		Name:      name,
	})
}

func (s *LedgerService) DeleteCustomCategory(ctx context.Context, id int64) error {
	return s.store.Queries().DeleteCustomCategory(ctx, id)
}

func (s *LedgerService) ListKeywordCategories(ctx context.Context) ([]core.KeywordCategory, error) {
	return s.store.Queries().ListKeywordCategories(ctx)
}

func (s *LedgerService) AddKeywordCategory(ctx context.Context, name, keywords string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyName
	}
	return s.store.Queries().CreateKeywordCategory(ctx, name, keywords)
}

func (s *LedgerService) DeleteKeywordCategory(ctx context.Context, id int64) error {
	return s.store.Queries().DeleteKeywordCategory(ctx, id)
}

// ---- dashboard ----

// Overview aggregates totals for the dashboard: overall balance, IN/OUT
// totals for the filtered window and a per-category OUT breakdown.
func (s *LedgerService) Overview(ctx context.Context, filter storage.TransactionFilter) (core.Overview, error) {
	q := s.store.Queries()

	in, out, err := q.DirectionTotals(ctx, filter)
	if err != nil {
		return core.Overview{}, err
	}

	total, err := q.TotalBalance(ctx)
	if err != nil {
		return core.Overview{}, err
	}

	txns, err := q.FilterTransactions(ctx, filter)
	if err != nil {
		return core.Overview{}, err
	}

	// Multi-label movements count their full amount against every label.
	byCategory := make(map[string]int64)
	for _, t := range txns {
		if t.Direction != core.Out {
			continue
		}
		for _, label := range t.Categories {
			byCategory[label] += t.Amount.Cents
		}
	}

	categories := make([]core.CategoryAmount, 0, len(byCategory))
	for name, cents := range byCategory {
		categories = append(categories, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: cents},
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Amount.Cents != categories[j].Amount.Cents {
			return categories[i].Amount.Cents > categories[j].Amount.Cents
		}
		return categories[i].Name < categories[j].Name
	})

	return core.Overview{
		TotalBalance: core.Money{Cents: total},
		TotalIn:      core.Money{Cents: in},
		TotalOut:     core.Money{Cents: out},
		ByCategory:   categories,
	}, nil
}

// TodaySummary reports IN/OUT totals for the current day.
func (s *LedgerService) TodaySummary(ctx context.Context) (core.DaySummary, error) {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := day.Add(24*time.Hour - time.Second)

	in, out, err := s.store.Queries().DirectionTotals(ctx, storage.TransactionFilter{
		StartDate: &day,
		EndDate:   &end,
	})
	if err != nil {
		return core.DaySummary{}, err
	}
	return core.DaySummary{
		Day:      day,
		TotalIn:  core.Money{Cents: in},
		TotalOut: core.Money{Cents: out},
	}, nil
}
