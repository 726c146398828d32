package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"floosafandy/internal/core"
)

// TimeLayout is the stored timestamp format. Lexicographic order matches
// chronological order, so date-range predicates work as plain string
// comparisons.
const TimeLayout = "2006-01-02 15:04:05"

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same queries run
// inside and outside explicit transactions.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// ---- accounts ----

type CreateAccountParams struct {
	Name            string
	BalanceCents    int64
	MinBalanceCents int64
	Currency        string
	CreatedAt       time.Time
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (core.Account, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (name, balance_cents, min_balance_cents, currency, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.Name, arg.BalanceCents, arg.MinBalanceCents, arg.Currency, formatTime(arg.CreatedAt))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}
	return core.Account{
		ID:         id,
		Name:       arg.Name,
		Balance:    core.Money{Cents: arg.BalanceCents},
		MinBalance: core.Money{Cents: arg.MinBalanceCents},
		Currency:   arg.Currency,
		CreatedAt:  arg.CreatedAt.UTC(),
	}, nil
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	var createdAt string
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, balance_cents, min_balance_cents, currency, created_at
		FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Balance.Cents, &a.MinBalance.Cents, &a.Currency, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("select account: %w", err)
	}
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}

func (q *Queries) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, balance_cents, min_balance_cents, currency, created_at
		FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance.Cents, &a.MinBalance.Cents, &a.Currency, &createdAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

type UpdateAccountParams struct {
	ID              int64
	Name            string
	MinBalanceCents int64
	Currency        string
}

func (q *Queries) UpdateAccount(ctx context.Context, arg UpdateAccountParams) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, min_balance_cents = ?, currency = ? WHERE id = ?`,
		arg.Name, arg.MinBalanceCents, arg.Currency, arg.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account rows: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

func (q *Queries) SetAccountBalance(ctx context.Context, id, balanceCents int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = ? WHERE id = ?`, balanceCents, id)
	if err != nil {
		return fmt.Errorf("set account balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set account balance rows: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

func (q *Queries) AdjustAccountBalance(ctx context.Context, id, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`, deltaCents, id)
	if err != nil {
		return fmt.Errorf("adjust account balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust account balance rows: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes the account and, through FK cascade, every
// transaction, budget, and custom category that references it.
func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account rows: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

// SumAccountTransactions recomputes the balance from transaction history.
// Used to verify the incrementally maintained balance.
func (q *Queries) SumAccountTransactions(ctx context.Context, accountID int64) (int64, error) {
	var total sql.NullInt64
	err := q.db.QueryRowContext(ctx, `
		SELECT SUM(CASE direction WHEN 'IN' THEN amount_cents ELSE -amount_cents END)
		FROM transactions WHERE account_id = ?`, accountID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum account transactions: %w", err)
	}
	return total.Int64, nil
}

// ---- transactions ----

type CreateTransactionParams struct {
	OccurredAt    time.Time
	Direction     core.Direction
	AmountCents   int64
	AccountID     int64
	Description   string
	PaymentMethod core.PaymentMethod
	Category      string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (occurred_at, direction, amount_cents, account_id, description, payment_method, category, sync_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', ?)`,
		formatTime(arg.OccurredAt), string(arg.Direction), arg.AmountCents, arg.AccountID,
		arg.Description, string(arg.PaymentMethod), arg.Category, formatTime(arg.OccurredAt))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}
	return id, nil
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var t core.Transaction
	var occurredAt, direction, paymentMethod, category string
	err := q.db.QueryRowContext(ctx, `
		SELECT id, occurred_at, direction, amount_cents, account_id, description, payment_method, category
		FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &occurredAt, &direction, &t.Amount.Cents, &t.AccountID, &t.Description, &paymentMethod, &category)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("select transaction: %w", err)
	}
	t.OccurredAt = parseTime(occurredAt)
	t.Direction = core.Direction(direction)
	t.PaymentMethod = core.PaymentMethod(paymentMethod)
	t.Categories = core.SplitCategories(category)
	return t, nil
}

type UpdateTransactionParams struct {
	ID            int64
	OccurredAt    time.Time
	Direction     core.Direction
	AmountCents   int64
	AccountID     int64
	Description   string
	PaymentMethod core.PaymentMethod
	Category      string
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET occurred_at = ?, direction = ?, amount_cents = ?, account_id = ?,
		    description = ?, payment_method = ?, category = ?, sync_status = 'pending'
		WHERE id = ?`,
		formatTime(arg.OccurredAt), string(arg.Direction), arg.AmountCents, arg.AccountID,
		arg.Description, string(arg.PaymentMethod), arg.Category, arg.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows: %w", err)
	}
	if n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

// TransactionFilter holds optional conjunctive predicates. Nil fields are
// skipped; date bounds are inclusive.
type TransactionFilter struct {
	AccountID     *int64
	StartDate     *time.Time
	EndDate       *time.Time
	Direction     *core.Direction
	Category      *string
	PaymentMethod *core.PaymentMethod
}

func (f TransactionFilter) whereClause() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.AccountID != nil {
		conds = append(conds, "account_id = ?")
		args = append(args, *f.AccountID)
	}
	if f.StartDate != nil {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, formatTime(*f.StartDate))
	}
	if f.EndDate != nil {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, formatTime(*f.EndDate))
	}
	if f.Direction != nil {
		conds = append(conds, "direction = ?")
		args = append(args, string(*f.Direction))
	}
	if f.Category != nil {
		// The category column stores a ", "-joined label list; match any
		// position within it. The label is user input, so LIKE wildcards
		// in it are escaped.
		conds = append(conds, `(category = ? OR category LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\')`)
		label := escapeLike(*f.Category)
		args = append(args, *f.Category, label+", %", "%, "+label, "%, "+label+", %")
	}
	if f.PaymentMethod != nil {
		conds = append(conds, "payment_method = ?")
		args = append(args, string(*f.PaymentMethod))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (q *Queries) FilterTransactions(ctx context.Context, filter TransactionFilter) ([]core.Transaction, error) {
	where, args := filter.whereClause()
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, occurred_at, direction, amount_cents, account_id, description, payment_method, category
		FROM transactions`+where+`
		ORDER BY occurred_at ASC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("filter transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var occurredAt, direction, paymentMethod, category string
		if err := rows.Scan(&t.ID, &occurredAt, &direction, &t.Amount.Cents, &t.AccountID,
			&t.Description, &paymentMethod, &category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.OccurredAt = parseTime(occurredAt)
		t.Direction = core.Direction(direction)
		t.PaymentMethod = core.PaymentMethod(paymentMethod)
		t.Categories = core.SplitCategories(category)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// ---- budgets ----

type CreateBudgetParams struct {
	Name           string
	Category       string
	AllocatedCents int64
	SpentCents     int64
	AccountID      int64
}

func (q *Queries) CreateBudget(ctx context.Context, arg CreateBudgetParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO budgets (name, category, allocated_cents, spent_cents, account_id)
		VALUES (?, ?, ?, ?, ?)`,
		arg.Name, arg.Category, arg.AllocatedCents, arg.SpentCents, arg.AccountID)
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("budget insert id: %w", err)
	}
	return id, nil
}

func (q *Queries) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	var b core.Budget
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, category, allocated_cents, spent_cents, account_id
		FROM budgets WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Category, &b.Allocated.Cents, &b.Spent.Cents, &b.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrBudgetNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("select budget: %w", err)
	}
	return b, nil
}

func (q *Queries) ListBudgets(ctx context.Context, accountID *int64) ([]core.Budget, error) {
	query := `SELECT id, name, category, allocated_cents, spent_cents, account_id FROM budgets`
	var args []any
	if accountID != nil {
		query += ` WHERE account_id = ?`
		args = append(args, *accountID)
	}
	query += ` ORDER BY id`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Name, &b.Category, &b.Allocated.Cents, &b.Spent.Cents, &b.AccountID); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

type UpdateBudgetParams struct {
	ID             int64
	Name           string
	Category       string
	AllocatedCents int64
}

func (q *Queries) UpdateBudget(ctx context.Context, arg UpdateBudgetParams) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE budgets SET name = ?, category = ?, allocated_cents = ? WHERE id = ?`,
		arg.Name, arg.Category, arg.AllocatedCents, arg.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update budget rows: %w", err)
	}
	if n == 0 {
		return core.ErrBudgetNotFound
	}
	return nil
}

func (q *Queries) DeleteBudget(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget rows: %w", err)
	}
	if n == 0 {
		return core.ErrBudgetNotFound
	}
	return nil
}

// RecordBudgetSpend adds delta to the spent amount of the (category,
// account) budget row, creating the row with zero allocation when missing.
// Delta may be negative for reversals.
func (q *Queries) RecordBudgetSpend(ctx context.Context, category string, accountID, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE budgets SET spent_cents = spent_cents + ?
		WHERE category = ? AND account_id = ?`,
		deltaCents, category, accountID)
	if err != nil {
		return fmt.Errorf("update budget spent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("budget spent rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO budgets (name, category, allocated_cents, spent_cents, account_id)
		VALUES (?, ?, 0, ?, ?)`,
		category, category, deltaCents, accountID)
	if err != nil {
		return fmt.Errorf("insert implicit budget: %w", err)
	}
	return nil
}

// ---- custom categories ----

type CreateCustomCategoryParams struct {
	AccountID int64
	Direction core.Direction
	Name      string
}

// CreateCustomCategory is idempotent: a duplicate (account, direction, name)
// insert is silently ignored.
func (q *Queries) CreateCustomCategory(ctx context.Context, arg CreateCustomCategoryParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO custom_categories (account_id, direction, name)
		VALUES (?, ?, ?)`,
		arg.AccountID, string(arg.Direction), arg.Name)
	if err != nil {
		return fmt.Errorf("insert custom category: %w", err)
	}
	return nil
}

func (q *Queries) ListCustomCategories(ctx context.Context, accountID int64, direction core.Direction) ([]core.CustomCategory, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, account_id, direction, name FROM custom_categories
		WHERE account_id = ? AND direction = ? ORDER BY name`,
		accountID, string(direction))
	if err != nil {
		return nil, fmt.Errorf("select custom categories: %w", err)
	}
	defer rows.Close()

	var cats []core.CustomCategory
	for rows.Next() {
		var c core.CustomCategory
		var dir string
		if err := rows.Scan(&c.ID, &c.AccountID, &dir, &c.Name); err != nil {
			return nil, fmt.Errorf("scan custom category: %w", err)
		}
		c.Direction = core.Direction(dir)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (q *Queries) ListAllCustomCategories(ctx context.Context) ([]core.CustomCategory, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, account_id, direction, name FROM custom_categories
		ORDER BY account_id, direction, name`)
	if err != nil {
		return nil, fmt.Errorf("select custom categories: %w", err)
	}
	defer rows.Close()

	var cats []core.CustomCategory
	for rows.Next() {
		var c core.CustomCategory
		var dir string
		if err := rows.Scan(&c.ID, &c.AccountID, &dir, &c.Name); err != nil {
			return nil, fmt.Errorf("scan custom category: %w", err)
		}
		c.Direction = core.Direction(dir)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (q *Queries) DeleteCustomCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM custom_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete custom category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete custom category rows: %w", err)
	}
	if n == 0 {
		return core.ErrCategoryNotFound
	}
	return nil
}

// ---- keyword categories ----

// ListKeywordCategories returns keyword categories in insertion order, the
// order resolution scans them in.
func (q *Queries) ListKeywordCategories(ctx context.Context) ([]core.KeywordCategory, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, keywords FROM keyword_categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select keyword categories: %w", err)
	}
	defer rows.Close()

	var cats []core.KeywordCategory
	for rows.Next() {
		var c core.KeywordCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Keywords); err != nil {
			return nil, fmt.Errorf("scan keyword category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (q *Queries) CreateKeywordCategory(ctx context.Context, name, keywords string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO keyword_categories (name, keywords) VALUES (?, ?)`,
		name, keywords)
	if err != nil {
		return fmt.Errorf("insert keyword category: %w", err)
	}
	return nil
}

func (q *Queries) DeleteKeywordCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM keyword_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete keyword category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete keyword category rows: %w", err)
	}
	if n == 0 {
		return core.ErrCategoryNotFound
	}
	return nil
}

// ---- dashboard aggregates ----

// DirectionTotals returns the IN and OUT totals for the filtered set.
func (q *Queries) DirectionTotals(ctx context.Context, filter TransactionFilter) (in, out int64, err error) {
	where, args := filter.whereClause()
	err = q.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE direction WHEN 'IN' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE direction WHEN 'OUT' THEN amount_cents ELSE 0 END), 0)
		FROM transactions`+where, args...).Scan(&in, &out)
	if err != nil {
		return 0, 0, fmt.Errorf("direction totals: %w", err)
	}
	return in, out, nil
}

// TotalBalance sums the balances of every account.
func (q *Queries) TotalBalance(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	if err := q.db.QueryRowContext(ctx,
		`SELECT SUM(balance_cents) FROM accounts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("total balance: %w", err)
	}
	return total.Int64, nil
}

// ---- sync queue ----

type PendingSyncTransaction struct {
	ID        int64
	CreatedAt time.Time
}

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]PendingSyncTransaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, created_at FROM transactions
		WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending sync transactions: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		var createdAt string
		if err := rows.Scan(&p.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending sync transaction: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (q *Queries) SetTransactionSyncStatus(ctx context.Context, id int64, status string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set sync status rows: %w", err)
	}
	if n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}
