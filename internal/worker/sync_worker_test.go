package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"floosafandy/internal/amqp"
	"floosafandy/internal/core"
	"floosafandy/internal/report"
	"floosafandy/internal/storage"
)

type fakeSink struct {
	rows    []report.Row
	failing bool
}

func (f *fakeSink) Append(ctx context.Context, row report.Row) (string, error) {
	if f.failing {
		return "", errors.New("sink unavailable")
	}
	f.rows = append(f.rows, row)
	return fmt.Sprintf("Sheet!A%d", len(f.rows)), nil
}

func newWorkerTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedTransaction(t *testing.T, repo *storage.SQLiteRepository, desc string) int64 {
	t.Helper()
	ctx := context.Background()
	account, err := repo.Queries().CreateAccount(ctx, storage.CreateAccountParams{
		Name:      "Checking",
		Currency:  "USD",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	id, err := repo.Queries().CreateTransaction(ctx, storage.CreateTransactionParams{
		OccurredAt:    time.Now().UTC(),
		Direction:     core.Out,
		AmountCents:   25_00,
		AccountID:     account.ID,
		Description:   desc,
		PaymentMethod: core.PaymentCash,
		Category:      "food",
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return id
}

func TestHandleSyncEvent(t *testing.T) {
	repo := newWorkerTestRepo(t)
	sink := &fakeSink{}
	w := NewSyncWorker(repo, sink, 10)
	ctx := context.Background()

	id := seedTransaction(t, repo, "grocery run")

	if err := w.HandleEvent(ctx, amqp.NewSyncEvent(id)); err != nil {
		t.Fatalf("handle sync event: %v", err)
	}

	if len(sink.rows) != 1 {
		t.Fatalf("exported rows = %d, want 1", len(sink.rows))
	}
	row := sink.rows[0]
	if row.TransactionID != id {
		t.Errorf("row id = %d, want %d", row.TransactionID, id)
	}
	if row.AccountName != "Checking" {
		t.Errorf("account name = %q, want Checking", row.AccountName)
	}
	if row.Reversal {
		t.Error("sync row marked as reversal")
	}

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after sync = %d, want 0", len(pending))
	}
}

func TestHandleSyncEventMissingTransaction(t *testing.T) {
	repo := newWorkerTestRepo(t)
	w := NewSyncWorker(repo, &fakeSink{}, 10)

	// A row deleted before the worker caught up is not an error; the delete
	// event handles the reversal.
	if err := w.HandleEvent(context.Background(), amqp.NewSyncEvent(9999)); err != nil {
		t.Errorf("handle sync for missing transaction: %v", err)
	}
}

func TestHandleDeleteEvent(t *testing.T) {
	repo := newWorkerTestRepo(t)
	sink := &fakeSink{}
	w := NewSyncWorker(repo, sink, 10)

	ev := amqp.NewDeleteEvent(core.Transaction{
		ID:          7,
		Direction:   core.Out,
		Amount:      core.Money{Cents: 12_50},
		AccountID:   1,
		Description: "cinema ticket",
		Categories:  []string{"entertainment"},
	})
	if err := w.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("handle delete event: %v", err)
	}

	if len(sink.rows) != 1 {
		t.Fatalf("exported rows = %d, want 1", len(sink.rows))
	}
	row := sink.rows[0]
	if !row.Reversal {
		t.Error("delete row not marked as reversal")
	}
	if row.AmountCents != 12_50 {
		t.Errorf("amount = %d, want %d", row.AmountCents, 12_50)
	}
	if row.Category != "entertainment" {
		t.Errorf("category = %q, want entertainment", row.Category)
	}
}

func TestProcessPendingTransactions(t *testing.T) {
	repo := newWorkerTestRepo(t)
	sink := &fakeSink{}
	w := NewSyncWorker(repo, sink, 10)
	ctx := context.Background()

	id := seedTransaction(t, repo, "water bill")

	if err := w.ProcessPendingTransactions(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("exported rows = %d, want 1", len(sink.rows))
	}

	// A second sweep finds nothing left.
	if err := w.ProcessPendingTransactions(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(sink.rows) != 1 {
		t.Errorf("rows after second sweep = %d, want 1", len(sink.rows))
	}

	txn, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if txn.ID != id {
		t.Errorf("transaction id = %d, want %d", txn.ID, id)
	}
}

func TestProcessPendingSinkFailure(t *testing.T) {
	repo := newWorkerTestRepo(t)
	sink := &fakeSink{failing: true}
	w := NewSyncWorker(repo, sink, 10)
	ctx := context.Background()

	seedTransaction(t, repo, "internet bill")

	// A failing sink marks the row instead of aborting the sweep.
	if err := w.ProcessPendingTransactions(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after failed export = %d, want 0 (marked as error)", len(pending))
	}
}
