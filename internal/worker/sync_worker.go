package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"floosafandy/internal/amqp"
	"floosafandy/internal/core"
	"floosafandy/internal/report"
	"floosafandy/internal/storage"
)

// SyncWorker pushes committed ledger rows to the report sink. It consumes
// transaction events from AMQP and sweeps the pending queue as a backup
// in case messages are lost.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	sink      report.RowWriter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, sink report.RowWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		sink:      sink,
		batchSize: batchSize,
	}
}

// HandleEvent dispatches a single transaction event from AMQP.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	switch ev.Type {
	case amqp.EventSync:
		return w.handleSync(ctx, ev)
	case amqp.EventDelete:
		return w.handleDelete(ctx, ev)
	default:
		slog.WarnContext(ctx, "Dropping event of unknown type", "type", ev.Type, "id", ev.ID)
		return nil
	}
}

func (w *SyncWorker) handleSync(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing sync event", "id", ev.ID)

	txn, err := w.storage.GetTransaction(ctx, ev.ID)
	if err != nil {
		// Deleted before the worker got to it; the delete event carries
		// everything the sink needs.
		if errors.Is(err, core.ErrTransactionNotFound) {
			slog.WarnContext(ctx, "Transaction gone before sync, skipping", "id", ev.ID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.exportTransaction(ctx, txn)
}

func (w *SyncWorker) handleDelete(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing delete event", "id", ev.ID)

	ref, err := w.sink.Append(ctx, report.Row{
		TransactionID: ev.ID,
		OccurredAt:    ev.Timestamp,
		Direction:     ev.Direction,
		AmountCents:   ev.AmountCents,
		AccountName:   fmt.Sprintf("account-%d", ev.AccountID),
		Description:   ev.Description,
		Category:      ev.Category,
		Reversal:      true,
	})
	if err != nil {
		return fmt.Errorf("append reversal row: %w", err)
	}

	slog.InfoContext(ctx, "Reversal row exported", "id", ev.ID, "sheet_ref", ref)
	return nil
}

func (w *SyncWorker) exportTransaction(ctx context.Context, txn core.Transaction) error {
	accountName := fmt.Sprintf("account-%d", txn.AccountID)
	if account, err := w.storage.Queries().GetAccount(ctx, txn.AccountID); err == nil {
		accountName = account.Name
	}

	ref, err := w.sink.Append(ctx, report.Row{
		TransactionID: txn.ID,
		OccurredAt:    txn.OccurredAt,
		Direction:     string(txn.Direction),
		AmountCents:   txn.Amount.Cents,
		AccountName:   accountName,
		Description:   txn.Description,
		Category:      core.JoinCategories(txn.Categories),
	})
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, txn.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", txn.ID, "error", markErr)
		}
		return fmt.Errorf("append row: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, txn.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction exported", "id", txn.ID, "sheet_ref", ref)
	return nil
}

// ProcessPendingTransactions sweeps rows the event stream missed. Failures
// are logged per row and do not stop the sweep.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		txn, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get pending transaction", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}
		if err := w.exportTransaction(ctx, txn); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction", "id", p.ID, "error", err)
			continue
		}
	}
	return nil
}

// Run consumes the pending queue on the configured interval until ctx is
// cancelled. An immediate sweep on startup recovers rows missed during
// downtime.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.ProcessPendingTransactions(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Sync worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPendingTransactions(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
			}
		}
	}
}
