package report

import (
	"context"
	"time"
)

// Row is one exported ledger row. Deleted transactions are exported as
// reversal rows; already exported rows are never rewritten.
type Row struct {
	TransactionID int64
	OccurredAt    time.Time
	Direction     string
	AmountCents   int64
	AccountName   string
	Description   string
	Category      string
	Reversal      bool
}

// RowWriter is the outbound port for the export sink.
type RowWriter interface {
	Append(ctx context.Context, row Row) (rowRef string, err error)
}
