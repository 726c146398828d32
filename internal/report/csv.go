package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"floosafandy/internal/core"
)

var csvHeader = []string{"id", "date", "direction", "amount", "account_id", "description", "payment_method", "category"}

// WriteCSV serializes transactions in filter order.
func WriteCSV(w io.Writer, txns []core.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txns {
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.OccurredAt.Format("2006-01-02 15:04:05"),
			string(t.Direction),
			t.Amount.String(),
			strconv.FormatInt(t.AccountID, 10),
			t.Description,
			string(t.PaymentMethod),
			core.JoinCategories(t.Categories),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
