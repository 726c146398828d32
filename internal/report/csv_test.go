package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"floosafandy/internal/core"
)

func TestWriteCSV(t *testing.T) {
	occurred := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	txns := []core.Transaction{
		{
			ID:            1,
			OccurredAt:    occurred,
			Direction:     core.Out,
			Amount:        core.Money{Cents: 12_34},
			AccountID:     7,
			Description:   "grocery, with comma",
			PaymentMethod: core.PaymentCash,
			Categories:    []string{"food"},
		},
		{
			ID:            2,
			OccurredAt:    occurred.Add(time.Hour),
			Direction:     core.In,
			Amount:        core.Money{Cents: 500_00},
			AccountID:     7,
			PaymentMethod: core.PaymentBankTransfer,
			Categories:    []string{"salary", "bonus"},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, txns); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3 (header + 2 rows)", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v, want %v", records[0], csvHeader)
	}

	first := records[1]
	if first[1] != "2025-03-14 09:30:00" {
		t.Errorf("date = %q", first[1])
	}
	if first[3] != "12.34" {
		t.Errorf("amount = %q, want 12.34", first[3])
	}
	if first[5] != "grocery, with comma" {
		t.Errorf("description = %q, comma not preserved", first[5])
	}

	second := records[2]
	if second[7] != "salary, bonus" {
		t.Errorf("category = %q, want joined labels", second[7])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want header only", len(records))
	}
}
