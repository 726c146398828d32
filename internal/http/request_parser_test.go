package http

import (
	"net/url"
	"testing"

	"floosafandy/internal/core"
)

func TestParseTransactionFilter(t *testing.T) {
	query := url.Values{}
	query.Set("account_id", "3")
	query.Set("start_date", "2025-01-01")
	query.Set("end_date", "2025-01-31")
	query.Set("direction", "out")
	query.Set("category", "food")
	query.Set("payment_method", "cash")

	filter := ParseTransactionFilter(query)

	if filter.AccountID == nil || *filter.AccountID != 3 {
		t.Errorf("AccountID = %v, want 3", filter.AccountID)
	}
	if filter.StartDate == nil || filter.StartDate.Format("2006-01-02") != "2025-01-01" {
		t.Errorf("StartDate = %v, want 2025-01-01", filter.StartDate)
	}
	// End bound is inclusive: the whole end day is covered.
	if filter.EndDate == nil || filter.EndDate.Format("2006-01-02 15:04:05") != "2025-01-31 23:59:59" {
		t.Errorf("EndDate = %v, want end of 2025-01-31", filter.EndDate)
	}
	if filter.Direction == nil || *filter.Direction != core.Out {
		t.Errorf("Direction = %v, want OUT", filter.Direction)
	}
	if filter.Category == nil || *filter.Category != "food" {
		t.Errorf("Category = %v, want food", filter.Category)
	}
	if filter.PaymentMethod == nil || *filter.PaymentMethod != core.PaymentCash {
		t.Errorf("PaymentMethod = %v, want cash", filter.PaymentMethod)
	}
}

func TestParseTransactionFilterEmpty(t *testing.T) {
	filter := ParseTransactionFilter(url.Values{})

	if filter.AccountID != nil || filter.StartDate != nil || filter.EndDate != nil ||
		filter.Direction != nil || filter.Category != nil || filter.PaymentMethod != nil {
		t.Errorf("empty query produced non-empty filter: %+v", filter)
	}
}

func TestParseTransactionFilterInvalidValuesSkipped(t *testing.T) {
	query := url.Values{}
	query.Set("account_id", "not-a-number")
	query.Set("start_date", "31/01/2025")
	query.Set("direction", "SIDEWAYS")
	query.Set("payment_method", "iou")

	filter := ParseTransactionFilter(query)

	if filter.AccountID != nil {
		t.Errorf("AccountID = %v, want nil for invalid input", filter.AccountID)
	}
	if filter.StartDate != nil {
		t.Errorf("StartDate = %v, want nil for invalid input", filter.StartDate)
	}
	if filter.Direction != nil {
		t.Errorf("Direction = %v, want nil for invalid input", filter.Direction)
	}
	if filter.PaymentMethod != nil {
		t.Errorf("PaymentMethod = %v, want nil for invalid input", filter.PaymentMethod)
	}
}

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"single", "food", []string{"food"}},
		{"multiple with spaces", " food , travel ,bills", []string{"food", "travel", "bills"}},
		{"empty", "", nil},
		{"only separators", " , ,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCategories(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseCategories(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("label[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain  ", "plain"},
		{"with\x00control\x07chars", "withcontrolchars"},
		{"keeps\ttabs and\nnewlines", "keeps\ttabs and\nnewlines"},
	}

	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-3", "abc"} {
		if _, err := parseID(bad); err == nil {
			t.Errorf("parseID(%q) expected error", bad)
		}
	}
}
