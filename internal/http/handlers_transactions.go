package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"floosafandy/internal/core"
	applog "floosafandy/internal/log"
	"floosafandy/internal/report"
	"floosafandy/internal/services"
)

// errorResponseFor maps domain errors to HTTP error responses.
func errorResponseFor(err error) *HTMXResponseBuilder {
	switch {
	case errors.Is(err, core.ErrAccountNotFound),
		errors.Is(err, core.ErrTransactionNotFound),
		errors.Is(err, core.ErrBudgetNotFound),
		errors.Is(err, core.ErrCategoryNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInsufficientFunds),
		errors.Is(err, core.ErrInvalidDirection),
		errors.Is(err, core.ErrInvalidPayment),
		errors.Is(err, core.ErrEmptyName):
		return UnprocessableEntityError(err.Error())
	default:
		return InternalServerError("Something went wrong")
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderTransactionList(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderTransactionList(w http.ResponseWriter, r *http.Request) {
	filter := ParseTransactionFilter(r.URL.Query())

	txns, err := s.ledger.FilterTransactions(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Filter transactions failed", "error", err)
		errorResponseFor(err).Write(w)
		return
	}

	data := struct {
		Transactions []core.Transaction
	}{Transactions: txns}

	if err := s.templates.ExecuteTemplate(w, "transactions.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Transaction list template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	accountID, err := parseID(r.Form.Get("account_id"))
	if err != nil {
		BadRequestError("Invalid account").Write(w)
		return
	}
	cents, err := core.ParseDecimalToCents(r.Form.Get("amount"))
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	params := services.AddTransactionParams{
		AccountID:     accountID,
		Direction:     core.Direction(sanitizeInput(r.Form.Get("direction"))),
		Amount:        core.Money{Cents: cents},
		Description:   sanitizeInput(r.Form.Get("description")),
		PaymentMethod: core.PaymentMethod(sanitizeInput(r.Form.Get("payment_method"))),
		Categories:    ParseCategories(r.Form.Get("categories")),
	}

	result, err := s.ledger.AddTransaction(r.Context(), params)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add transaction failed", "error", err, "account_id", accountID)
		errorResponseFor(err).Write(w)
		return
	}

	s.overviewCache.Purge()

	resp := NewHTMXResponse().
		TriggerLedgerChanged(accountID).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Transaction saved, new balance %s", result.NewBalance)).
		BodyHTML(`<div class="success">Saved</div>`)
	if result.LowBalance != "" {
		resp.TriggerWarningNotification(result.LowBalance)
	}
	if result.Warning != "" {
		resp.TriggerWarningNotification(result.Warning)
	}
	resp.Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, err := parseID(r.Form.Get("id"))
	if err != nil {
		BadRequestError("Invalid transaction").Write(w)
		return
	}
	accountID, err := parseID(r.Form.Get("account_id"))
	if err != nil {
		BadRequestError("Invalid account").Write(w)
		return
	}
	cents, err := core.ParseDecimalToCents(r.Form.Get("amount"))
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	params := services.EditTransactionParams{
		ID:            id,
		AccountID:     accountID,
		Direction:     core.Direction(sanitizeInput(r.Form.Get("direction"))),
		Amount:        core.Money{Cents: cents},
		Description:   sanitizeInput(r.Form.Get("description")),
		PaymentMethod: core.PaymentMethod(sanitizeInput(r.Form.Get("payment_method"))),
		Categories:    ParseCategories(r.Form.Get("categories")),
	}

	result, err := s.ledger.EditTransaction(r.Context(), params)
	if err != nil {
		slog.ErrorContext(r.Context(), "Edit transaction failed", "error", err, "id", id)
		errorResponseFor(err).Write(w)
		return
	}

	s.overviewCache.Purge()

	resp := NewHTMXResponse().
		TriggerLedgerChanged(accountID).
		TriggerSuccessNotification(fmt.Sprintf("Transaction updated, new balance %s", result.NewBalance)).
		BodyHTML(`<div class="success">Updated</div>`)
	if result.LowBalance != "" {
		resp.TriggerWarningNotification(result.LowBalance)
	}
	if result.Warning != "" {
		resp.TriggerWarningNotification(result.Warning)
	}
	resp.Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, err := parseID(r.Form.Get("id"))
	if err != nil {
		BadRequestError("Invalid transaction").Write(w)
		return
	}

	txn, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		errorResponseFor(err).Write(w)
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete transaction failed", "error", err, "id", id)
		errorResponseFor(err).Write(w)
		return
	}

	s.overviewCache.Purge()

	NewHTMXResponse().
		TriggerLedgerChanged(txn.AccountID).
		TriggerSuccessNotification("Transaction deleted").
		BodyHTML(``).
		Write(w)
}

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	logger := applog.FromContext(r.Context())

	filter := ParseTransactionFilter(r.URL.Query())
	txns, err := s.ledger.FilterTransactions(r.Context(), filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "Export filter failed", "error", err)
		errorResponseFor(err).Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := report.WriteCSV(w, txns); err != nil {
		logger.ErrorContext(r.Context(), "CSV export failed", "error", err)
		return
	}
	logger.InfoContext(r.Context(), "Transactions exported", "count", len(txns))
}
