package http

import (
	"log/slog"
	"net/http"

	"floosafandy/internal/core"
	"floosafandy/internal/services"
)

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderAccountList(w, r)
	case http.MethodPost:
		s.createAccount(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderAccountList(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List accounts failed", "error", err)
		errorResponseFor(err).Write(w)
		return
	}

	data := struct {
		Accounts []core.Account
	}{Accounts: accounts}

	if err := s.templates.ExecuteTemplate(w, "accounts.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Account list template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	balanceCents := int64(0)
	if v := r.Form.Get("balance"); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			UnprocessableEntityError("Invalid opening balance").Write(w)
			return
		}
		balanceCents = cents
	}
	minCents := int64(0)
	if v := r.Form.Get("min_balance"); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			UnprocessableEntityError("Invalid minimum balance").Write(w)
			return
		}
		minCents = cents
	}

	account, err := s.ledger.CreateAccount(r.Context(), services.CreateAccountParams{
		Name:           sanitizeInput(r.Form.Get("name")),
		InitialBalance: core.Money{Cents: balanceCents},
		MinBalance:     core.Money{Cents: minCents},
		Currency:       sanitizeInput(r.Form.Get("currency")),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create account failed", "error", err)
		errorResponseFor(err).Write(w)
		return
	}

	s.overviewCache.Purge()

	NewHTMXResponse().
		TriggerAccountsChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Account " + account.Name + " created").
		BodyHTML(`<div class="success">Created</div>`).
		Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Invalid account").Write(w)
		return
	}
	minCents := int64(0)
	if v := r.Form.Get("min_balance"); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			UnprocessableEntityError("Invalid minimum balance").Write(w)
			return
		}
		minCents = cents
	}

	err = s.ledger.UpdateAccount(r.Context(), services.UpdateAccountParams{
		ID:         id,
		Name:       sanitizeInput(r.Form.Get("name")),
		MinBalance: core.Money{Cents: minCents},
		Currency:   sanitizeInput(r.Form.Get("currency")),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Update account failed", "error", err, "id", id)
		errorResponseFor(err).Write(w)
		return
	}

	NewHTMXResponse().
		TriggerAccountsChanged().
		TriggerSuccessNotification("Account updated").
		BodyHTML(`<div class="success">Updated</div>`).
		Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Invalid account").Write(w)
		return
	}

	if err := s.ledger.DeleteAccount(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete account failed", "error", err, "id", id)
		errorResponseFor(err).Write(w)
		return
	}

	s.overviewCache.Purge()

	NewHTMXResponse().
		TriggerAccountsChanged().
		TriggerLedgerChanged(id).
		TriggerSuccessNotification("Account deleted with its transactions and budgets").
		BodyHTML(``).
		Write(w)
}
