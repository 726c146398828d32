package http

import (
	"log/slog"
	"net/http"

	"floosafandy/internal/core"
	"floosafandy/internal/services"
)

// budgetView pairs a budget with its remaining amount for rendering.
type budgetView struct {
	core.Budget
	Remaining core.Money
	Over      bool
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderBudgetList(w, r)
	case http.MethodPost:
		s.createBudget(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderBudgetList(w http.ResponseWriter, r *http.Request) {
	var accountID *int64
	if v := r.URL.Query().Get("account_id"); v != "" {
		if id, err := parseID(v); err == nil {
			accountID = &id
		}
	}

	budgets, err := s.ledger.ListBudgets(r.Context(), accountID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets failed", "error", err)
		errorResponseFor(err).Write(w)
		return
	}

	views := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, budgetView{
			Budget:    b,
			Remaining: b.Allocated.Sub(b.Spent),
			Over:      b.Allocated.LessThan(b.Spent),
		})
	}

	data := struct {
		Budgets []budgetView
	}{Budgets: views}

	if err := s.templates.ExecuteTemplate(w, "budgets.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Budget list template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) createBudget(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	accountID, err := parseID(r.Form.Get("account_id"))
	if err != nil {
		BadRequestError("Invalid account").Write(w)
		return
	}
	cents, err := core.ParseDecimalToCents(r.Form.Get("allocated"))
	if err != nil {
		UnprocessableEntityError("Invalid allocated amount").Write(w)
		return
	}

	budget, err := s.ledger.CreateBudget(r.Context(), services.CreateBudgetParams{
		Name:      sanitizeInput(r.Form.Get("name")),
		Category:  sanitizeInput(r.Form.Get("category")),
		Allocated: core.Money{Cents: cents},
		AccountID: accountID,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create budget failed", "error", err)
		errorResponseFor(err).Write(w)
		return
	}

	NewHTMXResponse().
		TriggerBudgetsChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Budget " + budget.Name + " created").
		BodyHTML(`<div class="success">Created</div>`).
		Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Invalid budget").Write(w)
		return
	}
	cents, err := core.ParseDecimalToCents(r.Form.Get("allocated"))
	if err != nil {
		UnprocessableEntityError("Invalid allocated amount").Write(w)
		return
	}

	err = s.ledger.UpdateBudget(r.Context(), services.UpdateBudgetParams{
		ID:        id,
		Name:      sanitizeInput(r.Form.Get("name")),
		Category:  sanitizeInput(r.Form.Get("category")),
		Allocated: core.Money{Cents: cents},
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Update budget failed", "error", err, "id", id)
		errorResponseFor(err).Write(w)
		return
	}

	NewHTMXResponse().
		TriggerBudgetsChanged().
		TriggerSuccessNotification("Budget updated").
		BodyHTML(`<div class="success">Updated</div>`).
		Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Invalid budget").Write(w)
		return
	}

	if err := s.ledger.DeleteBudget(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete budget failed", "error", err, "id", id)
		errorResponseFor(err).Write(w)
		return
	}

	NewHTMXResponse().
		TriggerBudgetsChanged().
		TriggerSuccessNotification("Budget deleted").
		BodyHTML(``).
		Write(w)
}
