package http

import (
	"log/slog"
	"net/http"

	"floosafandy/internal/core"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderCategoryList(w, r)
	case http.MethodPost:
		s.createCategory(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderCategoryList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		custom  []core.CustomCategory
		keyword []core.KeywordCategory
		err     error
	)
	if v := query.Get("account_id"); v != "" {
		accountID, idErr := parseID(v)
		if idErr != nil {
			BadRequestError("Invalid account").Write(w)
			return
		}
		direction := core.Direction(query.Get("direction"))
		if direction.Validate() != nil {
			direction = core.Out
		}
		custom, err = s.ledger.ListCustomCategories(r.Context(), accountID, direction)
	} else {
		keyword, err = s.ledger.ListKeywordCategories(r.Context())
		if err == nil {
			custom, err = s.ledger.ListAllCustomCategories(r.Context())
		}
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		errorResponseFor(err).Write(w)
		return
	}

	data := struct {
		Custom  []core.CustomCategory
		Keyword []core.KeywordCategory
	}{Custom: custom, Keyword: keyword}

	if err := s.templates.ExecuteTemplate(w, "categories.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Category list template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))

	// Account-scoped entries go to the custom list, global ones to the
	// keyword table.
	var err error
	if v := r.Form.Get("account_id"); v != "" {
		accountID, idErr := parseID(v)
		if idErr != nil {
			BadRequestError("Invalid account").Write(w)
			return
		}
		direction := core.Direction(sanitizeInput(r.Form.Get("direction")))
		err = s.ledger.AddCustomCategory(r.Context(), accountID, direction, name)
	} else {
		err = s.ledger.AddKeywordCategory(r.Context(), name, sanitizeInput(r.Form.Get("keywords")))
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Create category failed", "error", err)
		errorResponseFor(err).Write(w)
		return
	}

	NewHTMXResponse().
		Trigger("categories:changed", struct{}{}).
		TriggerFormReset().
		TriggerSuccessNotification("Category " + name + " created").
		BodyHTML(`<div class="success">Created</div>`).
		Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Invalid category").Write(w)
		return
	}

	if r.Form.Get("kind") == "keyword" {
		err = s.ledger.DeleteKeywordCategory(r.Context(), id)
	} else {
		err = s.ledger.DeleteCustomCategory(r.Context(), id)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete category failed", "error", err, "id", id)
		errorResponseFor(err).Write(w)
		return
	}

	NewHTMXResponse().
		Trigger("categories:changed", struct{}{}).
		TriggerSuccessNotification("Category deleted").
		BodyHTML(``).
		Write(w)
}
