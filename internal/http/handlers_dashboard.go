package http

import (
	"log/slog"
	"net/http"

	"floosafandy/internal/core"
	"floosafandy/internal/services"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List accounts for index failed", "error", err)
	}

	data := struct {
		Accounts       []core.Account
		PaymentMethods []core.PaymentMethod
	}{
		Accounts: accounts,
		PaymentMethods: []core.PaymentMethod{
			core.PaymentCash, core.PaymentCard, core.PaymentBankTransfer,
		},
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	cacheKey := r.URL.RawQuery
	overview, hit := s.overviewCache.Get(cacheKey)
	if !hit {
		var err error
		overview, err = s.ledger.Overview(r.Context(), ParseTransactionFilter(r.URL.Query()))
		if err != nil {
			slog.ErrorContext(r.Context(), "Overview failed", "error", err)
			errorResponseFor(err).Write(w)
			return
		}
		s.overviewCache.Set(cacheKey, overview)
	}

	today, err := s.ledger.TodaySummary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Today summary failed", "error", err)
		errorResponseFor(err).Write(w)
		return
	}

	data := struct {
		Overview core.Overview
		Today    core.DaySummary
		Cached   bool
	}{Overview: overview, Today: today, Cached: hit}

	if err := s.templates.ExecuteTemplate(w, "overview.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Overview template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	alerts, err := s.alerts.Evaluate(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Alert evaluation failed", "error", err)
		errorResponseFor(err).Write(w)
		return
	}

	data := struct {
		Alerts []services.Alert
	}{Alerts: alerts}

	if err := s.templates.ExecuteTemplate(w, "alerts.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Alerts template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
