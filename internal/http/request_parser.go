// Package http provides the web server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data: filter extraction from query strings, form helpers and method
// guards shared by the handlers.
package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"floosafandy/internal/core"
	"floosafandy/internal/storage"
)

const dateLayout = "2006-01-02"

// ParseTransactionFilter extracts optional filter predicates from query
// parameters. Invalid values are skipped rather than rejected; an empty
// query selects everything.
func ParseTransactionFilter(query url.Values) storage.TransactionFilter {
	var filter storage.TransactionFilter

	if v := strings.TrimSpace(query.Get("account_id")); v != "" {
		if id, err := parseID(v); err == nil {
			filter.AccountID = &id
		}
	}
	if v := strings.TrimSpace(query.Get("start_date")); v != "" {
		if t, err := time.Parse(dateLayout, v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := strings.TrimSpace(query.Get("end_date")); v != "" {
		if t, err := time.Parse(dateLayout, v); err == nil {
			// Inclusive upper bound: extend to the end of the day.
			end := t.Add(24*time.Hour - time.Second)
			filter.EndDate = &end
		}
	}
	if v := strings.TrimSpace(query.Get("direction")); v != "" {
		d := core.Direction(strings.ToUpper(v))
		if d.Validate() == nil {
			filter.Direction = &d
		}
	}
	if v := sanitizeInput(query.Get("category")); v != "" {
		filter.Category = &v
	}
	if v := strings.TrimSpace(query.Get("payment_method")); v != "" {
		p := core.PaymentMethod(v)
		if p.Validate() == nil {
			filter.PaymentMethod = &p
		}
	}

	return filter
}

// ParseCategories splits a comma-separated category form value into clean
// labels.
func ParseCategories(raw string) []string {
	parts := strings.Split(sanitizeInput(raw), ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on
// failure. Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
