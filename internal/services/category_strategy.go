// Package services provides the ledger engine and its supporting logic.
//
// This file implements the Strategy Pattern for category resolution. A
// deployment runs exactly one mode: automatic keyword matching against the
// transaction description, or explicit selection from per-account custom
// category lists.
package services

import (
	"context"
	"fmt"
	"strings"

	"floosafandy/internal/core"
	"floosafandy/internal/storage"
)

const (
	// CategoryModeKeyword resolves categories by keyword matching.
	CategoryModeKeyword = "keyword"
	// CategoryModeCustom resolves categories from explicit user selection.
	CategoryModeCustom = "custom"
)

// ResolveRequest carries everything a resolver may consult.
type ResolveRequest struct {
	AccountID   int64
	Direction   core.Direction
	Description string
	// Explicit holds the caller's category selection, if any.
	Explicit []string
}

// CategoryResolver maps a transaction to one or more category labels.
// Resolvers run inside the engine's database transaction, so any category
// they persist commits or rolls back together with the ledger mutation.
type CategoryResolver interface {
	Resolve(ctx context.Context, q *storage.Queries, req ResolveRequest) ([]string, error)
}

// KeywordResolver matches the description against the global keyword table.
// The first category whose keyword occurs in the lowercased description wins,
// in insertion order. No match falls back to the raw description, or to the
// uncategorized label when the description is empty.
type KeywordResolver struct{}

func (KeywordResolver) Resolve(ctx context.Context, q *storage.Queries, req ResolveRequest) ([]string, error) {
	if labels := cleanLabels(req.Explicit); len(labels) > 0 {
		return labels, nil
	}

	cats, err := q.ListKeywordCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keyword categories: %w", err)
	}

	desc := strings.ToLower(req.Description)
	for _, cat := range cats {
		for _, kw := range strings.Split(cat.Keywords, ",") {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(desc, kw) {
				return []string{cat.Name}, nil
			}
		}
	}

	if d := strings.TrimSpace(req.Description); d != "" {
		return []string{d}, nil
	}
	return []string{core.Uncategorized}, nil
}

// CustomResolver accepts the caller's explicit selection and persists any
// label not yet present in the (account, direction) category list. The
// insert is idempotent, so re-using an existing label is a no-op.
type CustomResolver struct{}

func (CustomResolver) Resolve(ctx context.Context, q *storage.Queries, req ResolveRequest) ([]string, error) {
	labels := cleanLabels(req.Explicit)
	if len(labels) == 0 {
		return []string{core.Uncategorized}, nil
	}

	for _, label := range labels {
		err := q.CreateCustomCategory(ctx, storage.CreateCustomCategoryParams{
			AccountID: req.AccountID,
			Direction: req.Direction,
			Name:      label,
		})
		if err != nil {
			return nil, fmt.Errorf("persist custom category %q: %w", label, err)
		}
	}
	return labels, nil
}

func cleanLabels(labels []string) []string {
	cleaned := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l != "" {
			cleaned = append(cleaned, l)
		}
	}
	return cleaned
}

// categoryStrategies maps configured modes to their resolver implementations.
var categoryStrategies = map[string]CategoryResolver{
	CategoryModeKeyword: KeywordResolver{},
	CategoryModeCustom:  CustomResolver{},
}

// GetCategoryResolver returns the resolver for the configured mode.
func GetCategoryResolver(mode string) (CategoryResolver, error) {
	resolver, ok := categoryStrategies[mode]
	if !ok {
		return nil, fmt.Errorf("unknown category mode: %s", mode)
	}
	return resolver, nil
}
