package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ReportService builds aggregated reports over an owner's ledger and
// goals. Results are cached per owner; writes elsewhere invalidate the
// owner's entries.
type ReportService struct {
	repo  *storage.Repository
	cache *cache.LRUCache[core.Report]
}

func NewReportService(repo *storage.Repository, c *cache.LRUCache[core.Report]) *ReportService {
	return &ReportService{repo: repo, cache: c}
}

// Build computes the full report, optionally restricted to an
// inclusive date range. Category totals carry display names resolved
// from the owner's forest; an unknown category keeps its raw ID.
func (s *ReportService) Build(ctx context.Context, id auth.Identity, rng *core.DateRange) (core.Report, error) {
	if err := auth.Require(id); err != nil {
		return core.Report{}, err
	}

	key := reportKey(id.UID, rng)
	if s.cache != nil {
		if rep, ok := s.cache.Get(key); ok {
			return rep, nil
		}
	}

	transactions, err := s.repo.ListTransactions(ctx, id.UID)
	if err != nil {
		return core.Report{}, fmt.Errorf("list transactions: %w", err)
	}
	goals, err := s.repo.ListGoals(ctx, id.UID)
	if err != nil {
		return core.Report{}, fmt.Errorf("list goals: %w", err)
	}

	rep, err := core.Aggregate(transactions, goals, rng)
	if err != nil {
		return core.Report{}, err
	}

	if err := s.resolveCategoryNames(ctx, id.UID, &rep); err != nil {
		return core.Report{}, err
	}

	if s.cache != nil {
		s.cache.Set(key, rep)
	}
	return rep, nil
}

// SpendingTrends returns the owner's expense entries since the start
// of the given period ("week", "month" or "year"), newest date first.
func (s *ReportService) SpendingTrends(ctx context.Context, id auth.Identity, period string) ([]core.Transaction, error) {
	if err := auth.Require(id); err != nil {
		return nil, err
	}
	switch period {
	case "week", "month", "year":
	default:
		return nil, fmt.Errorf("unknown trend period %q", period)
	}

	transactions, err := s.repo.ListTransactions(ctx, id.UID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.SpendingSince(transactions, period, time.Now()), nil
}

// resolveCategoryNames maps the raw category IDs in the grouped totals
// to the owner's category names.
func (s *ReportService) resolveCategoryNames(ctx context.Context, ownerID string, rep *core.Report) error {
	categories, err := s.repo.ListCategories(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	rename := func(groups []core.CategoryTotal) {
		for i := range groups {
			if name, ok := names[groups[i].Category]; ok {
				groups[i].Category = name
			}
		}
	}
	rename(rep.ExpensesByCategory)
	rename(rep.IncomeByCategory)
	return nil
}

func reportKey(ownerID string, rng *core.DateRange) string {
	if rng == nil {
		return cache.Key(ownerID, "report", "all")
	}
	return cache.Key(ownerID, "report",
		rng.From.Format(time.RFC3339), rng.To.Format(time.RFC3339))
}
