package reports

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bibliodash/bibliodash/internal/shared"
)

// Repository exposes the view queries behind every report. Search arguments
// are ILIKE patterns built with LikePattern.
type Repository interface {
	FineSummaries(ctx context.Context, filter FineFilter) ([]FineSummary, error)
	OverdueLoans(ctx context.Context, pattern string, page Page) ([]OverdueLoan, error)
	OverdueTotals(ctx context.Context, pattern string) (OverdueTotals, error)
	PopularBooks(ctx context.Context, pattern string, page Page) ([]PopularBook, error)
	CountPopularBooks(ctx context.Context, pattern string) (int, error)
	Members(ctx context.Context, pattern string, page Page) ([]MemberActivity, error)
	CountMembers(ctx context.Context, pattern string) (int, error)
	InventoryCategories(ctx context.Context) ([]InventoryCategory, error)
	DashboardTotals(ctx context.Context) (DashboardTotals, error)
}

// Service assembles report payloads from the repository. On error every
// method returns the empty report for its filter alongside the error.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService wires a Repository with an optional Cache.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Fines returns the monthly fine summary and its collection KPIs.
func (s *Service) Fines(ctx context.Context, filter FineFilter) (FinesReport, error) {
	rows, err := s.repo.FineSummaries(ctx, filter)
	if err != nil {
		return summarizeFines(nil), fmt.Errorf("reports: fines: %w", err)
	}
	return summarizeFines(rows), nil
}

// OverdueLoans returns one page of overdue loans with the total potential debt.
func (s *Service) OverdueLoans(ctx context.Context, filter SearchFilter) (OverdueReport, error) {
	pattern := LikePattern(filter.Query)
	var (
		rows   []OverdueLoan
		totals OverdueTotals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.repo.OverdueLoans(gctx, pattern, filter.page())
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = s.repo.OverdueTotals(gctx, pattern)
		return err
	})
	if err := g.Wait(); err != nil {
		return EmptyOverdue(filter), fmt.Errorf("reports: overdue loans: %w", err)
	}
	return OverdueReport{
		Rows:       rows,
		TotalDebt:  totals.Debt,
		Pagination: shared.NewPagination(filter.Page, filter.PageSize, totals.Count),
	}, nil
}

// PopularBooks returns one page of the loan ranking. Top is set on the first
// page only.
func (s *Service) PopularBooks(ctx context.Context, filter SearchFilter) (PopularBooksReport, error) {
	pattern := LikePattern(filter.Query)
	var (
		rows  []PopularBook
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.repo.PopularBooks(gctx, pattern, filter.page())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountPopularBooks(gctx, pattern)
		return err
	})
	if err := g.Wait(); err != nil {
		return EmptyPopularBooks(filter), fmt.Errorf("reports: popular books: %w", err)
	}
	report := PopularBooksReport{
		Rows:       rows,
		Pagination: shared.NewPagination(filter.Page, filter.PageSize, total),
	}
	if report.Pagination.Page == 1 && len(rows) > 0 {
		top := rows[0]
		report.Top = &top
	}
	return report, nil
}

// Members returns one page of member activity.
func (s *Service) Members(ctx context.Context, filter SearchFilter) (MembersReport, error) {
	pattern := LikePattern(filter.Query)
	var (
		rows  []MemberActivity
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.repo.Members(gctx, pattern, filter.page())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountMembers(gctx, pattern)
		return err
	})
	if err := g.Wait(); err != nil {
		return EmptyMembers(filter), fmt.Errorf("reports: members: %w", err)
	}
	return MembersReport{
		Rows:       rows,
		Pagination: shared.NewPagination(filter.Page, filter.PageSize, total),
	}, nil
}

// Inventory returns every category with the global occupancy KPIs.
func (s *Service) Inventory(ctx context.Context) (InventoryReport, error) {
	rows, err := s.repo.InventoryCategories(ctx)
	if err != nil {
		return summarizeInventory(nil), fmt.Errorf("reports: inventory: %w", err)
	}
	return summarizeInventory(rows), nil
}

// Summary returns the home dashboard KPIs, served from the cache when enabled.
func (s *Service) Summary(ctx context.Context) (DashboardSummary, error) {
	load := func(ctx context.Context) (any, error) { return s.loadSummary(ctx) }
	key, err := s.cache.BuildKey(ctx, keySummary())
	if err != nil {
		// Redis unreachable: serve straight from the database.
		summary, err := s.loadSummary(ctx)
		if err != nil {
			return EmptySummary(), fmt.Errorf("reports: summary: %w", err)
		}
		return summary, nil
	}
	var out DashboardSummary
	if err := s.cache.FetchJSON(ctx, key, &out, load); err != nil {
		return EmptySummary(), fmt.Errorf("reports: summary: %w", err)
	}
	return out, nil
}

// RefreshSummary invalidates cached KPIs and recomputes them.
func (s *Service) RefreshSummary(ctx context.Context) (DashboardSummary, error) {
	if err := s.cache.Bump(ctx); err != nil {
		return EmptySummary(), fmt.Errorf("reports: bump cache: %w", err)
	}
	return s.Summary(ctx)
}

func (s *Service) loadSummary(ctx context.Context) (DashboardSummary, error) {
	totals, err := s.repo.DashboardTotals(ctx)
	if err != nil {
		return EmptySummary(), err
	}
	return summarizeDashboard(totals), nil
}

// EmptyOverdue is the overdue report rendered when nothing could be loaded.
func EmptyOverdue(filter SearchFilter) OverdueReport {
	return OverdueReport{Pagination: shared.NewPagination(filter.Page, filter.PageSize, 0)}
}

// EmptyPopularBooks is the ranking rendered when nothing could be loaded.
func EmptyPopularBooks(filter SearchFilter) PopularBooksReport {
	return PopularBooksReport{Pagination: shared.NewPagination(filter.Page, filter.PageSize, 0)}
}

// EmptyMembers is the member report rendered when nothing could be loaded.
func EmptyMembers(filter SearchFilter) MembersReport {
	return MembersReport{Pagination: shared.NewPagination(filter.Page, filter.PageSize, 0)}
}

// EmptySummary is the dashboard rendered when nothing could be loaded.
func EmptySummary() DashboardSummary {
	return summarizeDashboard(DashboardTotals{})
}
