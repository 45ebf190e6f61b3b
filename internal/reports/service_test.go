package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	fines       []FineSummary
	fineFilter  FineFilter
	overdue     []OverdueLoan
	overduePage Page
	overdueLike string
	totals      OverdueTotals
	books       []PopularBook
	booksPage   Page
	bookCount   int
	members     []MemberActivity
	memberCount int
	inventory   []InventoryCategory
	dashboard   DashboardTotals
	dashCalls   int
	countErr    error
	err         error
}

func (m *mockRepo) FineSummaries(ctx context.Context, filter FineFilter) ([]FineSummary, error) {
	m.fineFilter = filter
	return m.fines, m.err
}

func (m *mockRepo) OverdueLoans(ctx context.Context, pattern string, page Page) ([]OverdueLoan, error) {
	m.overdueLike = pattern
	m.overduePage = page
	return m.overdue, m.err
}

func (m *mockRepo) OverdueTotals(ctx context.Context, pattern string) (OverdueTotals, error) {
	return m.totals, m.countErr
}

func (m *mockRepo) PopularBooks(ctx context.Context, pattern string, page Page) ([]PopularBook, error) {
	m.booksPage = page
	return m.books, m.err
}

func (m *mockRepo) CountPopularBooks(ctx context.Context, pattern string) (int, error) {
	return m.bookCount, m.countErr
}

func (m *mockRepo) Members(ctx context.Context, pattern string, page Page) ([]MemberActivity, error) {
	return m.members, m.err
}

func (m *mockRepo) CountMembers(ctx context.Context, pattern string) (int, error) {
	return m.memberCount, m.countErr
}

func (m *mockRepo) InventoryCategories(ctx context.Context) ([]InventoryCategory, error) {
	return m.inventory, m.err
}

func (m *mockRepo) DashboardTotals(ctx context.Context) (DashboardTotals, error) {
	m.dashCalls++
	return m.dashboard, m.err
}

func newCachedService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute)), mr
}

func TestFinesAggregatesDecimals(t *testing.T) {
	repo := &mockRepo{fines: []FineSummary{
		{Month: "2024-05", Collected: ParseAmount("123.40"), Pending: ParseAmount("10.00")},
		{Month: "2024-04", Collected: ParseAmount("76.60"), Pending: ParseAmount("90.00")},
	}}
	svc := NewService(repo, nil)

	report, err := svc.Fines(context.Background(), FineFilter{Start: "2024-01", End: "2024-06"})
	require.NoError(t, err)
	assert.Equal(t, "200", report.Collected.String())
	assert.Equal(t, "100", report.Pending.String())
	assert.Equal(t, "66.7", report.Effectiveness)
	assert.Equal(t, "2024-01", repo.fineFilter.Start)
}

func TestFinesErrorReturnsEmptyReport(t *testing.T) {
	svc := NewService(&mockRepo{err: errors.New("boom")}, nil)

	report, err := svc.Fines(context.Background(), FineFilter{})
	require.Error(t, err)
	assert.Empty(t, report.Rows)
	assert.True(t, report.Collected.IsZero())
	assert.Equal(t, "0", report.Effectiveness)
}

func TestOverdueLoansPagesAndEscapes(t *testing.T) {
	repo := &mockRepo{
		overdue: []OverdueLoan{{LoanID: 7, Member: "Ana", DaysLate: 12}},
		totals:  OverdueTotals{Count: 11, Debt: decimal.RequireFromString("250.50")},
	}
	svc := NewService(repo, nil)

	report, err := svc.OverdueLoans(context.Background(), SearchFilter{Query: "50%", Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, Page{Limit: 5, Offset: 5}, repo.overduePage)
	assert.Equal(t, `%50\%%`, repo.overdueLike)
	assert.Equal(t, 3, report.Pagination.TotalPages)
	assert.Equal(t, "250.5", report.TotalDebt.String())
	require.Len(t, report.Rows, 1)
	assert.True(t, report.Rows[0].Severe())
}

func TestOverdueLoansCountFailure(t *testing.T) {
	repo := &mockRepo{
		overdue:  []OverdueLoan{{LoanID: 1}},
		countErr: errors.New("count failed"),
	}
	svc := NewService(repo, nil)

	report, err := svc.OverdueLoans(context.Background(), SearchFilter{Page: 3, PageSize: 10})
	require.Error(t, err)
	assert.Empty(t, report.Rows)
	assert.Equal(t, 3, report.Pagination.Page)
	assert.Equal(t, 1, report.Pagination.DisplayTotalPages())
}

func TestPopularBooksTopOnlyOnFirstPage(t *testing.T) {
	repo := &mockRepo{
		books:     []PopularBook{{ID: 1, Title: "Rayuela", Rank: 1}, {ID: 2, Title: "Aura", Rank: 2}},
		bookCount: 12,
	}
	svc := NewService(repo, nil)

	first, err := svc.PopularBooks(context.Background(), SearchFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.NotNil(t, first.Top)
	assert.Equal(t, "Rayuela", first.Top.Title)

	second, err := svc.PopularBooks(context.Background(), SearchFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Nil(t, second.Top)
	assert.Equal(t, Page{Limit: 10, Offset: 10}, repo.booksPage)
}

func TestPopularBooksEmptyHasNoTop(t *testing.T) {
	svc := NewService(&mockRepo{}, nil)

	report, err := svc.PopularBooks(context.Background(), SearchFilter{Page: 1, PageSize: 5})
	require.NoError(t, err)
	assert.Nil(t, report.Top)
}

func TestMembersPagination(t *testing.T) {
	repo := &mockRepo{
		members:     []MemberActivity{{Name: "Luis", DelinquencyRate: decimal.NewFromInt(60)}},
		memberCount: 6,
	}
	svc := NewService(repo, nil)

	report, err := svc.Members(context.Background(), SearchFilter{Page: 1, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pagination.TotalPages)
	assert.Equal(t, RiskHigh, report.Rows[0].RiskLevel())
}

func TestInventoryOccupancy(t *testing.T) {
	repo := &mockRepo{inventory: []InventoryCategory{
		{Category: "Novela", TotalItems: 40, InCirculation: 10},
		{Category: "Ciencia", TotalItems: 20, InCirculation: 10},
	}}
	svc := NewService(repo, nil)

	report, err := svc.Inventory(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 60, report.TotalItems)
	assert.EqualValues(t, 20, report.InCirculation)
	assert.Equal(t, "33.3", report.Occupancy)
}

func TestInventoryWithoutItems(t *testing.T) {
	svc := NewService(&mockRepo{}, nil)

	report, err := svc.Inventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0", report.Occupancy)
}

func TestSummaryCaches(t *testing.T) {
	repo := &mockRepo{dashboard: DashboardTotals{
		PendingFines:     decimal.RequireFromString("1500.25"),
		OverdueLoans:     4,
		TopBookTitle:     "Cien años de soledad",
		TopBookLoans:     31,
		Members:          120,
		AverageOccupancy: decimal.RequireFromString("81.5"),
	}}
	svc, _ := newCachedService(t, repo)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCritical, first.InventoryStatus)
	assert.Equal(t, "Cien años de soledad", first.TopBook)

	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, first.PendingFines.Equal(second.PendingFines))
	assert.Equal(t, 1, repo.dashCalls)

	_, err = svc.RefreshSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.dashCalls)
}

func TestSummaryWithoutCacheHitsRepository(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.dashCalls)
	assert.Equal(t, "N/A", summary.TopBook)
	assert.Equal(t, StatusOptimal, summary.InventoryStatus)
}

func TestSummaryFallsBackWhenRedisDown(t *testing.T) {
	repo := &mockRepo{dashboard: DashboardTotals{Members: 3}}
	svc, mr := newCachedService(t, repo)
	mr.Close()

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Members)
}

func TestSummaryKeepsDatabaseResultWhenCacheWriteFails(t *testing.T) {
	repo := &mockRepo{dashboard: DashboardTotals{Members: 42, TopBookTitle: "Rayuela"}}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	client.AddHook(failCommand{name: "set", err: errors.New("OOM command not allowed")})
	svc := NewService(repo, NewCache(client, time.Minute))

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.dashCalls)
	assert.Equal(t, 42, summary.Members)
	assert.Equal(t, "Rayuela", summary.TopBook)
}

func TestSummaryErrorIsEmpty(t *testing.T) {
	svc := NewService(&mockRepo{err: errors.New("db down")}, nil)

	summary, err := svc.Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, EmptySummary(), summary)
}
