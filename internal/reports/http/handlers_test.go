package reporthttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliodash/bibliodash/internal/reports"
	"github.com/bibliodash/bibliodash/internal/shared"
	"github.com/bibliodash/bibliodash/internal/view"
)

type stubService struct {
	err      error
	overdue  []reports.OverdueLoan
	total    int
	books    []reports.PopularBook
	members  []reports.MemberActivity
	fines    []reports.FineSummary
	summary  reports.DashboardSummary
	lastFine reports.FineFilter
	lastSeek reports.SearchFilter
}

func (s *stubService) Fines(_ context.Context, filter reports.FineFilter) (reports.FinesReport, error) {
	s.lastFine = filter
	if s.err != nil {
		return reports.FinesReport{Effectiveness: "0"}, s.err
	}
	return reports.FinesReport{Rows: s.fines, Effectiveness: "0"}, nil
}

func (s *stubService) OverdueLoans(_ context.Context, filter reports.SearchFilter) (reports.OverdueReport, error) {
	s.lastSeek = filter
	if s.err != nil {
		return reports.EmptyOverdue(filter), s.err
	}
	return reports.OverdueReport{
		Rows:       s.overdue,
		TotalDebt:  decimal.RequireFromString("12.5"),
		Pagination: shared.NewPagination(filter.Page, filter.PageSize, s.total),
	}, nil
}

func (s *stubService) PopularBooks(_ context.Context, filter reports.SearchFilter) (reports.PopularBooksReport, error) {
	s.lastSeek = filter
	if s.err != nil {
		return reports.EmptyPopularBooks(filter), s.err
	}
	out := reports.PopularBooksReport{Rows: s.books, Pagination: shared.NewPagination(filter.Page, filter.PageSize, len(s.books))}
	if len(s.books) > 0 {
		top := s.books[0]
		out.Top = &top
	}
	return out, nil
}

func (s *stubService) Members(_ context.Context, filter reports.SearchFilter) (reports.MembersReport, error) {
	s.lastSeek = filter
	if s.err != nil {
		return reports.EmptyMembers(filter), s.err
	}
	return reports.MembersReport{Rows: s.members, Pagination: shared.NewPagination(filter.Page, filter.PageSize, len(s.members))}, nil
}

func (s *stubService) Inventory(context.Context) (reports.InventoryReport, error) {
	if s.err != nil {
		return reports.InventoryReport{Occupancy: "0"}, s.err
	}
	return reports.InventoryReport{Occupancy: "0"}, nil
}

func (s *stubService) Summary(context.Context) (reports.DashboardSummary, error) {
	if s.err != nil {
		return reports.EmptySummary(), s.err
	}
	return s.summary, nil
}

type recorder struct {
	mu       sync.Mutex
	failures []string
	exports  []string
}

func (r *recorder) QueryFailed(report string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, report)
}

func (r *recorder) Exported(report, format string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.exports = append(r.exports, report+"."+format+":"+status)
}

func newTestRouter(t *testing.T, svc *stubService) (http.Handler, *recorder) {
	t.Helper()
	engine, err := view.NewEngine("en")
	require.NoError(t, err)
	rec := &recorder{}
	h := NewHandler(nil, svc, engine, nil, rec)
	h.WithNow(func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) })
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, rec
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func overdueRow(member string) reports.OverdueLoan {
	return reports.OverdueLoan{
		LoanID:        1,
		Member:        member,
		Email:         "ana@example.com",
		Book:          "Rayuela",
		DueDate:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		DaysLate:      12,
		SuggestedFine: decimal.RequireFromString("12.5"),
	}
}

func TestEnglishPagerAlwaysShown(t *testing.T) {
	svc := &stubService{overdue: []reports.OverdueLoan{overdueRow("Ana")}, total: 1}
	router, _ := newTestRouter(t, svc)

	rr := get(t, router, "/reports/overdue")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Page 1 / 1")
	assert.Contains(t, body, "01/02/2024")
	assert.Contains(t, body, "days-severe")
	assert.Contains(t, body, "$12.50")
	assert.Equal(t, 5, svc.lastSeek.PageSize)
}

func TestSpanishPagerHiddenForSinglePage(t *testing.T) {
	svc := &stubService{overdue: []reports.OverdueLoan{overdueRow("Ana")}, total: 3}
	router, _ := newTestRouter(t, svc)

	rr := get(t, router, "/reports/prestamos-vencidos")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), `class="pager"`)
	assert.Equal(t, 10, svc.lastSeek.PageSize)
}

func TestSpanishPagerLinksKeepQuery(t *testing.T) {
	svc := &stubService{overdue: []reports.OverdueLoan{overdueRow("Ana")}, total: 25}
	router, _ := newTestRouter(t, svc)

	rr := get(t, router, "/reports/prestamos-vencidos?page=2&q=ana")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Página 2 de 3")
	assert.Contains(t, body, `href="/reports/prestamos-vencidos?page=1&amp;q=ana"`)
	assert.Contains(t, body, `href="/reports/prestamos-vencidos?page=3&amp;q=ana"`)
	assert.Contains(t, body, `href="/exports/overdue.csv?q=ana"`)
	assert.Equal(t, "ana", svc.lastSeek.Query)
	assert.Equal(t, 2, svc.lastSeek.Page)
}

func TestEmptyMessagesPerVariant(t *testing.T) {
	router, _ := newTestRouter(t, &stubService{})

	cases := map[string]string{
		"/reports/fines":            "No records found.",
		"/reports/overdue":          "No overdue loans.",
		"/reports/popular-books":    "No books found.",
		"/reports/members":          "No members found.",
		"/reports/inventory":        "No data available.",
		"/reports/multas":           "No hay datos disponibles",
		"/reports/socios":           "No se encontraron socios",
		"/reports/libros-populares": "No se encontraron libros",
		"/reports/inventario":       "No hay datos de inventario",
	}
	for path, message := range cases {
		rr := get(t, router, path)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), message, path)
	}
}

func TestDegradedRenderStillSucceeds(t *testing.T) {
	svc := &stubService{err: errors.New("connection refused")}
	router, rec := newTestRouter(t, svc)

	rr := get(t, router, "/reports/prestamos-vencidos?page=4")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No hay préstamos vencidos")
	assert.Equal(t, []string{"overdue"}, rec.failures)
}

func TestHugePageRendersFirstPage(t *testing.T) {
	svc := &stubService{overdue: []reports.OverdueLoan{overdueRow("Ana")}, total: 30}
	router, _ := newTestRouter(t, svc)

	rr := get(t, router, "/reports/overdue?page=9223372036854775807")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, svc.lastSeek.Page)
	body := rr.Body.String()
	assert.Contains(t, body, "Page 1 / 6")
	assert.Contains(t, body, `href="/reports/overdue?page=2"`)
	assert.NotContains(t, body, "9223372036854775806")
}

func TestInvalidParamsFallBack(t *testing.T) {
	svc := &stubService{}
	router, _ := newTestRouter(t, svc)

	get(t, router, "/reports/members?page=abc")
	assert.Equal(t, 1, svc.lastSeek.Page)

	get(t, router, "/reports/members?page=-3")
	assert.Equal(t, 1, svc.lastSeek.Page)

	get(t, router, "/reports/members?q="+strings.Repeat("a", 150))
	assert.Len(t, svc.lastSeek.Query, maxQueryLength)

	get(t, router, "/reports/fines?start=2024-13&end=2024-06")
	assert.Equal(t, "", svc.lastFine.Start)
	assert.Equal(t, "2024-06", svc.lastFine.End)
	assert.False(t, svc.lastFine.CapRange)

	get(t, router, "/reports/multas?start=2024-01&end=2024-06")
	assert.Equal(t, "2024-01", svc.lastFine.Start)
	assert.True(t, svc.lastFine.CapRange)
}

func TestPopularBooksHighlight(t *testing.T) {
	svc := &stubService{books: []reports.PopularBook{
		{ID: 1, Title: "Rayuela", Author: "Cortázar", Loans: 9, Rank: 1, Popularity: "Popular"},
		{ID: 2, Title: "Ficciones", Author: "Borges", Loans: 2, Rank: 2, Popularity: "Normal"},
	}}
	router, _ := newTestRouter(t, svc)

	rr := get(t, router, "/reports/popular-books")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `class="highlight"`)
	assert.Contains(t, body, "badge-popular")
	assert.Equal(t, 1, strings.Count(body, "badge-popular"))
}

func TestMembersRiskLabels(t *testing.T) {
	svc := &stubService{members: []reports.MemberActivity{
		{ID: 1, Name: "Ana", MembershipType: "VIP", Loans: 10, LateReturns: 6, DelinquencyRate: decimal.RequireFromString("60")},
	}}
	router, _ := newTestRouter(t, svc)

	rr := get(t, router, "/reports/socios")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "badge-vip")
	assert.Contains(t, body, "60.0%")
	assert.Contains(t, body, "Alto")
}

func TestFinesChartRendered(t *testing.T) {
	svc := &stubService{fines: []reports.FineSummary{
		{Month: "2024-02", Count: 2, Collected: decimal.NewFromInt(20), Pending: decimal.NewFromInt(10), Total: decimal.NewFromInt(30)},
		{Month: "2024-01", Count: 1, Collected: decimal.NewFromInt(5), Total: decimal.NewFromInt(5)},
	}}
	router, _ := newTestRouter(t, svc)

	rr := get(t, router, "/reports/fines")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<svg")
	assert.Less(t, strings.Index(body, ">2024-01<"), strings.Index(body, ">2024-02<"))
}

func TestHomeDashboard(t *testing.T) {
	svc := &stubService{summary: reports.DashboardSummary{
		PendingFines:    decimal.RequireFromString("133.4"),
		OverdueLoans:    3,
		TopBook:         "Rayuela",
		TopBookLoans:    9,
		Members:         12,
		InventoryScore:  decimal.RequireFromString("55"),
		InventoryStatus: reports.StatusWarning,
	}}
	router, _ := newTestRouter(t, svc)

	rr := get(t, router, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "$133.40")
	assert.Contains(t, body, "Rayuela")
	assert.Contains(t, body, "WARNING")
}

func TestSummaryAPI(t *testing.T) {
	svc := &stubService{summary: reports.DashboardSummary{TopBook: "Rayuela", InventoryStatus: reports.StatusOptimal}}
	router, _ := newTestRouter(t, svc)

	rr := get(t, router, "/api/summary")
	require.Equal(t, http.StatusOK, rr.Code)
	var out reports.DashboardSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "Rayuela", out.TopBook)

	svc.err = errors.New("down")
	rr = get(t, router, "/api/summary")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestExportCSV(t *testing.T) {
	svc := &stubService{overdue: []reports.OverdueLoan{overdueRow("Ana")}, total: 1}
	router, rec := newTestRouter(t, svc)

	rr := get(t, router, "/exports/overdue.csv?q=ana")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="overdue-20240315.csv"`, rr.Header().Get("Content-Disposition"))
	assert.Contains(t, rr.Body.String(), "Ana")
	assert.Equal(t, 0, svc.lastSeek.PageSize)
	assert.Equal(t, []string{"overdue.csv:ok"}, rec.exports)
}

func TestExportErrors(t *testing.T) {
	svc := &stubService{}
	router, _ := newTestRouter(t, svc)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/exports/bogus.csv").Code)
	assert.Equal(t, http.StatusNotFound, get(t, router, "/exports/fines.doc").Code)
	assert.Equal(t, http.StatusNotFound, get(t, router, "/exports/fines").Code)

	svc.err = errors.New("timeout")
	assert.Equal(t, http.StatusInternalServerError, get(t, router, "/exports/members.xlsx").Code)
}

func TestExportPDFWithoutRenderer(t *testing.T) {
	router, rec := newTestRouter(t, &stubService{})

	rr := get(t, router, "/exports/inventory.pdf")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, []string{"inventory.pdf:error"}, rec.exports)
}
