package reporthttp

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bibliodash/bibliodash/internal/platform/httpx"
	"github.com/bibliodash/bibliodash/internal/reports"
	"github.com/bibliodash/bibliodash/internal/reports/export"
	"github.com/bibliodash/bibliodash/internal/reports/svg"
	"github.com/bibliodash/bibliodash/internal/shared"
	"github.com/bibliodash/bibliodash/internal/view"
)

const pageTimeout = 5 * time.Second

// ReportService defines the report data contract used by the handlers.
type ReportService interface {
	export.Source
	Summary(ctx context.Context) (reports.DashboardSummary, error)
}

// Recorder counts degraded renders and exports.
type Recorder interface {
	QueryFailed(report string)
	Exported(report, format string, err error)
}

// Handler serves the report pages of every variant plus the dashboard.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	templates *view.Engine
	pdf       export.PDFRenderer
	metrics   Recorder
	validate  *validator.Validate
	variants  []Variant
	now       func() time.Time
}

// NewHandler constructs the report handler for the English and Spanish variants.
func NewHandler(logger *slog.Logger, service ReportService, templates *view.Engine, pdf export.PDFRenderer, metrics Recorder) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		pdf:       pdf,
		metrics:   metrics,
		validate:  validator.New(),
		variants:  []Variant{English(), Spanish()},
		now:       time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type pager struct {
	Show       bool
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
}

func (v Variant) pager(path, query string, p shared.Pagination) pager {
	return pager{
		Show:       v.AlwaysPaginate || p.TotalPages > 1,
		Page:       p.Page,
		TotalPages: p.DisplayTotalPages(),
		HasPrev:    p.HasPrev(),
		HasNext:    p.HasNext(),
		PrevURL:    pageURL(path, query, p.PrevPage()),
		NextURL:    pageURL(path, query, p.NextPage()),
	}
}

type page struct {
	L      Labels
	Paths  Paths
	Action string
	CSV    string
	XLSX   string
	PDF    string
}

func newPage(v Variant, action, report string, filters url.Values) page {
	return page{
		L:      v.Labels,
		Paths:  v.Paths,
		Action: action,
		CSV:    exportURL(report, string(export.FormatCSV), filters),
		XLSX:   exportURL(report, string(export.FormatXLSX), filters),
		PDF:    exportURL(report, string(export.FormatPDF), filters),
	}
}

type searchForm struct {
	L           Labels
	Action      string
	Query       string
	Placeholder string
}

func newSearch(v Variant, action, query, placeholder string) searchForm {
	return searchForm{L: v.Labels, Action: action, Query: query, Placeholder: placeholder}
}

type finesPage struct {
	page
	Start  string
	End    string
	Report reports.FinesReport
	Chart  template.HTML
}

type overduePage struct {
	page
	Search searchForm
	Report reports.OverdueReport
	Pager  pager
}

type booksPage struct {
	page
	Search searchForm
	Report reports.PopularBooksReport
	Pager  pager
}

type membersPage struct {
	page
	Search searchForm
	Report reports.MembersReport
	Pager  pager
}

type inventoryPage struct {
	page
	Report reports.InventoryReport
}

type homePage struct {
	L       Labels
	Paths   Paths
	Summary reports.DashboardSummary
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	v := h.variants[0]
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	summary, err := h.service.Summary(ctx)
	if err != nil {
		h.degrade("summary", err)
	}
	h.render(w, r, v, "pages/home.html", v.Labels.Home, homePage{L: v.Labels, Paths: v.Paths, Summary: summary})
}

func (h *Handler) handleSummaryAPI(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	summary, err := h.service.Summary(ctx)
	if err != nil {
		h.degrade("summary", err)
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) fines(v Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := parseRange(h.validate, r)
		ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
		defer cancel()

		report, err := h.service.Fines(ctx, v.fineFilter(params.Start, params.End))
		if err != nil {
			h.degrade(export.ReportFines, err)
		}
		filters := url.Values{}
		if params.Start != "" && params.End != "" {
			filters.Set("start", params.Start)
			filters.Set("end", params.End)
		}
		data := finesPage{
			page:   newPage(v, v.Paths.Fines, export.ReportFines, filters),
			Start:  params.Start,
			End:    params.End,
			Report: report,
			Chart:  h.finesChart(v.Labels, report.Rows),
		}
		h.render(w, r, v, "pages/fines.html", v.Labels.FinesTitle, data)
	}
}

func (h *Handler) overdue(v Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := parseSearch(h.validate, r)
		ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
		defer cancel()

		report, err := h.service.OverdueLoans(ctx, v.searchFilter(params.Query, params.Page))
		if err != nil {
			h.degrade(export.ReportOverdue, err)
		}
		data := overduePage{
			page:   newPage(v, v.Paths.Overdue, export.ReportOverdue, searchValues(params.Query)),
			Search: newSearch(v, v.Paths.Overdue, params.Query, v.Labels.OverdueSearch),
			Report: report,
			Pager:  v.pager(v.Paths.Overdue, params.Query, report.Pagination),
		}
		h.render(w, r, v, "pages/overdue.html", v.Labels.OverdueTitle, data)
	}
}

func (h *Handler) popularBooks(v Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := parseSearch(h.validate, r)
		ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
		defer cancel()

		report, err := h.service.PopularBooks(ctx, v.searchFilter(params.Query, params.Page))
		if err != nil {
			h.degrade(export.ReportPopularBooks, err)
		}
		data := booksPage{
			page:   newPage(v, v.Paths.PopularBooks, export.ReportPopularBooks, searchValues(params.Query)),
			Search: newSearch(v, v.Paths.PopularBooks, params.Query, v.Labels.BooksSearch),
			Report: report,
			Pager:  v.pager(v.Paths.PopularBooks, params.Query, report.Pagination),
		}
		h.render(w, r, v, "pages/popular_books.html", v.Labels.BooksTitle, data)
	}
}

func (h *Handler) members(v Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := parseSearch(h.validate, r)
		ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
		defer cancel()

		report, err := h.service.Members(ctx, v.searchFilter(params.Query, params.Page))
		if err != nil {
			h.degrade(export.ReportMembers, err)
		}
		data := membersPage{
			page:   newPage(v, v.Paths.Members, export.ReportMembers, searchValues(params.Query)),
			Search: newSearch(v, v.Paths.Members, params.Query, v.Labels.MembersSearch),
			Report: report,
			Pager:  v.pager(v.Paths.Members, params.Query, report.Pagination),
		}
		h.render(w, r, v, "pages/members.html", v.Labels.MembersTitle, data)
	}
}

func (h *Handler) inventory(v Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
		defer cancel()

		report, err := h.service.Inventory(ctx)
		if err != nil {
			h.degrade(export.ReportInventory, err)
		}
		data := inventoryPage{
			page:   newPage(v, v.Paths.Inventory, export.ReportInventory, nil),
			Report: report,
		}
		h.render(w, r, v, "pages/inventory.html", v.Labels.InventoryTitle, data)
	}
}

// finesChart draws collected and pending amounts oldest month first.
func (h *Handler) finesChart(l Labels, rows []reports.FineSummary) template.HTML {
	if len(rows) == 0 {
		return ""
	}
	n := len(rows)
	labels := make([]string, n)
	collected := make([]float64, n)
	pending := make([]float64, n)
	for i, row := range rows {
		j := n - 1 - i
		labels[j] = row.Month
		collected[j] = row.Collected.InexactFloat64()
		pending[j] = row.Pending.InexactFloat64()
	}
	chart, err := svg.Stacked(0, 0, collected, pending, labels, svg.StackOpts{
		Title:      l.FinesTitle,
		LowerLabel: l.Collected,
		UpperLabel: l.Pending,
	})
	if err != nil {
		h.logError("render fines chart", err)
		return ""
	}
	return chart
}

func searchValues(query string) url.Values {
	values := url.Values{}
	if query != "" {
		values.Set("q", query)
	}
	return values
}

func (h *Handler) nav(v Variant, current string) []view.NavItem {
	items := []view.NavItem{
		{Label: v.Labels.FinesTitle, Href: v.Paths.Fines},
		{Label: v.Labels.OverdueTitle, Href: v.Paths.Overdue},
		{Label: v.Labels.BooksTitle, Href: v.Paths.PopularBooks},
		{Label: v.Labels.MembersTitle, Href: v.Paths.Members},
		{Label: v.Labels.InventoryTitle, Href: v.Paths.Inventory},
	}
	for i := range items {
		items[i].Active = items[i].Href == current
	}
	return items
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, v Variant, name, title string, data any) {
	viewData := view.TemplateData{
		Title:       title,
		Lang:        v.Labels.Lang,
		CurrentPath: r.URL.Path,
		Nav:         h.nav(v, r.URL.Path),
		Data:        data,
	}
	if err := h.templates.Render(w, name, viewData); err != nil {
		h.logError("render template", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// degrade records a failed report load; the caller renders the empty report.
func (h *Handler) degrade(report string, err error) {
	h.logError("load "+report, err)
	if h.metrics != nil {
		h.metrics.QueryFailed(report)
	}
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
