package reports

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibliodash/bibliodash/internal/shared"
)

const monthLayout = "2006-01"

// Page bounds a view query. A zero Limit means every matching row.
type Page struct {
	Limit  int
	Offset int
}

// FineSummary is one calendar month of vw_resumen_multas.
type FineSummary struct {
	Month     string          `json:"month"`
	Count     int64           `json:"count"`
	Collected decimal.Decimal `json:"collected"`
	Pending   decimal.Decimal `json:"pending"`
	Total     decimal.Decimal `json:"total"`
}

// CollectedShare is the collected part of the month total, in percent.
func (f FineSummary) CollectedShare() float64 {
	return share(f.Collected, f.Total)
}

// PendingShare is the pending part of the month total, in percent.
func (f FineSummary) PendingShare() float64 {
	return share(f.Pending, f.Total)
}

// OverdueLoan is one row of vw_prestamos_vencidos.
type OverdueLoan struct {
	LoanID        int64           `json:"loan_id"`
	Member        string          `json:"member"`
	Email         string          `json:"email"`
	Book          string          `json:"book"`
	DueDate       time.Time       `json:"due_date"`
	DaysLate      int64           `json:"days_late"`
	SuggestedFine decimal.Decimal `json:"suggested_fine"`
}

// Severe flags loans more than ten days late.
func (l OverdueLoan) Severe() bool {
	return l.DaysLate > 10
}

// OverdueTotals is the COUNT/SUM companion of the overdue listing.
type OverdueTotals struct {
	Count int
	Debt  decimal.Decimal
}

// PopularBook is one row of vw_libros_mas_prestados.
type PopularBook struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Loans      int64  `json:"loans"`
	Rank       int64  `json:"rank"`
	Popularity string `json:"popularity"`
}

// IsPopular reports whether the view labelled the book as popular.
func (b PopularBook) IsPopular() bool {
	return strings.EqualFold(b.Popularity, "Popular")
}

// MemberActivity is one row of vw_actividad_socios.
type MemberActivity struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	MembershipType  string          `json:"membership_type"`
	Loans           int64           `json:"loans"`
	LateReturns     int64           `json:"late_returns"`
	DelinquencyRate decimal.Decimal `json:"delinquency_rate"`
}

// Member risk levels derived from the delinquency rate.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskLevel buckets the delinquency rate: above 50 is high, above 20 medium.
func (m MemberActivity) RiskLevel() string {
	switch {
	case m.DelinquencyRate.GreaterThan(decimal.NewFromInt(50)):
		return RiskHigh
	case m.DelinquencyRate.GreaterThan(decimal.NewFromInt(20)):
		return RiskMedium
	default:
		return RiskLow
	}
}

// BadgeClass maps the membership type onto a CSS modifier.
func (m MemberActivity) BadgeClass() string {
	switch m.MembershipType {
	case "VIP":
		return "vip"
	case "Profesor":
		return "teacher"
	case "Estudiante":
		return "student"
	default:
		return "default"
	}
}

// InventoryCategory is one row of vw_salud_inventario.
type InventoryCategory struct {
	Category      string          `json:"category"`
	TotalItems    int64           `json:"total_items"`
	Available     int64           `json:"available"`
	InCirculation int64           `json:"in_circulation"`
	Unavailable   int64           `json:"unavailable"`
	Occupancy     decimal.Decimal `json:"occupancy"`
}

// InCirculationShare is the loaned fraction of the category, in percent.
func (c InventoryCategory) InCirculationShare() float64 {
	return share(decimal.NewFromInt(c.InCirculation), decimal.NewFromInt(c.TotalItems))
}

// AvailableShare is the shelved fraction of the category, in percent.
func (c InventoryCategory) AvailableShare() float64 {
	return share(decimal.NewFromInt(c.Available), decimal.NewFromInt(c.TotalItems))
}

// UnavailableShare is the unavailable fraction of the category, in percent.
func (c InventoryCategory) UnavailableShare() float64 {
	return share(decimal.NewFromInt(c.Unavailable), decimal.NewFromInt(c.TotalItems))
}

// DashboardTotals are the raw aggregates behind the home dashboard.
type DashboardTotals struct {
	PendingFines     decimal.Decimal
	OverdueLoans     int
	TopBookTitle     string
	TopBookLoans     int64
	Members          int
	AverageOccupancy decimal.Decimal
}

// Inventory health statuses shown on the dashboard.
const (
	StatusOptimal  = "optimal"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// DashboardSummary contains the headline KPIs of the home page.
type DashboardSummary struct {
	PendingFines    decimal.Decimal `json:"pending_fines"`
	OverdueLoans    int             `json:"overdue_loans"`
	TopBook         string          `json:"top_book"`
	TopBookLoans    int64           `json:"top_book_loans"`
	Members         int             `json:"members"`
	InventoryScore  decimal.Decimal `json:"inventory_score"`
	InventoryStatus string          `json:"inventory_status"`
}

// FineFilter narrows the fines summary to an inclusive month range.
type FineFilter struct {
	Start string
	End   string
	// CapRange keeps the 12 row limit even when a range is given.
	CapRange bool
}

// HasRange reports whether both bounds are present and well formed.
func (f FineFilter) HasRange() bool {
	return ValidMonth(f.Start) && ValidMonth(f.End)
}

// ValidMonth reports whether raw is a YYYY-MM month.
func ValidMonth(raw string) bool {
	if len(raw) != len(monthLayout) {
		return false
	}
	_, err := time.Parse(monthLayout, raw)
	return err == nil
}

// SearchFilter drives the paged, searchable reports.
type SearchFilter struct {
	Query    string
	Page     int
	PageSize int
}

func (f SearchFilter) page() Page {
	if f.PageSize <= 0 {
		return Page{}
	}
	p := shared.NewPagination(f.Page, f.PageSize, 0)
	return Page{Limit: p.PerPage, Offset: p.Offset}
}

// FinesReport is the fines page payload.
type FinesReport struct {
	Rows          []FineSummary
	Collected     decimal.Decimal
	Pending       decimal.Decimal
	Effectiveness string
}

// OverdueReport is the overdue loans page payload.
type OverdueReport struct {
	Rows       []OverdueLoan
	TotalDebt  decimal.Decimal
	Pagination shared.Pagination
}

// PopularBooksReport is the popularity ranking payload.
type PopularBooksReport struct {
	Rows       []PopularBook
	Top        *PopularBook
	Pagination shared.Pagination
}

// MembersReport is the member activity payload.
type MembersReport struct {
	Rows       []MemberActivity
	Pagination shared.Pagination
}

// InventoryReport is the inventory health payload.
type InventoryReport struct {
	Rows          []InventoryCategory
	TotalItems    int64
	InCirculation int64
	Occupancy     string
}
