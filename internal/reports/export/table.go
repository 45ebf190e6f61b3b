package export

import (
	"context"
	"errors"
	"strconv"

	"github.com/bibliodash/bibliodash/internal/reports"
)

// Report names accepted by Build.
const (
	ReportFines        = "fines"
	ReportOverdue      = "overdue"
	ReportPopularBooks = "popular-books"
	ReportMembers      = "members"
	ReportInventory    = "inventory"
)

// ErrUnknownReport is returned for report names Build does not know.
var ErrUnknownReport = errors.New("export: unknown report")

// Reports lists every exportable report name.
func Reports() []string {
	return []string{ReportFines, ReportOverdue, ReportPopularBooks, ReportMembers, ReportInventory}
}

// Table is a report flattened into printable rows.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Numeric marks the columns written as numbers in spreadsheets.
	Numeric []bool
	// Footer holds aggregate label/value pairs printed under the rows.
	Footer [][2]string
}

// IsNumeric reports whether column i holds numbers.
func (t Table) IsNumeric(i int) bool {
	return i >= 0 && i < len(t.Numeric) && t.Numeric[i]
}

// Source is the report service contract used for exports.
type Source interface {
	Fines(ctx context.Context, filter reports.FineFilter) (reports.FinesReport, error)
	OverdueLoans(ctx context.Context, filter reports.SearchFilter) (reports.OverdueReport, error)
	PopularBooks(ctx context.Context, filter reports.SearchFilter) (reports.PopularBooksReport, error)
	Members(ctx context.Context, filter reports.SearchFilter) (reports.MembersReport, error)
	Inventory(ctx context.Context) (reports.InventoryReport, error)
}

// Request selects a report and its filters. Exports are never paged.
type Request struct {
	Report string `json:"report"`
	Query  string `json:"q,omitempty"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
}

// Build loads every matching row of the requested report.
func Build(ctx context.Context, src Source, req Request) (Table, error) {
	search := reports.SearchFilter{Query: req.Query}
	switch req.Report {
	case ReportFines:
		report, err := src.Fines(ctx, reports.FineFilter{Start: req.Start, End: req.End})
		if err != nil {
			return Table{}, err
		}
		return FinesTable(report), nil
	case ReportOverdue:
		report, err := src.OverdueLoans(ctx, search)
		if err != nil {
			return Table{}, err
		}
		return OverdueTable(report), nil
	case ReportPopularBooks:
		report, err := src.PopularBooks(ctx, search)
		if err != nil {
			return Table{}, err
		}
		return PopularBooksTable(report), nil
	case ReportMembers:
		report, err := src.Members(ctx, search)
		if err != nil {
			return Table{}, err
		}
		return MembersTable(report), nil
	case ReportInventory:
		report, err := src.Inventory(ctx)
		if err != nil {
			return Table{}, err
		}
		return InventoryTable(report), nil
	default:
		return Table{}, ErrUnknownReport
	}
}

// FinesTable flattens the monthly fines summary.
func FinesTable(report reports.FinesReport) Table {
	t := Table{
		Title:   "Fines summary",
		Headers: []string{"Month", "Fines", "Collected", "Pending", "Total"},
		Numeric: []bool{false, true, true, true, true},
	}
	for _, row := range report.Rows {
		t.Rows = append(t.Rows, []string{
			row.Month,
			itoa(row.Count),
			row.Collected.StringFixed(2),
			row.Pending.StringFixed(2),
			row.Total.StringFixed(2),
		})
	}
	t.Footer = [][2]string{
		{"Collected", report.Collected.StringFixed(2)},
		{"Pending", report.Pending.StringFixed(2)},
		{"Effectiveness %", report.Effectiveness},
	}
	return t
}

// OverdueTable flattens the overdue loans listing.
func OverdueTable(report reports.OverdueReport) Table {
	t := Table{
		Title:   "Overdue loans",
		Headers: []string{"Loan", "Member", "Email", "Book", "Due date", "Days late", "Suggested fine"},
		Numeric: []bool{true, false, false, false, false, true, true},
	}
	for _, row := range report.Rows {
		due := ""
		if !row.DueDate.IsZero() {
			due = row.DueDate.Format("2006-01-02")
		}
		t.Rows = append(t.Rows, []string{
			itoa(row.LoanID),
			row.Member,
			row.Email,
			row.Book,
			due,
			itoa(row.DaysLate),
			row.SuggestedFine.StringFixed(2),
		})
	}
	t.Footer = [][2]string{{"Potential debt", report.TotalDebt.StringFixed(2)}}
	return t
}

// PopularBooksTable flattens the loan ranking.
func PopularBooksTable(report reports.PopularBooksReport) Table {
	t := Table{
		Title:   "Popular books",
		Headers: []string{"Rank", "Title", "Author", "Loans", "Popularity"},
		Numeric: []bool{true, false, false, true, false},
	}
	for _, row := range report.Rows {
		t.Rows = append(t.Rows, []string{itoa(row.Rank), row.Title, row.Author, itoa(row.Loans), row.Popularity})
	}
	return t
}

// MembersTable flattens member activity.
func MembersTable(report reports.MembersReport) Table {
	t := Table{
		Title:   "Member activity",
		Headers: []string{"Member", "Membership", "Loans", "Late returns", "Delinquency %", "Risk"},
		Numeric: []bool{false, false, true, true, true, false},
	}
	for _, row := range report.Rows {
		t.Rows = append(t.Rows, []string{
			row.Name,
			row.MembershipType,
			itoa(row.Loans),
			itoa(row.LateReturns),
			row.DelinquencyRate.StringFixed(1),
			row.RiskLevel(),
		})
	}
	return t
}

// InventoryTable flattens inventory health per category.
func InventoryTable(report reports.InventoryReport) Table {
	t := Table{
		Title:   "Inventory health",
		Headers: []string{"Category", "Total items", "Available", "In circulation", "Unavailable", "Occupancy %"},
		Numeric: []bool{false, true, true, true, true, true},
	}
	for _, row := range report.Rows {
		t.Rows = append(t.Rows, []string{
			row.Category,
			itoa(row.TotalItems),
			itoa(row.Available),
			itoa(row.InCirculation),
			itoa(row.Unavailable),
			row.Occupancy.StringFixed(1),
		})
	}
	t.Footer = [][2]string{
		{"Total items", itoa(report.TotalItems)},
		{"In circulation", itoa(report.InCirculation)},
		{"Occupancy %", report.Occupancy},
	}
	return t
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
