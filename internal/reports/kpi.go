package reports

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a numeric view column delivered as text. Empty or
// malformed values count as zero.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseCount parses an integer view column delivered as text. Fractional
// values are truncated.
func ParseCount(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return ParseAmount(raw).IntPart()
}

// LikePattern wraps user search text for ILIKE, escaping the wildcard
// characters so the text is matched literally.
func LikePattern(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 2)
	b.WriteByte('%')
	for _, r := range query {
		switch r {
		case '\\', '%', '_':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('%')
	return b.String()
}

// PercentLabel renders part/whole as a one decimal percentage, or "0" when
// whole is zero.
func PercentLabel(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "0"
	}
	return part.Div(whole).Mul(hundred).StringFixed(1)
}

// Effectiveness is the collected share of all fines, as shown on the KPI card.
func Effectiveness(collected, pending decimal.Decimal) string {
	return PercentLabel(collected, collected.Add(pending))
}

// InventoryStatus classifies the average occupancy score.
func InventoryStatus(score decimal.Decimal) string {
	switch {
	case score.GreaterThan(decimal.NewFromInt(80)):
		return StatusCritical
	case score.GreaterThan(decimal.NewFromInt(50)):
		return StatusWarning
	default:
		return StatusOptimal
	}
}

func share(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}

func summarizeFines(rows []FineSummary) FinesReport {
	report := FinesReport{Rows: rows, Collected: decimal.Zero, Pending: decimal.Zero}
	for _, row := range rows {
		report.Collected = report.Collected.Add(row.Collected)
		report.Pending = report.Pending.Add(row.Pending)
	}
	report.Effectiveness = Effectiveness(report.Collected, report.Pending)
	return report
}

func summarizeInventory(rows []InventoryCategory) InventoryReport {
	report := InventoryReport{Rows: rows}
	for _, row := range rows {
		report.TotalItems += row.TotalItems
		report.InCirculation += row.InCirculation
	}
	report.Occupancy = PercentLabel(decimal.NewFromInt(report.InCirculation), decimal.NewFromInt(report.TotalItems))
	return report
}

func summarizeDashboard(totals DashboardTotals) DashboardSummary {
	title := totals.TopBookTitle
	if title == "" {
		title = "N/A"
	}
	return DashboardSummary{
		PendingFines:    totals.PendingFines,
		OverdueLoans:    totals.OverdueLoans,
		TopBook:         title,
		TopBookLoans:    totals.TopBookLoans,
		Members:         totals.Members,
		InventoryScore:  totals.AverageOccupancy,
		InventoryStatus: InventoryStatus(totals.AverageOccupancy),
	}
}
