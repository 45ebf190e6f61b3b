package reportsdb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bibliodash/bibliodash/internal/reports"
)

func TestFineSummaryQueryDefaultsToLatestTwelve(t *testing.T) {
	query, args := fineSummaryQuery(reports.FineFilter{Start: "2024-01"})
	assert.Empty(t, args)
	assert.NotContains(t, query, "WHERE")
	assert.True(t, strings.HasSuffix(query, "ORDER BY mes DESC LIMIT 12"))
}

func TestFineSummaryQueryRange(t *testing.T) {
	query, args := fineSummaryQuery(reports.FineFilter{Start: "2024-01", End: "2024-06"})
	assert.Equal(t, []any{"2024-01", "2024-06"}, args)
	assert.Contains(t, query, "WHERE mes >= $1 AND mes <= $2 ORDER BY mes DESC")
	assert.NotContains(t, query, "LIMIT")

	capped, _ := fineSummaryQuery(reports.FineFilter{Start: "2024-01", End: "2024-06", CapRange: true})
	assert.True(t, strings.HasSuffix(capped, "ORDER BY mes DESC LIMIT 12"))
}

func TestPagedAppendsPlaceholders(t *testing.T) {
	query, args := paged(membersSQL, []any{"%ana%"}, reports.Page{Limit: 5, Offset: 10})
	assert.True(t, strings.HasSuffix(query, "LIMIT $2 OFFSET $3"))
	assert.Equal(t, []any{"%ana%", 5, 10}, args)
}

func TestPagedUnboundedForExports(t *testing.T) {
	query, args := paged(overdueLoansSQL, []any{"%%"}, reports.Page{})
	assert.Equal(t, overdueLoansSQL, query)
	assert.Len(t, args, 1)
}

func TestSearchQueriesEscapeBackslash(t *testing.T) {
	for _, q := range []string{overdueLoansSQL, overdueTotalsSQL, popularBooksSQL, countPopularBooksSQL, membersSQL, countMembersSQL} {
		assert.Contains(t, q, `ILIKE $1 ESCAPE '\'`)
	}
	assert.Contains(t, overdueLoansSQL, "ORDER BY dias_atraso DESC")
	assert.Contains(t, popularBooksSQL, "ORDER BY ranking ASC")
	assert.Contains(t, membersSQL, "ORDER BY tasa_morosidad_porcentaje DESC, total_prestamos DESC")
	assert.Contains(t, inventorySQL, "ORDER BY porcentaje_ocupacion DESC")
}
