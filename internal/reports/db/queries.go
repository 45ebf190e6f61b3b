package reportsdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibliodash/bibliodash/internal/reports"
)

// fineRowLimit caps the fines listing when no range is requested.
const fineRowLimit = 12

// Queries runs the report SELECTs against the library views.
type Queries struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// New binds the queries to a pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool, tracer: otel.Tracer("bibliodash/reports/db")}
}

var _ reports.Repository = (*Queries)(nil)

func (q *Queries) start(ctx context.Context, name, view string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.system", "postgresql"), attribute.String("db.view", view))
	return q.tracer.Start(ctx, "reportsdb."+name, trace.WithAttributes(attrs...), trace.WithSpanKind(trace.SpanKindClient))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func fineSummaryQuery(filter reports.FineFilter) (string, []any) {
	query := `SELECT COALESCE(mes::text, ''), COALESCE(cantidad_multas::text, '0'), COALESCE(total_cobrado::text, '0'),
       COALESCE(deuda_pendiente::text, '0'), COALESCE(total_multas::text, '0')
FROM vw_resumen_multas`
	var args []any
	if filter.HasRange() {
		query += ` WHERE mes >= $1 AND mes <= $2 ORDER BY mes DESC`
		args = append(args, filter.Start, filter.End)
		if filter.CapRange {
			query += ` LIMIT ` + strconv.Itoa(fineRowLimit)
		}
		return query, args
	}
	return query + ` ORDER BY mes DESC LIMIT ` + strconv.Itoa(fineRowLimit), args
}

// paged appends LIMIT/OFFSET placeholders after the existing arguments. A
// zero limit leaves the query unbounded.
func paged(query string, args []any, page reports.Page) (string, []any) {
	if page.Limit <= 0 {
		return query, args
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	n := len(args)
	query += ` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	return query, append(args, page.Limit, offset)
}

const overdueLoansSQL = `SELECT prestamo_id, COALESCE(socio, ''), COALESCE(email, ''), COALESCE(libro, ''), fecha_limite::date,
       COALESCE(dias_atraso::text, '0'), COALESCE(multa_sugerida::text, '0')
FROM vw_prestamos_vencidos
WHERE socio ILIKE $1 ESCAPE '\' OR libro ILIKE $1 ESCAPE '\'
ORDER BY dias_atraso DESC`

const overdueTotalsSQL = `SELECT COUNT(*), COALESCE(SUM(multa_sugerida), 0)::text
FROM vw_prestamos_vencidos
WHERE socio ILIKE $1 ESCAPE '\' OR libro ILIKE $1 ESCAPE '\'`

const popularBooksSQL = `SELECT id, COALESCE(titulo, ''), COALESCE(autor, ''), COALESCE(total_prestamos::text, '0'),
       COALESCE(ranking::text, '0'), COALESCE(popularidad, '')
FROM vw_libros_mas_prestados
WHERE titulo ILIKE $1 ESCAPE '\' OR autor ILIKE $1 ESCAPE '\'
ORDER BY ranking ASC`

const countPopularBooksSQL = `SELECT COUNT(*) FROM vw_libros_mas_prestados
WHERE titulo ILIKE $1 ESCAPE '\' OR autor ILIKE $1 ESCAPE '\'`

const membersSQL = `SELECT id, COALESCE(nombre, ''), COALESCE(tipo_membresia, ''), COALESCE(total_prestamos::text, '0'),
       COALESCE(devoluciones_tardias::text, '0'), COALESCE(tasa_morosidad_porcentaje::text, '0')
FROM vw_actividad_socios
WHERE nombre ILIKE $1 ESCAPE '\' OR tipo_membresia ILIKE $1 ESCAPE '\'
ORDER BY tasa_morosidad_porcentaje DESC, total_prestamos DESC`

const countMembersSQL = `SELECT COUNT(*) FROM vw_actividad_socios
WHERE nombre ILIKE $1 ESCAPE '\' OR tipo_membresia ILIKE $1 ESCAPE '\'`

const inventorySQL = `SELECT COALESCE(categoria, ''), COALESCE(total_items::text, '0'), COALESCE(stock_disponible::text, '0'),
       COALESCE(en_circulacion::text, '0'), COALESCE(no_disponibles::text, '0'), COALESCE(porcentaje_ocupacion::text, '0')
FROM vw_salud_inventario
ORDER BY porcentaje_ocupacion DESC`

// Dashboard statements, executed in order on one connection.
const (
	pendingFinesSQL     = `SELECT COALESCE(SUM(deuda_pendiente), 0)::text FROM vw_resumen_multas`
	overdueCountSQL     = `SELECT COUNT(*) FROM vw_prestamos_vencidos`
	topBookSQL          = `SELECT COALESCE(titulo, ''), COALESCE(total_prestamos::text, '0') FROM vw_libros_mas_prestados ORDER BY ranking ASC LIMIT 1`
	memberCountSQL      = `SELECT COUNT(*) FROM vw_actividad_socios`
	averageOccupancySQL = `SELECT COALESCE(AVG(porcentaje_ocupacion), 0)::text FROM vw_salud_inventario`
)

// FineSummaries lists monthly fine aggregates, newest first.
func (q *Queries) FineSummaries(ctx context.Context, filter reports.FineFilter) (out []reports.FineSummary, err error) {
	ctx, span := q.start(ctx, "fine_summaries", "vw_resumen_multas", attribute.Bool("range", filter.HasRange()))
	defer func() { finish(span, err) }()

	query, args := fineSummaryQuery(filter)
	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reportsdb: fine summaries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var month, count, collected, pending, total string
		if err := rows.Scan(&month, &count, &collected, &pending, &total); err != nil {
			return nil, fmt.Errorf("reportsdb: scan fine summary: %w", err)
		}
		out = append(out, reports.FineSummary{
			Month:     month,
			Count:     reports.ParseCount(count),
			Collected: reports.ParseAmount(collected),
			Pending:   reports.ParseAmount(pending),
			Total:     reports.ParseAmount(total),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reportsdb: fine summaries: %w", err)
	}
	return out, nil
}

// OverdueLoans lists overdue loans matching the pattern, most late first.
func (q *Queries) OverdueLoans(ctx context.Context, pattern string, page reports.Page) (out []reports.OverdueLoan, err error) {
	ctx, span := q.start(ctx, "overdue_loans", "vw_prestamos_vencidos", attribute.Int("limit", page.Limit), attribute.Int("offset", page.Offset))
	defer func() { finish(span, err) }()

	query, args := paged(overdueLoansSQL, []any{pattern}, page)
	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reportsdb: overdue loans: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			loan      reports.OverdueLoan
			due       pgtype.Date
			days, fee string
		)
		if err := rows.Scan(&loan.LoanID, &loan.Member, &loan.Email, &loan.Book, &due, &days, &fee); err != nil {
			return nil, fmt.Errorf("reportsdb: scan overdue loan: %w", err)
		}
		if due.Valid {
			loan.DueDate = due.Time
		}
		loan.DaysLate = reports.ParseCount(days)
		loan.SuggestedFine = reports.ParseAmount(fee)
		out = append(out, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reportsdb: overdue loans: %w", err)
	}
	return out, nil
}

// OverdueTotals counts matching overdue loans and sums their suggested fines.
func (q *Queries) OverdueTotals(ctx context.Context, pattern string) (out reports.OverdueTotals, err error) {
	ctx, span := q.start(ctx, "overdue_totals", "vw_prestamos_vencidos")
	defer func() { finish(span, err) }()

	var debt string
	if err := q.pool.QueryRow(ctx, overdueTotalsSQL, pattern).Scan(&out.Count, &debt); err != nil {
		return reports.OverdueTotals{}, fmt.Errorf("reportsdb: overdue totals: %w", err)
	}
	out.Debt = reports.ParseAmount(debt)
	return out, nil
}

// PopularBooks lists the loan ranking for books matching the pattern.
func (q *Queries) PopularBooks(ctx context.Context, pattern string, page reports.Page) (out []reports.PopularBook, err error) {
	ctx, span := q.start(ctx, "popular_books", "vw_libros_mas_prestados", attribute.Int("limit", page.Limit), attribute.Int("offset", page.Offset))
	defer func() { finish(span, err) }()

	query, args := paged(popularBooksSQL, []any{pattern}, page)
	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reportsdb: popular books: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			book          reports.PopularBook
			loans, ranked string
		)
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &loans, &ranked, &book.Popularity); err != nil {
			return nil, fmt.Errorf("reportsdb: scan popular book: %w", err)
		}
		book.Loans = reports.ParseCount(loans)
		book.Rank = reports.ParseCount(ranked)
		out = append(out, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reportsdb: popular books: %w", err)
	}
	return out, nil
}

// CountPopularBooks counts books matching the pattern.
func (q *Queries) CountPopularBooks(ctx context.Context, pattern string) (total int, err error) {
	ctx, span := q.start(ctx, "count_popular_books", "vw_libros_mas_prestados")
	defer func() { finish(span, err) }()

	if err := q.pool.QueryRow(ctx, countPopularBooksSQL, pattern).Scan(&total); err != nil {
		return 0, fmt.Errorf("reportsdb: count popular books: %w", err)
	}
	return total, nil
}

// Members lists member activity matching the pattern, riskiest first.
func (q *Queries) Members(ctx context.Context, pattern string, page reports.Page) (out []reports.MemberActivity, err error) {
	ctx, span := q.start(ctx, "members", "vw_actividad_socios", attribute.Int("limit", page.Limit), attribute.Int("offset", page.Offset))
	defer func() { finish(span, err) }()

	query, args := paged(membersSQL, []any{pattern}, page)
	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reportsdb: members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			member            reports.MemberActivity
			loans, late, rate string
		)
		if err := rows.Scan(&member.ID, &member.Name, &member.MembershipType, &loans, &late, &rate); err != nil {
			return nil, fmt.Errorf("reportsdb: scan member: %w", err)
		}
		member.Loans = reports.ParseCount(loans)
		member.LateReturns = reports.ParseCount(late)
		member.DelinquencyRate = reports.ParseAmount(rate)
		out = append(out, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reportsdb: members: %w", err)
	}
	return out, nil
}

// CountMembers counts members matching the pattern.
func (q *Queries) CountMembers(ctx context.Context, pattern string) (total int, err error) {
	ctx, span := q.start(ctx, "count_members", "vw_actividad_socios")
	defer func() { finish(span, err) }()

	if err := q.pool.QueryRow(ctx, countMembersSQL, pattern).Scan(&total); err != nil {
		return 0, fmt.Errorf("reportsdb: count members: %w", err)
	}
	return total, nil
}

// InventoryCategories lists every category, fullest first.
func (q *Queries) InventoryCategories(ctx context.Context) (out []reports.InventoryCategory, err error) {
	ctx, span := q.start(ctx, "inventory_categories", "vw_salud_inventario")
	defer func() { finish(span, err) }()

	rows, err := q.pool.Query(ctx, inventorySQL)
	if err != nil {
		return nil, fmt.Errorf("reportsdb: inventory: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cat                                        reports.InventoryCategory
			total, available, loaned, missing, percent string
		)
		if err := rows.Scan(&cat.Category, &total, &available, &loaned, &missing, &percent); err != nil {
			return nil, fmt.Errorf("reportsdb: scan inventory: %w", err)
		}
		cat.TotalItems = reports.ParseCount(total)
		cat.Available = reports.ParseCount(available)
		cat.InCirculation = reports.ParseCount(loaned)
		cat.Unavailable = reports.ParseCount(missing)
		cat.Occupancy = reports.ParseAmount(percent)
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reportsdb: inventory: %w", err)
	}
	return out, nil
}

// DashboardTotals runs the five home page aggregates on a single connection.
func (q *Queries) DashboardTotals(ctx context.Context) (out reports.DashboardTotals, err error) {
	ctx, span := q.start(ctx, "dashboard_totals", "dashboard")
	defer func() { finish(span, err) }()

	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return out, fmt.Errorf("reportsdb: acquire: %w", err)
	}
	defer conn.Release()

	var fines, topLoans, occupancy string
	if err := conn.QueryRow(ctx, pendingFinesSQL).Scan(&fines); err != nil {
		return out, fmt.Errorf("reportsdb: pending fines: %w", err)
	}
	if err := conn.QueryRow(ctx, overdueCountSQL).Scan(&out.OverdueLoans); err != nil {
		return out, fmt.Errorf("reportsdb: overdue count: %w", err)
	}
	err = conn.QueryRow(ctx, topBookSQL).Scan(&out.TopBookTitle, &topLoans)
	switch {
	case err == nil:
		out.TopBookLoans = reports.ParseCount(topLoans)
	case errors.Is(err, pgx.ErrNoRows):
		err = nil
	default:
		return out, fmt.Errorf("reportsdb: top book: %w", err)
	}
	if err := conn.QueryRow(ctx, memberCountSQL).Scan(&out.Members); err != nil {
		return out, fmt.Errorf("reportsdb: member count: %w", err)
	}
	if err := conn.QueryRow(ctx, averageOccupancySQL).Scan(&occupancy); err != nil {
		return out, fmt.Errorf("reportsdb: average occupancy: %w", err)
	}
	out.PendingFines = reports.ParseAmount(fines)
	out.AverageOccupancy = reports.ParseAmount(occupancy)
	return out, nil
}
