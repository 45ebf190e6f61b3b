package reporthttp

import "github.com/bibliodash/bibliodash/internal/reports"

// Paths are the report routes of one variant.
type Paths struct {
	Fines        string
	Overdue      string
	PopularBooks string
	Members      string
	Inventory    string
}

// Labels holds every user facing string of a variant.
type Labels struct {
	Lang      string
	AppName   string
	Home      string
	Search    string
	Filter    string
	Clear     string
	Export    string
	Page      string
	PageOf    string
	Previous  string
	Next      string
	StartDate string
	EndDate   string

	FinesTitle    string
	Month         string
	FineCount     string
	Collected     string
	Pending       string
	Total         string
	Effectiveness string
	Composition   string
	FinesEmpty    string

	OverdueTitle  string
	OverdueSearch string
	Member        string
	Email         string
	Book          string
	DueDate       string
	DaysLate      string
	Days          string
	SuggestedFine string
	TotalDebt     string
	OverdueCount  string
	OverdueEmpty  string

	BooksTitle  string
	BooksSearch string
	Rank        string
	BookTitle   string
	Author      string
	Loans       string
	Popularity  string
	TopBook     string
	BooksEmpty  string

	MembersTitle  string
	MembersSearch string
	Name          string
	Membership    string
	LateReturns   string
	Delinquency   string
	Risk          string
	RiskLow       string
	RiskMedium    string
	RiskHigh      string
	MembersEmpty  string

	InventoryTitle  string
	Category        string
	TotalItems      string
	Available       string
	InCirculation   string
	Unavailable     string
	Occupancy       string
	GlobalOccupancy string
	InventoryEmpty  string

	PendingFines   string
	OverdueLoans   string
	MemberCount    string
	InventoryScore string
	Optimal        string
	Warning        string
	Critical       string
}

// RiskLabel translates a member risk level.
func (l Labels) RiskLabel(level string) string {
	switch level {
	case reports.RiskHigh:
		return l.RiskHigh
	case reports.RiskMedium:
		return l.RiskMedium
	default:
		return l.RiskLow
	}
}

// StatusLabel translates an inventory status.
func (l Labels) StatusLabel(status string) string {
	switch status {
	case reports.StatusCritical:
		return l.Critical
	case reports.StatusWarning:
		return l.Warning
	default:
		return l.Optimal
	}
}

// Variant parameterises the report pages: routes, labels and paging rules.
type Variant struct {
	Name     string
	PageSize int
	// CapFinesRange keeps the 12 month cap when a range is requested.
	CapFinesRange bool
	// AlwaysPaginate renders the pager even for a single page.
	AlwaysPaginate bool
	Paths          Paths
	Labels         Labels
}

// English is the variant mounted under the English route names.
func English() Variant {
	return Variant{
		Name:           "en",
		PageSize:       5,
		AlwaysPaginate: true,
		Paths: Paths{
			Fines:        "/reports/fines",
			Overdue:      "/reports/overdue",
			PopularBooks: "/reports/popular-books",
			Members:      "/reports/members",
			Inventory:    "/reports/inventory",
		},
		Labels: Labels{
			Lang:      "en",
			AppName:   "Library Reports",
			Home:      "Dashboard",
			Search:    "Search",
			Filter:    "Filter",
			Clear:     "Clear",
			Export:    "Export",
			Page:      "Page",
			PageOf:    "/",
			Previous:  "Previous",
			Next:      "Next",
			StartDate: "From",
			EndDate:   "To",

			FinesTitle:    "Fines summary",
			Month:         "Month",
			FineCount:     "Fines",
			Collected:     "Collected",
			Pending:       "Pending",
			Total:         "Total",
			Effectiveness: "Collection effectiveness",
			Composition:   "Composition",
			FinesEmpty:    "No records found.",

			OverdueTitle:  "Overdue loans",
			OverdueSearch: "Search by member or book",
			Member:        "Member",
			Email:         "Email",
			Book:          "Book",
			DueDate:       "Due date",
			DaysLate:      "Days late",
			Days:          "days",
			SuggestedFine: "Suggested fine",
			TotalDebt:     "Potential debt",
			OverdueCount:  "Overdue loans",
			OverdueEmpty:  "No overdue loans.",

			BooksTitle:  "Popular books",
			BooksSearch: "Search by title or author",
			Rank:        "Rank",
			BookTitle:   "Title",
			Author:      "Author",
			Loans:       "Loans",
			Popularity:  "Popularity",
			TopBook:     "Top #1",
			BooksEmpty:  "No books found.",

			MembersTitle:  "Member activity",
			MembersSearch: "Search by name or membership",
			Name:          "Name",
			Membership:    "Membership",
			LateReturns:   "Late returns",
			Delinquency:   "Delinquency",
			Risk:          "Risk",
			RiskLow:       "Low",
			RiskMedium:    "Medium",
			RiskHigh:      "High",
			MembersEmpty:  "No members found.",

			InventoryTitle:  "Inventory health",
			Category:        "Category",
			TotalItems:      "Total items",
			Available:       "Available",
			InCirculation:   "In circulation",
			Unavailable:     "Unavailable",
			Occupancy:       "Occupancy",
			GlobalOccupancy: "Global occupancy",
			InventoryEmpty:  "No data available.",

			PendingFines:   "Pending fines",
			OverdueLoans:   "Overdue loans",
			MemberCount:    "Active members",
			InventoryScore: "Inventory occupancy",
			Optimal:        "OPTIMAL",
			Warning:        "WARNING",
			Critical:       "CRITICAL",
		},
	}
}

// Spanish is the variant mounted under the Spanish route names.
func Spanish() Variant {
	return Variant{
		Name:          "es",
		PageSize:      10,
		CapFinesRange: true,
		Paths: Paths{
			Fines:        "/reports/multas",
			Overdue:      "/reports/prestamos-vencidos",
			PopularBooks: "/reports/libros-populares",
			Members:      "/reports/socios",
			Inventory:    "/reports/inventario",
		},
		Labels: Labels{
			Lang:      "es",
			AppName:   "Reportes de Biblioteca",
			Home:      "Inicio",
			Search:    "Buscar",
			Filter:    "Filtrar",
			Clear:     "Limpiar",
			Export:    "Exportar",
			Page:      "Página",
			PageOf:    "de",
			Previous:  "Anterior",
			Next:      "Siguiente",
			StartDate: "Desde",
			EndDate:   "Hasta",

			FinesTitle:    "Resumen de multas",
			Month:         "Mes",
			FineCount:     "Multas",
			Collected:     "Cobrado",
			Pending:       "Pendiente",
			Total:         "Total",
			Effectiveness: "Efectividad de cobro",
			Composition:   "Composición",
			FinesEmpty:    "No hay datos disponibles",

			OverdueTitle:  "Préstamos vencidos",
			OverdueSearch: "Buscar por socio o libro",
			Member:        "Socio",
			Email:         "Correo",
			Book:          "Libro",
			DueDate:       "Fecha límite",
			DaysLate:      "Días de atraso",
			Days:          "días",
			SuggestedFine: "Multa sugerida",
			TotalDebt:     "Deuda potencial",
			OverdueCount:  "Préstamos vencidos",
			OverdueEmpty:  "No hay préstamos vencidos",

			BooksTitle:  "Libros populares",
			BooksSearch: "Buscar por título o autor",
			Rank:        "Ranking",
			BookTitle:   "Título",
			Author:      "Autor",
			Loans:       "Préstamos",
			Popularity:  "Popularidad",
			TopBook:     "Top #1",
			BooksEmpty:  "No se encontraron libros",

			MembersTitle:  "Actividad de socios",
			MembersSearch: "Buscar por nombre o membresía",
			Name:          "Nombre",
			Membership:    "Membresía",
			LateReturns:   "Devoluciones tardías",
			Delinquency:   "Morosidad",
			Risk:          "Riesgo",
			RiskLow:       "Bajo",
			RiskMedium:    "Medio",
			RiskHigh:      "Alto",
			MembersEmpty:  "No se encontraron socios",

			InventoryTitle:  "Salud del inventario",
			Category:        "Categoría",
			TotalItems:      "Total de ejemplares",
			Available:       "Disponibles",
			InCirculation:   "En circulación",
			Unavailable:     "No disponibles",
			Occupancy:       "Ocupación",
			GlobalOccupancy: "Ocupación global",
			InventoryEmpty:  "No hay datos de inventario",

			PendingFines:   "Multas pendientes",
			OverdueLoans:   "Préstamos vencidos",
			MemberCount:    "Socios activos",
			InventoryScore: "Ocupación del inventario",
			Optimal:        "ÓPTIMO",
			Warning:        "ADVERTENCIA",
			Critical:       "CRÍTICO",
		},
	}
}

func (v Variant) fineFilter(start, end string) reports.FineFilter {
	return reports.FineFilter{Start: start, End: end, CapRange: v.CapFinesRange}
}

func (v Variant) searchFilter(query string, page int) reports.SearchFilter {
	return reports.SearchFilter{Query: query, Page: page, PageSize: v.PageSize}
}
