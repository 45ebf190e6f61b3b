package view

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/bibliodash/bibliodash/web"
)

// DefaultMoneyLocale formats amounts the way the library staff read them.
const DefaultMoneyLocale = "es-MX"

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	printer   *message.Printer
}

// NavItem is one entry of the report navigation bar.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	Lang        string
	CurrentPath string
	Nav         []NavItem
	Data        any
}

// NewEngine parses templates at build-time. moneyLocale is a BCP 47 tag; an
// empty or unknown tag falls back to DefaultMoneyLocale.
func NewEngine(moneyLocale string) (*Engine, error) {
	tag, err := language.Parse(moneyLocale)
	if err != nil {
		tag = language.MustParse(DefaultMoneyLocale)
	}
	e := &Engine{printer: message.NewPrinter(tag)}
	funcMap := template.FuncMap{
		"money": e.Money,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006")
		},
		"pct":    Clamp,
		"fixed1": fixed1,
		"add":    func(a, b int) int { return a + b },
		"sub":    func(a, b int) int { return a - b },
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	e.templates = tpl
	return e, nil
}

// Money renders an amount with a dollar sign and exactly two decimals.
func (e *Engine) Money(amount decimal.Decimal) string {
	value := amount.Round(2).InexactFloat64()
	return "$" + e.printer.Sprint(number.Decimal(value, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Clamp bounds a percentage to [0,100] for bar widths.
func Clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func fixed1(v any) string {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.StringFixed(1)
	case float64:
		return strconv.FormatFloat(val, 'f', 1, 64)
	case int64:
		return strconv.FormatInt(val, 10) + ".0"
	case int:
		return strconv.Itoa(val) + ".0"
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// Execute writes a named template to any writer, used for printable exports.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	return e.templates.ExecuteTemplate(w, name, data)
}
