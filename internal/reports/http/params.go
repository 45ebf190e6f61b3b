package reporthttp

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxQueryLength = 100
	maxPage        = 1_000_000
)

type searchParams struct {
	Query string `validate:"max=100"`
	Page  int    `validate:"min=1,max=1000000"`
}

type rangeParams struct {
	Start string `validate:"omitempty,datetime=2006-01"`
	End   string `validate:"omitempty,datetime=2006-01"`
}

// parseSearch reads q and page. Over-long queries are truncated; a page outside
// 1..maxPage falls back to the first page.
func parseSearch(v *validator.Validate, r *http.Request) searchParams {
	values := r.URL.Query()
	page, err := strconv.Atoi(strings.TrimSpace(values.Get("page")))
	if err != nil {
		page = 0
	}
	params := searchParams{Query: strings.TrimSpace(values.Get("q")), Page: page}
	for _, field := range invalidFields(v.Struct(params)) {
		switch field {
		case "Query":
			params.Query = truncate(params.Query, maxQueryLength)
		case "Page":
			params.Page = 1
		}
	}
	return params
}

// parseRange reads start and end months. Malformed months are dropped.
func parseRange(v *validator.Validate, r *http.Request) rangeParams {
	values := r.URL.Query()
	params := rangeParams{
		Start: strings.TrimSpace(values.Get("start")),
		End:   strings.TrimSpace(values.Get("end")),
	}
	for _, field := range invalidFields(v.Struct(params)) {
		switch field {
		case "Start":
			params.Start = ""
		case "End":
			params.End = ""
		}
	}
	return params
}

func invalidFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.StructField())
	}
	return fields
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// pageURL links to a page of the route, keeping the search text.
func pageURL(path, query string, page int) string {
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	if query != "" {
		values.Set("q", query)
	}
	return path + "?" + values.Encode()
}

// exportURL links to an export of the report with the current filters.
func exportURL(report, format string, values url.Values) string {
	u := "/exports/" + report + "." + format
	if encoded := values.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}
