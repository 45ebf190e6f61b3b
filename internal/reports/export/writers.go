package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Format is an export file type.
type Format string

// Supported export formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ErrUnknownFormat is returned for unsupported file extensions.
var ErrUnknownFormat = errors.New("export: unknown format")

// ParseFormat maps a file extension onto a Format.
func ParseFormat(ext string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(ext, "."))); f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", ErrUnknownFormat
	}
}

// ContentType is the HTTP media type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// PDFRenderer converts printable HTML into a PDF document.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Write serialises the table in the given format. pdf may be nil unless the
// format is FormatPDF.
func Write(ctx context.Context, w io.Writer, t Table, format Format, pdf PDFRenderer) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatPDF:
		return WritePDF(ctx, w, t, pdf)
	default:
		return ErrUnknownFormat
	}
}

// WriteCSV writes headers, rows and the footer separated by a blank line.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Headers); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	if len(t.Footer) > 0 {
		if err := writer.Write([]string{}); err != nil {
			return err
		}
		for _, kv := range t.Footer {
			if err := writer.Write([]string{kv[0], kv[1]}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

const sheetName = "Report"

// WriteXLSX writes the table to a single worksheet. Cells of numeric columns
// and footer values are stored as numbers; everything else stays text.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("export: xlsx sheet: %w", err)
	}
	head := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		head[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &head); err != nil {
		return fmt.Errorf("export: xlsx header: %w", err)
	}
	line := 2
	for _, row := range t.Rows {
		if err := setRow(f, line, row, t.IsNumeric); err != nil {
			return err
		}
		line++
	}
	if len(t.Footer) > 0 {
		line++
		footerValue := func(i int) bool { return i == 1 }
		for _, kv := range t.Footer {
			if err := setRow(f, line, kv[:], footerValue); err != nil {
				return err
			}
			line++
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: xlsx write: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, line int, values []string, numeric func(int) bool) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
		if !numeric(i) {
			continue
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			cells[i] = n
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("export: xlsx row %d: %w", line, err)
	}
	return nil
}

var printable = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:Helvetica,Arial,sans-serif;font-size:11px;color:#0f172a;margin:24px}
h1{font-size:18px;margin:0 0 4px}
p.meta{color:#64748b;margin:0 0 16px}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #cbd5e1;padding:4px 6px;text-align:left}
th{background:#f1f5f9}
dl{margin-top:16px}
dt{font-weight:bold;float:left;clear:left;width:140px}
</style></head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Generated {{.Generated}}</p>
<table><thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{else}}<tr><td colspan="{{len .Headers}}">No data</td></tr>{{end}}</tbody></table>
{{if .Footer}}<dl>{{range .Footer}}<dt>{{index . 0}}</dt><dd>{{index . 1}}</dd>{{end}}</dl>{{end}}
</body></html>`))

// PrintableHTML renders the table as a standalone HTML document.
func PrintableHTML(t Table, generated time.Time) (string, error) {
	var buf bytes.Buffer
	err := printable.Execute(&buf, struct {
		Table
		Generated string
	}{Table: t, Generated: generated.Format("2006-01-02 15:04")})
	if err != nil {
		return "", fmt.Errorf("export: printable html: %w", err)
	}
	return buf.String(), nil
}

// WritePDF renders the printable HTML through the PDF renderer.
func WritePDF(ctx context.Context, w io.Writer, t Table, pdf PDFRenderer) error {
	if pdf == nil {
		return errors.New("export: pdf renderer not configured")
	}
	html, err := PrintableHTML(t, time.Now())
	if err != nil {
		return err
	}
	doc, err := pdf.RenderHTML(ctx, html)
	if err != nil {
		return fmt.Errorf("export: render pdf: %w", err)
	}
	_, err = w.Write(doc)
	return err
}
