package reporthttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bibliodash/bibliodash/internal/platform/httpx"
	"github.com/bibliodash/bibliodash/internal/reports/export"
)

const exportTimeout = 30 * time.Second

// parseExportFile splits "<report>.<ext>" into a known report and format.
func parseExportFile(file string) (string, export.Format, error) {
	dot := strings.LastIndexByte(file, '.')
	if dot <= 0 {
		return "", "", fmt.Errorf("export %q: %w", file, httpx.ErrNotFound)
	}
	report := file[:dot]
	if !slices.Contains(export.Reports(), report) {
		return "", "", fmt.Errorf("export %q: %w", file, httpx.ErrNotFound)
	}
	format, err := export.ParseFormat(file[dot+1:])
	if err != nil {
		return "", "", fmt.Errorf("export %q: %w", file, httpx.ErrNotFound)
	}
	return report, format, nil
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	report, format, err := parseExportFile(chi.URLParam(r, "file"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	search := parseSearch(h.validate, r)
	months := parseRange(h.validate, r)

	ctx, cancel := context.WithTimeout(r.Context(), exportTimeout)
	defer cancel()

	buf := &bytes.Buffer{}
	err = h.writeExport(ctx, buf, export.Request{
		Report: report,
		Query:  search.Query,
		Start:  months.Start,
		End:    months.End,
	}, format)
	if h.metrics != nil {
		h.metrics.Exported(report, string(format), err)
	}
	if err != nil {
		h.logError("export "+report, err)
		if errors.Is(err, export.ErrUnknownReport) || errors.Is(err, export.ErrUnknownFormat) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.%s", report, h.now().Format("20060102"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) writeExport(ctx context.Context, buf *bytes.Buffer, req export.Request, format export.Format) error {
	table, err := export.Build(ctx, h.service, req)
	if err != nil {
		return err
	}
	return export.Write(ctx, buf, table, format, h.pdf)
}
