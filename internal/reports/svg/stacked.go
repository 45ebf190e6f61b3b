package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Defaults for the report charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 28.0
	DefaultTicks   = 4
)

// StackOpts customises the stacked bar renderer.
type StackOpts struct {
	Title       string
	Description string
	LowerLabel  string
	UpperLabel  string
	LowerColor  string
	UpperColor  string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// Stacked renders one bar per label with the upper series stacked on the
// lower one. Negative values are drawn as zero.
func Stacked(width, height int, lower, upper []float64, labels []string, opts StackOpts) (template.HTML, error) {
	if len(labels) == 0 {
		return "", fmt.Errorf("svg: labels required")
	}
	if len(lower) != len(labels) || len(upper) != len(labels) {
		return "", fmt.Errorf("svg: series length must match labels")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#e2e8f0")
	lowerColor := fallback(opts.LowerColor, "#16a34a")
	upperColor := fallback(opts.UpperColor, "#dc2626")
	lowerLabel := fallback(opts.LowerLabel, "Series A")
	upperLabel := fallback(opts.UpperLabel, "Series B")

	plotW := float64(width) - 2*padding
	plotH := float64(height) - 2*padding
	if plotW <= 0 || plotH <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	maxVal := 0.0
	for i := range labels {
		if total := positive(lower[i]) + positive(upper[i]); total > maxVal {
			maxVal = total
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}
	scale := plotH / maxVal
	bottom := padding + plotH
	slot := plotW / float64(len(labels))
	barW := slot * 0.6

	titleID := makeID(opts.Title, "stack-title")
	descID := makeID(opts.Title, "stack-desc")

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, width, height, titleID, descID)
	fmt.Fprintf(&b, `<title id="%s">%s</title>`, titleID, template.HTMLEscapeString(fallback(opts.Title, "Stacked bars")))
	fmt.Fprintf(&b, `<desc id="%s">%s</desc>`, descID, template.HTMLEscapeString(fallback(opts.Description, "Stacked bar comparison")))

	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := bottom - ratio*plotH
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" aria-hidden="true"></line>`, padding, y, padding+plotW, y, gridColor)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, padding-4, y+3, axisColor, formatTick(maxVal*ratio))
	}

	for i, label := range labels {
		x := padding + float64(i)*slot + (slot-barW)/2
		lowH := positive(lower[i]) * scale
		upH := positive(upper[i]) * scale
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s %s</title></rect>`, x, bottom-lowH, barW, lowH, lowerColor, template.HTMLEscapeString(lowerLabel), template.HTMLEscapeString(label))
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s %s</title></rect>`, x, bottom-lowH-upH, barW, upH, upperColor, template.HTMLEscapeString(upperLabel), template.HTMLEscapeString(label))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, x+barW/2, bottom+14, axisColor, template.HTMLEscapeString(label))
	}

	legendY := math.Max(padding-10, 12)
	fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, padding, legendY-8, lowerColor)
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">%s</text>`, padding+14, legendY, axisColor, template.HTMLEscapeString(lowerLabel))
	fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, padding+100, legendY-8, upperColor)
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">%s</text>`, padding+114, legendY, axisColor, template.HTMLEscapeString(upperLabel))

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func positive(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

func formatTick(v float64) string {
	switch abs := math.Abs(v); {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case v == math.Round(v):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}
