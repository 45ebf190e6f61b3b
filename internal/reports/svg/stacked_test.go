package svg

import (
	"strings"
	"testing"
)

func TestStackedProducesSVG(t *testing.T) {
	html, err := Stacked(420, 220, []float64{120, 80}, []float64{30, 0}, []string{"2024-05", "2024-04"}, StackOpts{
		Title:      "Fines by month",
		LowerLabel: "Collected",
		UpperLabel: "Pending",
	})
	if err != nil {
		t.Fatalf("stacked renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if got := strings.Count(output, "<rect"); got != 6 {
		t.Fatalf("expected 4 bars and 2 legend swatches, got %d rects", got)
	}
	if !strings.Contains(output, "fines-by-month-stack-title") {
		t.Fatalf("expected derived title id")
	}
	if !strings.Contains(output, "Pending 2024-05") {
		t.Fatalf("expected bar tooltip")
	}
}

func TestStackedValidatesInput(t *testing.T) {
	if _, err := Stacked(0, 0, nil, nil, nil, StackOpts{}); err == nil {
		t.Fatalf("expected error without labels")
	}
	if _, err := Stacked(0, 0, []float64{1}, nil, []string{"2024-01"}, StackOpts{}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if _, err := Stacked(10, 10, []float64{1}, []float64{1}, []string{"a"}, StackOpts{Padding: 20}); err == nil {
		t.Fatalf("expected viewport error")
	}
}

func TestStackedAllZero(t *testing.T) {
	html, err := Stacked(0, 0, []float64{0}, []float64{-5}, []string{"2024-01"}, StackOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(html), `height="0.00"`) {
		t.Fatalf("expected zero height bars")
	}
}
