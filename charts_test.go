package main

import (
	"strings"
	"testing"
	"time"

	"creekwatch/internal/creek"
)

// TestSparkline tests sparkline rendering
func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Errorf("Expected empty sparkline for no values, got %q", got)
	}

	rising := []rune(Sparkline([]float64{1, 2, 3, 4}))
	if len(rising) != 4 {
		t.Fatalf("Expected 4 runes, got %d", len(rising))
	}
	if rising[0] != '▁' {
		t.Errorf("Expected lowest rune first, got %c", rising[0])
	}
	if rising[3] != '█' {
		t.Errorf("Expected highest rune last, got %c", rising[3])
	}

	flat := []rune(Sparkline([]float64{5, 5, 5}))
	if flat[0] != flat[1] || flat[1] != flat[2] {
		t.Errorf("Expected a level line for equal values, got %q", string(flat))
	}
}

// TestTrendLine tests the trend summary line
func TestTrendLine(t *testing.T) {
	if got := TrendLine(nil, creek.TrendFlat); got != "no readings in window" {
		t.Errorf("Expected the empty-window message, got %q", got)
	}

	day := func(d int) time.Time {
		return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
	}
	points := []creek.TrendPoint{
		{Timestamp: day(1), Value: 80},
		{Timestamp: day(8), Value: 150},
	}

	got := TrendLine(points, creek.TrendRising)
	if !strings.Contains(got, "rising") {
		t.Errorf("Expected direction in output, got %q", got)
	}
	if !strings.Contains(got, "+70.0") {
		t.Errorf("Expected net change in output, got %q", got)
	}
}

// TestBarChart tests bar fill proportions
func TestBarChart(t *testing.T) {
	testCases := []struct {
		name           string
		value          float64
		max            float64
		expectedFilled int
	}{
		{
			name:           "Full bar",
			value:          100,
			max:            100,
			expectedFilled: 10,
		},
		{
			name:           "Half bar",
			value:          50,
			max:            100,
			expectedFilled: 5,
		},
		{
			name:           "Empty bar",
			value:          0,
			max:            100,
			expectedFilled: 0,
		},
		{
			name:           "Clamped above max",
			value:          250,
			max:            100,
			expectedFilled: 10,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := BarChart("x", tc.value, tc.max, 10, colorOK)
			if filled := strings.Count(got, "█"); filled != tc.expectedFilled {
				t.Errorf("Expected %d filled cells, got %d in %q", tc.expectedFilled, filled, got)
			}
		})
	}
}

// TestRankingChart tests the cross-site bar rendering
func TestRankingChart(t *testing.T) {
	std, _ := creek.StandardFor(creek.MetricEColi)

	if got := RankingChart(nil, std, 20); !strings.Contains(got, "No sites") {
		t.Errorf("Expected the empty message, got %q", got)
	}

	ranked := []creek.RankedSite{
		{Code: "peav@ndec", Name: "Oxford Rd", Value: 200},
		{Code: "lull@lull", Name: "Lullwater", Value: 50},
	}
	got := RankingChart(ranked, std, 20)

	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "Oxford Rd") {
		t.Errorf("Expected the worst site first, got %q", lines[0])
	}
	if !strings.Contains(lines[0], "200.0") {
		t.Errorf("Expected the value on the bar, got %q", lines[0])
	}
}

// TestThresholdGauge tests the reading marker and threshold tick
func TestThresholdGauge(t *testing.T) {
	std, _ := creek.StandardFor(creek.MetricEColi)

	below := ThresholdGauge(50, std, 20)
	if !strings.Contains(below, "●") || !strings.Contains(below, "┃") {
		t.Errorf("Expected marker and threshold tick, got %q", below)
	}
	if !strings.Contains(below, "50.0") {
		t.Errorf("Expected the value printed, got %q", below)
	}

	// A reading past twice the threshold widens the scale instead of
	// falling off the end.
	over := ThresholdGauge(1000, std, 20)
	if !strings.Contains(over, "●") {
		t.Errorf("Expected the marker on a widened scale, got %q", over)
	}
}

// TestRangeBar tests the min/avg/max spread bar
func TestRangeBar(t *testing.T) {
	got := RangeBar(80, 140, 200, 20)
	for _, want := range []string{"80.0", "200.0", "avg 140.0", "●", "├", "┤"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in range bar, got %q", want, got)
		}
	}
}

// TestComplianceSummaryBar tests the compliant-share bar
func TestComplianceSummaryBar(t *testing.T) {
	if got := ComplianceSummaryBar(0, 0, 20); got != "No sites with readings" {
		t.Errorf("Expected the no-data message, got %q", got)
	}

	got := ComplianceSummaryBar(3, 4, 20)
	if !strings.Contains(got, "3/4 sites compliant") {
		t.Errorf("Expected the ratio, got %q", got)
	}
	if !strings.Contains(got, "75%") {
		t.Errorf("Expected the percentage, got %q", got)
	}
}
