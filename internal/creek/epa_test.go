package creek

import "testing"

// TestClassify tests threshold banding across all metrics
func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		metric   string
		value    float64
		expected Band
	}{
		{name: "E. coli below criterion", metric: MetricEColi, value: 125.9, expected: BandBelow},
		{name: "E. coli at criterion", metric: MetricEColi, value: 126, expected: BandAt},
		{name: "E. coli above criterion", metric: MetricEColi, value: 126.1, expected: BandAbove},
		{name: "pH below upper bound", metric: MetricPH, value: 7.0, expected: BandBelow},
		{name: "pH at upper bound", metric: MetricPH, value: 8.5, expected: BandAt},
		{name: "pH above upper bound", metric: MetricPH, value: 9.1, expected: BandAbove},
		{name: "Turbidity below screening level", metric: MetricTurbidity, value: 2, expected: BandBelow},
		{name: "Turbidity at screening level", metric: MetricTurbidity, value: 10, expected: BandAt},
		{name: "Turbidity above screening level", metric: MetricTurbidity, value: 48, expected: BandAbove},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			std, ok := StandardFor(tc.metric)
			if !ok {
				t.Fatalf("Expected a standard for %s", tc.metric)
			}
			if got := std.Classify(tc.value); got != tc.expected {
				t.Errorf("Expected band %s, got %s", tc.expected, got)
			}
		})
	}
}

// TestExplain tests that each band yields its canned sentence
func TestExplain(t *testing.T) {
	std, _ := StandardFor(MetricEColi)

	if got := std.Explain(50); got != std.BelowText {
		t.Errorf("Expected below text, got %q", got)
	}
	if got := std.Explain(126); got != std.AtText {
		t.Errorf("Expected at text, got %q", got)
	}
	if got := std.Explain(150); got != std.AboveText {
		t.Errorf("Expected above text, got %q", got)
	}
}

// TestStandards tests table completeness and display order
func TestStandards(t *testing.T) {
	all := Standards()
	if len(all) != len(MetricKeys) {
		t.Fatalf("Expected %d standards, got %d", len(MetricKeys), len(all))
	}
	for i, key := range MetricKeys {
		if all[i].Metric != key {
			t.Errorf("Expected standard %d to be %s, got %s", i, key, all[i].Metric)
		}
		if all[i].Note == "" {
			t.Errorf("Expected a health note for %s", key)
		}
		if all[i].BelowText == "" || all[i].AtText == "" || all[i].AboveText == "" {
			t.Errorf("Expected all three band sentences for %s", key)
		}
	}
}

// TestStandardFor tests unknown metric handling
func TestStandardFor(t *testing.T) {
	if _, ok := StandardFor("temperature"); ok {
		t.Error("Expected no standard for an unknown metric")
	}
}

// TestThresholdString tests threshold rendering
func TestThresholdString(t *testing.T) {
	testCases := []struct {
		metric   string
		expected string
	}{
		{MetricEColi, "126 MPN/100 mL"},
		{MetricPH, "8.5"},
		{MetricTurbidity, "10 NTU"},
	}

	for _, tc := range testCases {
		std, _ := StandardFor(tc.metric)
		if got := std.ThresholdString(); got != tc.expected {
			t.Errorf("Expected %q, got %q", tc.expected, got)
		}
	}
}
