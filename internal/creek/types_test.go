package creek

import (
	"database/sql"
	"testing"
)

// TestNormalizeMetric tests alias folding
func TestNormalizeMetric(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "Canonical key", input: "ecoli", expected: MetricEColi, ok: true},
		{name: "Spaced spelling", input: "E. Coli", expected: MetricEColi, ok: true},
		{name: "Legacy column name", input: "ecoli_conc", expected: MetricEColi, ok: true},
		{name: "Misspelled source column", input: "tubidity", expected: MetricTurbidity, ok: true},
		{name: "Upper case pH", input: "PH", expected: MetricPH, ok: true},
		{name: "Unit as alias", input: "NTU", expected: MetricTurbidity, ok: true},
		{name: "Surrounding whitespace", input: "  turbidity  ", expected: MetricTurbidity, ok: true},
		{name: "Unknown metric", input: "temperature", ok: false},
		{name: "Empty", input: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeMetric(tc.input)
			if ok != tc.ok {
				t.Fatalf("Expected ok=%v, got %v", tc.ok, ok)
			}
			if ok && got != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func fixtureSites() []Site {
	return []Site{
		{Code: "lull@lull", Name: "Lullwater Creek / Lullwater Rd NE"},
		{Code: "peav@ndec", Name: "Peavine Creek / Oxford Rd NE"},
		{Code: "peav@oldb", Name: "Peavine Creek / Old Briarcliff Way"},
		{Code: "peav@vick", Name: "Peavine Creek / Chelsea Cir NE"},
	}
}

// TestResolveSite tests code, name, and partial matching
func TestResolveSite(t *testing.T) {
	sites := fixtureSites()

	testCases := []struct {
		name         string
		query        string
		expectedCode string
		ok           bool
	}{
		{name: "Exact code", query: "peav@oldb", expectedCode: "peav@oldb", ok: true},
		{name: "Code case folded", query: "PEAV@OLDB", expectedCode: "peav@oldb", ok: true},
		{name: "Full name", query: "Peavine Creek / Oxford Rd NE", expectedCode: "peav@ndec", ok: true},
		{name: "Name case folded", query: "lullwater creek / lullwater rd ne", expectedCode: "lull@lull", ok: true},
		{name: "Unique partial name", query: "chelsea", expectedCode: "peav@vick", ok: true},
		{name: "Ambiguous partial name", query: "peavine", ok: false},
		{name: "Unknown site", query: "south river", ok: false},
		{name: "Empty query", query: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			site, ok := ResolveSite(sites, tc.query)
			if ok != tc.ok {
				t.Fatalf("Expected ok=%v, got %v", tc.ok, ok)
			}
			if ok && site.Code != tc.expectedCode {
				t.Errorf("Expected %s, got %s", tc.expectedCode, site.Code)
			}
		})
	}
}

// TestMeasurementValue tests metric access with NULLs
func TestMeasurementValue(t *testing.T) {
	m := Measurement{
		EColi: nf(150),
		PH:    sql.NullFloat64{},
	}

	if v, ok := m.Value(MetricEColi); !ok || v != 150 {
		t.Errorf("Expected 150, got %v (ok=%v)", v, ok)
	}
	if _, ok := m.Value(MetricPH); ok {
		t.Error("Expected NULL pH to report no value")
	}
	if _, ok := m.Value("temperature"); ok {
		t.Error("Expected unknown metric to report no value")
	}
}

// TestMeasurementStrings tests display formatting with NULLs
func TestMeasurementStrings(t *testing.T) {
	m := Measurement{
		Timestamp: day("2024-06-10"),
		EColi:     nf(150),
		PH:        nf(7.25),
		Turbidity: sql.NullFloat64{},
	}

	if got := m.EColiString(); got != "150.0 MPN/100 mL" {
		t.Errorf("Expected '150.0 MPN/100 mL', got %q", got)
	}
	if got := m.PHString(); got != "7.25" {
		t.Errorf("Expected '7.25', got %q", got)
	}
	if got := m.TurbidityString(); got != "N/A" {
		t.Errorf("Expected 'N/A', got %q", got)
	}
	if got := m.TotalColiformString(); got != "N/A" {
		t.Errorf("Expected 'N/A', got %q", got)
	}
	if got := m.DateString(); got != "2024-06-10" {
		t.Errorf("Expected '2024-06-10', got %q", got)
	}
}

// TestSiteHelpers tests site display helpers
func TestSiteHelpers(t *testing.T) {
	s := Site{
		Code:        "peav@oldb",
		Name:        "Peavine Creek / Old Briarcliff Way",
		Lat:         nf(33.7904),
		Lon:         nf(-84.3381),
		Records:     42,
		FirstSample: day("2023-01-05"),
		LastSample:  day("2024-06-10"),
	}

	if got := s.DisplayName(); got != "Peavine Creek / Old Briarcliff Way (peav@oldb)" {
		t.Errorf("Unexpected display name %q", got)
	}
	if got := s.CoordinatesString(); got != "33.7904, -84.3381" {
		t.Errorf("Expected coordinates, got %q", got)
	}
	if got := s.SampleRangeString(); got != "2023-01-05 to 2024-06-10" {
		t.Errorf("Unexpected sample range %q", got)
	}

	bare := Site{Code: "x@y"}
	if got := bare.DisplayName(); got != "x@y" {
		t.Errorf("Expected bare code, got %q", got)
	}
	if got := bare.CoordinatesString(); got != "N/A" {
		t.Errorf("Expected 'N/A', got %q", got)
	}
	if got := bare.SampleRangeString(); got != "no samples" {
		t.Errorf("Expected 'no samples', got %q", got)
	}
}

// TestSiteCodes tests the code projection helper
func TestSiteCodes(t *testing.T) {
	codes := SiteCodes(fixtureSites())
	expected := []string{"lull@lull", "peav@ndec", "peav@oldb", "peav@vick"}
	if len(codes) != len(expected) {
		t.Fatalf("Expected %d codes, got %d", len(expected), len(codes))
	}
	for i := range expected {
		if codes[i] != expected[i] {
			t.Errorf("Expected %s at %d, got %s", expected[i], i, codes[i])
		}
	}
}
