package creek

import "fmt"

// Band classifies a reading against a screening threshold.
type Band int

const (
	BandBelow Band = iota
	BandAt
	BandAbove
)

func (b Band) String() string {
	switch b {
	case BandBelow:
		return "below"
	case BandAt:
		return "at"
	case BandAbove:
		return "above"
	}
	return "unknown"
}

// Standard is one row of the EPA screening table: the threshold a metric is
// checked against, the health note paired with exceedances, and the canned
// interpretation for each band. The table is static; thresholds come from the
// EPA 2012 recreational water quality criteria (E. coli), the national
// aquatic-life pH range, and the common 10 NTU runoff screening level.
type Standard struct {
	Metric    string
	Label     string
	Unit      string
	Threshold float64
	Basis     string
	Note      string
	BelowText string
	AtText    string
	AboveText string
}

var standards = map[string]Standard{
	MetricEColi: {
		Metric:    MetricEColi,
		Label:     "E. coli",
		Unit:      "MPN/100 mL",
		Threshold: 126,
		Basis:     "EPA recreational water quality criterion (geometric mean)",
		Note:      "High E. coli indicates fecal contamination and an elevated risk of gastrointestinal illness for people wading or swimming.",
		BelowText: "This E. coli level is below the EPA recreational water criterion of 126 MPN/100 mL, so the water met the screening standard when sampled.",
		AtText:    "This E. coli level sits exactly at the EPA recreational water criterion of 126 MPN/100 mL, the screening boundary for safe recreation.",
		AboveText: "This E. coli level exceeds the EPA recreational water criterion of 126 MPN/100 mL, indicating fecal contamination and an increased illness risk for recreation.",
	},
	MetricPH: {
		Metric:    MetricPH,
		Label:     "pH",
		Unit:      "pH units",
		Threshold: 8.5,
		Basis:     "upper bound of the EPA 6.5 to 8.5 aquatic-life range",
		Note:      "pH outside the 6.5 to 8.5 range stresses fish and amphibians and can mobilize metals from sediment.",
		BelowText: "This pH is below the 8.5 upper screening bound; readings between 6.5 and 8.5 are considered healthy for aquatic life.",
		AtText:    "This pH sits exactly at the 8.5 upper screening bound of the 6.5 to 8.5 range considered healthy for aquatic life.",
		AboveText: "This pH exceeds the 8.5 upper screening bound; water this alkaline can stress fish and other aquatic life.",
	},
	MetricTurbidity: {
		Metric:    MetricTurbidity,
		Label:     "Turbidity",
		Unit:      "NTU",
		Threshold: 10,
		Basis:     "common stormwater runoff screening level",
		Note:      "High turbidity reduces light for aquatic plants, clogs fish gills, and often carries pollutants bound to sediment.",
		BelowText: "This turbidity is below the 10 NTU screening level, consistent with reasonably clear baseflow conditions.",
		AtText:    "This turbidity sits exactly at the 10 NTU screening level that separates clear baseflow from runoff-affected water.",
		AboveText: "This turbidity exceeds the 10 NTU screening level, which usually points to stormwater runoff or disturbed sediment.",
	},
}

// StandardFor returns the screening standard for a canonical metric key.
func StandardFor(metric string) (Standard, bool) {
	s, ok := standards[metric]
	return s, ok
}

// Standards returns the screening table in display order.
func Standards() []Standard {
	out := make([]Standard, 0, len(MetricKeys))
	for _, key := range MetricKeys {
		out = append(out, standards[key])
	}
	return out
}

// Classify bands a value against the threshold. Exceedance means strictly
// greater; a value equal to the threshold is BandAt, not a violation.
func (s Standard) Classify(v float64) Band {
	switch {
	case v > s.Threshold:
		return BandAbove
	case v == s.Threshold:
		return BandAt
	}
	return BandBelow
}

// Explain returns the canned interpretation sentence for a value.
func (s Standard) Explain(v float64) string {
	switch s.Classify(v) {
	case BandAbove:
		return s.AboveText
	case BandAt:
		return s.AtText
	}
	return s.BelowText
}

// ThresholdString renders the threshold with its unit for display.
func (s Standard) ThresholdString() string {
	if s.Metric == MetricPH {
		return fmt.Sprintf("%.1f", s.Threshold)
	}
	return fmt.Sprintf("%.0f %s", s.Threshold, s.Unit)
}
