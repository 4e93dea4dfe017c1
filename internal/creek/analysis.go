package creek

import (
	"sort"
	"time"
)

// TrendDirection summarizes how a metric moved across a window of samples.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendFlat    TrendDirection = "flat"
)

type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TrendPoints extracts the ordered, non-NULL readings of one metric from a
// timestamp-ordered record slice.
func TrendPoints(records []Measurement, metric string) []TrendPoint {
	var points []TrendPoint
	for i := range records {
		if v, ok := records[i].Value(metric); ok {
			points = append(points, TrendPoint{Timestamp: records[i].Timestamp, Value: v})
		}
	}
	return points
}

// DirectionOf splits the series in half and compares means: a higher mean in
// the later half is rising, a lower one falling. An odd-length series puts
// the middle point in the later half. Fewer than two points is flat.
func DirectionOf(values []float64) TrendDirection {
	if len(values) < 2 {
		return TrendFlat
	}
	half := len(values) / 2
	first := mean(values[:half])
	second := mean(values[half:])
	switch {
	case second > first:
		return TrendRising
	case second < first:
		return TrendFalling
	}
	return TrendFlat
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PointValues projects a trend series down to its values.
func PointValues(points []TrendPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}

// RankedSite is one row of a cross-site comparison.
type RankedSite struct {
	Code      string    `json:"site"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	SampledAt time.Time `json:"sampled_at"`
}

// RankByMetric orders sites by the latest reading of one metric, highest
// first, ties broken by site name then code. include narrows the comparison
// to the named site codes; nil or empty means every site. The second return
// lists included sites that have no reading for the metric.
func RankByMetric(latest []SiteLatest, metric string, include []string) ([]RankedSite, []string) {
	wanted := map[string]bool{}
	for _, code := range include {
		wanted[code] = true
	}

	var ranked []RankedSite
	var missing []string
	for i := range latest {
		sl := &latest[i]
		if len(wanted) > 0 && !wanted[sl.Site.Code] {
			continue
		}
		v, ok := sl.Latest.Value(metric)
		if !ok {
			missing = append(missing, sl.Site.Code)
			continue
		}
		ranked = append(ranked, RankedSite{
			Code:      sl.Site.Code,
			Name:      sl.Site.Name,
			Value:     v,
			SampledAt: sl.Latest.Timestamp,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		if ranked[i].Name != ranked[j].Name {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].Code < ranked[j].Code
	})
	sort.Strings(missing)
	return ranked, missing
}

// Exceedance is a site whose latest reading broke a screening threshold.
type Exceedance struct {
	Code      string    `json:"site"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	SampledAt time.Time `json:"sampled_at"`
}

// ExceedingSites returns the sites whose latest reading is strictly greater
// than the standard's threshold, worst first. A latest reading equal to the
// threshold does not count. Sites with no reading for the metric are skipped.
func ExceedingSites(latest []SiteLatest, std Standard) []Exceedance {
	var out []Exceedance
	for i := range latest {
		sl := &latest[i]
		v, ok := sl.Latest.Value(std.Metric)
		if !ok || v <= std.Threshold {
			continue
		}
		out = append(out, Exceedance{
			Code:      sl.Site.Code,
			Name:      sl.Site.Name,
			Value:     v,
			SampledAt: sl.Latest.Timestamp,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}
