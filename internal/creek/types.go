package creek

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Canonical metric keys. Every tool input that names a metric is folded to
// one of these via NormalizeMetric before any lookup.
const (
	MetricEColi     = "ecoli"
	MetricPH        = "ph"
	MetricTurbidity = "turbidity"
)

// MetricKeys lists the comparable metrics in display order.
var MetricKeys = []string{MetricEColi, MetricPH, MetricTurbidity}

var metricAliases = map[string]string{
	"ecoli":         MetricEColi,
	"e. coli":       MetricEColi,
	"e.coli":        MetricEColi,
	"e coli":        MetricEColi,
	"ecoli_conc":    MetricEColi,
	"bacteria":      MetricEColi,
	"ph":            MetricPH,
	"acidity":       MetricPH,
	"turbidity":     MetricTurbidity,
	"tubidity":      MetricTurbidity,
	"ntu":           MetricTurbidity,
	"cloudiness":    MetricTurbidity,
	"water clarity": MetricTurbidity,
}

// NormalizeMetric folds case and common spellings down to a canonical metric
// key. The second return is false when the input names no known metric.
func NormalizeMetric(s string) (string, bool) {
	key, ok := metricAliases[strings.ToLower(strings.TrimSpace(s))]
	return key, ok
}

type Measurement struct {
	Site          string
	Timestamp     time.Time
	TotalColiform sql.NullFloat64
	EColi         sql.NullFloat64
	PH            sql.NullFloat64
	Turbidity     sql.NullFloat64
}

// Value returns the named metric's reading. The second return is false when
// the metric is unknown or the reading is NULL.
func (m *Measurement) Value(metric string) (float64, bool) {
	var v sql.NullFloat64
	switch metric {
	case MetricEColi:
		v = m.EColi
	case MetricPH:
		v = m.PH
	case MetricTurbidity:
		v = m.Turbidity
	default:
		return 0, false
	}
	if !v.Valid {
		return 0, false
	}
	return v.Float64, true
}

func (m *Measurement) DateString() string {
	return m.Timestamp.Format("2006-01-02")
}

func (m *Measurement) EColiString() string {
	if m.EColi.Valid {
		return fmt.Sprintf("%.1f MPN/100 mL", m.EColi.Float64)
	}
	return "N/A"
}

func (m *Measurement) TotalColiformString() string {
	if m.TotalColiform.Valid {
		return fmt.Sprintf("%.1f MPN/100 mL", m.TotalColiform.Float64)
	}
	return "N/A"
}

func (m *Measurement) PHString() string {
	if m.PH.Valid {
		return fmt.Sprintf("%.2f", m.PH.Float64)
	}
	return "N/A"
}

func (m *Measurement) TurbidityString() string {
	if m.Turbidity.Valid {
		return fmt.Sprintf("%.1f NTU", m.Turbidity.Float64)
	}
	return "N/A"
}

type Site struct {
	Code        string
	Name        string
	Lat         sql.NullFloat64
	Lon         sql.NullFloat64
	Records     int
	FirstSample time.Time
	LastSample  time.Time
}

func (s *Site) DisplayName() string {
	if s.Name != "" {
		return fmt.Sprintf("%s (%s)", s.Name, s.Code)
	}
	return s.Code
}

func (s *Site) CoordinatesString() string {
	if s.Lat.Valid && s.Lon.Valid {
		return fmt.Sprintf("%.4f, %.4f", s.Lat.Float64, s.Lon.Float64)
	}
	return "N/A"
}

func (s *Site) SampleRangeString() string {
	if s.Records == 0 {
		return "no samples"
	}
	return fmt.Sprintf("%s to %s", s.FirstSample.Format("2006-01-02"), s.LastSample.Format("2006-01-02"))
}

// SiteLatest pairs a site with its most recent measurement.
type SiteLatest struct {
	Site   Site
	Latest Measurement
}

// ResolveSite matches a user-supplied site reference against the known sites,
// accepting either the short code or the display name, case-insensitively.
func ResolveSite(sites []Site, q string) (*Site, bool) {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return nil, false
	}
	for i := range sites {
		if strings.ToLower(sites[i].Code) == needle {
			return &sites[i], true
		}
	}
	for i := range sites {
		if strings.ToLower(sites[i].Name) == needle {
			return &sites[i], true
		}
	}
	// Partial name match as a last resort so "lullwater" finds the
	// Lullwater Rd site without the full display name.
	var hit *Site
	for i := range sites {
		if strings.Contains(strings.ToLower(sites[i].Name), needle) {
			if hit != nil {
				return nil, false
			}
			hit = &sites[i]
		}
	}
	return hit, hit != nil
}

// SiteCodes returns the codes of all sites, preserving order.
func SiteCodes(sites []Site) []string {
	codes := make([]string, len(sites))
	for i, s := range sites {
		codes[i] = s.Code
	}
	return codes
}

// MetricSummary aggregates the latest readings of one metric across sites.
type MetricSummary struct {
	Metric string
	Min    sql.NullFloat64
	Avg    sql.NullFloat64
	Max    sql.NullFloat64
}

// DatasetSummary describes the loaded dataset as a whole.
type DatasetSummary struct {
	Sites       int
	Records     int
	FirstSample time.Time
	LastSample  time.Time
	Metrics     []MetricSummary
}

func (ds *DatasetSummary) DateRangeString() string {
	if ds.Records == 0 {
		return "empty"
	}
	return fmt.Sprintf("%s to %s", ds.FirstSample.Format("2006-01-02"), ds.LastSample.Format("2006-01-02"))
}
