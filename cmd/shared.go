package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"creekwatch/internal/creek"
)

// SiteInfo is the JSON shape of a monitoring site in CLI output
type SiteInfo struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Records     int      `json:"records"`
	FirstSample string   `json:"first_sample,omitempty"`
	LastSample  string   `json:"last_sample,omitempty"`
}

// SampleInfo is the JSON shape of one measurement in CLI output
type SampleInfo struct {
	Date          string   `json:"date"`
	TotalColiform *float64 `json:"total_coliform,omitempty"`
	EColi         *float64 `json:"ecoli,omitempty"`
	PH            *float64 `json:"ph,omitempty"`
	Turbidity     *float64 `json:"turbidity,omitempty"`
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func siteInfo(s *creek.Site) SiteInfo {
	info := SiteInfo{
		Code:    s.Code,
		Name:    s.Name,
		Lat:     nullableFloat(s.Lat),
		Lon:     nullableFloat(s.Lon),
		Records: s.Records,
	}
	if s.Records > 0 {
		info.FirstSample = s.FirstSample.Format("2006-01-02")
		info.LastSample = s.LastSample.Format("2006-01-02")
	}
	return info
}

func sampleInfo(m *creek.Measurement) SampleInfo {
	return SampleInfo{
		Date:          m.DateString(),
		TotalColiform: nullableFloat(m.TotalColiform),
		EColi:         nullableFloat(m.EColi),
		PH:            nullableFloat(m.PH),
		Turbidity:     nullableFloat(m.Turbidity),
	}
}

// These variables will be set by main package
var (
	LaunchTUI   func(dataDir string)
	InitStore   func(dataDir string) (creek.Store, func(), error)
	FetchData   func(dataDir string) error
	AskQuestion func(dataDir, question string) (string, error)
	RunQuery    func(dataDir, query string) ([]map[string]interface{}, error)
)

// HandleError prints error and exits
func HandleError(err error, message string) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, err)
	os.Exit(1)
}

// resolveSite matches a site argument against the store's roster.
func resolveSite(store creek.Store, query string) (*creek.Site, error) {
	sites, err := store.Sites()
	if err != nil {
		return nil, err
	}
	site, ok := creek.ResolveSite(sites, query)
	if !ok {
		return nil, fmt.Errorf("no site matches %q (known sites: %v)", query, creek.SiteCodes(sites))
	}
	return site, nil
}
