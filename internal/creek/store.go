package creek

import (
	"errors"
	"time"
)

// ErrUnknownSite reports a site code or name that matches nothing in the
// loaded dataset.
var ErrUnknownSite = errors.New("unknown site")

// Store is the read-only view of the loaded dataset. The DuckDB-backed
// implementation lives in the main package; tools, CLI commands, and web
// handlers all consume this interface so tests can swap in fixtures.
type Store interface {
	// Sites returns every monitoring site with its metadata, ordered by name.
	Sites() ([]Site, error)

	// SiteByCode looks a site up by its short code. Returns ErrUnknownSite
	// when the code matches nothing.
	SiteByCode(code string) (*Site, error)

	// RecordsForSite returns a site's measurements in timestamp order.
	// An unknown site yields an empty slice, not an error.
	RecordsForSite(site string) ([]Measurement, error)

	// RecordsInWindow returns a site's measurements with start <= ts <= end,
	// in timestamp order. Both bounds are inclusive.
	RecordsInWindow(site string, start, end time.Time) ([]Measurement, error)

	// LatestRecord returns a site's most recent measurement, or nil when the
	// site has none.
	LatestRecord(site string) (*Measurement, error)

	// LatestAll returns the most recent measurement of every site.
	LatestAll() ([]SiteLatest, error)

	// Summary aggregates the dataset: counts, date range, and per-metric
	// min/avg/max over the latest readings.
	Summary() (*DatasetSummary, error)
}
