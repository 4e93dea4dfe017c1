package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"creekwatch/internal/creek"
)

// Dataset file names expected under the data directory.
const (
	measurementsFile  = "measurements.csv"
	siteLocationsFile = "site_locations.csv"
)

// DB loads the creek dataset into an in-memory DuckDB instance and answers
// creek.Store queries against it. The CSVs stay the source of truth; every
// start re-reads them, so there is no database file to go stale.
type DB struct {
	conn    *sql.DB
	dataDir string
}

var _ creek.Store = (*DB)(nil)

// NewDB opens an in-memory DuckDB and loads the two dataset CSVs from
// dataDir. A missing file or an empty dataset is a fatal error.
func NewDB(dataDir string) (*DB, error) {
	for _, name := range []string{measurementsFile, siteLocationsFile} {
		path := filepath.Join(dataDir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("dataset file %s not found (run 'creekwatch fetch' to download the dataset)", path)
		}
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		if logger != nil {
			logger.Error("Failed to open DuckDB", "error", err)
		}
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	d := &DB{
		conn:    db,
		dataDir: dataDir,
	}

	fmt.Println("📊 Loading creek dataset...")
	if err := d.loadDataset(); err != nil {
		db.Close()
		if logger != nil {
			logger.Error("Dataset load failed", "error", err, "data_dir", dataDir)
		}
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	return d, nil
}

// loadDataset reads the raw CSVs and derives the typed sites and
// measurements tables. Everything loads as VARCHAR first because the field
// data is messy: mixed-case site codes, censored readings like ">2419.6",
// and two date formats in the same column.
func (d *DB) loadDataset() error {
	measurementsPath := filepath.Join(d.dataDir, measurementsFile)
	locationsPath := filepath.Join(d.dataDir, siteLocationsFile)

	// Start transaction for faster bulk insert
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Ignore error - will fail if transaction was committed
	}()

	fmt.Println("   Loading site locations...")
	start := time.Now()
	_, err = tx.Exec(fmt.Sprintf(`
		CREATE TABLE raw_locations AS
		SELECT * FROM read_csv('%s', all_varchar=true, header=true)
	`, locationsPath))
	if err != nil {
		return fmt.Errorf("failed to load site locations: %w", err)
	}
	fmt.Printf("   ✓ Locations loaded (%v)\n", time.Since(start))

	fmt.Println("   Loading measurements...")
	start = time.Now()
	_, err = tx.Exec(fmt.Sprintf(`
		CREATE TABLE raw_measurements AS
		SELECT * FROM read_csv('%s', all_varchar=true, header=true)
	`, measurementsPath))
	if err != nil {
		return fmt.Errorf("failed to load measurements: %w", err)
	}
	fmt.Printf("   ✓ Measurements loaded (%v)\n", time.Since(start))

	// Derive the typed tables. Site codes fold to lowercase, a leading '>'
	// on a censored reading keeps the instrument's upper limit, and junk
	// that fails the cast becomes NULL rather than killing the load.
	fmt.Println("   Cleaning and typing records...")
	start = time.Now()
	_, err = tx.Exec(`
		CREATE TABLE sites AS
		SELECT
			lower(trim(code)) AS code,
			trim(name) AS name,
			TRY_CAST(trim(lat) AS DOUBLE) AS lat,
			TRY_CAST(trim(lon) AS DOUBLE) AS lon
		FROM raw_locations
		WHERE trim(code) <> ''
	`)
	if err != nil {
		return fmt.Errorf("failed to derive sites table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE measurements AS
		WITH cleaned AS (
			SELECT
				regexp_extract(lower(trim(site)), '[a-z]+@[a-z0-9]+') AS site,
				coalesce(
					try_strptime(trim(sample_date), '%Y-%m-%d'),
					try_strptime(trim(sample_date), '%m/%d/%Y')
				) AS ts,
				TRY_CAST(replace(trim(total_coliform), '>', '') AS DOUBLE) AS total_coliform,
				TRY_CAST(replace(trim(ecoli), '>', '') AS DOUBLE) AS ecoli,
				TRY_CAST(trim(ph) AS DOUBLE) AS ph,
				TRY_CAST(trim(turbidity) AS DOUBLE) AS turbidity
			FROM raw_measurements
		)
		SELECT c.site, c.ts, c.total_coliform, c.ecoli, c.ph, c.turbidity
		FROM cleaned c
		JOIN sites s ON s.code = c.site
		WHERE c.ts IS NOT NULL
	`)
	if err != nil {
		return fmt.Errorf("failed to derive measurements table: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX idx_measurements_site ON measurements(site)`)
	if err != nil {
		return fmt.Errorf("failed to create index on site: %w", err)
	}
	_, err = tx.Exec(`CREATE INDEX idx_measurements_site_ts ON measurements(site, ts)`)
	if err != nil {
		return fmt.Errorf("failed to create index on site, ts: %w", err)
	}
	fmt.Printf("   ✓ Records cleaned (%v)\n", time.Since(start))

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	var siteCount, sampleCount int
	if err := d.conn.QueryRow(`SELECT count(*) FROM sites`).Scan(&siteCount); err != nil {
		return fmt.Errorf("failed to count sites: %w", err)
	}
	if err := d.conn.QueryRow(`SELECT count(*) FROM measurements`).Scan(&sampleCount); err != nil {
		return fmt.Errorf("failed to count measurements: %w", err)
	}
	if siteCount == 0 || sampleCount == 0 {
		return fmt.Errorf("dataset is empty after cleaning: %d sites, %d samples", siteCount, sampleCount)
	}

	fmt.Printf("✅ Dataset ready: %d sites, %d samples\n", siteCount, sampleCount)
	if logger != nil {
		logger.Info("Dataset loaded", "sites", siteCount, "samples", sampleCount, "data_dir", d.dataDir)
	}

	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

const siteColumns = `
	s.code,
	s.name,
	s.lat,
	s.lon,
	count(m.ts) AS records,
	min(m.ts) AS first_sample,
	max(m.ts) AS last_sample
FROM sites s
LEFT JOIN measurements m ON m.site = s.code`

// Sites returns every monitoring site ordered by name. Sites that have no
// samples yet still appear, with a zero record count.
func (d *DB) Sites() ([]creek.Site, error) {
	sqlQuery := fmt.Sprintf(`
		SELECT %s
		GROUP BY s.code, s.name, s.lat, s.lon
		ORDER BY s.name
	`, siteColumns)

	rows, err := d.conn.Query(sqlQuery)
	if err != nil {
		if logger != nil {
			logger.Error("Site query failed", "error", err)
		}
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var sites []creek.Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sites, nil
}

// SiteByCode looks a site up by its short code. Returns creek.ErrUnknownSite
// when the code matches nothing.
func (d *DB) SiteByCode(code string) (*creek.Site, error) {
	sqlQuery := fmt.Sprintf(`
		SELECT %s
		WHERE s.code = lower(trim($1))
		GROUP BY s.code, s.name, s.lat, s.lon
	`, siteColumns)

	s, err := scanSite(d.conn.QueryRow(sqlQuery, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("site %q: %w", code, creek.ErrUnknownSite)
		}
		if logger != nil {
			logger.Error("Site lookup failed", "error", err, "code", code)
		}
		return nil, err
	}

	return s, nil
}

// RecordsForSite returns a site's measurements in timestamp order. An
// unknown site yields an empty slice, not an error.
func (d *DB) RecordsForSite(site string) ([]creek.Measurement, error) {
	rows, err := d.conn.Query(`
		SELECT site, ts, total_coliform, ecoli, ph, turbidity
		FROM measurements
		WHERE site = lower(trim($1))
		ORDER BY ts
	`, site)
	if err != nil {
		if logger != nil {
			logger.Error("Measurement query failed", "error", err, "site", site)
		}
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return collectMeasurements(rows)
}

// RecordsInWindow returns a site's measurements with start <= ts <= end, in
// timestamp order. Both bounds are inclusive.
func (d *DB) RecordsInWindow(site string, start, end time.Time) ([]creek.Measurement, error) {
	rows, err := d.conn.Query(`
		SELECT site, ts, total_coliform, ecoli, ph, turbidity
		FROM measurements
		WHERE site = lower(trim($1)) AND ts >= $2 AND ts <= $3
		ORDER BY ts
	`, site, start, end)
	if err != nil {
		if logger != nil {
			logger.Error("Window query failed", "error", err, "site", site, "start", start, "end", end)
		}
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return collectMeasurements(rows)
}

// LatestRecord returns a site's most recent measurement, or nil when the
// site has no samples.
func (d *DB) LatestRecord(site string) (*creek.Measurement, error) {
	row := d.conn.QueryRow(`
		SELECT site, ts, total_coliform, ecoli, ph, turbidity
		FROM measurements
		WHERE site = lower(trim($1))
		ORDER BY ts DESC
		LIMIT 1
	`, site)

	var m creek.Measurement
	err := row.Scan(&m.Site, &m.Timestamp, &m.TotalColiform, &m.EColi, &m.PH, &m.Turbidity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if logger != nil {
			logger.Error("Latest record query failed", "error", err, "site", site)
		}
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return &m, nil
}

// LatestAll returns the most recent measurement of every sampled site,
// ordered by site name. Sites with no samples are omitted.
func (d *DB) LatestAll() ([]creek.SiteLatest, error) {
	rows, err := d.conn.Query(`
		WITH ranked AS (
			SELECT
				site, ts, total_coliform, ecoli, ph, turbidity,
				row_number() OVER (PARTITION BY site ORDER BY ts DESC) AS rn,
				count(*) OVER (PARTITION BY site) AS records,
				min(ts) OVER (PARTITION BY site) AS first_sample
			FROM measurements
		)
		SELECT
			s.code, s.name, s.lat, s.lon, r.records, r.first_sample,
			r.site, r.ts, r.total_coliform, r.ecoli, r.ph, r.turbidity
		FROM ranked r
		JOIN sites s ON s.code = r.site
		WHERE r.rn = 1
		ORDER BY s.name
	`)
	if err != nil {
		if logger != nil {
			logger.Error("Latest readings query failed", "error", err)
		}
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var latest []creek.SiteLatest
	for rows.Next() {
		var sl creek.SiteLatest
		err := rows.Scan(
			&sl.Site.Code,
			&sl.Site.Name,
			&sl.Site.Lat,
			&sl.Site.Lon,
			&sl.Site.Records,
			&sl.Site.FirstSample,
			&sl.Latest.Site,
			&sl.Latest.Timestamp,
			&sl.Latest.TotalColiform,
			&sl.Latest.EColi,
			&sl.Latest.PH,
			&sl.Latest.Turbidity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		sl.Site.LastSample = sl.Latest.Timestamp
		latest = append(latest, sl)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return latest, nil
}

// Summary aggregates the dataset: counts, date range, and per-metric
// min/avg/max over each site's latest reading.
func (d *DB) Summary() (*creek.DatasetSummary, error) {
	var ds creek.DatasetSummary
	var first, last sql.NullTime
	err := d.conn.QueryRow(`
		SELECT
			(SELECT count(*) FROM sites),
			count(*),
			min(ts),
			max(ts)
		FROM measurements
	`).Scan(&ds.Sites, &ds.Records, &first, &last)
	if err != nil {
		if logger != nil {
			logger.Error("Summary query failed", "error", err)
		}
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if first.Valid {
		ds.FirstSample = first.Time
	}
	if last.Valid {
		ds.LastSample = last.Time
	}

	stats := make([]sql.NullFloat64, 9)
	err = d.conn.QueryRow(`
		WITH ranked AS (
			SELECT
				ecoli, ph, turbidity,
				row_number() OVER (PARTITION BY site ORDER BY ts DESC) AS rn
			FROM measurements
		)
		SELECT
			min(ecoli), avg(ecoli), max(ecoli),
			min(ph), avg(ph), max(ph),
			min(turbidity), avg(turbidity), max(turbidity)
		FROM ranked
		WHERE rn = 1
	`).Scan(&stats[0], &stats[1], &stats[2], &stats[3], &stats[4], &stats[5], &stats[6], &stats[7], &stats[8])
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	for i, metric := range creek.MetricKeys {
		ds.Metrics = append(ds.Metrics, creek.MetricSummary{
			Metric: metric,
			Min:    stats[i*3],
			Avg:    stats[i*3+1],
			Max:    stats[i*3+2],
		})
	}

	return &ds, nil
}

// ExecuteQuery runs an arbitrary SQL query and returns generic rows. It
// backs the query and schema commands; everything else goes through the
// typed creek.Store methods.
func (d *DB) ExecuteQuery(query string) ([]map[string]interface{}, error) {
	rows, err := d.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSite(row rowScanner) (*creek.Site, error) {
	var s creek.Site
	var first, last sql.NullTime
	err := row.Scan(&s.Code, &s.Name, &s.Lat, &s.Lon, &s.Records, &first, &last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if first.Valid {
		s.FirstSample = first.Time
	}
	if last.Valid {
		s.LastSample = last.Time
	}
	return &s, nil
}

func collectMeasurements(rows *sql.Rows) ([]creek.Measurement, error) {
	var records []creek.Measurement
	for rows.Next() {
		var m creek.Measurement
		if err := rows.Scan(&m.Site, &m.Timestamp, &m.TotalColiform, &m.EColi, &m.PH, &m.Turbidity); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
