package main

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestDB loads the testdata CSVs into a fresh in-memory dataset. The
// fixtures cover the messy cases the loader has to clean: mixed-case site
// codes, censored readings, junk values, and both date formats.
func SetupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "creekwatch-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	files := []string{measurementsFile, siteLocationsFile}
	for _, file := range files {
		src := filepath.Join("testdata", file)
		dst := filepath.Join(tmpDir, file)

		data, err := os.ReadFile(src)
		if err != nil {
			t.Fatalf("failed to read %s: %v", src, err)
		}

		if err := os.WriteFile(dst, data, 0644); err != nil {
			t.Fatalf("failed to write %s: %v", dst, err)
		}
	}

	db, err := NewDB(tmpDir)
	if err != nil {
		t.Fatalf("failed to load test dataset: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}
