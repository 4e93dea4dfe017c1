package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DataFile maps a file in the dataset repository to its local name
type DataFile struct {
	LocalName  string
	RemoteName string
}

// RequiredDataFiles lists all the data files needed for the application
var RequiredDataFiles = []DataFile{
	{LocalName: measurementsFile, RemoteName: "Updated results.csv"},
	{LocalName: siteLocationsFile, RemoteName: "Site_loc.csv"},
}

// CheckDataFiles returns the required data files missing from the data
// directory
func CheckDataFiles(dataDir string) []DataFile {
	var missing []DataFile

	for _, file := range RequiredDataFiles {
		filePath := filepath.Join(dataDir, file.LocalName)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			missing = append(missing, file)
		}
	}

	return missing
}

// TotalDownloadSize sums the manifest sizes of the missing files
func TotalDownloadSize(missing []DataFile, manifest *DatasetManifest) int64 {
	if manifest == nil {
		return 0
	}

	var totalSize int64
	for _, file := range missing {
		if remote := manifest.FileByName(file.RemoteName); remote != nil {
			totalSize += remote.Size
		}
	}

	return totalSize
}

// PromptUserForDownload asks the user if they want to download missing files
func PromptUserForDownload(missing []DataFile, manifest *DatasetManifest) bool {
	if len(missing) == 0 {
		return false
	}

	fmt.Println("\n⚠️  Missing required data files:")
	for _, file := range missing {
		fmt.Printf("   - %s\n", file.LocalName)
	}

	fmt.Println("\nThese files are required for CreekWatch to work.")
	if totalSize := TotalDownloadSize(missing, manifest); totalSize > 0 {
		fmt.Printf("Total download size: %d files (%.0f KB)\n", len(missing), float64(totalSize)/1024)
	} else {
		fmt.Printf("Total download size: %d files (size unknown)\n", len(missing))
	}

	fmt.Print("\nWould you like to download them now? (y/N): ")

	var response string
	fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))

	return response == "y" || response == "yes"
}

// DownloadFileWithProgress downloads a file with progress tracking. The file
// lands under a temporary name and is renamed into place only on success.
func DownloadFileWithProgress(path, url string, fileIndex, totalFiles int, fileSize int64) error {
	tmpPath := path + ".download"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	resp, err := http.Get(url)
	if err != nil {
		out.Close()
		os.Remove(tmpPath)
		return err
	}
	defer resp.Body.Close()

	// Check server response
	if resp.StatusCode != http.StatusOK {
		out.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	// Get the file size (use the provided size if available, otherwise use response)
	size := fileSize
	if size == 0 {
		size = resp.ContentLength
	}

	counter := &ProgressCounter{
		Total:      size,
		Name:       path,
		FileIndex:  fileIndex,
		TotalFiles: totalFiles,
	}

	// Copy with progress
	_, err = io.Copy(out, io.TeeReader(resp.Body, counter))
	fmt.Println() // New line after progress

	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}

// ProgressCounter counts bytes as they're written and displays progress
type ProgressCounter struct {
	Total      int64
	Current    int64
	Name       string
	FileIndex  int
	TotalFiles int
}

func (pc *ProgressCounter) Write(p []byte) (int, error) {
	n := len(p)
	pc.Current += int64(n)

	currentKB := pc.Current / 1024

	if pc.Total > 0 {
		percentage := float64(pc.Current) / float64(pc.Total) * 100
		totalKB := pc.Total / 1024
		fmt.Printf("\r   Downloading %s... %.1f%% (%d/%d KB) [%d/%d]",
			filepath.Base(pc.Name),
			percentage,
			currentKB,
			totalKB,
			pc.FileIndex,
			pc.TotalFiles)
	} else {
		fmt.Printf("\r   Downloading %s... %d KB downloaded [%d/%d]",
			filepath.Base(pc.Name),
			currentKB,
			pc.FileIndex,
			pc.TotalFiles)
	}

	return n, nil
}

// DownloadDataFiles downloads all missing data files into the data directory
func DownloadDataFiles(dataDir string, missing []DataFile, manifest *DatasetManifest) error {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	fmt.Println("\n📥 Downloading dataset files...")

	for i, file := range missing {
		remote := manifest.FileByName(file.RemoteName)
		if remote == nil {
			return fmt.Errorf("file %q not found in %s/%s", file.RemoteName, manifest.Owner, manifest.Repo)
		}
		if remote.DownloadURL == "" {
			return fmt.Errorf("no download URL for %q", file.RemoteName)
		}

		path := filepath.Join(dataDir, file.LocalName)
		if err := DownloadFileWithProgress(path, remote.DownloadURL, i+1, len(missing), remote.Size); err != nil {
			return fmt.Errorf("failed to download %s: %w", file.RemoteName, err)
		}

		fmt.Printf("   ✓ Saved: %s\n", file.LocalName)
	}

	fmt.Println("✅ All dataset files downloaded.")
	return nil
}
