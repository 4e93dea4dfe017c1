package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Dataset repository coordinates. The monitoring program publishes its
// spreadsheets in the data/ directory of this repo.
const (
	datasetOwner = "haisuzhang"
	datasetRepo  = "Creek_monitor"
	datasetPath  = "data"
)

// DatasetFile represents one file published in the dataset repository
type DatasetFile struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	SHA         string `json:"sha"`
	DownloadURL string `json:"download_url"`
	Type        string `json:"type"`
}

// DatasetManifest is the dataset directory listing
type DatasetManifest struct {
	Owner     string        `json:"owner"`
	Repo      string        `json:"repo"`
	FetchedAt time.Time     `json:"fetched_at"`
	Files     []DatasetFile `json:"files"`
}

// GitHubClient handles GitHub contents API requests and caching
type GitHubClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cacheDir   string
	cacheTTL   time.Duration
}

// NewGitHubClient creates a new GitHub contents API client. An optional
// GITHUB_TOKEN raises the unauthenticated rate limit and allows private
// dataset repos.
func NewGitHubClient(cacheDir string) (*GitHubClient, error) {
	if cacheDir == "" {
		cacheDir = ".creekwatch_cache"
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &GitHubClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://api.github.com",
		token:      os.Getenv("GITHUB_TOKEN"),
		cacheDir:   cacheDir,
		cacheTTL:   24 * time.Hour,
	}, nil
}

// FetchManifest lists the dataset directory, serving from the disk cache
// while it is fresh.
func (c *GitHubClient) FetchManifest() (*DatasetManifest, error) {
	// Check cache first
	if cached, err := c.getCachedManifest(); err == nil {
		return cached, nil
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, datasetOwner, datasetRepo, datasetPath)
	entries, err := c.fetchAndParse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset files: %w", err)
	}

	manifest := &DatasetManifest{
		Owner:     datasetOwner,
		Repo:      datasetRepo,
		FetchedAt: time.Now(),
	}
	for _, entry := range entries {
		if entry.Type == "file" {
			manifest.Files = append(manifest.Files, entry)
		}
	}

	if len(manifest.Files) == 0 {
		return nil, fmt.Errorf("dataset directory %s/%s/%s is empty", datasetOwner, datasetRepo, datasetPath)
	}

	// Cache the manifest
	c.cacheManifest(manifest)

	return manifest, nil
}

// fetchAndParse fetches and parses a GitHub contents API response
func (c *GitHubClient) fetchAndParse(apiURL string) ([]DatasetFile, error) {
	req, err := http.NewRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d for URL: %s", resp.StatusCode, apiURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var entries []DatasetFile
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse JSON (body: %s): %w", string(body[:min(len(body), 200)]), err)
	}

	return entries, nil
}

// FileByName finds a file in the manifest by its repository name.
func (m *DatasetManifest) FileByName(name string) *DatasetFile {
	for i := range m.Files {
		if m.Files[i].Name == name {
			return &m.Files[i]
		}
	}
	return nil
}

func (c *GitHubClient) manifestPath() string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("%s_%s_manifest.json", datasetOwner, datasetRepo))
}

// getCachedManifest retrieves the cached directory listing
func (c *GitHubClient) getCachedManifest() (*DatasetManifest, error) {
	data, err := os.ReadFile(c.manifestPath())
	if err != nil {
		return nil, err
	}

	var cached DatasetManifest
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	// Check if cache is expired
	if time.Since(cached.FetchedAt) > c.cacheTTL {
		return nil, fmt.Errorf("cache expired")
	}

	return &cached, nil
}

// cacheManifest caches the directory listing to disk
func (c *GitHubClient) cacheManifest(manifest *DatasetManifest) error {
	jsonData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.manifestPath(), jsonData, 0644)
}
