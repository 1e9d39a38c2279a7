package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Source names as recorded in the execution log.
const (
	SourceHouse  = "house"
	SourceSenate = "senate"
)

// Candidate is one discovered video, normalized across archives. Identifier
// is the local filename the download stage will produce and is the key used
// in the execution log.
type Candidate struct {
	Identifier string
	Source     string
	Title      string
	Category   string
	// Date is YYYY-MM-DD, or "Unknown" when the archive page does not
	// carry a parseable date.
	Date string
	// URL is a direct HTTP download for house videos.
	URL string
	// HLSURL is the stream manifest for senate videos.
	HLSURL string
}

// UnknownDate marks candidates whose archive listing had no parseable date.
// Unknown-dated videos are always eligible for download.
const UnknownDate = "Unknown"

// Collector discovers candidates from one archive.
type Collector interface {
	Name() string
	Discover(ctx context.Context) ([]Candidate, error)
}

func fetchPage(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "gavel/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	return resp.Body, nil
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
