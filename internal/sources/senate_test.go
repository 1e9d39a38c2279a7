package sources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gavel/internal/sources"
)

const senateListingHTML = `<!DOCTYPE html>
<html><body>
<div class="row">
  <div class="col-3 mb-3">
    Senate Session 26-02-10
    <img src="https://dlttx48mxf9m3.cloudfront.net/outputs/abc123/thumb.jpg">
  </div>
  <div class="col-3 mb-3">
    Health Policy 26-01-22
    <img src="https://dlttx48mxf9m3.cloudfront.net/outputs/def456/thumb.jpg">
  </div>
  <div class="col-3 mb-3">
    Select Task Force on Roads 03/05/2026
    <img src="https://dlttx48mxf9m3.cloudfront.net/outputs/ghi789/thumb.jpg">
  </div>
  <div class="col-3 mb-3">
    No thumbnail here
  </div>
</div>
</body></html>`

func TestSenateDiscover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(senateListingHTML))
	}))
	defer server.Close()

	collector := sources.NewSenateCollector(server.URL, server.Client(), nil)
	candidates, err := collector.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3: %+v", len(candidates), candidates)
	}

	session := candidates[0]
	if session.Identifier != "SSESS-021026.mp4" {
		t.Fatalf("identifier = %q", session.Identifier)
	}
	if session.Date != "2026-02-10" {
		t.Fatalf("date = %q", session.Date)
	}
	if session.HLSURL != "https://dlttx48mxf9m3.cloudfront.net/outputs/abc123/Default/HLS/out.m3u8" {
		t.Fatalf("hls url = %q", session.HLSURL)
	}
	if session.URL != "https://cloud.castus.tv/vod/misenate/video/abc123" {
		t.Fatalf("url = %q", session.URL)
	}
	if session.Category != "SSESS" {
		t.Fatalf("category = %q", session.Category)
	}

	health := candidates[1]
	if health.Identifier != "SHEAL-012226.mp4" {
		t.Fatalf("identifier = %q", health.Identifier)
	}

	// Unmapped title falls back to the catch-all slug; slash date parsed.
	task := candidates[2]
	if task.Identifier != "SMISC-030526.mp4" {
		t.Fatalf("identifier = %q", task.Identifier)
	}
	if task.Date != "2026-03-05" {
		t.Fatalf("date = %q", task.Date)
	}
}
