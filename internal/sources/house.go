package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gavel/internal/logging"
)

// houseArchiveBase hosts the downloadable video files. The archive page
// only links through the player; the direct file URL is derived from the
// filename.
const houseArchiveBase = "https://www.house.mi.gov/ArchiveVideoFiles"

var (
	houseCategorySuffix = regexp.MustCompile(`\s*\|.*$`)
	houseDateSlug       = regexp.MustCompile(`(\d{6})$`)
)

// HouseCollector scrapes the Michigan House video archive. Archive entries
// link through a player URL carrying the downloadable filename in the
// video query parameter.
type HouseCollector struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHouseCollector builds a collector for the House archive page.
func NewHouseCollector(archiveURL string, client *http.Client, logger *slog.Logger) *HouseCollector {
	if client == nil {
		client = defaultClient()
	}
	return &HouseCollector{
		url:    archiveURL,
		client: client,
		logger: logging.NewComponentLogger(logger, "sources.house"),
	}
}

func (h *HouseCollector) Name() string { return SourceHouse }

// Discover fetches the archive page and parses every player link into a
// candidate. Entries that cannot be parsed are logged and skipped so one
// malformed listing never hides the rest of the archive.
func (h *HouseCollector) Discover(ctx context.Context) ([]Candidate, error) {
	body, err := fetchPage(ctx, h.client, h.url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse archive page: %w", err)
	}

	var candidates []Candidate
	seen := make(map[string]struct{})
	doc.Find("a[href*='/VideoArchivePlayer?video=']").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		candidate, err := h.parseLink(link, href)
		if err != nil {
			h.logger.Warn("skipping unparseable video link",
				logging.String("href", href), logging.Error(err))
			return
		}
		if _, dup := seen[candidate.Identifier]; dup {
			return
		}
		seen[candidate.Identifier] = struct{}{}
		candidates = append(candidates, candidate)
	})

	h.logger.Info("house archive scraped",
		logging.String("url", h.url), logging.Int("videos", len(candidates)))
	return candidates, nil
}

func (h *HouseCollector) parseLink(link *goquery.Selection, href string) (Candidate, error) {
	_, filename, found := strings.Cut(href, "video=")
	if !found || filename == "" {
		return Candidate{}, fmt.Errorf("no video parameter in %q", href)
	}

	category := "Unknown"
	if strong := link.Closest("li.page-search-container").Find("strong").First(); strong.Length() > 0 {
		// Listings render "Category | N Videos"; keep the category only.
		category = houseCategorySuffix.ReplaceAllString(strings.TrimSpace(strong.Text()), "")
	}

	return Candidate{
		Identifier: filename,
		Source:     SourceHouse,
		Title:      strings.TrimSuffix(filename, extOf(filename)),
		Category:   category,
		Date:       houseDateFromFilename(filename),
		URL:        houseArchiveBase + "/" + filename,
	}, nil
}

// houseDateFromFilename extracts the date from a filename slug such as
// HAPPR-011626.mp4 (MMDDYY).
func houseDateFromFilename(filename string) string {
	stem := strings.TrimSuffix(filename, extOf(filename))
	match := houseDateSlug.FindStringSubmatch(stem)
	if match == nil {
		return UnknownDate
	}
	mmddyy := match[1]
	return fmt.Sprintf("20%s-%s-%s", mmddyy[4:], mmddyy[:2], mmddyy[2:4])
}

func extOf(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[idx:]
	}
	return ""
}
