package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gavel/internal/logging"
)

// hlsBaseURL is the CloudFront distribution backing the CastUS player. The
// manifest location is predictable from the video ID.
const hlsBaseURL = "https://dlttx48mxf9m3.cloudfront.net/outputs"

const senateWatchBase = "https://cloud.castus.tv/vod/misenate/video/"

// senateTitleMap maps a Senate video title (without trailing date) to its
// shorthand code. Convention: S prefix + keyword abbreviation, matching the
// House slugs where committees overlap (HAPPR/SAPPR, HEDUC/SEDUC, ...).
var senateTitleMap = map[string]string{
	"Senate Session":                            "SSESS",
	"Senate Session (Sine Die)":                 "SSDIE",
	"Appropriations":                            "SAPPR",
	"Appropriations Sub - PreK-12":              "SAPK12",
	"Civil Rights, Judiciary, and Public Safety": "SCIVL",
	"CREC":                                      "SCREC",
	"Economic and Community Development":        "SECON",
	"Education":                                 "SEDUC",
	"Conference Committee":                      "SCONF",
	"Finance, Insurance, and Consumer Protection": "SFINC",
	"Health Policy":                      "SHEAL",
	"Housing and Human Services":         "SHOUS",
	"Judiciary and Public Safety":        "SJUDI",
	"Local Government":                   "SLOCL",
	"Natural Resources and Agriculture":  "SNATU",
	"Regulatory Affairs":                 "SREGU",
	"Transportation and Infrastructure":  "STRAN",
	"Veterans and Emergency Services":    "SVETS",
}

// senateMiscShorthand is the catch-all slug for titles with no mapping.
const senateMiscShorthand = "SMISC"

var (
	senateTrailingDate = regexp.MustCompile(`\s*\d{2}-\d{2}-\d{2}\s*$`)
	senateDateYYMMDD   = regexp.MustCompile(`(\d{2})-(\d{2})-(\d{2})$`)
	senateDateSlash    = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	senateDateISO      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// SenateCollector scrapes the Michigan Senate CastUS video listing. Video
// IDs come from thumbnail URLs, and the HLS manifest for each ID follows a
// fixed CloudFront layout.
type SenateCollector struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewSenateCollector builds a collector for the Senate listing page.
func NewSenateCollector(listingURL string, client *http.Client, logger *slog.Logger) *SenateCollector {
	if client == nil {
		client = defaultClient()
	}
	return &SenateCollector{
		url:    listingURL,
		client: client,
		logger: logging.NewComponentLogger(logger, "sources.senate"),
	}
}

func (s *SenateCollector) Name() string { return SourceSenate }

// Discover fetches the listing page and parses every video card into a
// candidate keyed by the {SHORTHAND}-{MMDDYY}.mp4 filename convention.
func (s *SenateCollector) Discover(ctx context.Context) ([]Candidate, error) {
	body, err := fetchPage(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	var candidates []Candidate
	seen := make(map[string]struct{})
	doc.Find("div.col-3.mb-3").Each(func(_ int, card *goquery.Selection) {
		candidate, ok := s.parseCard(card)
		if !ok {
			return
		}
		if _, dup := seen[candidate.Identifier]; dup {
			return
		}
		seen[candidate.Identifier] = struct{}{}
		candidates = append(candidates, candidate)
	})

	s.logger.Info("senate listing scraped",
		logging.String("url", s.url), logging.Int("videos", len(candidates)))
	return candidates, nil
}

func (s *SenateCollector) parseCard(card *goquery.Selection) (Candidate, bool) {
	title := firstLine(card.Text())

	src, ok := card.Find("img").First().Attr("src")
	if !ok || !strings.Contains(src, "/outputs/") {
		return Candidate{}, false
	}
	_, rest, _ := strings.Cut(src, "/outputs/")
	videoID, _, _ := strings.Cut(rest, "/")
	if videoID == "" {
		return Candidate{}, false
	}

	date := parseSenateDate(title)
	return Candidate{
		Identifier: senateFilename(title, date),
		Source:     SourceSenate,
		Title:      title,
		Category:   senateShorthand(title),
		Date:       date,
		URL:        senateWatchBase + videoID,
		HLSURL:     fmt.Sprintf("%s/%s/Default/HLS/out.m3u8", hlsBaseURL, videoID),
	}, true
}

// senateShorthand maps a title such as "Senate Session 26-02-10" to its
// shorthand code.
func senateShorthand(title string) string {
	name := strings.TrimSpace(senateTrailingDate.ReplaceAllString(title, ""))
	if shorthand, ok := senateTitleMap[name]; ok {
		return shorthand
	}
	return senateMiscShorthand
}

// senateFilename builds {SHORTHAND}-{MMDDYY}.mp4, or {SHORTHAND}.mp4 when
// the title carried no date.
func senateFilename(title, date string) string {
	shorthand := senateShorthand(title)
	if date == UnknownDate || date == "" {
		return shorthand + ".mp4"
	}
	// date is YYYY-MM-DD
	parts := strings.SplitN(date, "-", 3)
	return fmt.Sprintf("%s-%s%s%s.mp4", shorthand, parts[1], parts[2], parts[0][2:])
}

// parseSenateDate extracts a YYYY-MM-DD date from a listing title. CastUS
// titles end in YY-MM-DD; older listings used MM/DD/YYYY or ISO dates.
func parseSenateDate(title string) string {
	title = strings.TrimSpace(title)
	if match := senateDateYYMMDD.FindStringSubmatch(title); match != nil {
		return fmt.Sprintf("20%s-%s-%s", match[1], match[2], match[3])
	}
	if match := senateDateSlash.FindStringSubmatch(title); match != nil {
		month, _ := strconv.Atoi(match[1])
		day, _ := strconv.Atoi(match[2])
		return fmt.Sprintf("%s-%02d-%02d", match[3], month, day)
	}
	if match := senateDateISO.FindString(title); match != "" {
		return match
	}
	return UnknownDate
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
