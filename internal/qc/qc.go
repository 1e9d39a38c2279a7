package qc

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"gavel/internal/config"
	"gavel/internal/logging"
	"gavel/internal/transcript"
)

// Issue labels recorded in the QC verdict.
const (
	IssueNoSegments           = "no_segments"
	IssueSilenceHallucination = "silence_hallucination"
	IssueLowConfidence        = "low_confidence"
	IssueRepetitive           = "repetitive"
	IssueHighTemperature      = "high_temperature"
	IssueWrongLanguage        = "wrong_language"
)

// Checker scores transcripts against configured thresholds.
type Checker struct {
	segment  config.BadSegment
	fail     config.FailThresholds
	language string
	logger   *slog.Logger
}

// NewChecker builds a Checker from pipeline configuration.
func NewChecker(cfg *config.Config, logger *slog.Logger) *Checker {
	language := strings.ToLower(strings.TrimSpace(cfg.Transcription.Language))
	if language == "" {
		language = "en"
	}
	return &Checker{
		segment:  cfg.QC.BadSegment,
		fail:     cfg.QC.FailThresholds,
		language: language,
		logger:   logging.NewComponentLogger(logger, "qc"),
	}
}

// segmentIssues returns the thresholds a single segment trips.
func (c *Checker) segmentIssues(seg transcript.Segment) []string {
	var issues []string
	if seg.NoSpeechProb >= c.segment.NoSpeechProbMin {
		issues = append(issues, IssueSilenceHallucination)
	}
	if seg.AvgLogprob <= c.segment.AvgLogprobMax {
		issues = append(issues, IssueLowConfidence)
	}
	if seg.CompressionRatio <= c.segment.CompressionRatioMax {
		issues = append(issues, IssueRepetitive)
	}
	if seg.Temperature >= c.segment.TemperatureMin {
		issues = append(issues, IssueHighTemperature)
	}
	return issues
}

// Score evaluates a transcript without touching disk.
func (c *Checker) Score(rec *transcript.Record) transcript.QCResult {
	result := transcript.QCResult{
		Issues:        []string{},
		BadSegmentIDs: []int{},
		CheckedAt:     time.Now().UTC().Format(time.RFC3339),
	}

	total := len(rec.Segments)
	result.TotalSegments = total
	if total == 0 {
		result.Passed = false
		result.Score = 0
		result.Issues = []string{IssueNoSegments}
		return result
	}

	issueSet := make(map[string]struct{})
	for _, seg := range rec.Segments {
		issues := c.segmentIssues(seg)
		if len(issues) == 0 {
			continue
		}
		result.BadSegmentIDs = append(result.BadSegmentIDs, seg.ID)
		for _, issue := range issues {
			issueSet[issue] = struct{}{}
		}
	}

	badCount := len(result.BadSegmentIDs)
	badPct := float64(badCount) / float64(total)
	result.BadSegments = badCount
	result.Score = math.Round((1-badPct)*100) / 100

	// Language is forced during transcription, but whisper can still
	// report a different detection.
	if c.fail.WrongLanguage {
		detected := strings.ToLower(strings.TrimSpace(rec.Language))
		if detected != "" && detected != c.language {
			issueSet[IssueWrongLanguage] = struct{}{}
		}
	}

	result.Passed = true
	if badPct >= c.fail.BadSegmentPct {
		result.Passed = false
	}
	if _, wrong := issueSet[IssueWrongLanguage]; wrong {
		result.Passed = false
	}

	for issue := range issueSet {
		result.Issues = append(result.Issues, issue)
	}
	sort.Strings(result.Issues)
	return result
}

// Run loads the transcript at path, scores it, and writes the verdict back
// into the same file.
func (c *Checker) Run(path string) (transcript.QCResult, error) {
	rec, err := transcript.Load(path)
	if err != nil {
		return transcript.QCResult{}, err
	}

	result := c.Score(rec)
	rec.QC = &result
	if err := transcript.Write(path, rec); err != nil {
		return transcript.QCResult{}, err
	}

	c.logger.Info("quality control complete",
		logging.String("transcript", path),
		logging.Float64("score", result.Score),
		logging.Bool("passed", result.Passed),
		logging.Int("bad_segments", result.BadSegments),
		logging.Int("total_segments", result.TotalSegments),
	)
	return result, nil
}
