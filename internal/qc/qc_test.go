package qc_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"gavel/internal/config"
	"gavel/internal/qc"
	"gavel/internal/transcript"
)

func newChecker(t *testing.T) *qc.Checker {
	t.Helper()
	cfg := config.Default()
	return qc.NewChecker(&cfg, nil)
}

func cleanSegment(id int) transcript.Segment {
	return transcript.Segment{
		ID:               id,
		Text:             "Members, please take your seats.",
		NoSpeechProb:     0.05,
		AvgLogprob:       -0.2,
		CompressionRatio: 1.5,
		Temperature:      0,
	}
}

func TestScoreFlagsBadSegments(t *testing.T) {
	checker := newChecker(t)
	rec := &transcript.Record{Language: "en"}
	for i := 0; i < 7; i++ {
		rec.Segments = append(rec.Segments, cleanSegment(i))
	}
	// Three segments each tripping a different threshold.
	rec.Segments = append(rec.Segments,
		transcript.Segment{ID: 7, NoSpeechProb: 0.9, AvgLogprob: -0.2, CompressionRatio: 1.5},
		transcript.Segment{ID: 8, NoSpeechProb: 0.05, AvgLogprob: -1.2, CompressionRatio: 1.5},
		transcript.Segment{ID: 9, NoSpeechProb: 0.05, AvgLogprob: -0.2, CompressionRatio: 0.3},
	)

	result := checker.Score(rec)
	if result.Score != 0.70 {
		t.Fatalf("score = %v, want 0.70", result.Score)
	}
	if !result.Passed {
		t.Fatalf("expected pass at 30%% bad, got issues %v", result.Issues)
	}
	if result.BadSegments != 3 || result.TotalSegments != 10 {
		t.Fatalf("counts = %d/%d", result.BadSegments, result.TotalSegments)
	}
	if !reflect.DeepEqual(result.BadSegmentIDs, []int{7, 8, 9}) {
		t.Fatalf("bad segment ids = %v", result.BadSegmentIDs)
	}
	wantIssues := []string{qc.IssueLowConfidence, qc.IssueRepetitive, qc.IssueSilenceHallucination}
	if !reflect.DeepEqual(result.Issues, wantIssues) {
		t.Fatalf("issues = %v, want %v", result.Issues, wantIssues)
	}
}

func TestScoreFailsOnBadRatio(t *testing.T) {
	checker := newChecker(t)
	rec := &transcript.Record{Language: "en"}
	for i := 0; i < 5; i++ {
		rec.Segments = append(rec.Segments, cleanSegment(i))
	}
	for i := 5; i < 10; i++ {
		rec.Segments = append(rec.Segments, transcript.Segment{ID: i, Temperature: 1.0, AvgLogprob: -0.2, CompressionRatio: 1.5})
	}

	result := checker.Score(rec)
	if result.Passed {
		t.Fatal("expected failure at 50% bad segments")
	}
	if result.Score != 0.5 {
		t.Fatalf("score = %v, want 0.5", result.Score)
	}
	if !reflect.DeepEqual(result.Issues, []string{qc.IssueHighTemperature}) {
		t.Fatalf("issues = %v", result.Issues)
	}
}

func TestScoreEmptyTranscriptFails(t *testing.T) {
	checker := newChecker(t)
	result := checker.Score(&transcript.Record{})
	if result.Passed || result.Score != 0 {
		t.Fatalf("result = %+v, want hard failure", result)
	}
	if !reflect.DeepEqual(result.Issues, []string{qc.IssueNoSegments}) {
		t.Fatalf("issues = %v", result.Issues)
	}
}

func TestScoreWrongLanguageFails(t *testing.T) {
	checker := newChecker(t)
	rec := &transcript.Record{Language: "es"}
	for i := 0; i < 4; i++ {
		rec.Segments = append(rec.Segments, cleanSegment(i))
	}

	result := checker.Score(rec)
	if result.Passed {
		t.Fatal("expected wrong-language failure")
	}
	if !reflect.DeepEqual(result.Issues, []string{qc.IssueWrongLanguage}) {
		t.Fatalf("issues = %v", result.Issues)
	}
	if result.Score != 1.0 {
		t.Fatalf("score = %v, want 1.0 despite language failure", result.Score)
	}
}

func TestRunAnnotatesTranscriptInPlace(t *testing.T) {
	checker := newChecker(t)
	path := filepath.Join(t.TempDir(), "hearing.json")
	rec := &transcript.Record{Language: "en", Segments: []transcript.Segment{cleanSegment(0)}}
	if err := transcript.Write(path, rec); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}

	result, err := checker.Run(path)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Passed {
		t.Fatalf("result = %+v", result)
	}

	loaded, err := transcript.Load(path)
	if err != nil {
		t.Fatalf("reload transcript: %v", err)
	}
	if loaded.QC == nil || !loaded.QC.Passed || loaded.QC.Score != 1.0 {
		t.Fatalf("annotation missing: %+v", loaded.QC)
	}
	if loaded.Text != rec.Text || len(loaded.Segments) != 1 {
		t.Fatal("transcript body changed during annotation")
	}
}
