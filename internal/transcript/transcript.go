package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gavel/internal/fileutil"
)

// Segment is one recognized span of speech with the decoder statistics
// quality control scores against.
type Segment struct {
	ID               int     `json:"id"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Temperature      float64 `json:"temperature"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
}

// QCResult is the quality control verdict annotated into the document.
type QCResult struct {
	Passed        bool     `json:"passed"`
	Score         float64  `json:"score"`
	TotalSegments int      `json:"total_segments"`
	BadSegments   int      `json:"bad_segments"`
	Issues        []string `json:"issues"`
	BadSegmentIDs []int    `json:"bad_segment_ids"`
	CheckedAt     string   `json:"checked_at,omitempty"`
}

// Record is a full transcript document.
type Record struct {
	Text          string    `json:"text"`
	Segments      []Segment `json:"segments"`
	Language      string    `json:"language,omitempty"`
	SourceFile    string    `json:"source_file,omitempty"`
	TranscribedAt string    `json:"transcribed_at,omitempty"`
	Service       string    `json:"service,omitempty"`
	Model         string    `json:"model,omitempty"`
	QC            *QCResult `json:"qc,omitempty"`
}

// Path returns the transcript location for a video filename: the stem with
// a .json extension inside dir.
func Path(dir, videoFilename string) string {
	stem := strings.TrimSuffix(videoFilename, filepath.Ext(videoFilename))
	return filepath.Join(dir, stem+".json")
}

// Load reads a transcript document from path.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}

// Write persists the document via an atomic replace.
func Write(path string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript %s: %w", filepath.Base(path), err)
	}
	return nil
}
