package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gavel/internal/fileutil"
	"gavel/internal/logging"
	"gavel/internal/transcript"
)

// paragraphGapSeconds is the silence between segments that starts a new
// paragraph.
const paragraphGapSeconds = 4.0

// Corrector rewrites a paragraph of text. The final rendering runs every
// paragraph through it.
type Corrector interface {
	Correct(ctx context.Context, text string) (string, error)
}

// Meta carries listing metadata into the rendered header.
type Meta struct {
	Title    string
	Category string
	Source   string
}

// Renderer writes Markdown transcripts.
type Renderer struct {
	readableDir string
	finalDir    string
	corrector   Corrector
	titleCaser  cases.Caser
	logger      *slog.Logger
}

// NewRenderer builds a renderer. corrector may be nil, in which case the
// final variant is rendered without grammar correction.
func NewRenderer(readableDir, finalDir string, corrector Corrector, logger *slog.Logger) *Renderer {
	return &Renderer{
		readableDir: readableDir,
		finalDir:    finalDir,
		corrector:   corrector,
		titleCaser:  cases.Title(language.AmericanEnglish),
		logger:      logging.NewComponentLogger(logger, "render"),
	}
}

// WriteReadable renders the plain Markdown transcript into the readable
// directory, returning the written path.
func (r *Renderer) WriteReadable(rec *transcript.Record, meta Meta) (string, error) {
	body, err := r.render(context.Background(), rec, meta, false)
	if err != nil {
		return "", err
	}
	return r.write(r.readableDir, rec, body)
}

// WriteFinal renders the grammar-corrected Markdown transcript into the
// final directory, returning the written path.
func (r *Renderer) WriteFinal(ctx context.Context, rec *transcript.Record, meta Meta) (string, error) {
	body, err := r.render(ctx, rec, meta, true)
	if err != nil {
		return "", err
	}
	return r.write(r.finalDir, rec, body)
}

func (r *Renderer) write(dir string, rec *transcript.Record, body string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create render directory: %w", err)
	}
	stem := strings.TrimSuffix(rec.SourceFile, filepath.Ext(rec.SourceFile))
	path := filepath.Join(dir, stem+".md")
	if err := fileutil.WriteFileAtomic(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}
	r.logger.Info("markdown written", logging.String("file", filepath.Base(path)))
	return path, nil
}

func (r *Renderer) render(ctx context.Context, rec *transcript.Record, meta Meta, corrected bool) (string, error) {
	var b strings.Builder
	r.writeHeader(&b, rec, meta, corrected)

	paragraphs := buildParagraphs(rec)
	for i, p := range paragraphs {
		text := p.text
		if corrected && r.corrector != nil {
			r.logger.Debug("correcting paragraph",
				logging.Int("current", i+1), logging.Int("total", len(paragraphs)))
			fixed, err := r.corrector.Correct(ctx, text)
			if err != nil {
				return "", fmt.Errorf("correct paragraph %d: %w", i+1, err)
			}
			text = fixed
		}
		fmt.Fprintf(&b, "**%s** %s\n\n", formatTimestamp(p.start), text)
	}
	return b.String(), nil
}

func (r *Renderer) writeHeader(b *strings.Builder, rec *transcript.Record, meta Meta, corrected bool) {
	fmt.Fprintf(b, "# Transcript: %s\n\n", rec.SourceFile)
	if meta.Title != "" {
		fmt.Fprintf(b, "- **Title:** %s\n", meta.Title)
	}
	if meta.Category != "" {
		fmt.Fprintf(b, "- **Committee:** %s\n", r.titleCaser.String(strings.ToLower(meta.Category)))
	}
	if meta.Source != "" {
		fmt.Fprintf(b, "- **Chamber:** %s\n", r.titleCaser.String(meta.Source))
	}
	fmt.Fprintf(b, "- **Source file:** %s\n", rec.SourceFile)
	fmt.Fprintf(b, "- **Transcribed:** %s\n", displayTime(rec.TranscribedAt))
	fmt.Fprintf(b, "- **Model:** %s/%s\n", rec.Service, rec.Model)
	fmt.Fprintf(b, "- **Quality score:** %s\n", qcDisplay(rec.QC))
	if corrected && r.corrector != nil {
		fmt.Fprintf(b, "- **Grammar corrected:** Yes (punctuation + polish)\n")
	}
	b.WriteString("\n---\n\n")
}

func displayTime(stamp string) string {
	parsed, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return stamp
	}
	return parsed.Format("2006-01-02 15:04")
}

func qcDisplay(qc *transcript.QCResult) string {
	if qc == nil {
		return "Not scored"
	}
	verdict := "FAIL"
	if qc.Passed {
		verdict = "PASS"
	}
	return fmt.Sprintf("%.2f (%s)", qc.Score, verdict)
}

type paragraph struct {
	start float64
	text  string
}

// buildParagraphs joins segments into paragraphs, starting a new paragraph
// whenever the gap between segments reaches the threshold. Segments flagged
// by QC are dropped.
func buildParagraphs(rec *transcript.Record) []paragraph {
	badIDs := make(map[int]struct{})
	if rec.QC != nil {
		for _, id := range rec.QC.BadSegmentIDs {
			badIDs[id] = struct{}{}
		}
	}

	var (
		paragraphs []paragraph
		current    []string
		start      float64
		started    bool
		prevEnd    float64
		havePrev   bool
	)
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, paragraph{start: start, text: strings.Join(current, " ")})
			current = nil
			started = false
		}
	}

	for _, seg := range rec.Segments {
		if _, bad := badIDs[seg.ID]; bad {
			continue
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if havePrev && seg.Start-prevEnd >= paragraphGapSeconds {
			flush()
		}
		if !started {
			start = seg.Start
			started = true
		}
		current = append(current, text)
		prevEnd = seg.End
		havePrev = true
	}
	flush()
	return paragraphs
}

// formatTimestamp renders seconds as [M:SS] or [H:MM:SS].
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("[%d:%02d:%02d]", h, m, s)
	}
	return fmt.Sprintf("[%d:%02d]", m, s)
}
