package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gavel/internal/logging"
	"gavel/internal/services"
	"gavel/internal/services/whisper"
	"gavel/internal/state"
	"gavel/internal/transcript"
)

// Stage transcribes videos and records lifecycle transitions.
type Stage struct {
	videoDir      string
	transcriptDir string
	service       *whisper.Service
	store         *state.Store
	logger        *slog.Logger

	// OnTranscribed runs after each successful transcription, before the
	// video is marked transcribed. Returning an error fails that video
	// without stopping the sweep.
	OnTranscribed func(ctx context.Context, identifier, transcriptPath string) error
}

// NewStage builds the transcription stage.
func NewStage(videoDir, transcriptDir string, service *whisper.Service, store *state.Store, logger *slog.Logger) *Stage {
	return &Stage{
		videoDir:      videoDir,
		transcriptDir: transcriptDir,
		service:       service,
		store:         store,
		logger:        logging.NewComponentLogger(logger, "transcribe"),
	}
}

// Transcribe produces the transcript document for one video, returning its
// path. An existing transcript is returned untouched. On failure any
// partial document is removed so reruns start clean.
func (s *Stage) Transcribe(ctx context.Context, videoPath string) (string, error) {
	identifier := filepath.Base(videoPath)
	transcriptPath := transcript.Path(s.transcriptDir, identifier)

	if _, err := os.Stat(transcriptPath); err == nil {
		s.logger.Info("transcript already exists",
			logging.String(logging.FieldIdentifier, identifier))
		return transcriptPath, nil
	}

	s.logger.Info("transcribing video",
		logging.String(logging.FieldIdentifier, identifier),
		logging.String("model", s.service.Model()))

	if err := s.service.Transcribe(ctx, videoPath, s.transcriptDir); err != nil {
		_ = os.Remove(transcriptPath)
		return "", services.Wrap(services.ErrTranscription, "transcribe", "run whisper", identifier, err)
	}

	if err := s.enrich(transcriptPath, identifier); err != nil {
		_ = os.Remove(transcriptPath)
		return "", services.Wrap(services.ErrTranscription, "transcribe", "annotate transcript", identifier, err)
	}
	return transcriptPath, nil
}

// enrich stamps provenance metadata into the raw whisper output.
func (s *Stage) enrich(transcriptPath, identifier string) error {
	rec, err := transcript.Load(transcriptPath)
	if err != nil {
		return err
	}
	rec.SourceFile = identifier
	rec.TranscribedAt = time.Now().UTC().Format(time.RFC3339)
	rec.Service = "whisper"
	rec.Model = s.service.Model()
	return transcript.Write(transcriptPath, rec)
}

// SweepPending transcribes every video in the video directory that has no
// transcript yet, in filename order. Failures are contained per video.
func (s *Stage) SweepPending(ctx context.Context) (transcribed, failed int, err error) {
	entries, err := os.ReadDir(s.videoDir)
	if err != nil {
		return 0, 0, fmt.Errorf("read video directory: %w", err)
	}

	var pending []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp4") {
			continue
		}
		if _, err := os.Stat(transcript.Path(s.transcriptDir, entry.Name())); os.IsNotExist(err) {
			pending = append(pending, entry.Name())
		}
	}
	sort.Strings(pending)

	if len(pending) == 0 {
		s.logger.Info("no videos pending transcription")
		return 0, 0, nil
	}
	s.logger.Info("videos pending transcription", logging.Int("count", len(pending)))

	ctx = services.WithStage(ctx, "transcribe")
	for i, identifier := range pending {
		if ctx.Err() != nil {
			return transcribed, failed, ctx.Err()
		}
		vctx := services.WithIdentifier(ctx, identifier)
		log := logging.WithContext(vctx, s.logger)
		log.Info("transcription progress",
			logging.Int("current", i+1),
			logging.Int("total", len(pending)))

		s.ensureTracked(identifier)
		if err := s.store.SetState(identifier, state.StatusTranscribing); err != nil {
			log.Warn("state transition failed", logging.Error(err))
		}

		transcriptPath, terr := s.Transcribe(vctx, filepath.Join(s.videoDir, identifier))
		if terr == nil && s.OnTranscribed != nil {
			terr = s.OnTranscribed(vctx, identifier, transcriptPath)
		}
		if terr != nil {
			log.Error("transcription failed", logging.Error(terr))
			if err := s.store.Update(identifier, state.Patch{
				State: state.StatusPtr(state.StatusFailed),
				Error: state.StringPtr(terr.Error()),
			}); err != nil {
				log.Warn("state transition failed", logging.Error(err))
			}
			failed++
			continue
		}

		if err := s.store.Update(identifier, state.Patch{
			State:          state.StatusPtr(state.StatusTranscribed),
			TranscriptPath: state.StringPtr(transcriptPath),
			Error:          state.StringPtr(""),
		}); err != nil {
			log.Warn("state transition failed", logging.Error(err))
		}
		transcribed++
	}

	s.logger.Info("transcription sweep complete",
		logging.Int("transcribed", transcribed),
		logging.Int("failed", failed))
	return transcribed, failed, nil
}

// ensureTracked registers videos found on disk that discovery never saw,
// such as files dropped into the directory by hand.
func (s *Stage) ensureTracked(identifier string) {
	if _, ok := s.store.Get(identifier); ok {
		return
	}
	if _, err := s.store.Discover(identifier, state.Record{
		State:     state.StatusDownloaded,
		VideoPath: filepath.Join(s.videoDir, identifier),
	}); err != nil {
		s.logger.Warn("failed to track orphan video", logging.Error(err))
	}
}
