package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gavel/internal/logging"
	"gavel/internal/services"
	"gavel/internal/sources"
	"gavel/internal/state"
	"gavel/internal/transcript"
)

// RescoreStats summarizes a QC re-scoring pass.
type RescoreStats struct {
	Scored int
	Passed int
	Failed int
	Errors int
}

// RescoreExisting re-runs quality control over every transcript on disk,
// annotating each file in place and refreshing the execution log.
func (p *Pipeline) RescoreExisting(ctx context.Context) (RescoreStats, error) {
	var stats RescoreStats

	paths, err := p.transcriptPaths()
	if err != nil {
		return stats, err
	}
	p.logger.Info("rescoring transcripts", logging.Int("count", len(paths)))

	for _, path := range paths {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		result, err := p.checker.Run(path)
		if err != nil {
			p.logger.Error("rescore failed",
				logging.String("file", filepath.Base(path)),
				logging.Error(err))
			stats.Errors++
			continue
		}
		stats.Scored++
		if result.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}

		identifier := videoFilename(path)
		if _, tracked := p.store.Get(identifier); tracked {
			if err := p.store.Update(identifier, state.Patch{
				QCScore:  state.Float64Ptr(result.Score),
				QCPassed: state.BoolPtr(result.Passed),
			}); err != nil {
				p.logger.Warn("rescore bookkeeping failed", logging.Error(err))
			}
		}
	}

	p.logger.Info("rescore complete",
		logging.Int("scored", stats.Scored),
		logging.Int("passed", stats.Passed),
		logging.Int("failed", stats.Failed),
		logging.Int("errors", stats.Errors))
	return stats, nil
}

// RetranscribeStats summarizes a re-transcription pass over QC failures.
type RetranscribeStats struct {
	Candidates  int
	Transcribed int
	Failed      int
}

// Retranscribe reprocesses every transcript that failed quality control:
// the failed transcript is deleted, the video is re-downloaded when the
// local copy is gone, and the normal transcription sweep picks the video
// back up for a fresh transcript, score, and render.
func (p *Pipeline) Retranscribe(ctx context.Context) (RetranscribeStats, error) {
	var stats RetranscribeStats

	paths, err := p.transcriptPaths()
	if err != nil {
		return stats, err
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		rec, err := transcript.Load(path)
		if err != nil {
			p.logger.Warn("unreadable transcript skipped",
				logging.String("file", filepath.Base(path)),
				logging.Error(err))
			continue
		}
		if rec.QC == nil || rec.QC.Passed {
			continue
		}
		stats.Candidates++

		identifier := videoFilename(path)
		p.logger.Info("retranscribing failed video",
			logging.String(logging.FieldIdentifier, identifier),
			logging.Float64("score", rec.QC.Score))

		if err := os.Remove(path); err != nil {
			p.logger.Error("failed to remove transcript",
				logging.String("file", filepath.Base(path)),
				logging.Error(err))
			stats.Failed++
			continue
		}

		if err := p.ensureVideo(ctx, identifier); err != nil {
			p.logger.Error("re-download failed",
				logging.String(logging.FieldIdentifier, identifier),
				logging.Error(err))
			if uerr := p.store.Update(identifier, state.Patch{
				State: state.StatusPtr(state.StatusFailed),
				Error: state.StringPtr(err.Error()),
			}); uerr != nil {
				p.logger.Warn("state transition failed", logging.Error(uerr))
			}
			stats.Failed++
			continue
		}

		if err := p.store.Update(identifier, state.Patch{
			State:          state.StatusPtr(state.StatusDownloaded),
			TranscriptPath: state.StringPtr(""),
			Error:          state.StringPtr(""),
		}); err != nil && !errors.Is(err, state.ErrNotFound) {
			p.logger.Warn("state transition failed", logging.Error(err))
		}
	}

	if stats.Candidates == 0 {
		p.logger.Info("no failed transcripts to reprocess")
		return stats, nil
	}

	transcribed, failed, err := p.stage.SweepPending(ctx)
	stats.Transcribed = transcribed
	stats.Failed += failed
	return stats, err
}

// ensureVideo re-fetches a video when the local copy no longer exists,
// reconstructing the acquisition source from the execution log.
func (p *Pipeline) ensureVideo(ctx context.Context, identifier string) error {
	videoPath := filepath.Join(p.cfg.Paths.VideoDir, identifier)
	if _, err := os.Stat(videoPath); err == nil {
		return nil
	}

	rec, tracked := p.store.Get(identifier)
	if !tracked || rec.URL == "" {
		return fmt.Errorf("no recorded source for %s", identifier)
	}
	candidate := sources.Candidate{Identifier: identifier, Source: rec.Source}
	if rec.Source == sources.SourceSenate {
		candidate.HLSURL = rec.URL
	} else {
		candidate.URL = rec.URL
	}
	_, err := p.acquirer.Fetch(ctx, candidate)
	return err
}

// UploadStats summarizes a bulk upload-and-delete pass.
type UploadStats struct {
	Uploaded int
	Deleted  int
	Failed   int
}

// UploadAndDeleteExisting offloads every video remaining in the video
// directory and, when uploads are confirmed and deletion is enabled,
// removes the local copies. Videos stay on disk when their upload fails.
func (p *Pipeline) UploadAndDeleteExisting(ctx context.Context) (UploadStats, error) {
	var stats UploadStats

	if !p.offloader.Enabled() {
		return stats, services.Wrap(services.ErrConfiguration, "pipeline", "upload",
			"object storage offload is not enabled", nil)
	}

	entries, err := os.ReadDir(p.cfg.Paths.VideoDir)
	if err != nil {
		return stats, fmt.Errorf("read video directory: %w", err)
	}

	var videos []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp4") {
			continue
		}
		videos = append(videos, entry.Name())
	}
	sort.Strings(videos)
	p.logger.Info("uploading local videos", logging.Int("count", len(videos)))

	for _, identifier := range videos {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		result := p.offloader.Finish(p.offloader.Begin(ctx, filepath.Join(p.cfg.Paths.VideoDir, identifier)))
		if result.Err != nil {
			p.logger.Error("upload failed",
				logging.String(logging.FieldIdentifier, identifier),
				logging.Error(result.Err))
			stats.Failed++
			continue
		}
		stats.Uploaded++
		if result.Deleted {
			stats.Deleted++
		}

		if _, tracked := p.store.Get(identifier); tracked {
			patch := state.Patch{
				S3Key:    state.StringPtr(result.Key),
				Uploaded: state.BoolPtr(true),
			}
			if result.Deleted {
				patch.VideoPath = state.StringPtr("")
			}
			if err := p.store.Update(identifier, patch); err != nil {
				p.logger.Warn("upload bookkeeping failed", logging.Error(err))
			}
		}
	}

	p.logger.Info("upload pass complete",
		logging.Int("uploaded", stats.Uploaded),
		logging.Int("deleted", stats.Deleted),
		logging.Int("failed", stats.Failed))
	return stats, nil
}

// transcriptPaths lists every transcript document in filename order.
func (p *Pipeline) transcriptPaths() ([]string, error) {
	entries, err := os.ReadDir(p.cfg.Paths.TranscriptDir)
	if err != nil {
		return nil, fmt.Errorf("read transcript directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(p.cfg.Paths.TranscriptDir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
