package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gavel/internal/config"
	"gavel/internal/download"
	"gavel/internal/filter"
	"gavel/internal/grammar"
	"gavel/internal/logging"
	"gavel/internal/notifications"
	"gavel/internal/offload"
	"gavel/internal/qc"
	"gavel/internal/render"
	"gavel/internal/services"
	"gavel/internal/services/storage"
	"gavel/internal/services/whisper"
	"gavel/internal/sources"
	"gavel/internal/state"
	"gavel/internal/transcribe"
	"gavel/internal/transcript"
)

// Stats summarizes one run.
type Stats struct {
	Discovered  int
	Eligible    int
	Downloaded  int
	Transcribed int
	Skipped     int
	Failed      int
}

// OK reports whether the run completed without per-video failures.
func (s Stats) OK() bool {
	return s.Failed == 0
}

// RunOptions adjusts a single run.
type RunOptions struct {
	// Source restricts the run to one archive ("house" or "senate").
	// Empty runs every enabled archive.
	Source string
	// Force reprocesses videos the execution log already settled.
	Force bool
}

// Pipeline wires the processing stages together over one execution log.
type Pipeline struct {
	cfg       *config.Config
	store     *state.Store
	logger    *slog.Logger
	collector []sources.Collector
	acquirer  *download.Acquirer
	stage     *transcribe.Stage
	checker   *qc.Checker
	renderer  *render.Renderer
	offloader *offload.Offloader
	notifier  notifications.Service
}

// Option overrides a default component, mainly for tests.
type Option func(*Pipeline)

// WithCollectors replaces the archive collectors. Calling it with no
// arguments means "no collectors", not "use the configured defaults".
func WithCollectors(collectors ...sources.Collector) Option {
	return func(p *Pipeline) {
		p.collector = collectors
		if p.collector == nil {
			p.collector = []sources.Collector{}
		}
	}
}

// WithAcquirer replaces the download stage.
func WithAcquirer(a *download.Acquirer) Option {
	return func(p *Pipeline) { p.acquirer = a }
}

// WithTranscribeStage replaces the transcription stage.
func WithTranscribeStage(s *transcribe.Stage) Option {
	return func(p *Pipeline) { p.stage = s }
}

// WithOffloader replaces the object storage offloader.
func WithOffloader(o *offload.Offloader) Option {
	return func(p *Pipeline) { p.offloader = o }
}

// WithNotifier replaces the notification service.
func WithNotifier(n notifications.Service) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// New assembles a pipeline from configuration. Components not overridden by
// options are built from cfg: collectors for each enabled archive, the
// downloader, the whisper stage, the QC checker, the renderer with its
// grammar corrector, the S3 offloader, and the Telegram notifier.
func New(cfg *config.Config, store *state.Store, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.collector == nil {
		if cfg.Sources.House.Enabled {
			p.collector = append(p.collector,
				sources.NewHouseCollector(cfg.Sources.House.URL, nil, logger))
		}
		if cfg.Sources.Senate.Enabled {
			p.collector = append(p.collector,
				sources.NewSenateCollector(cfg.Sources.Senate.URL, nil, logger))
		}
	}
	if p.acquirer == nil {
		p.acquirer = download.NewAcquirer(cfg, logger)
	}
	if p.stage == nil {
		service := whisper.NewService(whisper.Config{
			Binary:         cfg.WhisperBinary(),
			Model:          cfg.Transcription.Model,
			Language:       cfg.Transcription.Language,
			TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
		})
		p.stage = transcribe.NewStage(cfg.Paths.VideoDir, cfg.Paths.TranscriptDir,
			service, store, logger)
	}
	if p.checker == nil {
		p.checker = qc.NewChecker(cfg, logger)
	}
	if p.renderer == nil {
		var corrector render.Corrector
		if g := grammar.New(cfg, logger); g != nil {
			corrector = g
		}
		p.renderer = render.NewRenderer(cfg.Paths.ReadableDir, cfg.Paths.FinalDir,
			corrector, logger)
	}
	if p.offloader == nil {
		var uploader offload.Uploader
		if cfg.S3.Enabled {
			s3, err := storage.NewUploader(cfg)
			if err != nil {
				return nil, fmt.Errorf("configure object storage: %w", err)
			}
			uploader = s3
		}
		p.offloader = offload.New(uploader, cfg.S3.DeleteAfterUpload, logger)
	}
	if p.notifier == nil {
		p.notifier = notifications.NewFromConfig(cfg, logger)
	}

	p.stage.OnTranscribed = p.finishTranscript
	return p, nil
}

// Run executes one full pass: discover, filter, download, offload,
// transcribe, score, render, notify. Per-video failures are counted in
// Stats rather than aborting the run; the returned error covers only
// run-level faults such as an unreadable video directory.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (Stats, error) {
	var stats Stats

	if err := p.cfg.EnsureDirectories(); err != nil {
		return stats, err
	}
	p.resumeInterrupted()
	logArgs := []any{logging.Int("tracked", p.store.Len())}
	counts := p.store.Counts()
	for _, status := range state.AllStatuses() {
		if n := counts[status]; n > 0 {
			logArgs = append(logArgs, logging.Int(status.String(), n))
		}
	}
	p.logger.Info("execution log loaded", logArgs...)

	cutoff, hasCutoff, err := p.cfg.CutoffDate()
	if err != nil {
		return stats, services.Wrap(services.ErrConfiguration, "pipeline", "parse cutoff", "", err)
	}
	rules := filter.New(cutoff, hasCutoff, opts.Force)

	eligible := p.discover(ctx, opts.Source, rules, &stats)
	stats.Eligible = len(eligible)
	p.logger.Info("eligibility determined",
		logging.Int("eligible", len(eligible)),
		logging.Int("discovered", stats.Discovered))

	handles := p.downloadAll(ctx, eligible, &stats)

	transcribed, failed, err := p.stage.SweepPending(ctx)
	stats.Transcribed = transcribed
	stats.Failed += failed
	if err != nil {
		p.awaitOffloads(handles)
		return stats, err
	}

	p.awaitOffloads(handles)
	p.cleanupOrphans(ctx, handles)

	p.logSummary(stats)
	p.notify(ctx, stats)
	return stats, nil
}

// resumeInterrupted resets records a crashed run left mid-stage. A video
// caught downloading starts over from discovery; one caught transcribing
// keeps its download and is picked back up by the sweep.
func (p *Pipeline) resumeInterrupted() {
	for identifier, rec := range p.store.Snapshot() {
		if !rec.State.IsTransient() {
			continue
		}
		reset := state.StatusDiscovered
		if rec.State == state.StatusTranscribing {
			reset = state.StatusDownloaded
		}
		p.logger.Info("resuming interrupted video",
			logging.String(logging.FieldIdentifier, identifier),
			logging.String("from", rec.State.String()),
			logging.String("to", reset.String()))
		if err := p.store.SetState(identifier, reset); err != nil {
			p.logger.Warn("state transition failed", logging.Error(err))
		}
	}
}

// discover collects candidates from every enabled archive, applies the
// filter rules, and registers eligible candidates in the execution log.
func (p *Pipeline) discover(ctx context.Context, only string, rules *filter.Filter, stats *Stats) []sources.Candidate {
	var eligible []sources.Candidate
	for _, collector := range p.collector {
		if only != "" && collector.Name() != only {
			continue
		}
		sctx := services.WithSource(ctx, collector.Name())
		log := logging.WithContext(sctx, p.logger)
		candidates, err := collector.Discover(sctx)
		if err != nil {
			log.Error("discovery failed", logging.Error(err))
			continue
		}
		stats.Discovered += len(candidates)

		for _, candidate := range candidates {
			rec, tracked := p.store.Get(candidate.Identifier)
			switch rules.Check(candidate, rec, tracked) {
			case filter.DecisionBeforeCutoff:
				stats.Skipped++
			case filter.DecisionAlreadySettled:
				log.Info("skipping settled video",
					logging.String(logging.FieldIdentifier, candidate.Identifier),
					logging.String("state", rec.State.String()))
				stats.Skipped++
			default:
				p.track(candidate)
				eligible = append(eligible, candidate)
			}
		}
	}
	return eligible
}

// track records a candidate as discovered. Already-tracked videos keep
// their state; the listing metadata is refreshed either way. The persisted
// URL is the fetch descriptor — the HLS manifest when the candidate
// streams, the direct archive URL otherwise — so a later re-download
// works without re-scraping the listing.
func (p *Pipeline) track(candidate sources.Candidate) {
	sourceURL := candidate.URL
	if candidate.HLSURL != "" {
		sourceURL = candidate.HLSURL
	}
	if _, tracked := p.store.Get(candidate.Identifier); tracked {
		if err := p.store.Update(candidate.Identifier, state.Patch{
			Title:     state.StringPtr(candidate.Title),
			Category:  state.StringPtr(candidate.Category),
			VideoDate: state.StringPtr(candidate.Date),
			URL:       state.StringPtr(sourceURL),
		}); err != nil {
			p.logger.Warn("metadata refresh failed", logging.Error(err))
		}
		return
	}
	if _, err := p.store.Discover(candidate.Identifier, state.Record{
		State:     state.StatusDiscovered,
		Source:    candidate.Source,
		Title:     candidate.Title,
		Category:  candidate.Category,
		VideoDate: candidate.Date,
		URL:       sourceURL,
	}); err != nil {
		p.logger.Warn("failed to track candidate", logging.Error(err))
	}
}

// downloadAll fetches every eligible candidate and starts a background
// offload for each completed download. The returned handles are awaited
// after transcription so uploads overlap the slow stage.
func (p *Pipeline) downloadAll(ctx context.Context, eligible []sources.Candidate, stats *Stats) map[string]*offload.Handle {
	handles := make(map[string]*offload.Handle)
	for i, candidate := range eligible {
		if ctx.Err() != nil {
			return handles
		}
		vctx := services.WithIdentifier(
			services.WithSource(ctx, candidate.Source), candidate.Identifier)
		log := logging.WithContext(vctx, p.logger)
		log.Info("processing video",
			logging.Int("current", i+1),
			logging.Int("total", len(eligible)))

		if err := p.store.SetState(candidate.Identifier, state.StatusDownloading); err != nil {
			log.Warn("state transition failed", logging.Error(err))
		}

		videoPath, err := p.acquirer.Fetch(vctx, candidate)
		if err != nil {
			log.Error("download failed", logging.Error(err))
			if uerr := p.store.Update(candidate.Identifier, state.Patch{
				State: state.StatusPtr(state.StatusFailed),
				Error: state.StringPtr(err.Error()),
			}); uerr != nil {
				log.Warn("state transition failed", logging.Error(uerr))
			}
			stats.Failed++
			continue
		}

		if err := p.store.Update(candidate.Identifier, state.Patch{
			State:     state.StatusPtr(state.StatusDownloaded),
			VideoPath: state.StringPtr(videoPath),
			Error:     state.StringPtr(""),
		}); err != nil {
			log.Warn("state transition failed", logging.Error(err))
		}
		stats.Downloaded++

		handles[candidate.Identifier] = p.offloader.Begin(vctx, videoPath)
	}
	return handles
}

// awaitOffloads blocks until every in-flight upload settles, applies the
// gated local deletions, and records the outcomes. It runs after the
// transcription sweep so no video disappears before its transcript exists.
// Upload failures retain the local file and are logged; they do not fail
// the run.
func (p *Pipeline) awaitOffloads(handles map[string]*offload.Handle) {
	for identifier, handle := range handles {
		result := p.offloader.Finish(handle)
		if result.Err != nil {
			p.logger.Error("offload failed",
				logging.String(logging.FieldIdentifier, identifier),
				logging.Error(result.Err))
			continue
		}
		patch, worthRecording := offloadPatch(result)
		if !worthRecording {
			continue
		}
		if err := p.store.Update(identifier, patch); err != nil {
			p.logger.Warn("offload bookkeeping failed", logging.Error(err))
		}
	}
}

// cleanupOrphans offloads local videos whose transcript already exists but
// that this run did not upload, typically leftovers from an interrupted
// earlier run. Runs after the sweep so every such transcript is final.
func (p *Pipeline) cleanupOrphans(ctx context.Context, handled map[string]*offload.Handle) {
	entries, err := os.ReadDir(p.cfg.Paths.VideoDir)
	if err != nil {
		p.logger.Warn("orphan cleanup skipped", logging.Error(err))
		return
	}
	for _, entry := range entries {
		identifier := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(identifier, ".mp4") {
			continue
		}
		if _, ok := handled[identifier]; ok {
			continue
		}
		if _, err := os.Stat(transcript.Path(p.cfg.Paths.TranscriptDir, identifier)); err != nil {
			continue
		}

		videoPath := filepath.Join(p.cfg.Paths.VideoDir, identifier)
		p.logger.Info("offloading leftover video",
			logging.String(logging.FieldIdentifier, identifier))
		result := p.offloader.Finish(p.offloader.Begin(ctx, videoPath))
		patch, worthRecording := offloadPatch(result)
		if !worthRecording {
			continue
		}
		if _, tracked := p.store.Get(identifier); !tracked {
			continue
		}
		if err := p.store.Update(identifier, patch); err != nil {
			p.logger.Warn("orphan cleanup bookkeeping failed", logging.Error(err))
		}
	}
}

// offloadPatch translates an offload outcome into the fields worth
// persisting. Failed or no-op results produce nothing.
func offloadPatch(result offload.Result) (state.Patch, bool) {
	var patch state.Patch
	recorded := false
	if result.Uploaded {
		patch.S3Key = state.StringPtr(result.Key)
		patch.Uploaded = state.BoolPtr(true)
		recorded = true
	}
	if result.Deleted {
		patch.VideoPath = state.StringPtr("")
		recorded = true
	}
	return patch, recorded
}

// finishTranscript runs after each successful transcription: score the
// transcript, annotate it in place, render both Markdown variants, and
// record the results. A QC failure is recorded but does not fail the video.
func (p *Pipeline) finishTranscript(ctx context.Context, identifier, transcriptPath string) error {
	result, err := p.checker.Run(transcriptPath)
	if err != nil {
		return fmt.Errorf("score transcript: %w", err)
	}

	rec, err := transcript.Load(transcriptPath)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}

	meta := p.metaFor(identifier)
	readablePath, err := p.renderer.WriteReadable(rec, meta)
	if err != nil {
		return fmt.Errorf("render readable transcript: %w", err)
	}
	finalPath, err := p.renderer.WriteFinal(ctx, rec, meta)
	if err != nil {
		return fmt.Errorf("render final transcript: %w", err)
	}

	if err := p.store.Update(identifier, state.Patch{
		QCScore:      state.Float64Ptr(result.Score),
		QCPassed:     state.BoolPtr(result.Passed),
		ReadablePath: state.StringPtr(readablePath),
		FinalPath:    state.StringPtr(finalPath),
	}); err != nil {
		p.logger.Warn("transcript bookkeeping failed", logging.Error(err))
	}
	return nil
}

// metaFor reconstructs rendering metadata from the execution log.
func (p *Pipeline) metaFor(identifier string) render.Meta {
	rec, ok := p.store.Get(identifier)
	if !ok {
		return render.Meta{}
	}
	return render.Meta{
		Title:    rec.Title,
		Category: rec.Category,
		Source:   rec.Source,
	}
}

func (p *Pipeline) logSummary(stats Stats) {
	divider := strings.Repeat("=", 70)
	p.logger.Info(divider)
	p.logger.Info("EXECUTION SUMMARY")
	p.logger.Info(divider)
	p.logger.Info("run complete",
		logging.Int("discovered", stats.Discovered),
		logging.Int("eligible", stats.Eligible),
		logging.Int("downloaded", stats.Downloaded),
		logging.Int("transcribed", stats.Transcribed),
		logging.Int("skipped", stats.Skipped),
		logging.Int("failed", stats.Failed))
	p.logger.Info(divider)
}

func (p *Pipeline) notify(ctx context.Context, stats Stats) {
	message := fmt.Sprintf(
		"<b>Gavel Hearing Transcriber</b>\n\n"+
			"Discovered: %d\n"+
			"Eligible: %d\n"+
			"Downloaded: %d\n"+
			"Transcribed: %d\n"+
			"Skipped: %d\n"+
			"Failed: %d",
		stats.Discovered, stats.Eligible, stats.Downloaded,
		stats.Transcribed, stats.Skipped, stats.Failed)
	if err := p.notifier.Publish(ctx, message); err != nil {
		p.logger.Warn("notification delivery failed", logging.Error(err))
	}
}

// videoFilename maps a transcript path back to the video identifier.
func videoFilename(transcriptPath string) string {
	stem := strings.TrimSuffix(filepath.Base(transcriptPath), ".json")
	return stem + ".mp4"
}
