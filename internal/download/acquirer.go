package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"gavel/internal/config"
	"gavel/internal/logging"
	"gavel/internal/services"
	"gavel/internal/sources"
)

// Acquirer downloads candidates into the video directory, picking the
// transport from the candidate shape: HLSURL means ffmpeg capture, URL
// means direct HTTP.
type Acquirer struct {
	videoDir   string
	chunkSize  int
	timeout    time.Duration
	maxRetries int

	client        *http.Client
	ffmpegBinary  string
	commandRunner func(ctx context.Context, name string, args ...string) error
	logger        *slog.Logger
}

// Option customizes an Acquirer.
type Option func(*Acquirer)

// WithHTTPClient overrides the HTTP client used for direct downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Acquirer) {
		if client != nil {
			a.client = client
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) Option {
	return func(a *Acquirer) {
		a.commandRunner = runner
	}
}

// NewAcquirer builds an Acquirer from pipeline configuration.
func NewAcquirer(cfg *config.Config, logger *slog.Logger, opts ...Option) *Acquirer {
	a := &Acquirer{
		videoDir:     cfg.Paths.VideoDir,
		chunkSize:    cfg.Download.ChunkSize,
		timeout:      time.Duration(cfg.Download.TimeoutSeconds) * time.Second,
		maxRetries:   cfg.Download.MaxRetries,
		client:       &http.Client{},
		ffmpegBinary: cfg.FFmpegBinary(),
		logger:       logging.NewComponentLogger(logger, "download"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch downloads one candidate, returning the local path. A file that
// already exists is returned as-is so reruns never refetch finished work.
func (a *Acquirer) Fetch(ctx context.Context, candidate sources.Candidate) (string, error) {
	outputPath := filepath.Join(a.videoDir, candidate.Identifier)

	if _, err := os.Stat(outputPath); err == nil {
		a.logger.Info("video already exists",
			logging.String(logging.FieldIdentifier, candidate.Identifier))
		return outputPath, nil
	}

	fetch := a.fetchHTTP
	source := candidate.URL
	if candidate.HLSURL != "" {
		fetch = a.fetchHLS
		source = candidate.HLSURL
	}
	if source == "" {
		return "", services.Wrap(services.ErrValidation, "download", "fetch",
			fmt.Sprintf("candidate %s has no download URL", candidate.Identifier), nil)
	}

	operation := func() error {
		err := fetch(ctx, source, outputPath)
		if err != nil {
			// Never leave a truncated video behind for the sweep to pick up.
			_ = os.Remove(outputPath)
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(), uint64(a.maxRetries)), ctx)
	if err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		a.logger.Warn("download attempt failed, retrying",
			logging.String(logging.FieldIdentifier, candidate.Identifier),
			logging.Duration("wait", wait),
			logging.Error(err))
	}); err != nil {
		return "", services.Wrap(services.ErrAcquisition, "download", "fetch", candidate.Identifier, err)
	}
	return outputPath, nil
}

// fetchHTTP streams the file to disk, logging progress every 10 MiB.
func (a *Acquirer) fetchHTTP(ctx context.Context, url, outputPath string) error {
	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %s", url, resp.Status)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	defer out.Close()

	const progressEvery = 10 * 1024 * 1024
	var downloaded, nextMark int64 = 0, progressEvery
	totalSize := resp.ContentLength

	buf := make([]byte, a.chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("write %s: %w", outputPath, writeErr)
			}
			downloaded += int64(n)
			if downloaded >= nextMark {
				nextMark += progressEvery
				if totalSize > 0 {
					a.logger.Info("download progress",
						logging.String("file", filepath.Base(outputPath)),
						logging.Float64("percent", float64(downloaded)/float64(totalSize)*100))
				} else {
					a.logger.Info("download progress",
						logging.String("file", filepath.Base(outputPath)),
						logging.Int64("bytes", downloaded))
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return fmt.Errorf("read body: %w", readErr)
		}
	}

	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", outputPath, err)
	}
	a.logger.Info("download complete",
		logging.String("file", filepath.Base(outputPath)),
		logging.Float64("size_mib", float64(downloaded)/1024/1024))
	return nil
}

// fetchHLS remuxes the HLS stream into an MP4 container without
// re-encoding.
func (a *Acquirer) fetchHLS(ctx context.Context, manifestURL, outputPath string) error {
	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := []string{
		"-i", manifestURL,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-y",
		outputPath,
	}
	if err := a.run(runCtx, a.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("capture hls stream: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("stat capture output: %w", err)
	}
	a.logger.Info("download complete",
		logging.String("file", filepath.Base(outputPath)),
		logging.Float64("size_mib", float64(info.Size())/1024/1024))
	return nil
}
