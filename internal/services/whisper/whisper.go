// Package whisper invokes the whisper CLI to produce transcript JSON for a
// video file. The CLI writes <stem>.json into the output directory; callers
// enrich and re-save that document through the transcript package.
package whisper

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Service runs whisper transcriptions.
type Service struct {
	binary        string
	model         string
	language      string
	timeout       time.Duration
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// Config holds the transcription settings the service needs.
type Config struct {
	Binary         string
	Model          string
	Language       string
	TimeoutSeconds int
}

// NewService creates a whisper service with the given configuration.
func NewService(cfg Config) *Service {
	binary := cfg.Binary
	if binary == "" {
		binary = "whisper"
	}
	return &Service{
		binary:   binary,
		model:    cfg.Model,
		language: cfg.Language,
		timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging and metadata.
func (s *Service) Model() string {
	return s.model
}

// Transcribe runs whisper on videoPath, writing JSON output into outputDir.
func (s *Service) Transcribe(ctx context.Context, videoPath, outputDir string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := []string{
		videoPath,
		"--model", s.model,
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if s.language != "" {
		args = append(args, "--language", s.language)
	}
	return s.run(ctx, s.binary, args...)
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		if len(detail) > 500 {
			detail = detail[len(detail)-500:]
		}
		return fmt.Errorf("%s: %w: %s", name, err, detail)
	}
	return nil
}
