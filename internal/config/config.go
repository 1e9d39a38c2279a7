package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file location configuration.
type Paths struct {
	VideoDir      string `toml:"video_dir"`
	TranscriptDir string `toml:"transcript_dir"`
	FinalDir      string `toml:"final_dir"`
	ReadableDir   string `toml:"readable_dir"`
	LogDir        string `toml:"log_dir"`
	StateFile     string `toml:"state_file"`
	LockFile      string `toml:"lock_file"`
}

// Download contains configuration for video acquisition.
type Download struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	ChunkSize      int `toml:"chunk_size"`
	// AfterDate is an exclusive cutoff: videos dated on or before it are
	// skipped. Format YYYY-MM-DD; empty disables the filter.
	AfterDate  string `toml:"after_date"`
	MaxRetries int    `toml:"max_retries"`
}

// Transcription contains configuration for the speech-to-text stage.
type Transcription struct {
	Binary         string `toml:"binary"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// BadSegment contains the per-segment quality thresholds. A segment is
// flagged when any one of these trips.
type BadSegment struct {
	NoSpeechProbMin     float64 `toml:"no_speech_prob_min"`
	AvgLogprobMax       float64 `toml:"avg_logprob_max"`
	CompressionRatioMax float64 `toml:"compression_ratio_max"`
	TemperatureMin      float64 `toml:"temperature_min"`
}

// FailThresholds contains the transcript-level pass/fail criteria.
type FailThresholds struct {
	BadSegmentPct float64 `toml:"bad_segment_pct"`
	WrongLanguage bool    `toml:"wrong_language"`
}

// QC contains configuration for transcript quality control.
type QC struct {
	BadSegment     BadSegment     `toml:"bad_segment"`
	FailThresholds FailThresholds `toml:"fail_thresholds"`
}

// S3 contains configuration for object storage offload.
type S3 struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix"`
	// DeleteAfterUpload removes the local video once the object store
	// confirms the upload.
	DeleteAfterUpload bool `toml:"delete_after_upload"`
}

// Grammar contains configuration for LanguageTool-based cleanup of final
// transcripts.
type Grammar struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Source contains configuration for one legislative archive.
type Source struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
}

// Sources groups the supported legislative archives.
type Sources struct {
	House  Source `toml:"house"`
	Senate Source `toml:"senate"`
}

// Telegram contains configuration for run-summary push notifications.
type Telegram struct {
	Enabled        bool   `toml:"enabled"`
	BotToken       string `toml:"bot_token"`
	ChatID         string `toml:"chat_id"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Notifications groups notification transports.
type Notifications struct {
	Telegram Telegram `toml:"telegram"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Lock contains configuration for the single-instance file lock.
type Lock struct {
	TimeoutSeconds      int `toml:"timeout_seconds"`
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
}

// Config encapsulates all configuration values for Gavel.
//
// Configuration sections by subsystem:
//   - Paths: working directories, the state file, and the lock file
//   - Download: HTTP/HLS acquisition timeouts and retry policy
//   - Transcription: whisper binary, model, and language
//   - QC: segment thresholds and transcript pass/fail criteria
//   - S3: object storage offload and gated local deletion
//   - Grammar: LanguageTool cleanup of final transcripts
//   - Sources: House and Senate archive endpoints
//   - Notifications: Telegram run summaries
//   - Logging: log format and level
//   - Lock: single-instance lock timing
type Config struct {
	Paths         Paths         `toml:"paths"`
	Download      Download      `toml:"download"`
	Transcription Transcription `toml:"transcription"`
	QC            QC            `toml:"qc"`
	S3            S3            `toml:"s3"`
	Grammar       Grammar       `toml:"grammar"`
	Sources       Sources       `toml:"sources"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Lock          Lock          `toml:"lock"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gavel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/gavel/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gavel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.VideoDir,
		c.Paths.TranscriptDir,
		c.Paths.FinalDir,
		c.Paths.ReadableDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.StateFile),
		filepath.Dir(c.Paths.LockFile),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CutoffDate parses download.after_date. The second return is false when no
// cutoff is configured.
func (c *Config) CutoffDate() (time.Time, bool, error) {
	raw := strings.TrimSpace(c.Download.AfterDate)
	if raw == "" {
		return time.Time{}, false, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("download.after_date %q: %w", raw, err)
	}
	return parsed, true, nil
}

// WhisperBinary returns the transcription executable name.
func (c *Config) WhisperBinary() string {
	if strings.TrimSpace(c.Transcription.Binary) != "" {
		return c.Transcription.Binary
	}
	return defaultWhisperBinary
}

// FFmpegBinary returns the ffmpeg executable name used for HLS capture.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
