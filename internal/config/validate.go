package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateQC(); err != nil {
		return err
	}
	if err := c.validateS3(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateLock()
}

func (c *Config) validatePaths() error {
	required := map[string]string{
		"paths.video_dir":      c.Paths.VideoDir,
		"paths.transcript_dir": c.Paths.TranscriptDir,
		"paths.final_dir":      c.Paths.FinalDir,
		"paths.readable_dir":   c.Paths.ReadableDir,
		"paths.log_dir":        c.Paths.LogDir,
		"paths.state_file":     c.Paths.StateFile,
		"paths.lock_file":      c.Paths.LockFile,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	return nil
}

func (c *Config) validateDownload() error {
	if err := ensurePositiveMap(map[string]int{
		"download.timeout_seconds": c.Download.TimeoutSeconds,
		"download.chunk_size":      c.Download.ChunkSize,
		"download.max_retries":     c.Download.MaxRetries,
	}); err != nil {
		return err
	}
	if raw := strings.TrimSpace(c.Download.AfterDate); raw != "" {
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return fmt.Errorf("download.after_date must be YYYY-MM-DD, got %q", raw)
		}
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if strings.TrimSpace(c.Transcription.Model) == "" {
		return errors.New("transcription.model must be set")
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		return errors.New("transcription.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateQC() error {
	if c.QC.BadSegment.NoSpeechProbMin < 0 || c.QC.BadSegment.NoSpeechProbMin > 1 {
		return errors.New("qc.bad_segment.no_speech_prob_min must be between 0 and 1")
	}
	if c.QC.FailThresholds.BadSegmentPct < 0 || c.QC.FailThresholds.BadSegmentPct > 1 {
		return errors.New("qc.fail_thresholds.bad_segment_pct must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateS3() error {
	if !c.S3.Enabled {
		return nil
	}
	if strings.TrimSpace(c.S3.Bucket) == "" {
		return errors.New("s3.bucket must be set when s3.enabled is true (or export AWS_S3_BUCKET)")
	}
	if strings.TrimSpace(c.S3.Endpoint) == "" {
		return errors.New("s3.endpoint must be set when s3.enabled is true")
	}
	return nil
}

func (c *Config) validateSources() error {
	if !c.Sources.House.Enabled && !c.Sources.Senate.Enabled {
		return errors.New("at least one of sources.house or sources.senate must be enabled")
	}
	if c.Sources.House.Enabled && strings.TrimSpace(c.Sources.House.URL) == "" {
		return errors.New("sources.house.url must be set when sources.house.enabled is true")
	}
	if c.Sources.Senate.Enabled && strings.TrimSpace(c.Sources.Senate.URL) == "" {
		return errors.New("sources.senate.url must be set when sources.senate.enabled is true")
	}
	return nil
}

func (c *Config) validateTelegram() error {
	tg := c.Notifications.Telegram
	if !tg.Enabled {
		return nil
	}
	if strings.TrimSpace(tg.BotToken) == "" {
		return errors.New("notifications.telegram.bot_token must be set when telegram is enabled (or export TELEGRAM_BOT_TOKEN)")
	}
	if strings.TrimSpace(tg.ChatID) == "" {
		return errors.New("notifications.telegram.chat_id must be set when telegram is enabled (or export TELEGRAM_CHAT_ID)")
	}
	if tg.RequestTimeout <= 0 {
		return errors.New("notifications.telegram.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateLock() error {
	return ensurePositiveMap(map[string]int{
		"lock.timeout_seconds":       c.Lock.TimeoutSeconds,
		"lock.poll_interval_seconds": c.Lock.PollIntervalSeconds,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
