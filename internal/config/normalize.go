package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeS3()
	c.normalizeGrammar()
	c.normalizeSources()
	c.normalizeTelegram()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.video_dir", &c.Paths.VideoDir},
		{"paths.transcript_dir", &c.Paths.TranscriptDir},
		{"paths.final_dir", &c.Paths.FinalDir},
		{"paths.readable_dir", &c.Paths.ReadableDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.state_file", &c.Paths.StateFile},
		{"paths.lock_file", &c.Paths.LockFile},
	}
	for _, field := range fields {
		expanded, err := expandPath(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeS3() {
	c.S3.Endpoint = strings.TrimSpace(c.S3.Endpoint)
	if c.S3.Endpoint == "" {
		c.S3.Endpoint = defaultS3Endpoint
	}
	if c.S3.Bucket == "" {
		if value, ok := os.LookupEnv("AWS_S3_BUCKET"); ok {
			c.S3.Bucket = value
		}
	}
	if c.S3.Region == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok {
			c.S3.Region = value
		}
	}
	if c.S3.Region == "" {
		c.S3.Region = defaultS3Region
	}
	c.S3.Prefix = strings.TrimSpace(c.S3.Prefix)
}

func (c *Config) normalizeGrammar() {
	c.Grammar.URL = strings.TrimSpace(c.Grammar.URL)
	if c.Grammar.URL == "" {
		c.Grammar.URL = defaultGrammarURL
	}
	c.Grammar.URL = strings.TrimRight(c.Grammar.URL, "/")
	if c.Grammar.TimeoutSeconds <= 0 {
		c.Grammar.TimeoutSeconds = defaultGrammarTimeoutSeconds
	}
}

func (c *Config) normalizeSources() {
	c.Sources.House.URL = strings.TrimSpace(c.Sources.House.URL)
	if c.Sources.House.URL == "" {
		c.Sources.House.URL = defaultHouseURL
	}
	c.Sources.Senate.URL = strings.TrimSpace(c.Sources.Senate.URL)
	if c.Sources.Senate.URL == "" {
		c.Sources.Senate.URL = defaultSenateURL
	}
}

func (c *Config) normalizeTelegram() {
	if c.Notifications.Telegram.BotToken == "" {
		if value, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
			c.Notifications.Telegram.BotToken = value
		}
	}
	if c.Notifications.Telegram.ChatID == "" {
		if value, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok {
			c.Notifications.Telegram.ChatID = value
		}
	}
	if c.Notifications.Telegram.RequestTimeout <= 0 {
		c.Notifications.Telegram.RequestTimeout = defaultTelegramRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
