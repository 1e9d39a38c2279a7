package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gavel/internal/config"
)

func TestLoadDefaultsExpandPathsAndHonourEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("AWS_S3_BUCKET", "hearings-archive")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok123")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantVideos := filepath.Join(tempHome, ".local", "share", "gavel", "videos")
	if cfg.Paths.VideoDir != wantVideos {
		t.Fatalf("unexpected video dir: got %q want %q", cfg.Paths.VideoDir, wantVideos)
	}
	if !strings.HasSuffix(cfg.Paths.StateFile, "execution_log.json") {
		t.Fatalf("unexpected state file: %q", cfg.Paths.StateFile)
	}
	if cfg.S3.Enabled {
		t.Fatal("expected S3 offload disabled by default")
	}
	if cfg.S3.Bucket != "hearings-archive" {
		t.Fatalf("expected bucket from env, got %q", cfg.S3.Bucket)
	}
	if cfg.Notifications.Telegram.BotToken != "tok123" {
		t.Fatalf("expected telegram token from env, got %q", cfg.Notifications.Telegram.BotToken)
	}
	if !cfg.Sources.House.Enabled || !cfg.Sources.Senate.Enabled {
		t.Fatal("expected both sources enabled by default")
	}
	if cfg.QC.BadSegment.NoSpeechProbMin != 0.6 {
		t.Fatalf("unexpected no_speech_prob_min: %v", cfg.QC.BadSegment.NoSpeechProbMin)
	}
	if cfg.QC.FailThresholds.BadSegmentPct != 0.5 {
		t.Fatalf("unexpected bad_segment_pct: %v", cfg.QC.FailThresholds.BadSegmentPct)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.VideoDir, cfg.Paths.TranscriptDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "gavel.toml")

	body := `
[paths]
video_dir = "` + filepath.Join(tempDir, "videos") + `"

[download]
after_date = "2025-03-01"
max_retries = 5

[transcription]
model = "large-v3"
`
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("resolved = %q, want %q", resolved, configPath)
	}
	if cfg.Paths.VideoDir != filepath.Join(tempDir, "videos") {
		t.Fatalf("unexpected video dir: %q", cfg.Paths.VideoDir)
	}
	if cfg.Download.MaxRetries != 5 {
		t.Fatalf("unexpected max_retries: %d", cfg.Download.MaxRetries)
	}
	if cfg.Transcription.Model != "large-v3" {
		t.Fatalf("unexpected model: %q", cfg.Transcription.Model)
	}
	cutoff, ok, err := cfg.CutoffDate()
	if err != nil || !ok {
		t.Fatalf("CutoffDate() = %v, %v, %v", cutoff, ok, err)
	}
	if got := cutoff.Format("2006-01-02"); got != "2025-03-01" {
		t.Fatalf("cutoff = %q", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "bad after_date",
			mutate: func(c *config.Config) { c.Download.AfterDate = "03/01/2025" },
			want:   "after_date",
		},
		{
			name:   "no sources",
			mutate: func(c *config.Config) { c.Sources.House.Enabled = false; c.Sources.Senate.Enabled = false },
			want:   "sources",
		},
		{
			name:   "s3 without bucket",
			mutate: func(c *config.Config) { c.S3.Enabled = true; c.S3.Bucket = "" },
			want:   "s3.bucket",
		},
		{
			name:   "telegram without token",
			mutate: func(c *config.Config) { c.Notifications.Telegram.Enabled = true },
			want:   "bot_token",
		},
		{
			name:   "bad log format",
			mutate: func(c *config.Config) { c.Logging.Format = "yaml" },
			want:   "logging.format",
		},
		{
			name:   "qc out of range",
			mutate: func(c *config.Config) { c.QC.FailThresholds.BadSegmentPct = 1.5 },
			want:   "bad_segment_pct",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[sources.house]") {
		t.Fatal("sample config missing sources section")
	}
}
