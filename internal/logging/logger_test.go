package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gavel/internal/config"
	"gavel/internal/logging"
	"gavel/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("New() accepted unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	logger.Info("log pipeline check", logging.String("key", "value"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "gavel.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "log pipeline check") {
		t.Fatalf("log file missing record:\n%s", data)
	}
}

func TestComponentLoggerToleratesNilBase(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "render")
	logger.Info("discarded")
}

func TestWithContextStampsRunFields(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "run.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-42")
	ctx = services.WithSource(ctx, "senate")
	ctx = services.WithIdentifier(ctx, "VID123")

	logging.WithContext(ctx, logger).Info("stamped")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{`"run_id":"run-42"`, `"source":"senate"`, `"identifier":"VID123"`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("log record missing %s:\n%s", want, data)
		}
	}
}
