package transcribe_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gavel/internal/services/whisper"
	"gavel/internal/state"
	"gavel/internal/transcribe"
	"gavel/internal/transcript"
)

// stubWhisper emulates the CLI writing <stem>.json into the output dir.
func stubWhisper(t *testing.T, fail map[string]bool) (*whisper.Service, *[]string) {
	t.Helper()
	service := whisper.NewService(whisper.Config{Model: "base", Language: "en", TimeoutSeconds: 60})
	var calls []string
	service.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		videoPath := args[0]
		calls = append(calls, filepath.Base(videoPath))
		if fail[filepath.Base(videoPath)] {
			return os.ErrPermission
		}
		outputDir := ""
		for i, arg := range args {
			if arg == "--output_dir" {
				outputDir = args[i+1]
			}
		}
		stem := strings.TrimSuffix(filepath.Base(videoPath), ".mp4")
		doc := map[string]any{
			"text":     "Good morning.",
			"language": "en",
			"segments": []map[string]any{{"id": 0, "start": 0.0, "end": 2.0, "text": " Good morning."}},
		}
		data, _ := json.Marshal(doc)
		return os.WriteFile(filepath.Join(outputDir, stem+".json"), data, 0o644)
	})
	return service, &calls
}

func newStage(t *testing.T, fail map[string]bool) (*transcribe.Stage, *state.Store, string, string, *[]string) {
	t.Helper()
	videoDir := t.TempDir()
	transcriptDir := t.TempDir()
	store, err := state.Open(filepath.Join(t.TempDir(), "log.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	service, calls := stubWhisper(t, fail)
	return transcribe.NewStage(videoDir, transcriptDir, service, store, nil), store, videoDir, transcriptDir, calls
}

func seedVideo(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("video"), 0o644); err != nil {
		t.Fatalf("seed video %s: %v", name, err)
	}
}

func TestTranscribeEnrichesDocument(t *testing.T) {
	stage, _, videoDir, _, _ := newStage(t, nil)
	seedVideo(t, videoDir, "HAPPR-011626.mp4")

	path, err := stage.Transcribe(context.Background(), filepath.Join(videoDir, "HAPPR-011626.mp4"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	rec, err := transcript.Load(path)
	if err != nil {
		t.Fatalf("load transcript: %v", err)
	}
	if rec.SourceFile != "HAPPR-011626.mp4" {
		t.Fatalf("source file = %q", rec.SourceFile)
	}
	if rec.Service != "whisper" || rec.Model != "base" {
		t.Fatalf("provenance = %q/%q", rec.Service, rec.Model)
	}
	if rec.TranscribedAt == "" {
		t.Fatal("missing transcribed_at stamp")
	}
}

func TestTranscribeIsIdempotent(t *testing.T) {
	stage, _, videoDir, transcriptDir, calls := newStage(t, nil)
	seedVideo(t, videoDir, "SSESS-021026.mp4")
	existing := transcript.Path(transcriptDir, "SSESS-021026.mp4")
	if err := transcript.Write(existing, &transcript.Record{Text: "already done"}); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}

	path, err := stage.Transcribe(context.Background(), filepath.Join(videoDir, "SSESS-021026.mp4"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if path != existing {
		t.Fatalf("path = %q", path)
	}
	if len(*calls) != 0 {
		t.Fatal("whisper invoked despite existing transcript")
	}
}

func TestSweepPendingProcessesInFilenameOrder(t *testing.T) {
	stage, store, videoDir, _, calls := newStage(t, nil)
	for _, name := range []string{"c.mp4", "a.mp4", "b.mp4"} {
		seedVideo(t, videoDir, name)
	}

	transcribed, failed, err := stage.SweepPending(context.Background())
	if err != nil {
		t.Fatalf("SweepPending() error = %v", err)
	}
	if transcribed != 3 || failed != 0 {
		t.Fatalf("transcribed=%d failed=%d", transcribed, failed)
	}
	want := []string{"a.mp4", "b.mp4", "c.mp4"}
	for i, name := range want {
		if (*calls)[i] != name {
			t.Fatalf("call order = %v, want %v", *calls, want)
		}
	}
	for _, name := range want {
		rec, ok := store.Get(name)
		if !ok || rec.State != state.StatusTranscribed {
			t.Fatalf("record for %s = %+v, ok=%v", name, rec, ok)
		}
		if rec.TranscriptPath == "" {
			t.Fatalf("transcript path missing for %s", name)
		}
	}
}

func TestSweepPendingContainsFailures(t *testing.T) {
	stage, store, videoDir, _, _ := newStage(t, map[string]bool{"bad.mp4": true})
	seedVideo(t, videoDir, "bad.mp4")
	seedVideo(t, videoDir, "good.mp4")

	transcribed, failed, err := stage.SweepPending(context.Background())
	if err != nil {
		t.Fatalf("SweepPending() error = %v", err)
	}
	if transcribed != 1 || failed != 1 {
		t.Fatalf("transcribed=%d failed=%d", transcribed, failed)
	}

	rec, _ := store.Get("bad.mp4")
	if rec.State != state.StatusFailed || rec.Error == "" {
		t.Fatalf("failed record = %+v", rec)
	}
	rec, _ = store.Get("good.mp4")
	if rec.State != state.StatusTranscribed {
		t.Fatalf("good record = %+v", rec)
	}
}

func TestSweepPendingSkipsTranscribedVideos(t *testing.T) {
	stage, _, videoDir, transcriptDir, calls := newStage(t, nil)
	seedVideo(t, videoDir, "done.mp4")
	if err := transcript.Write(transcript.Path(transcriptDir, "done.mp4"), &transcript.Record{}); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}

	transcribed, failed, err := stage.SweepPending(context.Background())
	if err != nil {
		t.Fatalf("SweepPending() error = %v", err)
	}
	if transcribed != 0 || failed != 0 || len(*calls) != 0 {
		t.Fatalf("transcribed=%d failed=%d calls=%v", transcribed, failed, *calls)
	}
}

func TestSweepPendingRunsPostProcessHook(t *testing.T) {
	stage, store, videoDir, _, _ := newStage(t, nil)
	seedVideo(t, videoDir, "hooked.mp4")

	var hooked []string
	stage.OnTranscribed = func(_ context.Context, identifier, transcriptPath string) error {
		hooked = append(hooked, identifier)
		if transcriptPath == "" {
			t.Fatal("empty transcript path in hook")
		}
		return nil
	}

	if _, _, err := stage.SweepPending(context.Background()); err != nil {
		t.Fatalf("SweepPending() error = %v", err)
	}
	if len(hooked) != 1 || hooked[0] != "hooked.mp4" {
		t.Fatalf("hooked = %v", hooked)
	}
	rec, _ := store.Get("hooked.mp4")
	if rec.State != state.StatusTranscribed {
		t.Fatalf("record = %+v", rec)
	}
}
