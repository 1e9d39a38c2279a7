package state_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gavel/internal/state"
)

func newStore(t *testing.T) (*state.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "execution_log.json")
	store, err := state.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store, path
}

func TestDiscoverAndTransitions(t *testing.T) {
	store, path := newStore(t)

	created, err := store.Discover("house-video-1.mp4", state.Record{
		Source:    "house",
		Title:     "Appropriations Committee",
		VideoDate: "2025-04-15",
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if !created {
		t.Fatal("expected new record")
	}

	created, err = store.Discover("house-video-1.mp4", state.Record{})
	if err != nil {
		t.Fatalf("second Discover() error = %v", err)
	}
	if created {
		t.Fatal("expected existing record to be preserved")
	}

	if err := store.SetState("house-video-1.mp4", state.StatusDownloading); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if err := store.Update("house-video-1.mp4", state.Patch{
		State:     state.StatusPtr(state.StatusDownloaded),
		VideoPath: state.StringPtr("/videos/house-video-1.mp4"),
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	rec, ok := store.Get("house-video-1.mp4")
	if !ok {
		t.Fatal("record missing")
	}
	if rec.State != state.StatusDownloaded {
		t.Fatalf("state = %q, want downloaded", rec.State)
	}
	if rec.Title != "Appropriations Committee" {
		t.Fatalf("title lost across updates: %q", rec.Title)
	}
	if rec.UpdatedAt == "" {
		t.Fatal("expected updated_at stamp")
	}

	// Reload from disk and confirm persistence.
	reopened, err := state.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	rec, ok = reopened.Get("house-video-1.mp4")
	if !ok || rec.State != state.StatusDownloaded {
		t.Fatalf("reloaded record = %+v, ok=%v", rec, ok)
	}
}

func TestUpdateUnknownIdentifier(t *testing.T) {
	store, _ := newStore(t)
	err := store.SetState("nope.mp4", state.StatusFailed)
	if err == nil {
		t.Fatal("expected error for unknown identifier")
	}
}

func TestMutationsRejectUnknownStatus(t *testing.T) {
	store, path := newStore(t)
	if _, err := store.Discover("a.mp4", state.Record{State: state.StatusDownloaded}); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	bogus := state.Status("exploded")
	if err := store.Update("a.mp4", state.Patch{State: &bogus}); !errors.Is(err, state.ErrUnknownStatus) {
		t.Fatalf("Update() error = %v, want ErrUnknownStatus", err)
	}
	if err := store.SetState("a.mp4", bogus); !errors.Is(err, state.ErrUnknownStatus) {
		t.Fatalf("SetState() error = %v, want ErrUnknownStatus", err)
	}
	if _, err := store.Discover("c.mp4", state.Record{State: bogus}); !errors.Is(err, state.ErrUnknownStatus) {
		t.Fatalf("Discover() error = %v, want ErrUnknownStatus", err)
	}

	// The rejected writes must not leak into the persisted log.
	reopened, err := state.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	rec, ok := reopened.Get("a.mp4")
	if !ok || rec.State != state.StatusDownloaded {
		t.Fatalf("record = %+v, ok=%v", rec, ok)
	}
	if _, ok := reopened.Get("c.mp4"); ok {
		t.Fatal("rejected discover was persisted")
	}
}

func TestListByStatusSorted(t *testing.T) {
	store, _ := newStore(t)
	for _, id := range []string{"c.mp4", "a.mp4", "b.mp4"} {
		if _, err := store.Discover(id, state.Record{State: state.StatusDownloaded}); err != nil {
			t.Fatalf("Discover(%s): %v", id, err)
		}
	}
	if _, err := store.Discover("z.mp4", state.Record{State: state.StatusFailed}); err != nil {
		t.Fatalf("Discover(z): %v", err)
	}

	got := store.ListByStatus(state.StatusDownloaded)
	want := []string{"a.mp4", "b.mp4", "c.mp4"}
	if len(got) != len(want) {
		t.Fatalf("ListByStatus() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ListByStatus() = %v, want %v", got, want)
		}
	}
}

func TestTestModeSkipsPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execution_log.json")
	store, err := state.Open(path, state.WithTestMode(true))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := store.Discover("x.mp4", state.Record{}); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no log file on disk, stat err = %v", err)
	}
}

func TestLegacyLogMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execution_log.json")
	legacy := map[string]any{
		"processed_videos": map[string]any{
			"old-transcribed.mp4": map[string]any{
				"source":          "house",
				"transcript_path": "/transcripts/old-transcribed.json",
			},
			"old-downloaded.mp4": map[string]any{
				"source": "senate",
			},
		},
	}
	data, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal legacy log: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write legacy log: %v", err)
	}

	store, err := state.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	rec, ok := store.Get("old-transcribed.mp4")
	if !ok || rec.State != state.StatusTranscribed {
		t.Fatalf("transcribed migration = %+v, ok=%v", rec, ok)
	}
	if rec.TranscriptPath != "/transcripts/old-transcribed.json" {
		t.Fatalf("transcript path lost: %q", rec.TranscriptPath)
	}
	rec, ok = store.Get("old-downloaded.mp4")
	if !ok || rec.State != state.StatusDownloaded {
		t.Fatalf("downloaded migration = %+v, ok=%v", rec, ok)
	}

	// Migration must preserve the original file before the first save
	// replaces it.
	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("read migration backup: %v", err)
	}
	if string(backup) != string(data) {
		t.Fatalf("backup differs from original log:\n%s", backup)
	}
}

func TestOpenNormalizesStatusSpelling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execution_log.json")
	doc := `{"videos":{"edited.mp4":{"state":" Downloaded "},"mangled.mp4":{"state":"in-progress"}}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	store, err := state.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	rec, _ := store.Get("edited.mp4")
	if rec.State != state.StatusDownloaded {
		t.Fatalf("edited state = %q, want downloaded", rec.State)
	}
	rec, _ = store.Get("mangled.mp4")
	if rec.State != state.StatusDiscovered {
		t.Fatalf("mangled state = %q, want discovered", rec.State)
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	store, _ := newStore(t)
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}
}

func TestCounts(t *testing.T) {
	store, _ := newStore(t)
	seed := map[string]state.Status{
		"a.mp4": state.StatusTranscribed,
		"b.mp4": state.StatusTranscribed,
		"c.mp4": state.StatusFailed,
	}
	for id, status := range seed {
		if _, err := store.Discover(id, state.Record{State: status}); err != nil {
			t.Fatalf("Discover(%s): %v", id, err)
		}
	}
	counts := store.Counts()
	if counts[state.StatusTranscribed] != 2 || counts[state.StatusFailed] != 1 {
		t.Fatalf("Counts() = %v", counts)
	}
}
