package state_test

import (
	"testing"

	"gavel/internal/state"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want state.Status
		ok   bool
	}{
		{"downloaded", state.StatusDownloaded, true},
		{" Transcribed ", state.StatusTranscribed, true},
		{"SKIPPED", state.StatusSkipped, true},
		{"encoding", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := state.ParseStatus(tc.raw)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	if !state.StatusDownloading.IsTransient() || state.StatusDownloaded.IsTransient() {
		t.Fatal("transient predicate wrong")
	}
	if !state.StatusDownloaded.IsSettled() || !state.StatusTranscribed.IsSettled() {
		t.Fatal("settled predicate wrong")
	}
	if state.StatusFailed.IsSettled() || state.StatusSkipped.IsSettled() {
		t.Fatal("failed/skipped must re-enter the pipeline on rerun")
	}
}
