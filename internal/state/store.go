package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"gavel/internal/fileutil"
)

// ErrNotFound is returned when an identifier has no record in the log.
var ErrNotFound = errors.New("video not tracked")

// ErrUnknownStatus is returned when a mutation carries a status outside the
// defined lifecycle. Unknown values in a loaded log are normalized instead,
// so a hand-edited file never wedges the pipeline.
var ErrUnknownStatus = errors.New("unknown status")

// Store owns the execution log. All mutations are serialized and persisted
// before the mutating call returns, so the on-disk log never lags the
// in-memory view by more than one atomic replace.
type Store struct {
	mu       sync.Mutex
	path     string
	testMode bool
	videos   map[string]Record
}

type logDocument struct {
	Videos map[string]Record `json:"videos"`

	// ProcessedVideos is the pre-1.0 log layout, migrated on load.
	ProcessedVideos map[string]legacyEntry `json:"processed_videos,omitempty"`
}

type legacyEntry struct {
	Source         string `json:"source,omitempty"`
	Title          string `json:"title,omitempty"`
	VideoDate      string `json:"video_date,omitempty"`
	URL            string `json:"url,omitempty"`
	VideoPath      string `json:"video_path,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
}

// Option customizes store construction.
type Option func(*Store)

// WithTestMode disables persistence: mutations stay in memory and the log
// file on disk is never touched.
func WithTestMode(enabled bool) Option {
	return func(s *Store) {
		s.testMode = enabled
	}
}

// Open loads the execution log at path, creating an empty store when the
// file does not exist yet. Logs written by the pre-1.0 layout are migrated
// in place on first save.
func Open(path string, opts ...Option) (*Store, error) {
	store := &Store{
		path:   path,
		videos: make(map[string]Record),
	}
	for _, opt := range opts {
		opt(store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read execution log: %w", err)
	}
	if len(data) == 0 {
		return store, nil
	}

	var doc logDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse execution log: %w", err)
	}
	if doc.Videos != nil {
		store.videos = doc.Videos
	}
	if len(doc.ProcessedVideos) > 0 {
		// Keep the pre-1.0 file around until the migrated layout has
		// proven itself; the first save overwrites the original.
		if err := fileutil.CopyFile(path, path+".bak"); err != nil {
			return nil, fmt.Errorf("back up legacy execution log: %w", err)
		}
	}
	store.migrateLegacy(doc.ProcessedVideos)
	store.normalizeLoaded()
	return store, nil
}

// migrateLegacy folds pre-1.0 entries into the current layout. A legacy
// entry with a transcript path has finished the pipeline; anything else had
// at most been downloaded.
func (s *Store) migrateLegacy(legacy map[string]legacyEntry) {
	for identifier, entry := range legacy {
		if _, exists := s.videos[identifier]; exists {
			continue
		}
		status := StatusDownloaded
		if entry.TranscriptPath != "" {
			status = StatusTranscribed
		}
		s.videos[identifier] = Record{
			State:          status,
			Source:         entry.Source,
			Title:          entry.Title,
			VideoDate:      entry.VideoDate,
			URL:            entry.URL,
			VideoPath:      entry.VideoPath,
			TranscriptPath: entry.TranscriptPath,
		}
	}
}

// normalizeLoaded repairs records from hand-edited or corrupted logs:
// recognizable status spellings are normalized, anything else falls back to
// discovered so the video is reprocessed rather than stuck.
func (s *Store) normalizeLoaded() {
	for identifier, rec := range s.videos {
		if rec.State.IsKnown() {
			continue
		}
		if parsed, ok := ParseStatus(string(rec.State)); ok {
			rec.State = parsed
		} else {
			rec.State = StatusDiscovered
		}
		s.videos[identifier] = rec
	}
}

// Path returns the execution log location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the record for identifier.
func (s *Store) Get(identifier string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.videos[identifier]
	return rec, ok
}

// Discover records a newly found video unless it is already tracked. The
// second return reports whether a new record was created.
func (s *Store) Discover(identifier string, rec Record) (bool, error) {
	if rec.State == "" {
		rec.State = StatusDiscovered
	}
	if !rec.State.IsKnown() {
		return false, fmt.Errorf("discover %s: %w %q", identifier, ErrUnknownStatus, rec.State)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.videos[identifier]; exists {
		return false, nil
	}
	rec.UpdatedAt = nowStamp()
	s.videos[identifier] = rec
	return true, s.persistLocked()
}

// SetState transitions identifier to status.
func (s *Store) SetState(identifier string, status Status) error {
	return s.Update(identifier, Patch{State: &status})
}

// Update applies a partial patch to an existing record. A patch carrying
// an unknown status is rejected before anything is written.
func (s *Store) Update(identifier string, patch Patch) error {
	if patch.State != nil && !patch.State.IsKnown() {
		return fmt.Errorf("update %s: %w %q", identifier, ErrUnknownStatus, *patch.State)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.videos[identifier]
	if !ok {
		return fmt.Errorf("update %s: %w", identifier, ErrNotFound)
	}
	patch.apply(&rec)
	rec.UpdatedAt = nowStamp()
	s.videos[identifier] = rec
	return s.persistLocked()
}

// ListByStatus returns identifiers in the given statuses, sorted for
// deterministic processing order.
func (s *Store) ListByStatus(statuses ...Status) []string {
	want := make(map[Status]struct{}, len(statuses))
	for _, status := range statuses {
		want[status] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for identifier, rec := range s.videos {
		if _, ok := want[rec.State]; ok {
			out = append(out, identifier)
		}
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of every tracked record.
func (s *Store) Snapshot() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Record, len(s.videos))
	for identifier, rec := range s.videos {
		out[identifier] = rec
	}
	return out
}

// Counts aggregates record totals per status.
func (s *Store) Counts() map[Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Status]int, len(allStatuses))
	for _, rec := range s.videos {
		out[rec.State]++
	}
	return out
}

// Len reports how many videos are tracked.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.videos)
}

func (s *Store) persistLocked() error {
	if s.testMode {
		return nil
	}
	doc := logDocument{Videos: s.videos}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode execution log: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("persist execution log: %w", err)
	}
	return nil
}
