package state

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a tracked video.
type Status string

const (
	StatusDiscovered   Status = "discovered"
	StatusDownloading  Status = "downloading"
	StatusDownloaded   Status = "downloaded"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusSkipped      Status = "skipped"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusDiscovered,
	StatusDownloading,
	StatusDownloaded,
	StatusTranscribing,
	StatusTranscribed,
	StatusSkipped,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Transient statuses mark work that was interrupted mid-stage. A rerun
// resumes these rather than treating them as finished.
var transientStatuses = map[Status]struct{}{
	StatusDownloading:  {},
	StatusTranscribing: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus normalizes raw input into a known Status.
func ParseStatus(raw string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := statusSet[candidate]
	return candidate, ok
}

// IsKnown reports whether the status is one of the defined lifecycle states.
func (s Status) IsKnown() bool {
	_, ok := statusSet[s]
	return ok
}

// IsTransient reports whether the status marks interrupted in-flight work.
func (s Status) IsTransient() bool {
	_, ok := transientStatuses[s]
	return ok
}

// IsSettled reports whether a video needs no further acquisition work.
// Settled videos are skipped on later runs unless forced.
func (s Status) IsSettled() bool {
	return s == StatusDownloaded || s == StatusTranscribed
}

func (s Status) String() string {
	return string(s)
}

// Record describes everything tracked about one video across runs.
type Record struct {
	State          Status   `json:"state"`
	Source         string   `json:"source,omitempty"`
	Title          string   `json:"title,omitempty"`
	Category       string   `json:"category,omitempty"`
	VideoDate      string   `json:"video_date,omitempty"`
	URL            string   `json:"url,omitempty"`
	VideoPath      string   `json:"video_path,omitempty"`
	TranscriptPath string   `json:"transcript_path,omitempty"`
	FinalPath      string   `json:"final_path,omitempty"`
	ReadablePath   string   `json:"readable_path,omitempty"`
	S3Key          string   `json:"s3_key,omitempty"`
	Uploaded       bool     `json:"uploaded,omitempty"`
	QCScore        *float64 `json:"qc_score,omitempty"`
	QCPassed       *bool    `json:"qc_passed,omitempty"`
	Error          string   `json:"error,omitempty"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
}

// Patch carries partial updates to a Record. Nil fields are left unchanged.
type Patch struct {
	State          *Status
	Title          *string
	Category       *string
	VideoDate      *string
	URL            *string
	VideoPath      *string
	TranscriptPath *string
	FinalPath      *string
	ReadablePath   *string
	S3Key          *string
	Uploaded       *bool
	QCScore        *float64
	QCPassed       *bool
	Error          *string
}

func (p Patch) apply(rec *Record) {
	if p.State != nil {
		rec.State = *p.State
	}
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.Category != nil {
		rec.Category = *p.Category
	}
	if p.VideoDate != nil {
		rec.VideoDate = *p.VideoDate
	}
	if p.URL != nil {
		rec.URL = *p.URL
	}
	if p.VideoPath != nil {
		rec.VideoPath = *p.VideoPath
	}
	if p.TranscriptPath != nil {
		rec.TranscriptPath = *p.TranscriptPath
	}
	if p.FinalPath != nil {
		rec.FinalPath = *p.FinalPath
	}
	if p.ReadablePath != nil {
		rec.ReadablePath = *p.ReadablePath
	}
	if p.S3Key != nil {
		rec.S3Key = *p.S3Key
	}
	if p.Uploaded != nil {
		rec.Uploaded = *p.Uploaded
	}
	if p.QCScore != nil {
		rec.QCScore = p.QCScore
	}
	if p.QCPassed != nil {
		rec.QCPassed = p.QCPassed
	}
	if p.Error != nil {
		rec.Error = *p.Error
	}
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// StatusPtr is a convenience for building Patch literals.
func StatusPtr(s Status) *Status { return &s }

// StringPtr is a convenience for building Patch literals.
func StringPtr(s string) *string { return &s }

// BoolPtr is a convenience for building Patch literals.
func BoolPtr(b bool) *bool { return &b }

// Float64Ptr is a convenience for building Patch literals.
func Float64Ptr(f float64) *float64 { return &f }
