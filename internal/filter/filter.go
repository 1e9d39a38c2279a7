// Package filter decides which discovered candidates enter the pipeline on
// this run. The date cutoff drops videos at or before the configured
// after_date; the state check drops videos a previous run already settled
// unless the operator forces reprocessing.
package filter

import (
	"time"

	"gavel/internal/sources"
	"gavel/internal/state"
)

// Decision explains why a candidate was excluded.
type Decision string

const (
	DecisionEligible       Decision = "eligible"
	DecisionBeforeCutoff   Decision = "before_cutoff"
	DecisionAlreadySettled Decision = "already_settled"
)

// Filter applies cutoff and resume rules to candidates.
type Filter struct {
	cutoff    time.Time
	hasCutoff bool
	force     bool
}

// New builds a filter. A zero cutoff disables the date rule; force disables
// the settled-state rule.
func New(cutoff time.Time, hasCutoff, force bool) *Filter {
	return &Filter{cutoff: cutoff, hasCutoff: hasCutoff, force: force}
}

// Check classifies one candidate against its current record. The cutoff is
// exclusive: a video dated exactly on after_date is skipped. Videos with no
// parseable date always pass the date rule.
func (f *Filter) Check(candidate sources.Candidate, rec state.Record, tracked bool) Decision {
	if f.hasCutoff && candidate.Date != sources.UnknownDate && candidate.Date != "" {
		videoDate, err := time.Parse("2006-01-02", candidate.Date)
		if err == nil && !videoDate.After(f.cutoff) {
			return DecisionBeforeCutoff
		}
	}
	if !f.force && tracked && rec.State.IsSettled() {
		return DecisionAlreadySettled
	}
	return DecisionEligible
}
