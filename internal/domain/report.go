package domain

import (
	"strings"
	"unicode/utf8"
)

// Outcome labels the reconciliation result for one record.
type Outcome string

const (
	// OutcomeSuccess indicates the record was created or updated.
	OutcomeSuccess Outcome = "success"
	// OutcomeUnchanged indicates local and remote already agree.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeFailure indicates the record could not be reconciled.
	OutcomeFailure Outcome = "failure"
	// OutcomeDeleted indicates the record was removed from the registry.
	OutcomeDeleted Outcome = "deleted"
)

// Failure is one failed record with its (flattened, truncated) error detail.
type Failure struct {
	ID     string
	Detail string
}

// RunReport accumulates the three disjoint outcome buckets of one run.
// It is append-only during the sequential processing loop and never persisted
// between runs.
type RunReport struct {
	RunID     string
	Succeeded []string
	Unchanged []string
	Failed    []Failure
}

func NewRunReport(runID string) *RunReport {
	return &RunReport{RunID: runID}
}

func (r *RunReport) Success(id string) {
	r.Succeeded = append(r.Succeeded, id)
}

func (r *RunReport) Skip(id string) {
	r.Unchanged = append(r.Unchanged, id)
}

func (r *RunReport) Fail(id, detail string) {
	if id == "" {
		id = UnknownToolID
	}
	r.Failed = append(r.Failed, Failure{ID: id, Detail: FlattenDetail(detail)})
}

func (r *RunReport) HasFailures() bool {
	return len(r.Failed) > 0
}

// FlattenDetail collapses an error message to a single line capped at
// MaxFailureDetail characters, so registry error pages cannot blow up logs or
// the failure report.
func FlattenDetail(detail string) string {
	flat := strings.Join(strings.Fields(detail), " ")
	if len(flat) > MaxFailureDetail {
		cut := MaxFailureDetail
		// Back up to a rune boundary so the cap never splits a character.
		for cut > 0 && !utf8.RuneStart(flat[cut]) {
			cut--
		}
		flat = flat[:cut]
	}
	return flat
}
