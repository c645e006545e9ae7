// Package models holds the results a reconciliation run reports.
package models

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bellsc7/hrsyncad/internal/netcheck"
)

// OutcomeKind is the per-record result of a run.
type OutcomeKind string

const (
	OutcomeUpdated   OutcomeKind = "updated"
	OutcomeNoChanges OutcomeKind = "no-changes"
	OutcomeNotFound  OutcomeKind = "not-found"
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomeError     OutcomeKind = "error"
)

// Outcome describes what happened to one personnel record.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	RecordID int64       `json:"record_id"`
	Label    string      `json:"label"`
	DN       string      `json:"dn,omitempty"`
	// Fields lists the replaced attributes for updated records.
	Fields string `json:"fields,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Line renders the outcome for the run log.
func (o Outcome) Line() string {
	switch o.Kind {
	case OutcomeUpdated:
		return "updated " + o.Label + " [" + o.Fields + "]"
	case OutcomeNoChanges:
		return "no changes for " + o.Label
	case OutcomeNotFound:
		return "not found in directory: " + o.Label
	case OutcomeSkipped:
		return "skipped " + o.Label + ": missing given or family name"
	default:
		return "error updating " + o.Label + ": " + o.Error
	}
}

// FailureClass groups run-level failures.
type FailureClass string

const (
	FailureConnectivity FailureClass = "connectivity"
	FailureProtocol     FailureClass = "protocol"
	FailureStorage      FailureClass = "storage"
	FailureUnexpected   FailureClass = "unexpected"
)

// RunFailure is why a run ended in the failed state.
type RunFailure struct {
	Class   FailureClass `json:"class"`
	Message string       `json:"message"`
}

// Result is returned for every run, successful or not.
type Result struct {
	RunID         uuid.UUID        `json:"run_id"`
	Success       bool             `json:"success"`
	UpdatedCount  int              `json:"updated_count"`
	NotFoundCount int              `json:"not_found_count"`
	SkippedCount  int              `json:"skipped_count"`
	ErrorCount    int              `json:"error_count"`
	NoChangeCount int              `json:"no_change_count"`
	LogMessages   []string         `json:"log_messages"`
	Outcomes      []Outcome        `json:"-"`
	Failure       *RunFailure      `json:"error,omitempty"`
	Diagnostics   *netcheck.Report `json:"diagnostics,omitempty"`
}

// Record appends an outcome and bumps the matching counter.
func (r *Result) Record(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.LogMessages = append(r.LogMessages, o.Line())
	switch o.Kind {
	case OutcomeUpdated:
		r.UpdatedCount++
	case OutcomeNoChanges:
		r.NoChangeCount++
	case OutcomeNotFound:
		r.NotFoundCount++
	case OutcomeSkipped:
		r.SkippedCount++
	case OutcomeError:
		r.ErrorCount++
	}
}

// Summary is the one-line message stored on the run record.
func (r *Result) Summary() string {
	if r.Failure != nil {
		return "sync failed (" + string(r.Failure.Class) + "): " + r.Failure.Message
	}
	return summaryCounts(r)
}

func summaryCounts(r *Result) string {
	return fmt.Sprintf("sync completed: %d updated, %d unchanged, %d not found, %d skipped, %d errors",
		r.UpdatedCount, r.NoChangeCount, r.NotFoundCount, r.SkippedCount, r.ErrorCount)
}
