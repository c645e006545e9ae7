// Package models defines the persisted record of a reconciliation run.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// KindDirectory tags runs that reconcile against the directory.
const KindDirectory = "ad"

type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Run is one reconciliation attempt. It is created running and finalized once.
type Run struct {
	ID            uuid.UUID       `json:"id"`
	Kind          string          `json:"sync_type"`
	Status        Status          `json:"status"`
	TriggeredBy   string          `json:"triggered_by,omitempty"`
	StartedAt     time.Time       `json:"start_time"`
	EndedAt       *time.Time      `json:"end_time,omitempty"`
	UpdatedCount  int             `json:"updated_count"`
	NotFoundCount int             `json:"not_found_count"`
	SkippedCount  int             `json:"skipped_count"`
	ErrorCount    int             `json:"error_count"`
	Message       string          `json:"message,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
}

// IsFinal reports whether the run has left the running state.
func (r *Run) IsFinal() bool {
	return r.Status != StatusRunning
}

// Duration is the wall time of a finished run, or zero.
func (r *Run) Duration() time.Duration {
	if r.EndedAt == nil {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// FinalState is what a run is finalized with.
type FinalState struct {
	Status        Status
	UpdatedCount  int
	NotFoundCount int
	SkippedCount  int
	ErrorCount    int
	Message       string
	ErrorMessage  string
	// Details is marshalled to JSON: the outcome log or a diagnostics report.
	Details any
}
