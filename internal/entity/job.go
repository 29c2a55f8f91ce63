package entity

import (
	"encoding/json"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether a job in this status will not be picked up
// by a run loop again.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one article to generate within a batch.
// Error is set iff Status is failed, Result iff Status is completed.
type Job struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	Index      int             `json:"index"`
	Status     JobStatus       `json:"status"`
	Progress   int             `json:"progress"`
	RetryCount int             `json:"retryCount"`
	Error      *string         `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}
