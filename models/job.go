package models

import (
	"encoding/json"
	"time"
)

// JobStatus represents the current state of a job in the system
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// AnalysisJob represents a job for analyzing a meeting transcript
type AnalysisJob struct {
	ID             string          `json:"id"`
	SourceFile     string          `json:"source_file"`
	OwnerID        string          `json:"owner_id,omitempty"`
	ProjectID      string          `json:"project_id,omitempty"`
	Status         JobStatus       `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	StartedAt      time.Time       `json:"started_at,omitempty"`
	CompletedAt    time.Time       `json:"completed_at,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	ProcessingNode string          `json:"processing_node,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
}

// JobUpdate is the frame sent over the status channel. The first frame a
// subscriber receives is a snapshot of the job's current state, so a
// subscriber that attaches after the job finished still sees the terminal
// status.
type JobUpdate struct {
	Type      string          `json:"type"`
	JobID     string          `json:"job_id"`
	Status    JobStatus       `json:"status"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// UpdateForJob builds the status-channel frame for a job's current state.
func UpdateForJob(job *AnalysisJob) JobUpdate {
	update := JobUpdate{
		Type:      "job_update",
		JobID:     job.ID,
		Status:    job.Status,
		Timestamp: time.Now(),
	}

	if job.Status == StatusFailed && job.ErrorMessage != "" {
		update.Error = job.ErrorMessage
	}
	if job.Status == StatusCompleted && job.Result != nil {
		update.Result = job.Result
	}

	return update
}
