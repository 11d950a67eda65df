// Package queue runs resume analysis jobs received over AMQP and publishes
// their progress and results.
package queue

import (
	"time"

	"resumescore/internal/types"
)

// Status of a job as published on the updates exchange.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job is an analysis request. Either Text or ObjectKey must be set; objects
// are decoded according to ContentType or the extension of FileName.
type Job struct {
	ID          string `json:"id"`
	UserID      string `json:"userId,omitempty"`
	TargetRole  string `json:"targetRole"`
	Text        string `json:"text,omitempty"`
	ObjectKey   string `json:"objectKey,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	FileName    string `json:"fileName,omitempty"`
}

// Update reports a job's progress.
type Update struct {
	JobID     string                `json:"jobId"`
	UserID    string                `json:"userId,omitempty"`
	Status    Status                `json:"status"`
	Report    *types.AnalysisReport `json:"report,omitempty"`
	ErrorCode string                `json:"errorCode,omitempty"`
	Error     string                `json:"error,omitempty"`
	Time      time.Time             `json:"time"`
}

// RoutingKey is the updates exchange routing key for a job.
func RoutingKey(jobID string) string {
	return "analysis." + jobID
}
