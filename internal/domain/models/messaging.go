// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"time"
)

// NATS subjects owned by the meeting service.
const (
	// TranscriptProcessingSubject carries durable transcript processing jobs
	// from the webhook path to the pipeline worker.
	TranscriptProcessingSubject = "agentmeet.jobs.transcript-processing"

	// TranscriptProcessingQueue is the queue group for pipeline workers so a
	// job is delivered to exactly one worker instance.
	TranscriptProcessingQueue = "agentmeet-transcript-workers"

	// MeetingStatusChangedSubject announces lifecycle transitions for
	// downstream consumers (dashboards, notifications).
	MeetingStatusChangedSubject = "agentmeet.meetings.status-changed"
)

// TranscriptProcessingMessage is the job payload enqueued when a meeting's
// transcript becomes available.
type TranscriptProcessingMessage struct {
	JobID         string    `json:"job_id"`
	MeetingUID    string    `json:"meeting_uid"`
	TranscriptURL string    `json:"transcript_url"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
}

// MeetingStatusChangedMessage announces a committed lifecycle transition.
type MeetingStatusChangedMessage struct {
	MeetingUID string        `json:"meeting_uid"`
	OldStatus  MeetingStatus `json:"old_status"`
	NewStatus  MeetingStatus `json:"new_status"`
	OccurredAt time.Time     `json:"occurred_at"`
	Tags       []string      `json:"tags,omitempty"`
}

// PipelineState is the durable per-meeting execution record of the
// transcript processing pipeline. Completed step outputs are cached so a
// retried job resumes after the last completed step instead of restarting.
type PipelineState struct {
	JobID         string                     `json:"job_id"`
	MeetingUID    string                     `json:"meeting_uid"`
	TranscriptURL string                     `json:"transcript_url"`
	Steps         map[string]json.RawMessage `json:"steps,omitempty"`
	Attempts      int                        `json:"attempts"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// StepOutput returns the cached output for a step, if present.
func (p *PipelineState) StepOutput(step string) (json.RawMessage, bool) {
	if p.Steps == nil {
		return nil, false
	}
	out, ok := p.Steps[step]
	return out, ok
}

// SetStepOutput caches the output for a completed step.
func (p *PipelineState) SetStepOutput(step string, output json.RawMessage) {
	if p.Steps == nil {
		p.Steps = make(map[string]json.RawMessage)
	}
	p.Steps[step] = output
}
