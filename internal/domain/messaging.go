// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// JobScheduler enqueues durable background jobs. Enqueue is fire-and-forget:
// the webhook path never blocks on job execution.
type JobScheduler interface {
	SendTranscriptProcessingJob(ctx context.Context, job models.TranscriptProcessingMessage) error
}

// StatusChangeSender announces committed lifecycle transitions.
type StatusChangeSender interface {
	SendMeetingStatusChanged(ctx context.Context, msg models.MeetingStatusChangedMessage) error
}
