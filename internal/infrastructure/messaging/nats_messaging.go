// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

// Package messaging publishes service events and durable jobs over NATS.
package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/logging"
)

// INatsConn is the NATS connection interface needed by the message builder.
type INatsConn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
}

// MessageBuilder publishes messages about meetings to NATS.
type MessageBuilder struct {
	NatsConn INatsConn
}

func (m *MessageBuilder) sendMessage(ctx context.Context, subject string, message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshaling message", logging.ErrKey, err, "subject", subject)
		return err
	}

	err = m.NatsConn.Publish(subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "error publishing message", logging.ErrKey, err, "subject", subject)
		return err
	}

	slog.DebugContext(ctx, "published message", "subject", subject)
	return nil
}

// SendTranscriptProcessingJob enqueues a transcript processing job for the
// worker pool. Workers subscribe on a queue group so each job is delivered
// to exactly one worker.
func (m *MessageBuilder) SendTranscriptProcessingJob(ctx context.Context, msg models.TranscriptProcessingMessage) error {
	return m.sendMessage(ctx, models.TranscriptProcessingSubject, msg)
}

// SendMeetingStatusChanged announces a committed meeting status transition
// for any interested downstream consumers.
func (m *MessageBuilder) SendMeetingStatusChanged(ctx context.Context, msg models.MeetingStatusChangedMessage) error {
	return m.sendMessage(ctx, models.MeetingStatusChangedSubject, msg)
}
