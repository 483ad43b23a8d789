// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

// Package handlers routes incoming NATS messages to the services.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/logging"
	"github.com/agentmeet/meeting-service/internal/service"
)

// TranscriptJobHandler consumes transcript processing jobs from the work
// queue and runs them through the pipeline.
type TranscriptJobHandler struct {
	pipeline *service.TranscriptPipeline
	handlers map[string]func(ctx context.Context, msg domain.Message)
}

// NewTranscriptJobHandler creates a transcript job handler.
func NewTranscriptJobHandler(pipeline *service.TranscriptPipeline) *TranscriptJobHandler {
	h := &TranscriptJobHandler{
		pipeline: pipeline,
	}
	h.handlers = map[string]func(ctx context.Context, msg domain.Message){
		models.TranscriptProcessingSubject: h.handleTranscriptJob,
	}
	return h
}

// HandlerReady checks if the handler is ready to process messages.
func (h *TranscriptJobHandler) HandlerReady() bool {
	return h.pipeline != nil && h.pipeline.ServiceReady()
}

// HandleMessage implements domain.MessageHandler.
func (h *TranscriptJobHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))

	handler, ok := h.handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		return
	}

	handler(ctx, msg)
}

func (h *TranscriptJobHandler) handleTranscriptJob(ctx context.Context, msg domain.Message) {
	var job models.TranscriptProcessingMessage
	if err := json.Unmarshal(msg.Data(), &job); err != nil {
		slog.ErrorContext(ctx, "invalid transcript job payload", logging.ErrKey, err)
		return
	}

	if err := h.pipeline.Run(ctx, job); err != nil {
		// The pipeline is resumable; a failed run leaves its completed steps
		// cached and the meeting in processing, where the cleanup sweep can
		// see it. Nothing useful to NAK here on a core NATS queue.
		slog.ErrorContext(ctx, "transcript pipeline run failed", logging.ErrKey, err,
			"meeting_uid", job.MeetingUID, "job_id", job.JobID)
		return
	}
}
