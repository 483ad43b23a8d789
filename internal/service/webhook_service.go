// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

// Package service implements the meeting lifecycle business logic.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/logging"
)

// WebhookRequest is a received video platform webhook delivery.
type WebhookRequest struct {
	// Signature is the value of the signature header.
	Signature string
	// Body is the raw request body the signature was computed over.
	Body []byte
}

// WebhookService validates and dispatches incoming platform webhook events.
// Dispatch is synchronous: the HTTP response reflects the outcome of the
// event's processing so the platform can retry failed deliveries.
type WebhookService struct {
	validator   domain.WebhookValidator
	correlation *CorrelationService
	lifecycle   *MeetingLifecycleService
	termination *TerminationService
	chat        *ChatService

	eventHandlers map[string]func(ctx context.Context, event models.VideoWebhookEventMessage) error
}

// NewWebhookService creates a webhook service.
func NewWebhookService(
	validator domain.WebhookValidator,
	correlation *CorrelationService,
	lifecycle *MeetingLifecycleService,
	termination *TerminationService,
	chat *ChatService,
) *WebhookService {
	s := &WebhookService{
		validator:   validator,
		correlation: correlation,
		lifecycle:   lifecycle,
		termination: termination,
		chat:        chat,
	}

	s.eventHandlers = map[string]func(ctx context.Context, event models.VideoWebhookEventMessage) error{
		models.EventTypeCallSessionStarted:         s.handleSessionStarted,
		models.EventTypeCallSessionParticipantLeft: s.handleParticipantLeft,
		models.EventTypeCallEnded:                  s.handleCallEnded,
		models.EventTypeCallTranscriptionReady:     s.handleTranscriptionReady,
		models.EventTypeCallRecordingReady:         s.handleRecordingReady,
		models.EventTypeMessageNew:                 s.handleMessageNew,
	}

	return s
}

// ServiceReady checks if the service is ready to process webhook events.
func (s *WebhookService) ServiceReady() bool {
	return s.validator != nil &&
		s.correlation != nil &&
		s.lifecycle != nil &&
		s.termination != nil &&
		s.chat != nil
}

// eventEnvelope is the minimal shape needed to route an event.
type eventEnvelope struct {
	Type string `json:"type"`
}

// HandleWebhookEvent validates the delivery and routes the event to its
// handler. Unknown and informational event types are acknowledged without
// processing so the platform does not retry them.
func (s *WebhookService) HandleWebhookEvent(ctx context.Context, req WebhookRequest) error {
	if !s.ServiceReady() {
		return domain.NewUnavailableError("webhook service is not ready")
	}

	if err := s.validator.ValidateSignature(req.Body, req.Signature); err != nil {
		slog.WarnContext(ctx, "webhook signature validation failed", logging.ErrKey, err)
		return err
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(req.Body, &envelope); err != nil {
		return domain.NewValidationError("invalid webhook payload", err)
	}
	if envelope.Type == "" {
		return domain.NewValidationError("webhook payload missing event type")
	}

	ctx = logging.AppendCtx(ctx, slog.String("event_type", envelope.Type))

	if models.InformationalEventTypes[envelope.Type] {
		slog.DebugContext(ctx, "acknowledged informational event")
		return nil
	}

	handler, ok := s.eventHandlers[envelope.Type]
	if !ok {
		slog.InfoContext(ctx, "acknowledged unhandled event type")
		return nil
	}

	event := models.VideoWebhookEventMessage{
		EventType:  envelope.Type,
		ReceivedAt: time.Now().UnixMilli(),
		Payload:    req.Body,
	}

	err := handler(ctx, event)
	if err != nil && domain.GetErrorType(err) == domain.ErrorTypeGuardFailed {
		// An expected race (duplicate delivery, out-of-order event). Log and
		// acknowledge so the platform does not retry.
		slog.InfoContext(ctx, "event ignored by transition guard", logging.ErrKey, err)
		return nil
	}

	return err
}

func (s *WebhookService) handleSessionStarted(ctx context.Context, event models.VideoWebhookEventMessage) error {
	payload, err := event.ToCallSessionStartedPayload()
	if err != nil {
		return domain.NewValidationError("invalid session started payload", err)
	}

	meetingUID := payload.Call.Custom.MeetingID
	if meetingUID == "" {
		return domain.NewValidationError("session started event carries no meeting identifier")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))

	return s.lifecycle.HandleSessionStarted(ctx, meetingUID)
}

func (s *WebhookService) handleCallEnded(ctx context.Context, event models.VideoWebhookEventMessage) error {
	payload, err := event.ToCallEndedPayload()
	if err != nil {
		return domain.NewValidationError("invalid call ended payload", err)
	}

	meetingUID := payload.Call.Custom.MeetingID
	if meetingUID == "" {
		return domain.NewValidationError("call ended event carries no meeting identifier")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))

	return s.lifecycle.MarkProcessing(ctx, meetingUID)
}

func (s *WebhookService) handleParticipantLeft(ctx context.Context, event models.VideoWebhookEventMessage) error {
	payload, err := event.ToCallSessionParticipantLeftPayload()
	if err != nil {
		return domain.NewValidationError("invalid participant left payload", err)
	}

	meetingUID, err := s.correlation.ResolveParticipantLeft(ctx, payload.CallCID)
	if err != nil {
		return err
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))

	return s.termination.HandleParticipantLeft(ctx, meetingUID, payload.Participant.User.ID)
}

func (s *WebhookService) handleTranscriptionReady(ctx context.Context, event models.VideoWebhookEventMessage) error {
	payload, err := event.ToCallTranscriptionReadyPayload()
	if err != nil {
		return domain.NewValidationError("invalid transcription ready payload", err)
	}
	if payload.CallTranscription.URL == "" {
		return domain.NewValidationError("transcription ready event carries no transcript URL")
	}

	meetingUID, err := s.correlation.ResolveTranscriptionReady(ctx, payload.CallCID)
	if err != nil {
		return err
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))

	return s.lifecycle.HandleTranscriptionReady(ctx, meetingUID, payload.CallTranscription.URL)
}

func (s *WebhookService) handleRecordingReady(ctx context.Context, event models.VideoWebhookEventMessage) error {
	payload, err := event.ToCallRecordingReadyPayload()
	if err != nil {
		return domain.NewValidationError("invalid recording ready payload", err)
	}
	if payload.CallRecording.URL == "" {
		return domain.NewValidationError("recording ready event carries no recording URL")
	}

	meetingUID, err := s.correlation.ResolveRecordingReady(ctx, payload.CallCID)
	if err != nil {
		return err
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))

	return s.lifecycle.HandleRecordingReady(ctx, meetingUID, payload.CallRecording.URL)
}

func (s *WebhookService) handleMessageNew(ctx context.Context, event models.VideoWebhookEventMessage) error {
	payload, err := event.ToMessageNewPayload()
	if err != nil {
		return domain.NewValidationError("invalid new message payload", err)
	}

	return s.chat.HandleMessageNew(ctx, payload)
}
