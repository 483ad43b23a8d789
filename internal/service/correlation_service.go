// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/logging"
)

// CorrelationService resolves webhook events to meetings. Session lifecycle
// events embed the meeting UID in the call's custom metadata; participant,
// transcription, and recording events carry only a call CID, so resolution
// goes through the platform's call state. Participant and transcription
// events additionally fall back to a single-candidate status heuristic
// against the store when the call state lookup fails.
type CorrelationService struct {
	meetingRepo domain.MeetingRepository
	platform    domain.VideoPlatform
}

// NewCorrelationService creates a correlation service.
func NewCorrelationService(meetingRepo domain.MeetingRepository, platform domain.VideoPlatform) *CorrelationService {
	return &CorrelationService{
		meetingRepo: meetingRepo,
		platform:    platform,
	}
}

// ResolveParticipantLeft resolves a participant-left event to a meeting UID.
// Falls back to the single active meeting when call state is unavailable.
func (s *CorrelationService) ResolveParticipantLeft(ctx context.Context, callCID string) (string, error) {
	return s.resolve(ctx, callCID, models.MeetingStatusActive)
}

// ResolveTranscriptionReady resolves a transcription-ready event to a meeting
// UID. Falls back to the single processing meeting, since by the time a
// transcript is exported the meeting has already left the call.
func (s *CorrelationService) ResolveTranscriptionReady(ctx context.Context, callCID string) (string, error) {
	return s.resolve(ctx, callCID, models.MeetingStatusProcessing)
}

// ResolveRecordingReady resolves a recording-ready event to a meeting UID
// via the platform's call state only. Recordings can land long after the
// meeting left any predictable status, so there is no store fallback: an
// event whose call state does not echo the meeting identifier is rejected.
func (s *CorrelationService) ResolveRecordingReady(ctx context.Context, callCID string) (string, error) {
	callID := models.CallIDFromCID(callCID)
	if callID == "" {
		return "", domain.NewValidationError("event carries no call identifier")
	}

	state, err := s.platform.GetCallState(ctx, callID)
	if err != nil {
		slog.WarnContext(ctx, "call state lookup failed for recording event",
			logging.ErrKey, err, "call_id", callID)
		return "", domain.NewValidationError("cannot resolve meeting for recording event", err)
	}
	if state.MeetingUID == "" {
		return "", domain.NewValidationError("call state carries no meeting identifier")
	}

	return state.MeetingUID, nil
}

func (s *CorrelationService) resolve(ctx context.Context, callCID string, fallbackStatus models.MeetingStatus) (string, error) {
	callID := models.CallIDFromCID(callCID)
	if callID == "" {
		return "", domain.NewValidationError("event carries no call identifier")
	}

	state, err := s.platform.GetCallState(ctx, callID)
	if err == nil && state.MeetingUID != "" {
		return state.MeetingUID, nil
	}
	if err != nil {
		slog.WarnContext(ctx, "call state lookup failed, falling back to status heuristic",
			logging.ErrKey, err, "call_id", callID)
	} else {
		slog.WarnContext(ctx, "call state carries no meeting identifier, falling back to status heuristic",
			"call_id", callID)
	}

	return s.fallbackByStatus(ctx, fallbackStatus)
}

// fallbackByStatus resolves to the single meeting in the given status.
// Zero candidates and more than one are both rejected as unresolvable,
// since guessing could attach a transcript to the wrong meeting.
func (s *CorrelationService) fallbackByStatus(ctx context.Context, status models.MeetingStatus) (string, error) {
	candidates, err := s.meetingRepo.ListMeetingsByStatus(ctx, status)
	if err != nil {
		return "", err
	}

	switch len(candidates) {
	case 0:
		return "", domain.NewValidationError(
			fmt.Sprintf("cannot correlate event: no meetings in status %s", status))
	case 1:
		slog.InfoContext(ctx, "resolved event via status heuristic",
			"meeting_uid", candidates[0].UID, "status", string(status))
		return candidates[0].UID, nil
	default:
		sortByRecency(candidates, status)
		slog.WarnContext(ctx, "ambiguous correlation, multiple candidate meetings",
			"status", string(status), "candidate_count", len(candidates),
			"most_recent", candidates[0].UID)
		return "", domain.NewValidationError(
			fmt.Sprintf("cannot correlate event: %d meetings in status %s", len(candidates), status))
	}
}

// sortByRecency orders candidates newest first for logging: active meetings
// by start time, processing meetings by end time.
func sortByRecency(meetings []*models.Meeting, status models.MeetingStatus) {
	sort.Slice(meetings, func(i, j int) bool {
		return recencyTime(meetings[i], status).After(recencyTime(meetings[j], status))
	})
}

func recencyTime(m *models.Meeting, status models.MeetingStatus) time.Time {
	if status == models.MeetingStatusProcessing {
		if m.EndedAt != nil {
			return *m.EndedAt
		}
		return time.Time{}
	}
	if m.StartedAt != nil {
		return *m.StartedAt
	}
	return time.Time{}
}
