// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/logging"
)

// TerminationService decides when a departing participant should end the
// call. The policy: the meeting ends when its owner leaves, or when no human
// participants remain (a call kept alive only by the agent is pointless and
// billable).
type TerminationService struct {
	meetingRepo domain.MeetingRepository
	agentRepo   domain.AgentRepository
	platform    domain.VideoPlatform
	lifecycle   *MeetingLifecycleService
}

// NewTerminationService creates a termination service.
func NewTerminationService(
	meetingRepo domain.MeetingRepository,
	agentRepo domain.AgentRepository,
	platform domain.VideoPlatform,
	lifecycle *MeetingLifecycleService,
) *TerminationService {
	return &TerminationService{
		meetingRepo: meetingRepo,
		agentRepo:   agentRepo,
		platform:    platform,
		lifecycle:   lifecycle,
	}
}

// HandleParticipantLeft applies the termination policy for a departure.
// Departures from meetings that are not active are expected races with the
// call-ended event and are ignored.
func (s *TerminationService) HandleParticipantLeft(ctx context.Context, meetingUID, departedUserID string) error {
	meeting, err := s.meetingRepo.GetMeeting(ctx, meetingUID)
	if err != nil {
		return err
	}

	if meeting.Status != models.MeetingStatusActive {
		return domain.NewGuardFailedError("participant left a meeting that is not active")
	}

	if departedUserID != "" && departedUserID == meeting.UserUID {
		slog.InfoContext(ctx, "meeting owner left, ending call",
			"meeting_uid", meetingUID, "user_uid", departedUserID)
		return s.terminate(ctx, meeting)
	}

	humans, err := s.countHumans(ctx, meeting)
	if err != nil {
		// The roster is best effort. If it cannot be read, leave the call
		// alone; the owner-left rule or the call-ended webhook will still
		// close the meeting.
		slog.WarnContext(ctx, "roster check failed, leaving call running",
			logging.ErrKey, err, "meeting_uid", meetingUID)
		return nil
	}

	if humans > 0 {
		slog.DebugContext(ctx, "humans still in call", "meeting_uid", meetingUID, "human_count", humans)
		return nil
	}

	slog.InfoContext(ctx, "no human participants remain, ending call", "meeting_uid", meetingUID)
	return s.terminate(ctx, meeting)
}

// countHumans fetches the live roster and counts participants that are not
// known agents.
func (s *TerminationService) countHumans(ctx context.Context, meeting *models.Meeting) (int, error) {
	state, err := s.platform.GetCallState(ctx, meeting.UID)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(state.Participants))
	for _, p := range state.Participants {
		ids = append(ids, p.UserID)
	}

	agents, err := s.agentRepo.GetAgentsByUIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	agentIDs := make(map[string]bool, len(agents))
	for _, agent := range agents {
		agentIDs[agent.UID] = true
	}

	humans := 0
	for _, p := range state.Participants {
		if !agentIDs[p.UserID] {
			humans++
		}
	}

	return humans, nil
}

// terminate ends the call and moves the meeting to processing. EndCall
// failures are logged but do not block the transition: the platform will
// tear the session down on its own once empty, and the meeting must not
// stay active forever.
func (s *TerminationService) terminate(ctx context.Context, meeting *models.Meeting) error {
	if err := s.platform.EndCall(ctx, meeting.UID); err != nil {
		slog.ErrorContext(ctx, "failed to end call, proceeding with transition",
			logging.ErrKey, err, "meeting_uid", meeting.UID)
	}

	return s.lifecycle.MarkProcessing(ctx, meeting.UID)
}
