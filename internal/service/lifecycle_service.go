// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/logging"
)

// maxTransitionAttempts bounds the CAS retry loop for guarded transitions.
// Webhook deliveries for the same meeting rarely race more than once.
const maxTransitionAttempts = 3

// MeetingLifecycleService owns the meeting state machine. Every transition
// is guarded: the current status is checked and the update is committed with
// optimistic concurrency control, so concurrent webhook deliveries cannot
// drive a meeting backward or apply the same transition twice.
type MeetingLifecycleService struct {
	meetingRepo  domain.MeetingRepository
	agentRepo    domain.AgentRepository
	platform     domain.VideoPlatform
	jobScheduler domain.JobScheduler
	statusSender domain.StatusChangeSender
}

// NewMeetingLifecycleService creates a meeting lifecycle service.
func NewMeetingLifecycleService(
	meetingRepo domain.MeetingRepository,
	agentRepo domain.AgentRepository,
	platform domain.VideoPlatform,
	jobScheduler domain.JobScheduler,
	statusSender domain.StatusChangeSender,
) *MeetingLifecycleService {
	return &MeetingLifecycleService{
		meetingRepo:  meetingRepo,
		agentRepo:    agentRepo,
		platform:     platform,
		jobScheduler: jobScheduler,
		statusSender: statusSender,
	}
}

// ServiceReady checks if the service is ready to process transitions.
func (s *MeetingLifecycleService) ServiceReady() bool {
	return s.meetingRepo != nil && s.agentRepo != nil && s.platform != nil
}

// updateGuarded runs a guarded transition with optimistic concurrency
// control: load with revision, check the guard, mutate, commit against the
// revision. On a revision conflict the meeting is reloaded and the guard
// rechecked, so a lost race against an equivalent transition surfaces as a
// guard failure rather than a spurious retry success.
func (s *MeetingLifecycleService) updateGuarded(
	ctx context.Context,
	meetingUID string,
	guard func(meeting *models.Meeting) error,
	mutate func(meeting *models.Meeting),
) (*models.Meeting, error) {
	var lastErr error

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		meeting, revision, err := s.meetingRepo.GetMeetingWithRevision(ctx, meetingUID)
		if err != nil {
			return nil, err
		}

		if err := guard(meeting); err != nil {
			return nil, err
		}

		mutate(meeting)
		now := time.Now().UTC()
		meeting.UpdatedAt = &now

		err = s.meetingRepo.UpdateMeeting(ctx, meeting, revision)
		if err == nil {
			return meeting, nil
		}
		if domain.GetErrorType(err) != domain.ErrorTypeConflict {
			return nil, err
		}

		slog.DebugContext(ctx, "transition lost revision race, retrying",
			"meeting_uid", meetingUID, "attempt", attempt+1)
		lastErr = err
	}

	return nil, domain.NewInternalError("transition retries exhausted", lastErr)
}

// statusGuard returns a guard requiring the meeting to be in the expected
// status.
func statusGuard(expected models.MeetingStatus) func(*models.Meeting) error {
	return func(meeting *models.Meeting) error {
		if meeting.Status != expected {
			return domain.NewGuardFailedError(
				fmt.Sprintf("meeting is %s, expected %s", meeting.Status, expected))
		}
		return nil
	}
}

// announce publishes a committed status transition. Publish failures are
// logged, not returned: the transition is already durable and the message
// stream is advisory.
func (s *MeetingLifecycleService) announce(ctx context.Context, meeting *models.Meeting, oldStatus models.MeetingStatus) {
	if s.statusSender == nil {
		return
	}

	err := s.statusSender.SendMeetingStatusChanged(ctx, models.MeetingStatusChangedMessage{
		MeetingUID: meeting.UID,
		OldStatus:  oldStatus,
		NewStatus:  meeting.Status,
		OccurredAt: time.Now().UTC(),
		Tags:       meeting.Tags(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to announce status change", logging.ErrKey, err,
			"meeting_uid", meeting.UID, "new_status", string(meeting.Status))
	}
}

// HandleSessionStarted activates an upcoming meeting and attaches its agent
// to the live call. Activation commits before the attach: if the attach
// fails the meeting stays active and the platform's retry of the webhook
// hits the guard, so attach failures surface as errors for manual replay.
func (s *MeetingLifecycleService) HandleSessionStarted(ctx context.Context, meetingUID string) error {
	meeting, err := s.updateGuarded(ctx, meetingUID,
		statusGuard(models.MeetingStatusUpcoming),
		func(meeting *models.Meeting) {
			now := time.Now().UTC()
			meeting.Status = models.MeetingStatusActive
			meeting.StartedAt = &now
		},
	)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "meeting activated", "meeting_uid", meetingUID)
	s.announce(ctx, meeting, models.MeetingStatusUpcoming)

	agent, err := s.agentRepo.GetAgent(ctx, meeting.AgentUID)
	if err != nil {
		return domain.NewInternalError(
			fmt.Sprintf("meeting activated but agent %s could not be loaded", meeting.AgentUID), err)
	}

	if err := s.platform.ConnectAgent(ctx, meeting.UID, agent); err != nil {
		slog.ErrorContext(ctx, "meeting is live without its agent", logging.ErrKey, err,
			logging.PriorityCritical(), "meeting_uid", meetingUID, "agent_uid", agent.UID)
		return domain.NewInternalError("meeting activated but agent attach failed", err)
	}

	slog.InfoContext(ctx, "agent attached to call", "meeting_uid", meetingUID, "agent_uid", agent.UID)
	return nil
}

// MarkProcessing moves an active meeting to processing and stamps its end
// time. Used both by the call-ended webhook and by the termination policy.
func (s *MeetingLifecycleService) MarkProcessing(ctx context.Context, meetingUID string) error {
	meeting, err := s.updateGuarded(ctx, meetingUID,
		statusGuard(models.MeetingStatusActive),
		func(meeting *models.Meeting) {
			now := time.Now().UTC()
			meeting.Status = models.MeetingStatusProcessing
			meeting.EndedAt = &now
		},
	)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "meeting moved to processing", "meeting_uid", meetingUID)
	s.announce(ctx, meeting, models.MeetingStatusActive)
	return nil
}

// HandleTranscriptionReady records the transcript URL and enqueues the
// processing job. A transcript arriving while the meeting is still active
// means the call-ended event was lost or is late, so the meeting is moved to
// processing first as its own explicit transition.
func (s *MeetingLifecycleService) HandleTranscriptionReady(ctx context.Context, meetingUID, transcriptURL string) error {
	meeting, err := s.meetingRepo.GetMeeting(ctx, meetingUID)
	if err != nil {
		return err
	}

	if meeting.Status == models.MeetingStatusActive {
		slog.InfoContext(ctx, "transcript arrived for active meeting, closing session first",
			"meeting_uid", meetingUID)
		if err := s.MarkProcessing(ctx, meetingUID); err != nil &&
			domain.GetErrorType(err) != domain.ErrorTypeGuardFailed {
			return err
		}
	}

	meeting, err = s.updateGuarded(ctx, meetingUID,
		statusGuard(models.MeetingStatusProcessing),
		func(meeting *models.Meeting) {
			meeting.TranscriptURL = transcriptURL
		},
	)
	if err != nil {
		return err
	}

	job := models.TranscriptProcessingMessage{
		JobID:         uuid.New().String(),
		MeetingUID:    meeting.UID,
		TranscriptURL: transcriptURL,
		EnqueuedAt:    time.Now().UTC(),
	}
	if err := s.jobScheduler.SendTranscriptProcessingJob(ctx, job); err != nil {
		// The URL is stored; the platform's webhook retry or the cleanup
		// sweep will get another chance to enqueue.
		return domain.NewInternalError("failed to enqueue transcript processing job", err)
	}

	slog.InfoContext(ctx, "transcript processing job enqueued",
		"meeting_uid", meetingUID, "job_id", job.JobID)
	return nil
}

// HandleRecordingReady stores the recording URL. Recordings can arrive at
// any point after the call ends, including after completion, so this is not
// status guarded.
func (s *MeetingLifecycleService) HandleRecordingReady(ctx context.Context, meetingUID, recordingURL string) error {
	_, err := s.updateGuarded(ctx, meetingUID,
		func(meeting *models.Meeting) error { return nil },
		func(meeting *models.Meeting) {
			meeting.RecordingURL = recordingURL
		},
	)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "recording URL stored", "meeting_uid", meetingUID)
	return nil
}

// CompleteWithSummary finishes a processing meeting with its generated
// summary. A meeting already completed with a summary is treated as a guard
// failure, which the pipeline interprets as an idempotent success.
func (s *MeetingLifecycleService) CompleteWithSummary(ctx context.Context, meetingUID, summary string) error {
	meeting, err := s.updateGuarded(ctx, meetingUID,
		statusGuard(models.MeetingStatusProcessing),
		func(meeting *models.Meeting) {
			meeting.Status = models.MeetingStatusCompleted
			meeting.Summary = summary
		},
	)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "meeting completed", "meeting_uid", meetingUID)
	s.announce(ctx, meeting, models.MeetingStatusProcessing)
	return nil
}

// CleanupStale sweeps meetings stuck in non-terminal states: upcoming
// meetings past the cutoff are cancelled (the session never started), and
// processing meetings whose calls ended before the cutoff are completed
// without a summary (the transcript never arrived or the pipeline died).
func (s *MeetingLifecycleService) CleanupStale(ctx context.Context, upcomingCutoff, processingCutoff time.Time) (int, error) {
	cleaned := 0

	upcoming, err := s.meetingRepo.ListMeetingsByStatus(ctx, models.MeetingStatusUpcoming)
	if err != nil {
		return 0, err
	}
	for _, candidate := range upcoming {
		if candidate.CreatedAt == nil || !candidate.CreatedAt.Before(upcomingCutoff) {
			continue
		}
		meeting, err := s.updateGuarded(ctx, candidate.UID,
			statusGuard(models.MeetingStatusUpcoming),
			func(meeting *models.Meeting) {
				meeting.Status = models.MeetingStatusCancelled
			},
		)
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeGuardFailed {
				continue
			}
			slog.ErrorContext(ctx, "failed to cancel stale meeting", logging.ErrKey, err,
				"meeting_uid", candidate.UID)
			continue
		}
		slog.InfoContext(ctx, "cancelled stale upcoming meeting", "meeting_uid", meeting.UID)
		s.announce(ctx, meeting, models.MeetingStatusUpcoming)
		cleaned++
	}

	processing, err := s.meetingRepo.ListMeetingsByStatus(ctx, models.MeetingStatusProcessing)
	if err != nil {
		return cleaned, err
	}
	for _, candidate := range processing {
		if candidate.EndedAt == nil || !candidate.EndedAt.Before(processingCutoff) {
			continue
		}
		meeting, err := s.updateGuarded(ctx, candidate.UID,
			statusGuard(models.MeetingStatusProcessing),
			func(meeting *models.Meeting) {
				meeting.Status = models.MeetingStatusCompleted
			},
		)
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeGuardFailed {
				continue
			}
			slog.ErrorContext(ctx, "failed to complete stuck meeting", logging.ErrKey, err,
				"meeting_uid", candidate.UID)
			continue
		}
		slog.InfoContext(ctx, "completed stuck processing meeting without summary",
			"meeting_uid", meeting.UID)
		s.announce(ctx, meeting, models.MeetingStatusProcessing)
		cleaned++
	}

	return cleaned, nil
}
