// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/mocks"
	"github.com/agentmeet/meeting-service/internal/domain/models"
)

type terminationFixture struct {
	service     *TerminationService
	meetingRepo *mocks.MockMeetingRepository
	agentRepo   *mocks.MockAgentRepository
	platform    *mocks.MockVideoPlatform
	lifecycle   *lifecycleFixture
}

func setupTerminationService() *terminationFixture {
	lifecycle := setupLifecycleService()
	f := &terminationFixture{
		meetingRepo: lifecycle.meetingRepo,
		agentRepo:   lifecycle.agentRepo,
		platform:    lifecycle.platform,
		lifecycle:   lifecycle,
	}
	f.service = NewTerminationService(f.meetingRepo, f.agentRepo, f.platform, lifecycle.service)
	return f
}

func activeMeeting() *models.Meeting {
	m := upcomingMeeting()
	m.Status = models.MeetingStatusActive
	return m
}

// expectMarkProcessing wires the mocks for the termination path's transition.
func (f *terminationFixture) expectMarkProcessing(meeting *models.Meeting) {
	f.meetingRepo.On("GetMeetingWithRevision", mock.Anything, meeting.UID).
		Return(meeting, uint64(1), nil).Once()
	f.meetingRepo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
		return m.Status == models.MeetingStatusProcessing
	}), uint64(1)).Return(nil).Once()
	f.lifecycle.statusSender.On("SendMeetingStatusChanged", mock.Anything, mock.Anything).Return(nil).Once()
}

func TestHandleParticipantLeft(t *testing.T) {
	ctx := context.Background()

	t.Run("owner leaving ends the call", func(t *testing.T) {
		f := setupTerminationService()
		meeting := activeMeeting()

		f.meetingRepo.On("GetMeeting", mock.Anything, "meeting-1").Return(meeting, nil).Once()
		f.platform.On("EndCall", mock.Anything, "meeting-1").Return(nil).Once()
		f.expectMarkProcessing(meeting)

		err := f.service.HandleParticipantLeft(ctx, "meeting-1", "user-1")
		require.NoError(t, err)
		f.platform.AssertExpectations(t)
		// The roster is never consulted for an owner departure.
		f.platform.AssertNotCalled(t, "GetCallState", mock.Anything, mock.Anything)
	})

	t.Run("last human leaving ends the call", func(t *testing.T) {
		f := setupTerminationService()
		meeting := activeMeeting()

		f.meetingRepo.On("GetMeeting", mock.Anything, "meeting-1").Return(meeting, nil).Once()
		f.platform.On("GetCallState", mock.Anything, "meeting-1").Return(&domain.CallState{
			CallID:     "meeting-1",
			MeetingUID: "meeting-1",
			Participants: []domain.CallParticipant{
				{UserID: "agent-1", Name: "Scribe"},
			},
		}, nil).Once()
		f.agentRepo.On("GetAgentsByUIDs", mock.Anything, []string{"agent-1"}).
			Return([]*models.Agent{{UID: "agent-1", Name: "Scribe"}}, nil).Once()
		f.platform.On("EndCall", mock.Anything, "meeting-1").Return(nil).Once()
		f.expectMarkProcessing(meeting)

		err := f.service.HandleParticipantLeft(ctx, "meeting-1", "user-2")
		require.NoError(t, err)
		f.platform.AssertExpectations(t)
	})

	t.Run("humans remaining keeps the call running", func(t *testing.T) {
		f := setupTerminationService()
		meeting := activeMeeting()

		f.meetingRepo.On("GetMeeting", mock.Anything, "meeting-1").Return(meeting, nil).Once()
		f.platform.On("GetCallState", mock.Anything, "meeting-1").Return(&domain.CallState{
			CallID: "meeting-1",
			Participants: []domain.CallParticipant{
				{UserID: "agent-1"},
				{UserID: "user-3"},
			},
		}, nil).Once()
		f.agentRepo.On("GetAgentsByUIDs", mock.Anything, []string{"agent-1", "user-3"}).
			Return([]*models.Agent{{UID: "agent-1"}}, nil).Once()

		err := f.service.HandleParticipantLeft(ctx, "meeting-1", "user-2")
		require.NoError(t, err)
		f.platform.AssertNotCalled(t, "EndCall", mock.Anything, mock.Anything)
	})

	t.Run("roster failure is a no-op", func(t *testing.T) {
		f := setupTerminationService()
		meeting := activeMeeting()

		f.meetingRepo.On("GetMeeting", mock.Anything, "meeting-1").Return(meeting, nil).Once()
		f.platform.On("GetCallState", mock.Anything, "meeting-1").
			Return(nil, domain.NewUnavailableError("platform down")).Once()

		err := f.service.HandleParticipantLeft(ctx, "meeting-1", "user-2")
		require.NoError(t, err)
		f.platform.AssertNotCalled(t, "EndCall", mock.Anything, mock.Anything)
	})

	t.Run("departure from non-active meeting hits the guard", func(t *testing.T) {
		f := setupTerminationService()
		meeting := upcomingMeeting()
		meeting.Status = models.MeetingStatusProcessing

		f.meetingRepo.On("GetMeeting", mock.Anything, "meeting-1").Return(meeting, nil).Once()

		err := f.service.HandleParticipantLeft(ctx, "meeting-1", "user-1")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeGuardFailed, domain.GetErrorType(err))
	})

	t.Run("end call failure still moves the meeting to processing", func(t *testing.T) {
		f := setupTerminationService()
		meeting := activeMeeting()

		f.meetingRepo.On("GetMeeting", mock.Anything, "meeting-1").Return(meeting, nil).Once()
		f.platform.On("EndCall", mock.Anything, "meeting-1").
			Return(domain.NewUnavailableError("platform down")).Once()
		f.expectMarkProcessing(meeting)

		err := f.service.HandleParticipantLeft(ctx, "meeting-1", "user-1")
		require.NoError(t, err)
		f.meetingRepo.AssertExpectations(t)
	})
}
