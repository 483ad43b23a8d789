// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/mocks"
	"github.com/agentmeet/meeting-service/internal/domain/models"
)

func setupCorrelationService() (*CorrelationService, *mocks.MockMeetingRepository, *mocks.MockVideoPlatform) {
	meetingRepo := &mocks.MockMeetingRepository{}
	platform := &mocks.MockVideoPlatform{}
	return NewCorrelationService(meetingRepo, platform), meetingRepo, platform
}

func TestResolveParticipantLeft(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves via call state metadata", func(t *testing.T) {
		svc, repo, platform := setupCorrelationService()

		platform.On("GetCallState", mock.Anything, "call-1").Return(&domain.CallState{
			CallID:     "call-1",
			MeetingUID: "meeting-1",
		}, nil).Once()

		uid, err := svc.ResolveParticipantLeft(ctx, "default:call-1")
		require.NoError(t, err)
		assert.Equal(t, "meeting-1", uid)
		repo.AssertNotCalled(t, "ListMeetingsByStatus", mock.Anything, mock.Anything)
	})

	t.Run("falls back to the single active meeting", func(t *testing.T) {
		svc, repo, platform := setupCorrelationService()

		platform.On("GetCallState", mock.Anything, "call-1").
			Return(nil, domain.NewUnavailableError("platform down")).Once()
		repo.On("ListMeetingsByStatus", mock.Anything, models.MeetingStatusActive).
			Return([]*models.Meeting{{UID: "meeting-9", Status: models.MeetingStatusActive}}, nil).Once()

		uid, err := svc.ResolveParticipantLeft(ctx, "default:call-1")
		require.NoError(t, err)
		assert.Equal(t, "meeting-9", uid)
	})

	t.Run("empty custom metadata also falls back", func(t *testing.T) {
		svc, repo, platform := setupCorrelationService()

		platform.On("GetCallState", mock.Anything, "call-1").
			Return(&domain.CallState{CallID: "call-1"}, nil).Once()
		repo.On("ListMeetingsByStatus", mock.Anything, models.MeetingStatusActive).
			Return([]*models.Meeting{{UID: "meeting-9"}}, nil).Once()

		uid, err := svc.ResolveParticipantLeft(ctx, "default:call-1")
		require.NoError(t, err)
		assert.Equal(t, "meeting-9", uid)
	})

	t.Run("no candidates is unresolvable", func(t *testing.T) {
		svc, repo, platform := setupCorrelationService()

		platform.On("GetCallState", mock.Anything, "call-1").
			Return(nil, domain.NewUnavailableError("platform down")).Once()
		repo.On("ListMeetingsByStatus", mock.Anything, models.MeetingStatusActive).
			Return([]*models.Meeting{}, nil).Once()

		_, err := svc.ResolveParticipantLeft(ctx, "default:call-1")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})

	t.Run("multiple candidates is ambiguous", func(t *testing.T) {
		svc, repo, platform := setupCorrelationService()

		earlier := time.Now().UTC().Add(-time.Hour)
		later := time.Now().UTC()
		platform.On("GetCallState", mock.Anything, "call-1").
			Return(nil, domain.NewUnavailableError("platform down")).Once()
		repo.On("ListMeetingsByStatus", mock.Anything, models.MeetingStatusActive).
			Return([]*models.Meeting{
				{UID: "meeting-a", StartedAt: &earlier},
				{UID: "meeting-b", StartedAt: &later},
			}, nil).Once()

		_, err := svc.ResolveParticipantLeft(ctx, "default:call-1")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}

func TestResolveTranscriptionReady(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to the single processing meeting", func(t *testing.T) {
		svc, repo, platform := setupCorrelationService()

		platform.On("GetCallState", mock.Anything, "call-2").
			Return(nil, domain.NewNotFoundError("call gone")).Once()
		repo.On("ListMeetingsByStatus", mock.Anything, models.MeetingStatusProcessing).
			Return([]*models.Meeting{{UID: "meeting-5", Status: models.MeetingStatusProcessing}}, nil).Once()

		uid, err := svc.ResolveTranscriptionReady(ctx, "default:call-2")
		require.NoError(t, err)
		assert.Equal(t, "meeting-5", uid)
	})
}

func TestResolveRecordingReady(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves via call state metadata", func(t *testing.T) {
		svc, repo, platform := setupCorrelationService()

		platform.On("GetCallState", mock.Anything, "session-7").Return(&domain.CallState{
			CallID:     "session-7",
			MeetingUID: "meeting-1",
		}, nil).Once()

		uid, err := svc.ResolveRecordingReady(ctx, "default:session-7")
		require.NoError(t, err)
		assert.Equal(t, "meeting-1", uid)
		repo.AssertNotCalled(t, "ListMeetingsByStatus", mock.Anything, mock.Anything)
	})

	t.Run("call state failure is rejected without store fallback", func(t *testing.T) {
		svc, repo, platform := setupCorrelationService()

		platform.On("GetCallState", mock.Anything, "session-7").
			Return(nil, domain.NewUnavailableError("call expired")).Once()

		_, err := svc.ResolveRecordingReady(ctx, "default:session-7")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		repo.AssertNotCalled(t, "ListMeetingsByStatus", mock.Anything, mock.Anything)
	})

	t.Run("empty custom metadata is rejected", func(t *testing.T) {
		svc, repo, platform := setupCorrelationService()

		platform.On("GetCallState", mock.Anything, "session-7").
			Return(&domain.CallState{CallID: "session-7"}, nil).Once()

		_, err := svc.ResolveRecordingReady(ctx, "default:session-7")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		repo.AssertNotCalled(t, "ListMeetingsByStatus", mock.Anything, mock.Anything)
	})
}

func TestResolveRejectsEmptyCID(t *testing.T) {
	svc, _, _ := setupCorrelationService()

	_, err := svc.ResolveParticipantLeft(context.Background(), "default:")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}
