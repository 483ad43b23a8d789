// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// MockJobScheduler is a mock implementation of domain.JobScheduler.
type MockJobScheduler struct {
	mock.Mock
}

func (m *MockJobScheduler) SendTranscriptProcessingJob(ctx context.Context, job models.TranscriptProcessingMessage) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockStatusChangeSender is a mock implementation of domain.StatusChangeSender.
type MockStatusChangeSender struct {
	mock.Mock
}

func (m *MockStatusChangeSender) SendMeetingStatusChanged(ctx context.Context, msg models.MeetingStatusChangedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
