// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

// Package mocks provides testify mocks for the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// MockMeetingRepository is a mock implementation of domain.MeetingRepository.
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
}

func (m *MockMeetingRepository) GetMeeting(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) GetMeetingWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*models.Meeting), args.Get(1).(uint64), args.Error(2)
}

func (m *MockMeetingRepository) UpdateMeeting(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	args := m.Called(ctx, meeting, revision)
	return args.Error(0)
}

func (m *MockMeetingRepository) ListMeetingsByStatus(ctx context.Context, status models.MeetingStatus) ([]*models.Meeting, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Meeting), args.Error(1)
}

// MockAgentRepository is a mock implementation of domain.AgentRepository.
type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) GetAgent(ctx context.Context, agentUID string) (*models.Agent, error) {
	args := m.Called(ctx, agentUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentRepository) GetAgentsByUIDs(ctx context.Context, agentUIDs []string) ([]*models.Agent, error) {
	args := m.Called(ctx, agentUIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Agent), args.Error(1)
}

// MockUserRepository is a mock implementation of domain.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUsersByUIDs(ctx context.Context, userUIDs []string) ([]*models.User, error) {
	args := m.Called(ctx, userUIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockPipelineStateRepository is a mock implementation of
// domain.PipelineStateRepository.
type MockPipelineStateRepository struct {
	mock.Mock
}

func (m *MockPipelineStateRepository) GetPipelineStateWithRevision(ctx context.Context, meetingUID string) (*models.PipelineState, uint64, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*models.PipelineState), args.Get(1).(uint64), args.Error(2)
}

func (m *MockPipelineStateRepository) CreatePipelineState(ctx context.Context, state *models.PipelineState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockPipelineStateRepository) UpdatePipelineState(ctx context.Context, state *models.PipelineState, revision uint64) (uint64, error) {
	args := m.Called(ctx, state, revision)
	return args.Get(0).(uint64), args.Error(1)
}
