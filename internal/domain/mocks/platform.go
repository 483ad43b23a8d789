// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// MockVideoPlatform is a mock implementation of domain.VideoPlatform.
type MockVideoPlatform struct {
	mock.Mock
}

func (m *MockVideoPlatform) GetCallState(ctx context.Context, callID string) (*domain.CallState, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CallState), args.Error(1)
}

func (m *MockVideoPlatform) EndCall(ctx context.Context, callID string) error {
	args := m.Called(ctx, callID)
	return args.Error(0)
}

func (m *MockVideoPlatform) ConnectAgent(ctx context.Context, callID string, agent *models.Agent) error {
	args := m.Called(ctx, callID, agent)
	return args.Error(0)
}

// MockWebhookValidator is a mock implementation of domain.WebhookValidator.
type MockWebhookValidator struct {
	mock.Mock
}

func (m *MockWebhookValidator) ValidateSignature(body []byte, signature string) error {
	args := m.Called(body, signature)
	return args.Error(0)
}

// MockTranscriptFetcher is a mock implementation of domain.TranscriptFetcher.
type MockTranscriptFetcher struct {
	mock.Mock
}

func (m *MockTranscriptFetcher) FetchTranscript(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
