// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// MockLLMClient is a mock implementation of domain.LLMClient.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Complete(ctx context.Context, systemPrompt string, turns []domain.ChatTurn) (string, error) {
	args := m.Called(ctx, systemPrompt, turns)
	return args.String(0), args.Error(1)
}

// MockChatProvider is a mock implementation of domain.ChatProvider.
type MockChatProvider struct {
	mock.Mock
}

func (m *MockChatProvider) RecentMessages(ctx context.Context, channelID string, limit int) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, channelID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatMessage), args.Error(1)
}

func (m *MockChatProvider) SendAgentMessage(ctx context.Context, channelID string, agent *models.Agent, text string) error {
	args := m.Called(ctx, channelID, agent, text)
	return args.Error(0)
}
