// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// ChatMessage is one message in a meeting's chat channel.
type ChatMessage struct {
	UserID string
	Text   string
}

// ChatProvider defines the external chat collaborator used for the
// post-meeting "ask the agent" flow. The channel ID is the meeting UID.
type ChatProvider interface {
	// RecentMessages returns up to limit most recent messages in the
	// channel, oldest first.
	RecentMessages(ctx context.Context, channelID string, limit int) ([]ChatMessage, error)

	// SendAgentMessage posts a message to the channel on behalf of the agent.
	SendAgentMessage(ctx context.Context, channelID string, agent *models.Agent, text string) error
}
