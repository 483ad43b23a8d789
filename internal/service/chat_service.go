// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
	"github.com/agentmeet/meeting-service/internal/logging"
)

// chatHistoryLimit is how many recent channel messages are replayed to the
// model as conversation context.
const chatHistoryLimit = 25

// ChatService answers questions in a completed meeting's chat channel on
// behalf of its agent. Channels share their ID with the meeting.
type ChatService struct {
	meetingRepo  domain.MeetingRepository
	agentRepo    domain.AgentRepository
	chatProvider domain.ChatProvider
	llm          domain.LLMClient
}

// NewChatService creates a chat service.
func NewChatService(
	meetingRepo domain.MeetingRepository,
	agentRepo domain.AgentRepository,
	chatProvider domain.ChatProvider,
	llm domain.LLMClient,
) *ChatService {
	return &ChatService{
		meetingRepo:  meetingRepo,
		agentRepo:    agentRepo,
		chatProvider: chatProvider,
		llm:          llm,
	}
}

// HandleMessageNew replies to a new chat message in a completed meeting's
// channel. Messages sent by the agent itself are ignored to avoid reply
// loops; messages on meetings that are not completed are acknowledged
// without a reply.
func (s *ChatService) HandleMessageNew(ctx context.Context, payload *models.MessageNewPayload) error {
	if payload.ChannelID == "" {
		return domain.NewValidationError("new message event carries no channel")
	}
	if strings.TrimSpace(payload.Message.Text) == "" {
		return domain.NewGuardFailedError("empty chat message")
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", payload.ChannelID))

	meeting, err := s.meetingRepo.GetMeeting(ctx, payload.ChannelID)
	if err != nil {
		return err
	}

	if payload.User.ID == meeting.AgentUID {
		return domain.NewGuardFailedError("message sent by the agent itself")
	}
	if meeting.Status != models.MeetingStatusCompleted {
		return domain.NewGuardFailedError(
			fmt.Sprintf("chat agent only answers on completed meetings, meeting is %s", meeting.Status))
	}

	agent, err := s.agentRepo.GetAgent(ctx, meeting.AgentUID)
	if err != nil {
		return err
	}

	turns, err := s.conversationTurns(ctx, meeting, payload)
	if err != nil {
		return err
	}

	systemPrompt := fmt.Sprintf(chatAgentSystemPromptTemplate, agent.Name, meeting.Name, meeting.Summary)
	reply, err := s.llm.Complete(ctx, systemPrompt, turns)
	if err != nil {
		return err
	}

	if err := s.chatProvider.SendAgentMessage(ctx, meeting.UID, agent, reply); err != nil {
		return err
	}

	slog.InfoContext(ctx, "chat agent replied", "agent_uid", agent.UID)
	return nil
}

// conversationTurns builds the model conversation from recent channel
// history, oldest first, attributing the agent's own messages to the
// assistant role. Falls back to just the triggering message when history
// cannot be read.
func (s *ChatService) conversationTurns(ctx context.Context, meeting *models.Meeting, payload *models.MessageNewPayload) ([]domain.ChatTurn, error) {
	history, err := s.chatProvider.RecentMessages(ctx, meeting.UID, chatHistoryLimit)
	if err != nil {
		slog.WarnContext(ctx, "failed to load chat history, replying without it",
			logging.ErrKey, err)
		return []domain.ChatTurn{
			{Role: domain.ChatRoleUser, Content: payload.Message.Text},
		}, nil
	}

	var turns []domain.ChatTurn
	for _, msg := range history {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		role := domain.ChatRoleUser
		if msg.UserID == meeting.AgentUID {
			role = domain.ChatRoleAssistant
		}
		turns = append(turns, domain.ChatTurn{Role: role, Content: msg.Text})
	}

	if len(turns) == 0 {
		turns = []domain.ChatTurn{
			{Role: domain.ChatRoleUser, Content: payload.Message.Text},
		}
	}

	return turns, nil
}
