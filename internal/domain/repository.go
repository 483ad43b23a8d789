// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// MeetingRepository defines the interface for meeting storage operations.
// This interface can be implemented by different storage backends (NATS KV,
// PostgreSQL, etc.). Updates take a revision for optimistic concurrency
// control: an update only succeeds if the stored revision still matches,
// which is how the lifecycle state machine makes its guarded transitions
// atomic under concurrent webhook delivery.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting *models.Meeting) error
	GetMeeting(ctx context.Context, meetingUID string) (*models.Meeting, error)
	GetMeetingWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error)
	UpdateMeeting(ctx context.Context, meeting *models.Meeting, revision uint64) error

	// ListMeetingsByStatus returns all meetings currently in the given
	// status, used by the fallback correlation heuristic and cleanup.
	ListMeetingsByStatus(ctx context.Context, status models.MeetingStatus) ([]*models.Meeting, error)
}

// AgentRepository defines read-only lookup access to agents.
type AgentRepository interface {
	GetAgent(ctx context.Context, agentUID string) (*models.Agent, error)
	GetAgentsByUIDs(ctx context.Context, agentUIDs []string) ([]*models.Agent, error)
}

// UserRepository defines read-only lookup access to users.
type UserRepository interface {
	GetUsersByUIDs(ctx context.Context, userUIDs []string) ([]*models.User, error)
}

// PipelineStateRepository persists the durable step-wise execution state of
// transcript processing jobs.
type PipelineStateRepository interface {
	GetPipelineStateWithRevision(ctx context.Context, meetingUID string) (*models.PipelineState, uint64, error)
	CreatePipelineState(ctx context.Context, state *models.PipelineState) error
	UpdatePipelineState(ctx context.Context, state *models.PipelineState, revision uint64) (uint64, error)
}
