// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// NatsPipelineStateRepository persists transcript pipeline execution state.
// Keys are the meeting UID: the pipeline runs at most once per meeting, so a
// replayed job finds the prior run's cached step outputs under the same key.
type NatsPipelineStateRepository struct {
	*NatsBaseRepository[models.PipelineState]
}

// NewNatsPipelineStateRepository creates a new NATS pipeline state repository.
func NewNatsPipelineStateRepository(kvStore INatsKeyValue) *NatsPipelineStateRepository {
	return &NatsPipelineStateRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.PipelineState](kvStore, "pipeline state"),
	}
}

func (r *NatsPipelineStateRepository) GetPipelineStateWithRevision(ctx context.Context, meetingUID string) (*models.PipelineState, uint64, error) {
	return r.GetWithRevision(ctx, meetingUID)
}

func (r *NatsPipelineStateRepository) CreatePipelineState(ctx context.Context, state *models.PipelineState) error {
	return r.Create(ctx, state.MeetingUID, state)
}

func (r *NatsPipelineStateRepository) UpdatePipelineState(ctx context.Context, state *models.PipelineState, revision uint64) (uint64, error) {
	return r.Update(ctx, state.MeetingUID, state, revision)
}
