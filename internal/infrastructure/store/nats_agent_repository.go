// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// NatsAgentRepository is the NATS KV store repository for agents.
type NatsAgentRepository struct {
	*NatsBaseRepository[models.Agent]
}

// NewNatsAgentRepository creates a new NATS agent repository.
func NewNatsAgentRepository(kvStore INatsKeyValue) *NatsAgentRepository {
	return &NatsAgentRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Agent](kvStore, "agent"),
	}
}

func (r *NatsAgentRepository) GetAgent(ctx context.Context, agentUID string) (*models.Agent, error) {
	return r.Get(ctx, agentUID)
}

// GetAgentsByUIDs returns the agents matching the given UIDs. UIDs with no
// matching agent are skipped, not errors: transcript speaker IDs routinely
// reference users rather than agents.
func (r *NatsAgentRepository) GetAgentsByUIDs(ctx context.Context, agentUIDs []string) ([]*models.Agent, error) {
	var agents []*models.Agent
	for _, uid := range agentUIDs {
		agent, err := r.Get(ctx, uid)
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				continue
			}
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, nil
}
