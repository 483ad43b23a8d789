// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/agentmeet/meeting-service/internal/domain"
	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// NatsUserRepository is the NATS KV store repository for users.
type NatsUserRepository struct {
	*NatsBaseRepository[models.User]
}

// NewNatsUserRepository creates a new NATS user repository.
func NewNatsUserRepository(kvStore INatsKeyValue) *NatsUserRepository {
	return &NatsUserRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.User](kvStore, "user"),
	}
}

// GetUsersByUIDs returns the users matching the given UIDs, skipping UIDs
// with no matching user.
func (r *NatsUserRepository) GetUsersByUIDs(ctx context.Context, userUIDs []string) ([]*models.User, error) {
	var users []*models.User
	for _, uid := range userUIDs {
		user, err := r.Get(ctx, uid)
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
