// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// NatsMeetingRepository is the NATS KV store repository for meetings.
// Keys are the meeting UID, which is also the external platform's call ID.
type NatsMeetingRepository struct {
	*NatsBaseRepository[models.Meeting]
}

// NewNatsMeetingRepository creates a new NATS meeting repository.
func NewNatsMeetingRepository(kvStore INatsKeyValue) *NatsMeetingRepository {
	return &NatsMeetingRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Meeting](kvStore, "meeting"),
	}
}

func (r *NatsMeetingRepository) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	return r.Create(ctx, meeting.UID, meeting)
}

func (r *NatsMeetingRepository) GetMeeting(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	return r.Get(ctx, meetingUID)
}

func (r *NatsMeetingRepository) GetMeetingWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error) {
	return r.GetWithRevision(ctx, meetingUID)
}

func (r *NatsMeetingRepository) UpdateMeeting(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	_, err := r.Update(ctx, meeting.UID, meeting, revision)
	return err
}

// ListMeetingsByStatus returns all meetings currently in the given status.
// This is a bucket scan; the meetings bucket is small enough (one entry per
// meeting) that a status index has not been worth maintaining.
func (r *NatsMeetingRepository) ListMeetingsByStatus(ctx context.Context, status models.MeetingStatus) ([]*models.Meeting, error) {
	meetings, err := r.ListEntities(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*models.Meeting
	for _, meeting := range meetings {
		if meeting.Status == status {
			matched = append(matched, meeting)
		}
	}

	return matched, nil
}
