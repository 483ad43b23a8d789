// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// MeetingStatus is the lifecycle status of a meeting.
//
// Transitions are monotonic along a fixed graph:
//
//	upcoming -> active -> processing -> completed
//	upcoming -> cancelled
//
// Completed and cancelled are terminal. No transition moves backward.
type MeetingStatus string

const (
	MeetingStatusUpcoming   MeetingStatus = "upcoming"
	MeetingStatusActive     MeetingStatus = "active"
	MeetingStatusProcessing MeetingStatus = "processing"
	MeetingStatusCompleted  MeetingStatus = "completed"
	MeetingStatusCancelled  MeetingStatus = "cancelled"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s MeetingStatus) IsValid() bool {
	switch s {
	case MeetingStatusUpcoming, MeetingStatusActive, MeetingStatusProcessing,
		MeetingStatusCompleted, MeetingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusCancelled
}

// Meeting is the key-value store representation of a meeting.
// The UID doubles as the external platform's call identifier, which is the
// correlation key for webhook events.
type Meeting struct {
	UID           string        `json:"uid"`
	Name          string        `json:"name"`
	UserUID       string        `json:"user_uid"`
	AgentUID      string        `json:"agent_uid"`
	Status        MeetingStatus `json:"status"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
	TranscriptURL string        `json:"transcript_url,omitempty"`
	RecordingURL  string        `json:"recording_url,omitempty"`
	Summary       string        `json:"summary,omitempty"`
	CreatedAt     *time.Time    `json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `json:"updated_at,omitempty"`
}

// Tags generates a consistent set of tags for the meeting for downstream
// consumers of status-change messages.
func (m *Meeting) Tags() []string {
	var tags []string

	if m == nil {
		return nil
	}

	if m.UID != "" {
		tags = append(tags, m.UID)
		tags = append(tags, "meeting_uid:"+m.UID)
	}
	if m.UserUID != "" {
		tags = append(tags, "user_uid:"+m.UserUID)
	}
	if m.AgentUID != "" {
		tags = append(tags, "agent_uid:"+m.AgentUID)
	}
	if m.Status != "" {
		tags = append(tags, "status:"+string(m.Status))
	}

	return tags
}
