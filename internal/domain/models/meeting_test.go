// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeetingStatusIsValid(t *testing.T) {
	valid := []MeetingStatus{
		MeetingStatusUpcoming,
		MeetingStatusActive,
		MeetingStatusProcessing,
		MeetingStatusCompleted,
		MeetingStatusCancelled,
	}
	for _, status := range valid {
		assert.True(t, status.IsValid(), "expected %s to be valid", status)
	}

	assert.False(t, MeetingStatus("").IsValid())
	assert.False(t, MeetingStatus("paused").IsValid())
}

func TestMeetingStatusIsTerminal(t *testing.T) {
	assert.True(t, MeetingStatusCompleted.IsTerminal())
	assert.True(t, MeetingStatusCancelled.IsTerminal())

	assert.False(t, MeetingStatusUpcoming.IsTerminal())
	assert.False(t, MeetingStatusActive.IsTerminal())
	assert.False(t, MeetingStatusProcessing.IsTerminal())
}

func TestMeetingTags(t *testing.T) {
	t.Run("full meeting", func(t *testing.T) {
		meeting := &Meeting{
			UID:      "meeting-123",
			UserUID:  "user-456",
			AgentUID: "agent-789",
			Status:   MeetingStatusActive,
		}

		tags := meeting.Tags()
		assert.Contains(t, tags, "meeting-123")
		assert.Contains(t, tags, "meeting_uid:meeting-123")
		assert.Contains(t, tags, "user_uid:user-456")
		assert.Contains(t, tags, "agent_uid:agent-789")
		assert.Contains(t, tags, "status:active")
	})

	t.Run("nil meeting", func(t *testing.T) {
		var meeting *Meeting
		assert.Nil(t, meeting.Tags())
	})
}
