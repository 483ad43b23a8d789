// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallIDFromCID(t *testing.T) {
	assert.Equal(t, "abc-123", CallIDFromCID("default:abc-123"))
	assert.Equal(t, "a:b", CallIDFromCID("default:a:b"))
	assert.Equal(t, "abc-123", CallIDFromCID("abc-123"))
	assert.Equal(t, "", CallIDFromCID("default:"))
}

func TestToCallSessionStartedPayload(t *testing.T) {
	event := VideoWebhookEventMessage{
		EventType: EventTypeCallSessionStarted,
		Payload: json.RawMessage(`{
			"type": "call.session_started",
			"call_cid": "default:meeting-1",
			"session_id": "sess-1",
			"call": {"cid": "default:meeting-1", "id": "meeting-1", "custom": {"meetingId": "meeting-1"}}
		}`),
	}

	payload, err := event.ToCallSessionStartedPayload()
	require.NoError(t, err)
	assert.Equal(t, "meeting-1", payload.Call.Custom.MeetingID)
	assert.Equal(t, "sess-1", payload.SessionID)
}

func TestToPayloadRejectsWrongEventType(t *testing.T) {
	event := VideoWebhookEventMessage{
		EventType: EventTypeCallEnded,
		Payload:   json.RawMessage(`{}`),
	}

	_, err := event.ToCallSessionStartedPayload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid event type")
}

func TestToCallTranscriptionReadyPayload(t *testing.T) {
	event := VideoWebhookEventMessage{
		EventType: EventTypeCallTranscriptionReady,
		Payload: json.RawMessage(`{
			"type": "call.transcription_ready",
			"call_cid": "default:meeting-2",
			"call_transcription": {"url": "https://cdn.example.com/t.jsonl", "filename": "t.jsonl"}
		}`),
	}

	payload, err := event.ToCallTranscriptionReadyPayload()
	require.NoError(t, err)
	assert.Equal(t, "default:meeting-2", payload.CallCID)
	assert.Equal(t, "https://cdn.example.com/t.jsonl", payload.CallTranscription.URL)
}

func TestToMessageNewPayload(t *testing.T) {
	event := VideoWebhookEventMessage{
		EventType: EventTypeMessageNew,
		Payload: json.RawMessage(`{
			"type": "message.new",
			"channel_id": "meeting-3",
			"user": {"id": "user-9"},
			"message": {"id": "msg-1", "text": "what were the action items?"}
		}`),
	}

	payload, err := event.ToMessageNewPayload()
	require.NoError(t, err)
	assert.Equal(t, "meeting-3", payload.ChannelID)
	assert.Equal(t, "user-9", payload.User.ID)
	assert.Equal(t, "what were the action items?", payload.Message.Text)
}

func TestInformationalEventTypes(t *testing.T) {
	assert.True(t, InformationalEventTypes["call.transcription_stopped"])
	assert.True(t, InformationalEventTypes["message.read"])
	assert.False(t, InformationalEventTypes[EventTypeCallSessionStarted])
	assert.False(t, InformationalEventTypes[EventTypeCallTranscriptionReady])
}
