// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Video platform webhook event types.
const (
	EventTypeCallSessionStarted         = "call.session_started"
	EventTypeCallSessionParticipantLeft = "call.session_participant_left"
	EventTypeCallEnded                  = "call.ended"
	EventTypeCallTranscriptionReady     = "call.transcription_ready"
	EventTypeCallRecordingReady         = "call.recording_ready"
	EventTypeMessageNew                 = "message.new"
)

// Informational event types that are acknowledged without any mutation.
var InformationalEventTypes = map[string]bool{
	"call.transcription_stopped":   true,
	"call.recording_stopped":       true,
	"call.closed_captions_stopped": true,
	"call.stats_report_ready":      true,
	"message.read":                 true,
}

// VideoWebhookEventMessage is the generic envelope for a platform webhook
// event. The payload keeps the raw JSON body; typed accessors convert it to
// the closed per-event payload structs below.
type VideoWebhookEventMessage struct {
	EventType  string          `json:"event_type"`
	ReceivedAt int64           `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// CallCustomData is the custom metadata bag the platform echoes back on call
// objects. The meeting UID is written there when the call is created.
type CallCustomData struct {
	MeetingID string `json:"meetingId"`
}

// CallObject is the call descriptor embedded in session-started and
// call-ended events.
type CallObject struct {
	CID    string         `json:"cid"`
	ID     string         `json:"id"`
	Custom CallCustomData `json:"custom"`
}

// CallSessionStartedPayload represents the payload for call.session_started events.
type CallSessionStartedPayload struct {
	Call      CallObject `json:"call"`
	CallCID   string     `json:"call_cid"`
	SessionID string     `json:"session_id"`
}

// CallEndedPayload represents the payload for call.ended events.
type CallEndedPayload struct {
	Call    CallObject `json:"call"`
	CallCID string     `json:"call_cid"`
	Reason  string     `json:"reason,omitempty"`
}

// CallParticipantObject is the participant descriptor in participant events.
type CallParticipantObject struct {
	User struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
	UserSessionID string `json:"user_session_id"`
}

// CallSessionParticipantLeftPayload represents the payload for
// call.session_participant_left events. These events carry only the call CID,
// not the custom metadata, so the meeting must be resolved via call state.
type CallSessionParticipantLeftPayload struct {
	CallCID     string                `json:"call_cid"`
	SessionID   string                `json:"session_id"`
	Participant CallParticipantObject `json:"participant"`
}

// CallTranscriptionReadyPayload represents the payload for
// call.transcription_ready events.
type CallTranscriptionReadyPayload struct {
	CallCID           string `json:"call_cid"`
	CallTranscription struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	} `json:"call_transcription"`
}

// CallRecordingReadyPayload represents the payload for
// call.recording_ready events.
type CallRecordingReadyPayload struct {
	CallCID       string `json:"call_cid"`
	CallRecording struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	} `json:"call_recording"`
}

// MessageNewPayload represents the payload for message.new chat events.
type MessageNewPayload struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	ChannelID string `json:"channel_id"`
	Message   struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"message"`
}

// CallIDFromCID extracts the call ID from a "type:id" call CID.
// Returns an empty string when the CID has no ID segment.
func CallIDFromCID(cid string) string {
	_, id, found := strings.Cut(cid, ":")
	if !found {
		return cid
	}
	return id
}

func (v *VideoWebhookEventMessage) toPayload(expectedType string, target any) error {
	if v.EventType != expectedType {
		return fmt.Errorf("invalid event type: expected %s, got %s", expectedType, v.EventType)
	}

	if err := json.Unmarshal(v.Payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", expectedType, err)
	}

	return nil
}

// ToCallSessionStartedPayload converts the webhook event to a typed session started payload
func (v *VideoWebhookEventMessage) ToCallSessionStartedPayload() (*CallSessionStartedPayload, error) {
	var payload CallSessionStartedPayload
	if err := v.toPayload(EventTypeCallSessionStarted, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ToCallEndedPayload converts the webhook event to a typed call ended payload
func (v *VideoWebhookEventMessage) ToCallEndedPayload() (*CallEndedPayload, error) {
	var payload CallEndedPayload
	if err := v.toPayload(EventTypeCallEnded, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ToCallSessionParticipantLeftPayload converts the webhook event to a typed participant left payload
func (v *VideoWebhookEventMessage) ToCallSessionParticipantLeftPayload() (*CallSessionParticipantLeftPayload, error) {
	var payload CallSessionParticipantLeftPayload
	if err := v.toPayload(EventTypeCallSessionParticipantLeft, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ToCallTranscriptionReadyPayload converts the webhook event to a typed transcription ready payload
func (v *VideoWebhookEventMessage) ToCallTranscriptionReadyPayload() (*CallTranscriptionReadyPayload, error) {
	var payload CallTranscriptionReadyPayload
	if err := v.toPayload(EventTypeCallTranscriptionReady, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ToCallRecordingReadyPayload converts the webhook event to a typed recording ready payload
func (v *VideoWebhookEventMessage) ToCallRecordingReadyPayload() (*CallRecordingReadyPayload, error) {
	var payload CallRecordingReadyPayload
	if err := v.toPayload(EventTypeCallRecordingReady, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ToMessageNewPayload converts the webhook event to a typed new message payload
func (v *VideoWebhookEventMessage) ToMessageNewPayload() (*MessageNewPayload, error) {
	var payload MessageNewPayload
	if err := v.toPayload(EventTypeMessageNew, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
