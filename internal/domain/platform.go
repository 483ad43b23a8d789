// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/agentmeet/meeting-service/internal/domain/models"
)

// CallParticipant is one member of a call's current roster.
type CallParticipant struct {
	UserID string
	Name   string
}

// CallState is the external platform's view of a call: the custom metadata
// bag written at call creation (expected to echo the meeting UID) plus the
// current participant roster. Roster reads are racy against a call that may
// already be tearing down; callers must treat them as best effort.
type CallState struct {
	CallID       string
	MeetingUID   string
	Participants []CallParticipant
}

// VideoPlatform defines the interface for the external video/chat platform
// that hosts calls and emits the lifecycle webhooks.
type VideoPlatform interface {
	// GetCallState fetches the current call state including custom metadata
	// and the participant roster.
	GetCallState(ctx context.Context, callID string) (*CallState, error)

	// EndCall instructs the platform to end the call for all participants.
	EndCall(ctx context.Context, callID string) error

	// ConnectAgent attaches the AI agent to the live call with its
	// behavioral instructions. Implementations send an idempotency key
	// derived from the call ID so replayed attaches are harmless.
	ConnectAgent(ctx context.Context, callID string, agent *models.Agent) error
}

// WebhookValidator verifies webhook signatures over the raw request body.
type WebhookValidator interface {
	ValidateSignature(body []byte, signature string) error
}

// TranscriptFetcher retrieves a transcript resource by URL.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, url string) ([]byte, error)
}
