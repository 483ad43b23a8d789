// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package domain

import "context"

// Chat turn roles accepted by the completion client.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatTurn is one message of a chat completion conversation.
type ChatTurn struct {
	Role    string
	Content string
}

// LLMClient defines the language-model collaborator used for transcript
// summarization and post-meeting chat replies. Calls are subject to
// transient failure; callers own retry policy.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt string, turns []ChatTurn) (string, error)
}
