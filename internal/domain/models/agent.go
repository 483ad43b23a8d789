// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package models

import "time"

// Agent is the key-value store representation of an AI meeting agent.
// Agents share an identifier namespace with users: a transcript speaker ID
// may reference either. The core treats agents as read-only lookups.
type Agent struct {
	UID          string     `json:"uid"`
	Name         string     `json:"name"`
	UserUID      string     `json:"user_uid"`
	Instructions string     `json:"instructions"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}
