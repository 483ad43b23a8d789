// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package models

import "time"

// User is the key-value store representation of a human user.
type User struct {
	UID       string     `json:"uid"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
