// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package messaging

import (
	"github.com/nats-io/nats.go"

	"github.com/agentmeet/meeting-service/internal/domain"
)

// natsMessage adapts *nats.Msg to domain.Message.
type natsMessage struct {
	msg *nats.Msg
}

// NewNatsMessage wraps a NATS message for the domain message handlers.
func NewNatsMessage(msg *nats.Msg) domain.Message {
	return &natsMessage{msg: msg}
}

func (m *natsMessage) Subject() string {
	return m.msg.Subject
}

func (m *natsMessage) Data() []byte {
	return m.msg.Data
}

func (m *natsMessage) HasReply() bool {
	return m.msg.Reply != ""
}

func (m *natsMessage) Respond(data []byte) error {
	return m.msg.Respond(data)
}
