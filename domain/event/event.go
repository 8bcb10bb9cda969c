package event

import (
	"chat-dm/domain"
)

// DomainEvent is anything the delivery pipeline can hand to a sink.
// Target is the identity whose live sessions should receive it.
type DomainEvent interface {
	Target() domain.Identity
}

// MessageDelivered asks for Message to be pushed to To's live sessions.
type MessageDelivered struct {
	To      domain.Identity
	Message domain.Message
}

func (m MessageDelivered) Target() domain.Identity {
	return m.To
}
